// Package aggression tags the tactical character of a move and scores it.
package aggression

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/discochess/gamelens/internal/config"
)

// Tag is one tactical property a move may have.
type Tag uint8

// Tags in scoring order.
const (
	Capture Tag = 1 << iota
	Recapture
	Sacrifice
	Check
	Center
	Promotion
	CenterAttack
)

// AllTags lists every tag in a stable order.
var AllTags = []Tag{Capture, Recapture, Sacrifice, Check, Center, Promotion, CenterAttack}

// Weight returns the contribution of the tag to a move's score.
func (t Tag) Weight() float64 {
	switch t {
	case Capture:
		return 1.0
	case Recapture:
		return 0.2
	case Sacrifice:
		return 3.0
	case Check:
		return 1.5
	case Center:
		return 1.5
	case Promotion:
		return 3.0
	case CenterAttack:
		return 0.3
	default:
		return 0
	}
}

// String returns the snake_case tag name.
func (t Tag) String() string {
	switch t {
	case Capture:
		return "capture"
	case Recapture:
		return "recapture"
	case Sacrifice:
		return "sacrifice"
	case Check:
		return "check"
	case Center:
		return "center"
	case Promotion:
		return "promotion"
	case CenterAttack:
		return "center_attack"
	default:
		return fmt.Sprintf("tag(%d)", uint8(t))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Tag) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Tags is a set of tags.
type Tags uint8

// Has reports whether t is in the set.
func (s Tags) Has(t Tag) bool {
	return s&Tags(t) != 0
}

// With returns the set with t added.
func (s Tags) With(t Tag) Tags {
	return s | Tags(t)
}

// List returns the tags in the set in AllTags order.
func (s Tags) List() []Tag {
	var out []Tag
	for _, t := range AllTags {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

func (s Tags) String() string {
	if s == 0 {
		return "none"
	}
	names := make([]string, 0, len(AllTags))
	for _, t := range s.List() {
		names = append(names, t.String())
	}
	return strings.Join(names, "|")
}

// MarshalJSON encodes the set as a list of tag names.
func (s Tags) MarshalJSON() ([]byte, error) {
	list := s.List()
	if list == nil {
		list = []Tag{}
	}
	return json.Marshal(list)
}

// Score returns the aggression score of a tag set under the recapture policy.
// With config.RecaptureAdd the score is the sum of every tag's weight. With
// config.RecaptureSupersede a recapture is worth its own weight instead of
// the capture weight.
func Score(tags Tags, policy string) float64 {
	var total float64
	for _, t := range AllTags {
		if !tags.Has(t) {
			continue
		}
		if t == Capture && tags.Has(Recapture) && policy == config.RecaptureSupersede {
			continue
		}
		total += t.Weight()
	}
	return total
}
