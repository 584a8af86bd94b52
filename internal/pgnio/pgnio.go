// Package pgnio reads multi-game PGN streams.
package pgnio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/notnil/chess"
)

// Game results as they appear in the Result tag.
const (
	WhiteWins  = "1-0"
	BlackWins  = "0-1"
	Draw       = "1/2-1/2"
	Unfinished = "*"
)

// Sentinel errors wrapped by *ParseError.
var (
	// ErrMissingTag indicates a required header tag is absent.
	ErrMissingTag = errors.New("pgnio: missing required tag")

	// ErrBadResult indicates a Result tag that is not a PGN result.
	ErrBadResult = errors.New("pgnio: invalid result")
)

// requiredTags must be present in every game.
var requiredTags = []string{"White", "Black", "Result"}

// ParseError reports a game that could not be decoded. Reading continues
// with the next game.
type ParseError struct {
	// Index is the zero-based position of the game in the stream.
	Index int
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("pgnio: game %d: %v", e.Index, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Header holds the tags used by the analysis.
type Header struct {
	Event    string `json:"event,omitempty"`
	Site     string `json:"site,omitempty"`
	Date     string `json:"date,omitempty"`
	White    string `json:"white"`
	Black    string `json:"black"`
	Result   string `json:"result"`
	WhiteElo int    `json:"white_elo,omitempty"`
	BlackElo int    `json:"black_elo,omitempty"`
}

// Record is one game of a stream: either Game or Err is set.
type Record struct {
	Index  int
	Game   *chess.Game
	Header Header
	Err    *ParseError
}

// maxLine bounds a single PGN line.
const maxLine = 1024 * 1024

// Read splits r into games and calls fn for each, in order. A new game
// starts at a tag line that follows movetext. Read stops at the first error
// returned by fn, which it returns unchanged.
func Read(r io.Reader, fn func(Record) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLine)

	var text strings.Builder
	sawMoves := false
	index := 0

	flush := func() error {
		if strings.TrimSpace(text.String()) == "" {
			return nil
		}
		rec := decode(index, text.String())
		index++
		text.Reset()
		sawMoves = false
		return fn(rec)
	}

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "[") && sawMoves {
			if err := flush(); err != nil {
				return err
			}
		}
		if trimmed != "" && !strings.HasPrefix(trimmed, "[") && !strings.HasPrefix(trimmed, "%") {
			sawMoves = true
		}
		text.WriteString(line)
		text.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading PGN: %w", err)
	}
	return flush()
}

// ReadAll collects every record of r.
func ReadAll(r io.Reader) ([]Record, error) {
	var out []Record
	err := Read(r, func(rec Record) error {
		out = append(out, rec)
		return nil
	})
	return out, err
}

// Decode parses a single game.
func Decode(text string) (*chess.Game, Header, error) {
	rec := decode(0, text)
	if rec.Err != nil {
		return nil, Header{}, rec.Err.Err
	}
	return rec.Game, rec.Header, nil
}

func decode(index int, text string) Record {
	fail := func(err error) Record {
		return Record{Index: index, Err: &ParseError{Index: index, Err: err}}
	}

	opt, err := chess.PGN(strings.NewReader(text))
	if err != nil {
		return fail(err)
	}
	game := chess.NewGame(opt)

	for _, key := range requiredTags {
		if tag(game, key) == "" {
			return fail(fmt.Errorf("%w: %s", ErrMissingTag, key))
		}
	}
	h := HeaderOf(game)
	switch h.Result {
	case WhiteWins, BlackWins, Draw, Unfinished:
	default:
		return fail(fmt.Errorf("%w: %q", ErrBadResult, h.Result))
	}

	return Record{Index: index, Game: game, Header: h}
}

// HeaderOf reads the analysis tags of g.
func HeaderOf(g *chess.Game) Header {
	return Header{
		Event:    tag(g, "Event"),
		Site:     tag(g, "Site"),
		Date:     tag(g, "Date"),
		White:    tag(g, "White"),
		Black:    tag(g, "Black"),
		Result:   tag(g, "Result"),
		WhiteElo: elo(tag(g, "WhiteElo")),
		BlackElo: elo(tag(g, "BlackElo")),
	}
}

func tag(g *chess.Game, key string) string {
	if p := g.GetTagPair(key); p != nil {
		return strings.TrimSpace(p.Value)
	}
	return ""
}

// elo returns 0 for unrated ("?" or "-") players.
func elo(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// PlaysAs returns the color username plays in h. Names match
// case-insensitively.
func (h Header) PlaysAs(username string) (chess.Color, bool) {
	switch {
	case username == "":
		return chess.NoColor, false
	case strings.EqualFold(h.White, username):
		return chess.White, true
	case strings.EqualFold(h.Black, username):
		return chess.Black, true
	}
	return chess.NoColor, false
}

// Elo returns the rating of color c, or 0 when unrated.
func (h Header) Elo(c chess.Color) int {
	if c == chess.Black {
		return h.BlackElo
	}
	return h.WhiteElo
}

// Player returns the name playing color c.
func (h Header) Player(c chess.Color) string {
	if c == chess.Black {
		return h.Black
	}
	return h.White
}

// Winner returns the winning color, or chess.NoColor for a draw or an
// unfinished game.
func (h Header) Winner() chess.Color {
	switch h.Result {
	case WhiteWins:
		return chess.White
	case BlackWins:
		return chess.Black
	}
	return chess.NoColor
}

// IsDecided reports whether the result is a win, loss or draw.
func (h Header) IsDecided() bool {
	return h.Result != Unfinished
}
