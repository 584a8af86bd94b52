package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/discochess/gamelens/internal/aggregate"
	"github.com/discochess/gamelens/internal/store"
)

// ErrNoID indicates a game summary without an ID.
var ErrNoID = errors.New("report: game summary has no id")

// GameKey returns the key a game summary is published under.
func GameKey(id string) string {
	return "reports/games/" + id + ".json"
}

// PlayerKey returns the key a player summary is published under.
func PlayerKey(username string) string {
	return "reports/players/" + url.PathEscape(username) + ".json"
}

// Publisher writes summaries to a store as JSON documents.
type Publisher struct {
	store  store.Store
	logger *zap.Logger
}

// NewPublisher creates a Publisher writing to st. A nil logger disables
// logging.
func NewPublisher(st store.Store, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{store: st, logger: logger.Named("publisher")}
}

// PublishGame stores g under GameKey and returns the key.
func (p *Publisher) PublishGame(ctx context.Context, g *aggregate.GameSummary) (string, error) {
	if g.ID == "" {
		return "", ErrNoID
	}
	key := GameKey(g.ID)
	if err := p.put(ctx, key, g); err != nil {
		return "", err
	}
	return key, nil
}

// PublishPlayer stores s under PlayerKey and returns the key.
func (p *Publisher) PublishPlayer(ctx context.Context, s *aggregate.PlayerSummary) (string, error) {
	key := PlayerKey(s.Username)
	if err := p.put(ctx, key, s); err != nil {
		return "", err
	}
	return key, nil
}

func (p *Publisher) put(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := p.store.Put(ctx, key, data); err != nil {
		return fmt.Errorf("publishing %s: %w", key, err)
	}
	p.logger.Debug("published", zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}
