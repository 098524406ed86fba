// Package store keeps a snapshot of the board in Redis so a restarted daemon
// resumes the same position, and republishes events on a Redis channel.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/reedboard/internal/obslog"
	"github.com/park285/reedboard/pkg/boarddto"
)

const DefaultTTL = 24 * time.Hour

// Snapshot is the resumable part of the board.
type Snapshot struct {
	FEN       string    `json:"fen"`
	Mode      string    `json:"mode"`
	LastMove  string    `json:"last_move,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Store struct {
	rdb     *redis.Client
	boardID string
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// Open connects to redisURL (redis:// or rediss://) and pings it.
func Open(ctx context.Context, redisURL, boardID string, ttl time.Duration, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, errors.New("REDIS_URL required for snapshot store")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return New(rdb, boardID, ttl, logger), nil
}

func New(rdb *redis.Client, boardID string, ttl time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = obslog.L()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if strings.TrimSpace(boardID) == "" {
		boardID = "default"
	}
	return &Store{rdb: rdb, boardID: strings.TrimSpace(boardID), ttl: ttl, logger: logger, now: time.Now}
}

func (s *Store) keySnapshot() string { return "board:" + s.boardID + ":snapshot" }

// Channel is the Redis pub/sub channel carrying events.
func (s *Store) Channel() string { return "board:" + s.boardID + ":events" }

func (s *Store) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func (s *Store) Save(ctx context.Context, snap Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.keySnapshot(), raw, s.ttl).Err()
}

// Load returns nil, nil when no snapshot exists.
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	raw, err := s.rdb.Get(ctx, s.keySnapshot()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

func (s *Store) PublishEvent(ctx context.Context, ev boarddto.Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.rdb.Publish(ctx, s.Channel(), raw).Err()
}

// Apply folds ev into snap and reports whether the snapshot changed.
func Apply(snap *Snapshot, ev boarddto.Event) bool {
	switch ev.Type {
	case boarddto.EventMove:
		snap.FEN = ev.FEN
		snap.LastMove = ev.From + ev.To
	case boarddto.EventPosition:
		snap.FEN = ev.FEN
		snap.LastMove = ""
	case boarddto.EventMode:
		snap.Mode = ev.Mode
	default:
		return false
	}
	return true
}

// Run saves the snapshot after every event that changes it and publishes
// every event, until events closes or ctx is cancelled. Redis errors are
// logged, never fatal.
func (s *Store) Run(ctx context.Context, snap Snapshot, events <-chan boarddto.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := s.PublishEvent(ctx, ev); err != nil && ctx.Err() == nil {
				s.logger.Warn("store_publish_failed", zap.String("event", ev.Type), zap.Error(err))
			}
			if !Apply(&snap, ev) {
				continue
			}
			snap.UpdatedAt = s.now().UTC()
			if err := s.Save(ctx, snap); err != nil && ctx.Err() == nil {
				s.logger.Warn("store_save_failed", zap.Error(err))
			}
		}
	}
}
