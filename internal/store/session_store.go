// Package store persists exam session checkpoints in Redis. A checkpoint
// is the full session snapshot serialized as JSON, so a session survives
// process restarts and can be resumed from exactly where it left off.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quantprep/backend/internal/config"
	"github.com/quantprep/backend/internal/model"
)

// ErrNotFound is returned when no checkpoint exists for a session.
var ErrNotFound = errors.New("session snapshot not found")

// SessionStore reads and writes session snapshots keyed by session ID.
type SessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSessionStore creates a SessionStore. A zero ttl means checkpoints
// never expire on their own.
func NewSessionStore(rdb *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{rdb: rdb, ttl: ttl}
}

// Save overwrites the checkpoint for snap's session.
func (s *SessionStore) Save(ctx context.Context, snap *model.SessionSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	key := config.CacheKey.ExamSessionKey(snap.SessionID)
	if err := s.rdb.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load returns the checkpoint for sessionID, or ErrNotFound if none exists.
// A corrupt payload is treated as missing after clearing the bad entry, so
// one bad write can never wedge a session permanently.
func (s *SessionStore) Load(ctx context.Context, sessionID string) (*model.SessionSnapshot, error) {
	key := config.CacheKey.ExamSessionKey(sessionID)
	payload, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var snap model.SessionSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		_ = s.rdb.Del(ctx, key)
		return nil, ErrNotFound
	}
	return &snap, nil
}

// Clear removes the checkpoint for sessionID. Clearing a session that has
// no checkpoint is not an error.
func (s *SessionStore) Clear(ctx context.Context, sessionID string) error {
	key := config.CacheKey.ExamSessionKey(sessionID)
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}
