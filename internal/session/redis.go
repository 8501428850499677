package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "history:session"

// Redis keeps editable ids as one Redis set per (session, type).
type Redis struct {
	client *red.Client
	prefix string
	ttl    time.Duration
}

// NewRedis constructs a Redis-backed store. ttl bounds how long a hold
// survives without being refreshed; zero keeps holds until released.
func NewRedis(client *red.Client, keyPrefix string, ttl time.Duration) *Redis {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

func (s *Redis) key(sessionID, typeAlias string) string {
	return s.prefix + ":" + sessionID + ":" + EditStateKey(typeAlias)
}

// Hold records that the session is editing itemID.
func (s *Redis) Hold(ctx context.Context, sessionID, typeAlias string, itemID int64) error {
	if sessionID == "" {
		return errors.New("session id is required")
	}
	k := s.key(sessionID, typeAlias)
	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, k, strconv.FormatInt(itemID, 10))
	if s.ttl > 0 {
		pipe.Expire(ctx, k, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis hold edit: %w", err)
	}
	return nil
}

// Release forgets itemID for the session.
func (s *Redis) Release(ctx context.Context, sessionID, typeAlias string, itemID int64) error {
	if err := s.client.SRem(ctx, s.key(sessionID, typeAlias), strconv.FormatInt(itemID, 10)).Err(); err != nil {
		return fmt.Errorf("redis release edit: %w", err)
	}
	return nil
}

// EditableIDs implements Store. Members that are not integers are skipped.
func (s *Redis) EditableIDs(ctx context.Context, sessionID, typeAlias string) ([]int64, error) {
	if sessionID == "" {
		return nil, nil
	}
	members, err := s.client.SMembers(ctx, s.key(sessionID, typeAlias)).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis editable ids: %w", err)
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
