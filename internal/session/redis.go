package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore keeps each session as a string key holding the member id,
// with the TTL enforced by Redis. A per-member set indexes the session ids
// so withdraw can end all of a member's sessions at once.
//
//	hometender:session:<id>             → "<memberID>"  (EX ttl)
//	hometender:member:<memberID>:sessions → {id, id, ...}
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to addr and verifies the connection with PING.
func NewRedisStore(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("session: connecting to redis at %s: %w", addr, err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl, prefix: "hometender:"}, nil
}

func (s *RedisStore) sessionKey(id string) string {
	return s.prefix + "session:" + id
}

func (s *RedisStore) memberKey(memberID int64) string {
	return s.prefix + "member:" + strconv.FormatInt(memberID, 10) + ":sessions"
}

func (s *RedisStore) Create(ctx context.Context, memberID int64) (string, error) {
	id := newID()

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.sessionKey(id), memberID, s.ttl)
		pipe.SAdd(ctx, s.memberKey(memberID), id)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("session: creating session: %w", err)
	}
	return id, nil
}

// MemberID reads the session and extends its TTL in one round trip.
func (s *RedisStore) MemberID(ctx context.Context, id string) (int64, error) {
	memberID, err := s.client.GetEx(ctx, s.sessionKey(id), s.ttl).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("session: reading session: %w", err)
	}
	return memberID, nil
}

// Delete removes the session key. The id may linger in the member index
// until DeleteByMember; a dangling id there points at nothing.
func (s *RedisStore) Delete(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Del(ctx, s.sessionKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("session: deleting session: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) DeleteByMember(ctx context.Context, memberID int64) error {
	ids, err := s.client.SMembers(ctx, s.memberKey(memberID)).Result()
	if err != nil {
		return fmt.Errorf("session: listing sessions of member %d: %w", memberID, err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, s.sessionKey(id))
	}
	keys = append(keys, s.memberKey(memberID))

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("session: deleting sessions of member %d: %w", memberID, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
