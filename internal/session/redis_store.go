package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shopfront-dev/storefront/internal/domain"
)

// RedisStore keeps sessions in Redis as JSON documents with a TTL, plus a
// per-account set of tokens used for revocation.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore builds a store over an existing client.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "storefront"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) sessionKey(token string) string {
	return fmt.Sprintf("%s:sess:%s", s.prefix, token)
}

func (s *RedisStore) accountKey(accountID string) string {
	return fmt.Sprintf("%s:sess:acct:%s", s.prefix, accountID)
}

func (s *RedisStore) Get(ctx context.Context, token string) (*domain.Session, error) {
	val, err := s.client.Get(ctx, s.sessionKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var session domain.Session
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

func (s *RedisStore) Put(ctx context.Context, session *domain.Session, ttl time.Duration) error {
	session.ExpiresAt = time.Now().Add(ttl)
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.sessionKey(session.Token), payload, ttl)
		pipe.SAdd(ctx, s.accountKey(session.AccountID), session.Token)
		pipe.Expire(ctx, s.accountKey(session.AccountID), ttl)
		return nil
	})
	return err
}

// Replace uses SET XX so a session deleted by a concurrent logout or
// revocation is not written back.
func (s *RedisStore) Replace(ctx context.Context, session *domain.Session, ttl time.Duration) error {
	session.ExpiresAt = time.Now().Add(ttl)
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	err = s.client.SetArgs(ctx, s.sessionKey(session.Token), payload, redis.SetArgs{Mode: "XX", TTL: ttl}).Err()
	if errors.Is(err, redis.Nil) {
		return ErrSessionNotFound
	}
	if err != nil {
		return err
	}
	return s.client.Expire(ctx, s.accountKey(session.AccountID), ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	session, err := s.Get(ctx, token)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.sessionKey(token))
		pipe.SRem(ctx, s.accountKey(session.AccountID), token)
		return nil
	})
	return err
}

// Touch slides both the session and its account index so revocation keeps
// seeing long-lived sessions.
func (s *RedisStore) Touch(ctx context.Context, token string, ttl time.Duration) error {
	session, err := s.Get(ctx, token)
	if err != nil {
		return err
	}
	var refreshed *redis.BoolCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		refreshed = pipe.Expire(ctx, s.sessionKey(token), ttl)
		pipe.Expire(ctx, s.accountKey(session.AccountID), ttl)
		return nil
	})
	if err != nil {
		return err
	}
	if !refreshed.Val() {
		return ErrSessionNotFound
	}
	return nil
}

func (s *RedisStore) DeleteByAccount(ctx context.Context, accountID string) error {
	tokens, err := s.client.SMembers(ctx, s.accountKey(accountID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, s.sessionKey(token))
	}
	keys = append(keys, s.accountKey(accountID))
	return s.client.Del(ctx, keys...).Err()
}
