package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	redisclient "scannimart/pkg/redis"

	"github.com/redis/go-redis/v9"
)

// SessionStore keeps gate sessions between the agent's requests.
type SessionStore interface {
	Save(ctx context.Context, session *VerificationSession) error
	Load(ctx context.Context, id string) (*VerificationSession, error)
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

// NewMemorySessionStore is for single-replica deployments and tests.
// Sessions are stored serialized so callers never share a live value.
func NewMemorySessionStore(ttl time.Duration) SessionStore {
	return &memorySessionStore{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *memorySessionStore) Save(_ context.Context, session *VerificationSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = memoryEntry{data: data, expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *memorySessionStore) Load(_ context.Context, id string) (*VerificationSession, error) {
	m.mu.Lock()
	entry, ok := m.sessions[id]
	if ok && m.ttl > 0 && m.now().After(entry.expiresAt) {
		delete(m.sessions, id)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	var session VerificationSession
	if err := json.Unmarshal(entry.data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (m *memorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

type redisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore shares sessions across API replicas. Every save
// refreshes the TTL.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) SessionStore {
	return &redisSessionStore{client: client, ttl: ttl}
}

func (r *redisSessionStore) Save(ctx context.Context, session *VerificationSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redisclient.SessionKey(session.ID), data, r.ttl).Err()
}

func (r *redisSessionStore) Load(ctx context.Context, id string) (*VerificationSession, error) {
	data, err := r.client.Get(ctx, redisclient.SessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var session VerificationSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *redisSessionStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, redisclient.SessionKey(id)).Err()
}
