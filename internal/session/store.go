package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/ticketbari-web/internal/model"
)

// Record is what a Store keeps per session id.
type Record struct {
	Principal *model.Principal
	Token     string
}

// Store persists session records between requests.
type Store interface {
	// Load returns the record for id.  ok is false when nothing (or only an
	// expired record) is stored.
	Load(ctx context.Context, id string) (rec Record, ok bool, err error)
	Save(ctx context.Context, id string, rec Record, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// ---- Redis ----

// RedisStore keeps one hash per session under "<prefix>:<id>" with fields
// principal (JSON) and token.  The hash expires with the session.
type RedisStore struct {
	rdb    *redis.Client
	Prefix string
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, Prefix: "session"}
}

func (s *RedisStore) key(id string) string { return s.Prefix + ":" + id }

func (s *RedisStore) Load(ctx context.Context, id string) (Record, bool, error) {
	fields, err := s.rdb.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return Record{}, false, fmt.Errorf("load session: %w", err)
	}
	raw, ok := fields["principal"]
	if !ok || raw == "" {
		return Record{}, false, nil
	}
	var p model.Principal
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Record{}, false, fmt.Errorf("decode session principal: %w", err)
	}
	return Record{Principal: &p, Token: fields["token"]}, true, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, rec Record, ttl time.Duration) error {
	if rec.Principal == nil || ttl <= 0 {
		return s.Delete(ctx, id)
	}
	bs, err := json.Marshal(rec.Principal)
	if err != nil {
		return err
	}
	key := s.key(id)
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		p.HSet(ctx, key, "principal", string(bs), "token", rec.Token)
		p.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// ---- in-process ----

type memEntry struct {
	rec     Record
	expires time.Time
}

// MemoryStore is a process-local Store for tests and Redis-less runs.
type MemoryStore struct {
	mu  sync.Mutex
	m   map[string]memEntry
	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: map[string]memEntry{}, now: time.Now}
}

func (s *MemoryStore) Load(_ context.Context, id string) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[id]
	if !ok {
		return Record{}, false, nil
	}
	if !s.now().Before(e.expires) {
		delete(s.m, id)
		return Record{}, false, nil
	}
	return e.rec, true, nil
}

func (s *MemoryStore) Save(_ context.Context, id string, rec Record, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.Principal == nil || ttl <= 0 {
		delete(s.m, id)
		return nil
	}
	s.m[id] = memEntry{rec: rec, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
	return nil
}
