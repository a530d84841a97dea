package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Naoya-Yasuda/hera-ai-family-simulator/core"
)

// RedisStore keeps each session in two keys:
//
//	{prefix}:{id}:meta   session metadata as JSON
//	{prefix}:{id}:turns  append-only list of JSON turn records
//
// Turn appends RPUSH onto the list inside a pipeline, so the log stays
// gap-free. A per-session local lock serializes writers within this
// process; cross-process writers are out of scope for now.
type RedisStore struct {
	client redis.UniversalClient
	prefix string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

type redisMeta struct {
	ID      string            `json:"id"`
	Profile core.UserProfile  `json:"profile"`
	Roster  []core.Persona    `json:"roster"`
	State   core.SessionState `json:"state"`
	Created time.Time         `json:"created"`
}

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	// Prefix namespaces all keys. Defaults to "famsim".
	Prefix string
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client redis.UniversalClient, optFns ...func(o *RedisOptions)) *RedisStore {
	opts := RedisOptions{Prefix: "famsim"}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &RedisStore{
		client: client,
		prefix: opts.Prefix,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (s *RedisStore) metaKey(id string) string  { return fmt.Sprintf("%s:%s:meta", s.prefix, id) }
func (s *RedisStore) turnsKey(id string) string { return fmt.Sprintf("%s:%s:turns", s.prefix, id) }

func (s *RedisStore) lock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// Create implements Store.
func (s *RedisStore) Create(profile core.UserProfile, roster []core.Persona) (string, error) {
	id := core.NewID()
	sess := core.NewSession(id, profile, roster)
	meta := redisMeta{ID: id, Profile: profile, Roster: sess.Personas(), State: core.SessionOpen, Created: sess.Created}
	if err := s.writeMeta(context.Background(), meta); err != nil {
		return "", err
	}
	return id, nil
}

// Append implements Store.
func (s *RedisStore) Append(sessionID string, batch []core.ConversationTurn, emotions map[string]core.EmotionState) (core.SeqRange, error) {
	l := s.lock(sessionID)
	l.Lock()
	defer l.Unlock()

	ctx := context.Background()
	meta, err := s.readMeta(ctx, sessionID)
	if err != nil {
		return core.SeqRange{}, err
	}
	if meta.State == core.SessionClosed {
		return core.SeqRange{}, core.ErrSessionClosed
	}

	length, err := s.client.LLen(ctx, s.turnsKey(sessionID)).Result()
	if err != nil {
		return core.SeqRange{}, fmt.Errorf("%w: %v", core.ErrStoreWriteConflict, err)
	}

	next := int(length) + 1
	values := make([]interface{}, len(batch))
	for i, t := range batch {
		t.Seq = next + i
		raw, err := json.Marshal(t)
		if err != nil {
			return core.SeqRange{}, fmt.Errorf("encode turn: %w", err)
		}
		values[i] = raw
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.turnsKey(sessionID), values...)
	if _, err := pipe.Exec(ctx); err != nil {
		return core.SeqRange{}, fmt.Errorf("%w: %v", core.ErrStoreWriteConflict, err)
	}
	return core.SeqRange{First: next, Last: next + len(batch) - 1}, nil
}

// Load implements Store.
func (s *RedisStore) Load(sessionID string) (*core.Session, error) {
	ctx := context.Background()
	meta, err := s.readMeta(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	items, err := s.client.LRange(ctx, s.turnsKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read turn log: %w", err)
	}
	turns := make([]core.ConversationTurn, 0, len(items))
	for _, raw := range items {
		var t core.ConversationTurn
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return nil, fmt.Errorf("decode turn log: %w", err)
		}
		turns = append(turns, t)
	}
	replayEmotions(meta.Roster, turns)

	sess := core.NewSession(meta.ID, meta.Profile, meta.Roster)
	sess.Created = meta.Created
	if len(turns) > 0 {
		sess.AppendTurns(turns, nil)
	}
	if meta.State == core.SessionClosed {
		sess.MarkClosed()
	}
	return sess, nil
}

// Close implements Store.
func (s *RedisStore) Close(sessionID string) error {
	l := s.lock(sessionID)
	l.Lock()
	defer l.Unlock()

	ctx := context.Background()
	meta, err := s.readMeta(ctx, sessionID)
	if err != nil {
		return err
	}
	meta.State = core.SessionClosed
	return s.writeMeta(ctx, meta)
}

func (s *RedisStore) readMeta(ctx context.Context, sessionID string) (redisMeta, error) {
	raw, err := s.client.Get(ctx, s.metaKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return redisMeta{}, core.ErrSessionNotFound
	}
	if err != nil {
		return redisMeta{}, fmt.Errorf("read session meta: %w", err)
	}
	var meta redisMeta
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return redisMeta{}, fmt.Errorf("decode session meta: %w", err)
	}
	return meta, nil
}

func (s *RedisStore) writeMeta(ctx context.Context, meta redisMeta) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode session meta: %w", err)
	}
	if err := s.client.Set(ctx, s.metaKey(meta.ID), raw, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreWriteConflict, err)
	}
	return nil
}
