package database

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"commerce-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

// Transcript keeps the chat history of each session.
type Transcript interface {
	Append(ctx context.Context, sessionID string, turns ...models.Turn) error
	// History returns the last limit turns, oldest first. limit <= 0 returns all.
	History(ctx context.Context, sessionID string, limit int) ([]models.Turn, error)
	Reset(ctx context.Context, sessionID string) error
}

type MemoryTranscript struct {
	mu       sync.Mutex
	sessions map[string][]models.Turn
}

func NewMemoryTranscript() *MemoryTranscript {
	return &MemoryTranscript{sessions: make(map[string][]models.Turn)}
}

func (m *MemoryTranscript) Append(_ context.Context, sessionID string, turns ...models.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = append(m.sessions[sessionID], turns...)
	return nil
}

func (m *MemoryTranscript) History(_ context.Context, sessionID string, limit int) ([]models.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	turns := m.sessions[sessionID]
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	out := make([]models.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

func (m *MemoryTranscript) Reset(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

const transcriptKeyPrefix = "chat:transcript:"

// RedisTranscript stores each session as a list of JSON turns that expires
// ttl after the last append.
type RedisTranscript struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisTranscript(client *redis.Client, ttl time.Duration) *RedisTranscript {
	return &RedisTranscript{client: client, ttl: ttl}
}

func transcriptKey(sessionID string) string {
	return transcriptKeyPrefix + sessionID
}

func (r *RedisTranscript) Append(ctx context.Context, sessionID string, turns ...models.Turn) error {
	if len(turns) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(turns))
	for _, turn := range turns {
		data, err := json.Marshal(turn)
		if err != nil {
			return fmt.Errorf("encode turn: %w", err)
		}
		values = append(values, string(data))
	}

	key := transcriptKey(sessionID)
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, values...)
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("append transcript: %w", err)
	}
	return nil
}

func (r *RedisTranscript) History(ctx context.Context, sessionID string, limit int) ([]models.Turn, error) {
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}

	raw, err := r.client.LRange(ctx, transcriptKey(sessionID), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}

	turns := make([]models.Turn, 0, len(raw))
	for _, item := range raw {
		var turn models.Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			continue
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func (r *RedisTranscript) Reset(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, transcriptKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("reset transcript: %w", err)
	}
	return nil
}
