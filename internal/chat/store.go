package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	transcriptKeyPrefix = "chat_transcript:"
	stageKeyPrefix      = "chat_stage:"
)

// RedisSessionStore persists chat transcripts and stage counters per
// session. Entries expire after the configured TTL so abandoned sessions
// clean themselves up.
type RedisSessionStore struct {
	redis       *redis.Client
	tracer      trace.Tracer
	ttl         time.Duration
	maxMessages int64
}

// NewRedisSessionStore creates a session store with the given TTL.
func NewRedisSessionStore(redisClient *redis.Client, ttl time.Duration) *RedisSessionStore {
	if redisClient == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisSessionStore{
		redis:       redisClient,
		tracer:      otel.Tracer("consulting.internal.chat.session"),
		ttl:         ttl,
		maxMessages: 200,
	}
}

// Append adds a message to the session transcript.
func (s *RedisSessionStore) Append(ctx context.Context, sessionID string, msg Message) error {
	if sessionID == "" {
		return errors.New("chat: session ID required")
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("chat: marshal transcript message: %w", err)
	}

	ctx, span := s.tracer.Start(ctx, "chat.session.append")
	defer span.End()

	key := transcriptKeyPrefix + sessionID
	pipe := s.redis.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, s.ttl)
	if s.maxMessages > 0 {
		pipe.LTrim(ctx, key, -s.maxMessages, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: append transcript message: %w", err)
	}
	return nil
}

// History returns the session transcript in order, newest last. limit <= 0
// returns everything retained.
func (s *RedisSessionStore) History(ctx context.Context, sessionID string, limit int64) ([]Message, error) {
	if sessionID == "" {
		return nil, errors.New("chat: session ID required")
	}

	ctx, span := s.tracer.Start(ctx, "chat.session.history")
	defer span.End()

	start := int64(0)
	if limit > 0 {
		start = -limit
	}

	raw, err := s.redis.LRange(ctx, transcriptKeyPrefix+sessionID, start, -1).Result()
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, redis.Nil) {
			return []Message{}, nil
		}
		return nil, fmt.Errorf("chat: list transcript: %w", err)
	}

	out := make([]Message, 0, len(raw))
	for _, item := range raw {
		var msg Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			span.RecordError(err)
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

// Stage returns the session's stage counter, defaulting to StageGreet.
func (s *RedisSessionStore) Stage(ctx context.Context, sessionID string) (Stage, error) {
	raw, err := s.redis.Get(ctx, stageKeyPrefix+sessionID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return StageGreet, nil
		}
		return StageGreet, fmt.Errorf("chat: load stage: %w", err)
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < int(StageGreet) || n > int(StageClosure) {
		return StageGreet, nil
	}
	return Stage(n), nil
}

// SetStage stores the session's stage counter.
func (s *RedisSessionStore) SetStage(ctx context.Context, sessionID string, stage Stage) error {
	if err := s.redis.Set(ctx, stageKeyPrefix+sessionID, int(stage), s.ttl).Err(); err != nil {
		return fmt.Errorf("chat: store stage: %w", err)
	}
	return nil
}

// Clear removes the session transcript and stage counter.
func (s *RedisSessionStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, transcriptKeyPrefix+sessionID, stageKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("chat: clear session: %w", err)
	}
	return nil
}
