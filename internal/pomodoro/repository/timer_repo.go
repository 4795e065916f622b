package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/studyhaven/studyhaven-backend/internal/pomodoro/domain"
)

const (
	timerKeyPrefix       = "pomodoro:timer:"  // pomodoro:timer:{user_id}
	timerChannelPrefix   = "pomodoro:events:" // pub/sub channel per user
	timerTTL             = 30 * 24 * time.Hour
	maxOptimisticRetries = 5
)

var ErrConcurrentUpdate = errors.New("timer changed concurrently")

// TimerRepository stores pomodoro timers in Redis.
type TimerRepository struct {
	client *redis.Client
}

func NewTimerRepository(client *redis.Client) *TimerRepository {
	return &TimerRepository{client: client}
}

// Update loads the user's timer (a fresh one if none is stored), applies fn
// and writes the result back inside a WATCH transaction. fn may run more
// than once when another request changes the timer in between.
func (r *TimerRepository) Update(ctx context.Context, userID string, fn func(*domain.Timer) error) (*domain.Timer, error) {
	key := timerKey(userID)
	var out *domain.Timer

	txf := func(tx *redis.Tx) error {
		t, err := load(ctx, tx, key, userID)
		if err != nil {
			return err
		}
		if err := fn(t); err != nil {
			return err
		}
		t.UpdatedAt = time.Now().UTC()
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to marshal timer: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, timerTTL)
			return nil
		})
		out = t
		return err
	}

	for i := 0; i < maxOptimisticRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, ErrConcurrentUpdate
}

// Publish notifies subscribers of the user's timer channel.
func (r *TimerRepository) Publish(ctx context.Context, t *domain.Timer) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, timerChannel(t.UserID), data).Err()
}

// Subscribe opens a pub/sub subscription on the user's timer channel.
func (r *TimerRepository) Subscribe(ctx context.Context, userID string) *redis.PubSub {
	return r.client.Subscribe(ctx, timerChannel(userID))
}

func load(ctx context.Context, tx *redis.Tx, key, userID string) (*domain.Timer, error) {
	data, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.NewTimer(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get timer: %w", err)
	}
	var t domain.Timer
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal timer: %w", err)
	}
	return &t, nil
}

func timerKey(userID string) string     { return timerKeyPrefix + userID }
func timerChannel(userID string) string { return timerChannelPrefix + userID }
