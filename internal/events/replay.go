package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ReplayStore persists recent per-user events so reconnect replay
// survives a process restart.
type ReplayStore interface {
	Append(ctx context.Context, ev Event) error
	Since(ctx context.Context, userID uuid.UUID, afterSeq uint64) ([]Event, error)
	LastSeq(ctx context.Context, userID uuid.UUID) (uint64, error)
	Close() error
}

// RedisReplay keeps a capped list of serialized events per user. When
// Redis is unreachable the store degrades to a no-op: the broker's
// in-memory ring still serves replay within the process lifetime.
type RedisReplay struct {
	client *redis.Client
	logger *log.Logger
	keep   int64

	warnedUnavailable atomic.Bool
}

func NewRedisReplay(logger *log.Logger, keep int) *RedisReplay {
	if logger == nil {
		logger = log.Default()
	}
	if keep <= 0 {
		keep = DefaultReplayDepth
	}

	host := strings.TrimSpace(os.Getenv("REDIS_HOST"))
	if host == "" {
		host = "localhost"
	}
	port := strings.TrimSpace(os.Getenv("REDIS_PORT"))
	if port == "" {
		port = "6379"
	}
	pass := strings.TrimSpace(os.Getenv("REDIS_PASSWORD"))

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: pass,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Printf("[Events] Redis unavailable, replay limited to in-memory ring: %v", err)
		_ = client.Close()
		return &RedisReplay{client: nil, logger: logger, keep: int64(keep)}
	}

	return &RedisReplay{client: client, logger: logger, keep: int64(keep)}
}

func (r *RedisReplay) isUnavailable() bool {
	return r == nil || r.client == nil
}

func (r *RedisReplay) warnUnavailableOnce(err error) {
	if r == nil || r.logger == nil {
		return
	}
	if r.warnedUnavailable.CompareAndSwap(false, true) {
		r.logger.Printf("[Events] Redis unavailable, replay limited to in-memory ring: %v", err)
	}
}

func (r *RedisReplay) key(userID uuid.UUID) string {
	return "events:" + userID.String()
}

func (r *RedisReplay) Append(ctx context.Context, ev Event) error {
	if r.isUnavailable() {
		return nil
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, r.key(ev.UserID), raw)
	pipe.LTrim(ctx, r.key(ev.UserID), -r.keep, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		r.warnUnavailableOnce(err)
		return err
	}
	return nil
}

func (r *RedisReplay) Since(ctx context.Context, userID uuid.UUID, afterSeq uint64) ([]Event, error) {
	if r.isUnavailable() {
		return nil, nil
	}
	raws, err := r.client.LRange(ctx, r.key(userID), 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		r.warnUnavailableOnce(err)
		return nil, err
	}

	out := make([]Event, 0, len(raws))
	for _, raw := range raws {
		var ev Event
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			continue
		}
		if ev.Seq > afterSeq {
			out = append(out, ev)
		}
	}
	sortEvents(out)
	return out, nil
}

func (r *RedisReplay) LastSeq(ctx context.Context, userID uuid.UUID) (uint64, error) {
	if r.isUnavailable() {
		return 0, nil
	}
	raw, err := r.client.LIndex(ctx, r.key(userID), -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		r.warnUnavailableOnce(err)
		return 0, err
	}
	var ev Event
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		return 0, err
	}
	return ev.Seq, nil
}

func (r *RedisReplay) Close() error {
	if r.isUnavailable() {
		return nil
	}
	return r.client.Close()
}
