package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/warehousekit/contractd/internal/bus"
	"github.com/warehousekit/contractd/internal/command"
	"github.com/warehousekit/contractd/internal/log"
	"github.com/warehousekit/contractd/internal/metrics"
)

const (
	dueKey     = "contractd:timeouts:due"     // ZSET token -> due unix milli
	payloadKey = "contractd:timeouts:payload" // HASH token -> correlation id
)

// Publisher is the slice of the bus the scheduler needs to deliver expiries.
type Publisher interface {
	Publish(ctx context.Context, topic string, msg bus.Message) error
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisScheduler stores pending timeouts in a Redis sorted set scored by
// due time. A poll loop claims due members and publishes TimeoutExpired
// events; claims go through ZREM so concurrent pollers never double-fire
// one token.
type RedisScheduler struct {
	client    *redis.Client
	publisher Publisher
	logger    zerolog.Logger
	clock     Clock
	poll      time.Duration
}

// NewRedisScheduler connects to Redis and returns the scheduler.
func NewRedisScheduler(cfg RedisConfig, publisher Publisher, poll time.Duration) (*RedisScheduler, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("scheduler: redis connection failed: %w", err)
	}

	logger := log.WithComponent("scheduler")
	logger.Info().Str("addr", cfg.Addr).Int("db", cfg.DB).Msg("connected to Redis timeout store")

	return &RedisScheduler{
		client:    client,
		publisher: publisher,
		logger:    logger,
		clock:     RealClock{},
		poll:      poll,
	}, nil
}

// newWithClient is the test seam: it skips the connection check and allows
// a fake clock.
func newWithClient(client *redis.Client, publisher Publisher, clock Clock, poll time.Duration) *RedisScheduler {
	return &RedisScheduler{
		client:    client,
		publisher: publisher,
		logger:    log.WithComponent("scheduler"),
		clock:     clock,
		poll:      poll,
	}
}

// ScheduleAfter registers a timeout for correlationID after delay.
func (s *RedisScheduler) ScheduleAfter(ctx context.Context, delay time.Duration, correlationID uuid.UUID) (uuid.UUID, error) {
	token := uuid.New()
	due := s.clock.Now().Add(delay).UnixMilli()

	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, dueKey, redis.Z{Score: float64(due), Member: token.String()})
	pipe.HSet(ctx, payloadKey, token.String(), correlationID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("scheduler: schedule token %s: %w", token, err)
	}

	metrics.IncTimeoutScheduled()
	s.logger.Debug().
		Str(log.FieldCorrelationID, correlationID.String()).
		Str(log.FieldTimeoutToken, token.String()).
		Dur("delay", delay).
		Msg("timeout scheduled")
	return token, nil
}

// Cancel removes the pending delivery for token. Unknown and already-fired
// tokens cancel to a no-op.
func (s *RedisScheduler) Cancel(ctx context.Context, token uuid.UUID) error {
	pipe := s.client.TxPipeline()
	removed := pipe.ZRem(ctx, dueKey, token.String())
	pipe.HDel(ctx, payloadKey, token.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("scheduler: cancel token %s: %w", token, err)
	}
	if removed.Val() > 0 {
		metrics.IncTimeoutCancelled()
	}
	return nil
}

// Run polls for due timeouts until ctx is cancelled. It belongs in its own
// goroutine.
func (s *RedisScheduler) Run(ctx context.Context) {
	s.logger.Info().Dur("poll", s.poll).Msg("timeout scheduler started")

	timer := s.clock.NewTimer(s.poll)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("timeout scheduler stopping")
			return
		case <-timer.C():
			if err := s.deliverDue(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error().Err(err).Msg("timeout delivery pass failed")
			}
			timer.Reset(s.poll)
		}
	}
}

// deliverDue claims every due token and publishes its expiry event.
func (s *RedisScheduler) deliverDue(ctx context.Context) error {
	now := s.clock.Now().UnixMilli()
	tokens, err := s.client.ZRangeByScore(ctx, dueKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now, 10),
	}).Result()
	if err != nil {
		return fmt.Errorf("scheduler: range due tokens: %w", err)
	}

	for _, raw := range tokens {
		claimed, err := s.client.ZRem(ctx, dueKey, raw).Result()
		if err != nil {
			return fmt.Errorf("scheduler: claim token %s: %w", raw, err)
		}
		if claimed == 0 {
			continue // another poller took it, or it was cancelled
		}

		corrRaw, err := s.client.HGet(ctx, payloadKey, raw).Result()
		if err != nil {
			s.logger.Warn().Err(err).Str(log.FieldTimeoutToken, raw).Msg("claimed token has no payload, dropping")
			continue
		}
		_ = s.client.HDel(ctx, payloadKey, raw).Err()

		token, err := uuid.Parse(raw)
		if err != nil {
			s.logger.Warn().Err(err).Str(log.FieldTimeoutToken, raw).Msg("malformed token in due set, dropping")
			continue
		}
		correlationID, err := uuid.Parse(corrRaw)
		if err != nil {
			s.logger.Warn().Err(err).Str(log.FieldTimeoutToken, raw).Msg("malformed correlation id in payload, dropping")
			continue
		}

		ev := command.TimeoutExpired{CorrelationID: correlationID, Token: token}
		if err := s.publisher.Publish(ctx, bus.TopicTimeouts, ev); err != nil {
			// Reschedule immediately so the expiry is not lost.
			s.client.ZAdd(ctx, dueKey, redis.Z{Score: float64(now), Member: raw})
			s.client.HSet(ctx, payloadKey, raw, corrRaw)
			return fmt.Errorf("scheduler: publish expiry for %s: %w", correlationID, err)
		}

		metrics.IncTimeoutFired()
		s.logger.Info().
			Str(log.FieldCorrelationID, correlationID.String()).
			Str(log.FieldTimeoutToken, token.String()).
			Msg("inactivity timeout fired")
	}
	return nil
}

// Close releases the Redis connection.
func (s *RedisScheduler) Close() error {
	return s.client.Close()
}

var _ Scheduler = (*RedisScheduler)(nil)
