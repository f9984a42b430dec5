package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/warehousekit/contractd/internal/log"
	"github.com/warehousekit/contractd/internal/metrics"
)

// MemoryBus is an in-memory pub/sub with buffered per-subscriber channels.
// It provides at-least-once in-process delivery while publish contexts
// remain active; it is not durable.
type MemoryBus struct {
	mu   sync.RWMutex
	subs map[string][]*memSub
}

const (
	subscriberBuffer = 64
	dropLogEvery     = 100
)

var dropCount atomic.Uint64

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string][]*memSub)}
}

func publishDropReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "context_done"
	}
}

func (b *MemoryBus) Publish(ctx context.Context, topic string, msg Message) error {
	if ctx == nil {
		return fmt.Errorf("publish context is nil")
	}
	b.mu.RLock()
	subs := append([]*memSub(nil), b.subs[topic]...)
	b.mu.RUnlock()
	for _, sub := range subs {
		select {
		case sub.ch <- msg:
		case <-sub.done:
			// Subscriber shut down after the snapshot; nothing to deliver.
		case <-ctx.Done():
			reason := publishDropReason(ctx.Err())
			metrics.IncBusDrop(topic, reason)
			count := dropCount.Add(1)
			if count%dropLogEvery == 0 {
				logger := log.Base()
				logger.Warn().
					Str(log.FieldTopic, topic).
					Str("reason", reason).
					Uint64("dropped", count).
					Msg("memory bus failed to publish due to context cancellation")
			}
			return fmt.Errorf("publish topic %q: %w", topic, ctx.Err())
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, topic string) (Subscriber, error) {
	sub := &memSub{
		b:     b,
		topic: topic,
		ch:    make(chan Message, subscriberBuffer),
		done:  make(chan struct{}),
	}

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], sub)
	b.mu.Unlock()

	return sub, nil
}

type memSub struct {
	b     *MemoryBus
	topic string
	ch    chan Message
	done  chan struct{}
	once  sync.Once
}

func (s *memSub) C() <-chan Message {
	return s.ch
}

// Close detaches the subscriber and unblocks any publish waiting on its
// buffer. The delivery channel stays open: a publisher may still hold a
// snapshot containing this subscriber, so sends race shutdown and Publish
// observes done instead of a channel close.
func (s *memSub) Close() error {
	s.once.Do(func() {
		s.b.mu.Lock()
		lst := s.b.subs[s.topic]
		out := lst[:0]
		for _, c := range lst {
			if c != s {
				out = append(out, c)
			}
		}
		if len(out) == 0 {
			delete(s.b.subs, s.topic)
		} else {
			s.b.subs[s.topic] = out
		}
		s.b.mu.Unlock()
		close(s.done)
	})
	return nil
}

// Ensure compliance
var _ Bus = (*MemoryBus)(nil)
