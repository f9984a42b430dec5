// Package bus is the in-process message transport between the HTTP layer,
// the command consumer and the saga orchestrator. One consumer goroutine
// per topic keeps delivery ordered, which serializes all events of one
// correlation id.
package bus

import "context"

// Topics used by the contract service.
const (
	TopicCommands = "contracts.commands"
	TopicTimeouts = "contracts.timeouts"
)

// Message is an opaque payload; consumers type-switch on the concrete
// command or event structs.
type Message interface{}

// Bus is a topic-based publish/subscribe transport.
type Bus interface {
	Publish(ctx context.Context, topic string, msg Message) error
	Subscribe(ctx context.Context, topic string) (Subscriber, error)
}

// Subscriber is one subscription's receiving end. The delivery channel is
// never closed; consumers stop through their context, and Close stops
// further deliveries.
type Subscriber interface {
	C() <-chan Message
	Close() error
}
