package bus

import (
	"context"
	"errors"
	"sync"

	"github.com/aatumaykin/mailbot/internal/logger"
)

var (
	ErrQueueFull      = errors.New("queue is full")
	ErrAlreadyStarted = errors.New("message bus is already started")
	ErrNotStarted     = errors.New("message bus is not started")
)

// topic is one buffered stream fanned out to its subscribers.
type topic[T any] struct {
	name        string
	ch          chan T
	subscribers map[int64]chan T
}

func newTopic[T any](name string, capacity int) *topic[T] {
	return &topic[T]{
		name:        name,
		ch:          make(chan T, capacity),
		subscribers: make(map[int64]chan T),
	}
}

// MessageBus represents an asynchronous message queue for inbound messages,
// outbound replies and lifecycle events.
type MessageBus struct {
	mu       sync.RWMutex
	logger   *logger.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	wg       sync.WaitGroup
	capacity int

	inbound  *topic[InboundMessage]
	outbound *topic[OutboundMessage]
	events   *topic[Event]

	subscriberID int64
}

// New creates a new MessageBus with the specified capacity for every queue
func New(capacity int, log *logger.Logger) *MessageBus {
	if capacity <= 0 {
		capacity = 100
	}
	return &MessageBus{
		logger:   log,
		capacity: capacity,
	}
}

// Start starts the message bus goroutines
func (mb *MessageBus) Start(ctx context.Context) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	if mb.started {
		return ErrAlreadyStarted
	}

	mb.inbound = newTopic[InboundMessage]("inbound", mb.capacity)
	mb.outbound = newTopic[OutboundMessage]("outbound", mb.capacity)
	mb.events = newTopic[Event]("event", mb.capacity)

	mb.ctx, mb.cancel = context.WithCancel(ctx)
	mb.started = true

	mb.wg.Add(3)
	go distribute(mb.ctx, mb, mb.inbound)
	go distribute(mb.ctx, mb, mb.outbound)
	go distribute(mb.ctx, mb, mb.events)

	mb.logger.Info("message bus started", logger.Field{Key: "capacity", Value: mb.capacity})
	return nil
}

// Stop stops the message bus and closes all subscriber channels
func (mb *MessageBus) Stop() error {
	mb.mu.Lock()
	if !mb.started {
		mb.mu.Unlock()
		return ErrNotStarted
	}
	mb.started = false
	mb.cancel()
	mb.mu.Unlock()

	mb.logger.Info("stopping message bus")
	mb.wg.Wait()

	mb.mu.Lock()
	closeSubscribers(mb.inbound)
	closeSubscribers(mb.outbound)
	closeSubscribers(mb.events)
	mb.mu.Unlock()

	mb.logger.Info("message bus stopped")
	return nil
}

// PublishInbound publishes an inbound message to the queue
func (mb *MessageBus) PublishInbound(msg InboundMessage) error {
	return publish(mb, mb.inbound, msg,
		logger.Field{Key: "kind", Value: msg.Kind},
		logger.Field{Key: "user_id", Value: msg.UserID})
}

// PublishOutbound publishes an outbound message to the queue
func (mb *MessageBus) PublishOutbound(msg OutboundMessage) error {
	return publish(mb, mb.outbound, msg,
		logger.Field{Key: "chat_id", Value: msg.ChatID},
		logger.Field{Key: "user_id", Value: msg.UserID})
}

// PublishEvent publishes a lifecycle event
func (mb *MessageBus) PublishEvent(event Event) error {
	return publish(mb, mb.events, event,
		logger.Field{Key: "type", Value: event.Type},
		logger.Field{Key: "chat_id", Value: event.ChatID})
}

// SubscribeInbound subscribes to inbound messages. It returns nil when the
// bus is not started.
func (mb *MessageBus) SubscribeInbound(ctx context.Context) <-chan InboundMessage {
	return subscribe(ctx, mb, mb.inbound)
}

// SubscribeOutbound subscribes to outbound messages
func (mb *MessageBus) SubscribeOutbound(ctx context.Context) <-chan OutboundMessage {
	return subscribe(ctx, mb, mb.outbound)
}

// SubscribeEvent subscribes to lifecycle events
func (mb *MessageBus) SubscribeEvent(ctx context.Context) <-chan Event {
	return subscribe(ctx, mb, mb.events)
}

// IsStarted returns true if the message bus is started
func (mb *MessageBus) IsStarted() bool {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	return mb.started
}

func publish[T any](mb *MessageBus, t *topic[T], msg T, fields ...logger.Field) error {
	mb.mu.RLock()
	defer mb.mu.RUnlock()

	if !mb.started {
		return ErrNotStarted
	}

	select {
	case t.ch <- msg:
		mb.logger.DebugCtx(mb.ctx, t.name+" message published", fields...)
		return nil
	default:
		mb.logger.WarnCtx(mb.ctx, t.name+" queue full",
			logger.Field{Key: "capacity", Value: cap(t.ch)})
		return ErrQueueFull
	}
}

func subscribe[T any](ctx context.Context, mb *MessageBus, t *topic[T]) <-chan T {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	if !mb.started {
		return nil
	}

	ch := make(chan T, mb.capacity)
	mb.subscriberID++
	t.subscribers[mb.subscriberID] = ch

	mb.logger.DebugCtx(ctx, t.name+" subscriber added",
		logger.Field{Key: "subscriber_id", Value: mb.subscriberID})
	return ch
}

// distribute fans messages of t out to its subscribers until the bus stops.
// A full subscriber drops the message rather than blocking the others.
func distribute[T any](ctx context.Context, mb *MessageBus, t *topic[T]) {
	defer mb.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-t.ch:
			mb.mu.RLock()
			for _, ch := range t.subscribers {
				select {
				case ch <- msg:
				default:
					mb.logger.WarnCtx(ctx, t.name+" subscriber channel full, skipping message")
				}
			}
			mb.mu.RUnlock()
		}
	}
}

func closeSubscribers[T any](t *topic[T]) {
	for id, ch := range t.subscribers {
		close(ch)
		delete(t.subscribers, id)
	}
}
