package runtime

import (
	"log/slog"
	"sync"

	"gamehub/contract"
)

// Bus is a minimal in-process publish/subscribe fan-out. Delivery is
// synchronous, on the caller's goroutine, in subscriber registration order:
// the bus decouples the registry from its consumers without introducing any
// concurrency of its own. A panic inside one subscriber is recovered and
// logged; the remaining subscribers still receive the event.
type Bus struct {
	mu          sync.RWMutex
	subscribers []contract.Subscriber
	log         *slog.Logger
}

func NewBus(log *slog.Logger) *Bus {
	return &Bus{log: log}
}

func (b *Bus) Subscribe(s contract.Subscriber) {
	if s == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, s)
}

func (b *Bus) Unsubscribe(s contract.Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subscribers {
		if sub == s {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			return
		}
	}
}

func (b *Bus) PublishConnected(userID string) {
	b.fanout("connected", func(s contract.Subscriber) { s.OnConnected(userID) })
}

func (b *Bus) PublishDisconnected(userID string) {
	b.fanout("disconnected", func(s contract.Subscriber) { s.OnDisconnected(userID) })
}

func (b *Bus) PublishMessage(userID string, payload []byte) {
	b.fanout("message", func(s contract.Subscriber) { s.OnMessage(userID, payload) })
}

func (b *Bus) fanout(kind string, deliver func(contract.Subscriber)) {
	b.mu.RLock()
	subscribers := make([]contract.Subscriber, len(b.subscribers))
	copy(subscribers, b.subscribers)
	b.mu.RUnlock()

	for _, s := range subscribers {
		b.deliverSafely(kind, s, deliver)
	}
}

// deliverSafely invokes one subscriber callback under a recover so a faulty
// subscriber cannot starve the ones registered after it.
func (b *Bus) deliverSafely(kind string, s contract.Subscriber, deliver func(contract.Subscriber)) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("Subscriber panicked during event delivery", "event", kind, "panic", r)
		}
	}()
	deliver(s)
}
