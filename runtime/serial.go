package runtime

import (
	"log/slog"
	"sync"
	"time"

	"gamehub/contract"
	"gamehub/errors"
	"gamehub/observability"
)

type eventKind string

const (
	eventConnected    eventKind = "connected"
	eventDisconnected eventKind = "disconnected"
	eventMessage      eventKind = "message"
)

type gameEvent struct {
	kind    eventKind
	userID  string
	payload []byte
}

// SerialGame wraps a game so its events execute one at a time, in submission
// order, on a single dedicated worker goroutine, no matter how many
// goroutines deliver them. This is what lets game logic stay lock-free.
//
// Enqueuing never blocks the caller: the queue is bounded and a full queue
// rejects the event with a logged warning (back-pressure by shedding).
// A panic while executing one event is logged and isolated; the worker keeps
// draining subsequent events.
type SerialGame struct {
	id       string
	delegate contract.Game
	queue    chan gameEvent
	done     chan struct{}
	killed   chan struct{}
	killOnce sync.Once

	mu     sync.Mutex
	closed bool

	log     *slog.Logger
	metrics *observability.Metrics
}

func NewSerialGame(id string, delegate contract.Game, queueSize int, log *slog.Logger, metrics *observability.Metrics) *SerialGame {
	if queueSize <= 0 {
		queueSize = 256
	}
	g := &SerialGame{
		id:       id,
		delegate: delegate,
		queue:    make(chan gameEvent, queueSize),
		done:     make(chan struct{}),
		killed:   make(chan struct{}),
		log:      log,
		metrics:  metrics,
	}
	go g.run()
	return g
}

func (g *SerialGame) ID() string { return g.id }

func (g *SerialGame) Connected(userID string) {
	g.enqueue(gameEvent{kind: eventConnected, userID: userID})
}

func (g *SerialGame) Disconnected(userID string) {
	g.enqueue(gameEvent{kind: eventDisconnected, userID: userID})
}

func (g *SerialGame) Message(userID string, payload []byte) {
	g.enqueue(gameEvent{kind: eventMessage, userID: userID, payload: payload})
}

func (g *SerialGame) enqueue(evt gameEvent) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		g.metrics.IncrDroppedEvents()
		g.log.Debug("Event dropped", "game", g.id, "kind", evt.kind, "error", errors.ErrInstanceStopped)
		return
	}
	select {
	case g.queue <- evt:
	default:
		g.metrics.IncrDroppedEvents()
		g.log.Warn("Event dropped", "game", g.id, "kind", evt.kind, "user", evt.userID, "error", errors.ErrQueueFull)
	}
}

// Shutdown stops accepting new events, drains what is already queued and
// waits up to timeout for the worker to finish. Returns false when the
// worker did not finish in time.
func (g *SerialGame) Shutdown(timeout time.Duration) bool {
	g.mu.Lock()
	if !g.closed {
		g.closed = true
		close(g.queue)
	}
	g.mu.Unlock()

	select {
	case <-g.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Kill abandons any queued events and terminates the worker as soon as the
// in-flight event (if any) returns.
func (g *SerialGame) Kill() {
	g.mu.Lock()
	if !g.closed {
		g.closed = true
		close(g.queue)
	}
	g.mu.Unlock()
	g.killOnce.Do(func() { close(g.killed) })
}

func (g *SerialGame) run() {
	defer close(g.done)
	for {
		select {
		case <-g.killed:
			return
		case evt, ok := <-g.queue:
			if !ok {
				return
			}
			// A closed queue still holds buffered events, so the outer
			// select can keep picking this case after Kill. Re-check so a
			// killed instance abandons queued work instead of draining it.
			select {
			case <-g.killed:
				return
			default:
			}
			g.execute(evt)
		}
	}
}

// execute runs one event on the delegate with per-event fault isolation.
func (g *SerialGame) execute(evt gameEvent) {
	defer func() {
		if r := recover(); r != nil {
			g.metrics.IncrInstanceFaults()
			g.log.Error("Game event handler panicked",
				"game", g.id, "kind", evt.kind, "user", evt.userID, "panic", r)
		}
	}()

	switch evt.kind {
	case eventConnected:
		g.delegate.HandleConnected(evt.userID)
	case eventDisconnected:
		g.delegate.HandleDisconnected(evt.userID)
	case eventMessage:
		g.delegate.HandleMessage(evt.userID, evt.payload)
	}
}
