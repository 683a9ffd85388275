package runtime

import (
	"io"
	"log/slog"
	"sync"

	"gamehub/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeConn records everything sent to it; flip failing to simulate a dead
// transport.
type fakeConn struct {
	mu      sync.Mutex
	sent    [][]byte
	failing bool
}

func (c *fakeConn) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return errors.ErrConnectionClosed
	}
	c.sent = append(c.sent, append([]byte(nil), payload...))
	return nil
}

func (c *fakeConn) sentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func (c *fakeConn) lastSent() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		return nil
	}
	return c.sent[len(c.sent)-1]
}

// recordingSubscriber keeps the event stream in arrival order.
type recordingSubscriber struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingSubscriber) OnConnected(userID string) {
	r.record("connected:" + userID)
}

func (r *recordingSubscriber) OnDisconnected(userID string) {
	r.record("disconnected:" + userID)
}

func (r *recordingSubscriber) OnMessage(userID string, payload []byte) {
	r.record("message:" + userID + ":" + string(payload))
}

func (r *recordingSubscriber) record(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingSubscriber) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// recordingGame is a contract.Game that records its event stream; it may be
// driven from a serial worker goroutine, hence the lock.
type recordingGame struct {
	mu     sync.Mutex
	events []string
	onAny  func(event string)
}

func (g *recordingGame) HandleConnected(userID string) {
	g.record("connected:" + userID)
}

func (g *recordingGame) HandleDisconnected(userID string) {
	g.record("disconnected:" + userID)
}

func (g *recordingGame) HandleMessage(userID string, payload []byte) {
	g.record("message:" + userID + ":" + string(payload))
}

func (g *recordingGame) record(event string) {
	g.mu.Lock()
	g.events = append(g.events, event)
	hook := g.onAny
	g.mu.Unlock()
	if hook != nil {
		hook(event)
	}
}

func (g *recordingGame) snapshot() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.events...)
}

// fakeSender records per-user deliveries.
type fakeSender struct {
	mu        sync.Mutex
	delivered map[string][][]byte
}

func newFakeSender() *fakeSender {
	return &fakeSender{delivered: make(map[string][][]byte)}
}

func (s *fakeSender) SendToUser(userID string, payload []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered[userID] = append(s.delivered[userID], append([]byte(nil), payload...))
	return true
}

func (s *fakeSender) countFor(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.delivered[userID])
}

// staticValidator maps tokens to user ids without any crypto.
type staticValidator struct {
	users map[string]string
}

func (v *staticValidator) Validate(token string) (string, error) {
	if userID, ok := v.users[token]; ok {
		return userID, nil
	}
	return "", errors.ErrInvalidCredential
}
