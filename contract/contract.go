//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
)

// TokenValidator maps an opaque credential string to a stable user identity.
// Implementations decide what a credential is (JWT, API key, ...); callers
// only care about the resulting user id or the failure.
type TokenValidator interface {
	Validate(token string) (string, error)
}

// Game is one independently running unit of application logic. Implementations
// may assume single-threaded execution: every call arrives from the instance's
// own worker, one at a time, in submission order.
type Game interface {
	HandleConnected(userID string)
	HandleDisconnected(userID string)
	HandleMessage(userID string, payload []byte)
}

// Sender delivers an outbound payload to a user without knowing anything
// about transports. Returns false when the user has no live connection;
// delivery is best-effort and never blocks.
type Sender interface {
	SendToUser(userID string, payload []byte) bool
}

// Conn is the transport handle for one live connection. Send must not block;
// it reports an error when the connection is gone or its buffer is full.
type Conn interface {
	Send(payload []byte) error
}

// Subscriber receives connection lifecycle and message events from the bus.
// Connected and Disconnected carry user ids (they fire on authentication
// state changes, not raw socket events); Message carries the authenticated
// sender and the raw frame payload.
type Subscriber interface {
	OnConnected(userID string)
	OnDisconnected(userID string)
	OnMessage(userID string, payload []byte)
}

// Worker is a long-running unit supervised by the runtime.
// Workers don't protect themselves; the supervisor recovers their panics.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName derives a worker's display name from its concrete type,
// for logging and supervision. Avoids manual naming on the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
