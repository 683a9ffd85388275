package errors

import "fmt"

var (
	// Authentication failures. Both map to the same client-visible outcome
	// (auth fails, the client may retry) but stay distinguishable in logs.
	ErrMissingCredential = fmt.Errorf("missing credential")
	ErrInvalidCredential = fmt.Errorf("invalid or expired credential")

	// ErrUnauthorizedMessage marks application traffic arriving on a
	// connection that never authenticated. Dropped, never surfaced to the client.
	ErrUnauthorizedMessage = fmt.Errorf("message on unauthenticated connection")

	ErrNoSuchGame         = fmt.Errorf("no such game")
	ErrMalformedMessage   = fmt.Errorf("malformed message")
	ErrUnknownMessageType = fmt.Errorf("unknown message type")
	ErrQueueFull          = fmt.Errorf("instance queue full")
	ErrInstanceStopped    = fmt.Errorf("instance stopped")
	ErrBlankScreenName    = fmt.Errorf("screen name cannot be blank")

	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid email or password")
	ErrInvalidPassword    = fmt.Errorf("password does not meet requirements")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")

	ErrConnectionClosed = fmt.Errorf("connection closed")
	ErrSendBufferFull   = fmt.Errorf("send buffer full")
	ErrWorkerPanic      = fmt.Errorf("worker panic")
)
