package runtime

import (
	"fmt"
	"log/slog"
	"strings"

	"gamehub/contract"
	"gamehub/errors"
	"gamehub/observability"
	"gamehub/protocol"
)

// Gate is the authentication checkpoint between the transport and the rest
// of the system. It supports two timings:
//
//   - handshake-time: the transport extracts a credential from the upgrade
//     request and calls Authorize before admitting the connection; a failure
//     rejects the connection outright, it never reaches the registry.
//   - in-band: the connection is admitted unauthenticated and sends a
//     verifyToken frame; failure yields a structured response but keeps the
//     connection open for retry.
//
// Whatever the timing, no application frame passes the gate for a connection
// that is not authenticated: it is dropped with a logged rejection.
type Gate struct {
	registry  *Registry
	validator contract.TokenValidator
	bus       *Bus
	log       *slog.Logger
	metrics   *observability.Metrics
}

func NewGate(log *slog.Logger, registry *Registry, validator contract.TokenValidator,
	bus *Bus, metrics *observability.Metrics) *Gate {
	return &Gate{
		registry:  registry,
		validator: validator,
		bus:       bus,
		log:       log,
		metrics:   metrics,
	}
}

// Authorize validates a handshake-time credential and returns the user id it
// binds to. ErrMissingCredential and ErrInvalidCredential distinguish the
// two failure modes in logs; callers treat both as a rejected handshake.
func (g *Gate) Authorize(token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		g.metrics.IncrAuthFailures()
		return "", errors.ErrMissingCredential
	}
	userID, err := g.validator.Validate(token)
	if err != nil {
		g.metrics.IncrAuthFailures()
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidCredential, err)
	}
	return userID, nil
}

// HandleFrame is the single entry point for inbound frames. verifyToken
// frames drive the in-band authentication flow; everything else is forwarded
// onto the bus once — and only once — the connection is authenticated.
func (g *Gate) HandleFrame(connID string, payload []byte) {
	kind, err := protocol.Peek(payload)
	if err != nil {
		g.metrics.IncrRejectedMessages()
		g.log.Warn("Dropping undecodable frame", "conn", connID, "error", err)
		return
	}

	if kind == protocol.TypeVerifyToken {
		g.verifyInBand(connID, payload)
		return
	}

	userID, ok := g.registry.ResolveUser(connID)
	if !ok {
		g.metrics.IncrRejectedMessages()
		g.log.Warn("Dropping frame from unauthenticated connection",
			"conn", connID, "kind", kind, "error", errors.ErrUnauthorizedMessage)
		return
	}

	g.bus.PublishMessage(userID, payload)
}

func (g *Gate) verifyInBand(connID string, payload []byte) {
	var request protocol.VerifyToken
	decoded, err := protocol.Decode(payload)
	if err == nil {
		request = *decoded.(*protocol.VerifyToken)
	}

	userID, authErr := g.Authorize(request.Token)
	if authErr != nil {
		g.log.Warn("In-band authentication failed", "conn", connID, "error", authErr)
		g.respond(connID, protocol.NewTokenVerificationFailure("token verification failed"))
		return
	}

	g.registry.Authenticate(connID, userID)
	g.respond(connID, protocol.NewTokenVerificationSuccess())
}

func (g *Gate) respond(connID string, response protocol.TokenVerificationResponse) {
	raw, err := protocol.Encode(response)
	if err != nil {
		g.log.Error("Failed to encode verification response", "conn", connID, "error", err)
		return
	}
	g.registry.SendToConn(connID, raw)
}
