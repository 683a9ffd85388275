package runtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"gamehub/errors"
	"gamehub/observability"
	"gamehub/protocol"
)

func newGateUnderTest() (*Gate, *Registry, *recordingSubscriber) {
	bus := NewBus(testLogger())
	subscriber := &recordingSubscriber{}
	bus.Subscribe(subscriber)
	metrics := observability.NewMetrics()
	registry := NewRegistry(testLogger(), bus, metrics)
	validator := &staticValidator{users: map[string]string{
		"alice-token": "alice",
		"bob-token":   "bob",
	}}
	return NewGate(testLogger(), registry, validator, bus, metrics), registry, subscriber
}

func encode(t *testing.T, message any) []byte {
	t.Helper()
	raw, err := protocol.Encode(message)
	require.NoError(t, err)
	return raw
}

func TestGate_Authorize(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		expected error
		userID   string
	}{
		{name: "valid token", token: "alice-token", userID: "alice"},
		{name: "blank token", token: "  ", expected: errors.ErrMissingCredential},
		{name: "unknown token", token: "forged", expected: errors.ErrInvalidCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			gate, _, _ := newGateUnderTest()

			userID, err := gate.Authorize(tt.token)

			if tt.expected != nil {
				req.ErrorIs(err, tt.expected)
				return
			}
			req.NoError(err)
			req.Equal(tt.userID, userID)
		})
	}
}

func TestGate_Drops_Frames_From_Unauthenticated_Connections(t *testing.T) {
	req := require.New(t)
	gate, registry, subscriber := newGateUnderTest()
	registry.Connect("c1", &fakeConn{})

	// When an unauthenticated connection sends an application frame
	gate.HandleFrame("c1", encode(t, protocol.NewSendMessage("sneaky")))

	// Then nothing reaches the bus
	req.Empty(subscriber.snapshot())
}

func TestGate_Forwards_Frames_From_Authenticated_Connections(t *testing.T) {
	req := require.New(t)
	gate, registry, subscriber := newGateUnderTest()
	registry.Connect("c1", &fakeConn{})
	registry.Authenticate("c1", "alice")

	// When the authenticated connection sends an application frame
	payload := encode(t, protocol.NewSendMessage("hello"))
	gate.HandleFrame("c1", payload)

	// Then the bus carries it, attributed to alice
	events := subscriber.snapshot()
	req.Equal("message:alice:"+string(payload), events[len(events)-1])
}

func TestGate_InBand_Verification_Success(t *testing.T) {
	req := require.New(t)
	gate, registry, _ := newGateUnderTest()
	conn := &fakeConn{}
	registry.Connect("c1", conn)

	// When the connection verifies a valid token
	gate.HandleFrame("c1", encode(t, protocol.NewVerifyToken("alice-token")))

	// Then it is authenticated and told so
	req.True(registry.IsAuthenticated("c1"))
	var response protocol.TokenVerificationResponse
	req.NoError(json.Unmarshal(conn.lastSent(), &response))
	req.Equal(protocol.TypeTokenVerificationResponse, response.Type)
	req.True(response.Success)
}

func TestGate_InBand_Verification_Failure_Keeps_Connection_Open(t *testing.T) {
	req := require.New(t)
	gate, registry, subscriber := newGateUnderTest()
	conn := &fakeConn{}
	registry.Connect("c1", conn)

	// When the connection verifies a forged token
	gate.HandleFrame("c1", encode(t, protocol.NewVerifyToken("forged")))

	// Then it stays connected but unauthenticated, with a failure response
	req.False(registry.IsAuthenticated("c1"))
	var response protocol.TokenVerificationResponse
	req.NoError(json.Unmarshal(conn.lastSent(), &response))
	req.False(response.Success)
	req.Empty(subscriber.snapshot())

	// And a retry with a good token succeeds on the same connection
	gate.HandleFrame("c1", encode(t, protocol.NewVerifyToken("alice-token")))
	req.True(registry.IsAuthenticated("c1"))
}

func TestGate_Traffic_Before_And_After_Verification(t *testing.T) {
	req := require.New(t)
	gate, registry, subscriber := newGateUnderTest()
	conn := &fakeConn{}
	registry.Connect("c1", conn)
	payload := encode(t, protocol.NewSendMessage("hi"))

	// Given a frame sent before verification is dropped
	gate.HandleFrame("c1", payload)
	req.Empty(subscriber.snapshot())

	// When the connection verifies and resends
	gate.HandleFrame("c1", encode(t, protocol.NewVerifyToken("alice-token")))
	gate.HandleFrame("c1", payload)

	// Then only the post-verification frame made it through
	events := subscriber.snapshot()
	req.Equal("message:alice:"+string(payload), events[len(events)-1])
	messageCount := 0
	for _, event := range events {
		if len(event) > 8 && event[:8] == "message:" {
			messageCount++
		}
	}
	req.Equal(1, messageCount)
}

func TestGate_Drops_Undecodable_Frames(t *testing.T) {
	req := require.New(t)
	gate, registry, subscriber := newGateUnderTest()
	registry.Connect("c1", &fakeConn{})
	registry.Authenticate("c1", "alice")

	// When garbage and tagless frames arrive
	req.NotPanics(func() {
		gate.HandleFrame("c1", []byte("{not json"))
		gate.HandleFrame("c1", []byte(`{"message":"no type"}`))
	})

	// Then neither reached the bus
	for _, event := range subscriber.snapshot() {
		req.NotContains(event, "message:")
	}
}
