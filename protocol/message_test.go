package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"

	"gamehub/errors"
)

func TestPeek_Reads_Only_The_Type_Tag(t *testing.T) {
	req := require.New(t)

	kind, err := Peek([]byte(`{"type":"sendMessage","message":"hi"}`))

	req.NoError(err)
	req.Equal(TypeSendMessage, kind)
}

func TestPeek_Fails_Closed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: `{"type":`},
		{name: "missing tag", raw: `{"message":"hi"}`},
		{name: "empty tag", raw: `{"type":""}`},
		{name: "empty frame", raw: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Peek([]byte(tt.raw))
			require.ErrorIs(t, err, errors.ErrMalformedMessage)
		})
	}
}

func TestDecode_Round_Trips_Every_Message(t *testing.T) {
	tests := []struct {
		name    string
		message any
	}{
		{name: "verifyToken", message: NewVerifyToken("a.b.c")},
		{name: "verification success", message: NewTokenVerificationSuccess()},
		{name: "verification failure", message: NewTokenVerificationFailure("nope")},
		{name: "getMessages", message: NewGetMessages()},
		{name: "getMessagesResponse", message: NewGetMessagesResponse([]ChatEntry{{ScreenName: "alice", Message: "hi"}})},
		{name: "sendMessage", message: NewSendMessage("hello")},
		{name: "sendMessage unicode", message: NewSendMessage("héllo 👋 世界")},
		{name: "sendMessage empty", message: NewSendMessage("")},
		{name: "getPlayers", message: NewGetPlayers()},
		{name: "getPlayersResponse", message: NewGetPlayersResponse([]string{"alice", "bob"})},
		{name: "setScreenName", message: NewSetScreenName("Wonderland")},
		{name: "playerJoined", message: NewPlayerJoined("alice")},
		{name: "playerLeft", message: NewPlayerLeft("alice")},
		{name: "messageReceived", message: NewMessageReceived("alice", "hi")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)

			raw, err := Encode(tt.message)
			req.NoError(err)

			decoded, err := Decode(raw)
			req.NoError(err)

			// Decode hands back a pointer to the concrete struct.
			switch expected := tt.message.(type) {
			case VerifyToken:
				req.Equal(&expected, decoded)
			case TokenVerificationResponse:
				req.Equal(&expected, decoded)
			case GetMessages:
				req.Equal(&expected, decoded)
			case GetMessagesResponse:
				req.Equal(&expected, decoded)
			case SendMessage:
				req.Equal(&expected, decoded)
			case GetPlayers:
				req.Equal(&expected, decoded)
			case GetPlayersResponse:
				req.Equal(&expected, decoded)
			case SetScreenName:
				req.Equal(&expected, decoded)
			case PlayerJoined:
				req.Equal(&expected, decoded)
			case PlayerLeft:
				req.Equal(&expected, decoded)
			case MessageReceived:
				req.Equal(&expected, decoded)
			default:
				t.Fatalf("unhandled message type %T", tt.message)
			}
		})
	}
}

func TestDecode_Unknown_Type_Is_Rejected(t *testing.T) {
	req := require.New(t)

	_, err := Decode([]byte(`{"type":"launchMissiles"}`))

	req.ErrorIs(err, errors.ErrUnknownMessageType)
}

func TestDecode_Ignores_Extra_Fields(t *testing.T) {
	req := require.New(t)

	decoded, err := Decode([]byte(`{"type":"sendMessage","message":"hi","extra":42}`))

	req.NoError(err)
	req.Equal("hi", decoded.(*SendMessage).Message)
}
