// Package protocol defines the JSON wire envelope exchanged with clients.
// Every frame is a tagged union keyed by a "type" field. Decoding fails
// closed: an unknown type or malformed JSON yields an error the caller logs
// and drops, never a crash.
package protocol

import (
	"encoding/json"
	"fmt"

	"gamehub/errors"
)

// Message type tags, client to server.
const (
	TypeVerifyToken   = "verifyToken"
	TypeGetMessages   = "getMessages"
	TypeSendMessage   = "sendMessage"
	TypeGetPlayers    = "getPlayers"
	TypeSetScreenName = "setScreenName"
)

// Message type tags, server to client.
const (
	TypeTokenVerificationResponse = "tokenVerificationResponse"
	TypeGetMessagesResponse       = "getMessagesResponse"
	TypeGetPlayersResponse        = "getPlayersResponse"
	TypePlayerJoined              = "playerJoinedChatNotification"
	TypePlayerLeft                = "playerLeftChatNotification"
	TypeMessageReceived           = "messageReceivedNotification"
)

type VerifyToken struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

type TokenVerificationResponse struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type GetMessages struct {
	Type string `json:"type"`
}

type ChatEntry struct {
	ScreenName string `json:"screenName"`
	Message    string `json:"message"`
}

type GetMessagesResponse struct {
	Type     string      `json:"type"`
	Messages []ChatEntry `json:"messages"`
}

type SendMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type GetPlayers struct {
	Type string `json:"type"`
}

type GetPlayersResponse struct {
	Type        string   `json:"type"`
	ScreenNames []string `json:"screenNames"`
}

type SetScreenName struct {
	Type       string `json:"type"`
	ScreenName string `json:"screenName"`
}

type PlayerJoined struct {
	Type       string `json:"type"`
	ScreenName string `json:"screenName"`
}

type PlayerLeft struct {
	Type       string `json:"type"`
	ScreenName string `json:"screenName"`
}

type MessageReceived struct {
	Type       string `json:"type"`
	ScreenName string `json:"screenName"`
	Message    string `json:"message"`
}

func NewVerifyToken(token string) VerifyToken {
	return VerifyToken{Type: TypeVerifyToken, Token: token}
}

func NewTokenVerificationSuccess() TokenVerificationResponse {
	return TokenVerificationResponse{Type: TypeTokenVerificationResponse, Success: true, Message: "token verified"}
}

func NewTokenVerificationFailure(reason string) TokenVerificationResponse {
	return TokenVerificationResponse{Type: TypeTokenVerificationResponse, Success: false, Message: reason}
}

func NewGetMessages() GetMessages { return GetMessages{Type: TypeGetMessages} }

func NewGetMessagesResponse(entries []ChatEntry) GetMessagesResponse {
	return GetMessagesResponse{Type: TypeGetMessagesResponse, Messages: entries}
}

func NewSendMessage(text string) SendMessage {
	return SendMessage{Type: TypeSendMessage, Message: text}
}

func NewGetPlayers() GetPlayers { return GetPlayers{Type: TypeGetPlayers} }

func NewGetPlayersResponse(screenNames []string) GetPlayersResponse {
	return GetPlayersResponse{Type: TypeGetPlayersResponse, ScreenNames: screenNames}
}

func NewSetScreenName(name string) SetScreenName {
	return SetScreenName{Type: TypeSetScreenName, ScreenName: name}
}

func NewPlayerJoined(screenName string) PlayerJoined {
	return PlayerJoined{Type: TypePlayerJoined, ScreenName: screenName}
}

func NewPlayerLeft(screenName string) PlayerLeft {
	return PlayerLeft{Type: TypePlayerLeft, ScreenName: screenName}
}

func NewMessageReceived(screenName, text string) MessageReceived {
	return MessageReceived{Type: TypeMessageReceived, ScreenName: screenName, Message: text}
}

// Encode marshals any protocol message to its wire form.
func Encode(message any) ([]byte, error) {
	raw, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return raw, nil
}

type envelope struct {
	Type string `json:"type"`
}

// Peek reads only the type tag of a frame without decoding the body.
func Peek(raw []byte) (string, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrMalformedMessage, err)
	}
	if env.Type == "" {
		return "", errors.ErrMalformedMessage
	}
	return env.Type, nil
}

// Decode parses a frame into its concrete message struct based on the type
// tag. Unknown tags return ErrUnknownMessageType so callers can drop the
// frame without tearing down the connection.
func Decode(raw []byte) (any, error) {
	kind, err := Peek(raw)
	if err != nil {
		return nil, err
	}

	decode := func(target any) (any, error) {
		if err := json.Unmarshal(raw, target); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrMalformedMessage, err)
		}
		return target, nil
	}

	switch kind {
	case TypeVerifyToken:
		return decode(&VerifyToken{})
	case TypeGetMessages:
		return decode(&GetMessages{})
	case TypeSendMessage:
		return decode(&SendMessage{})
	case TypeGetPlayers:
		return decode(&GetPlayers{})
	case TypeSetScreenName:
		return decode(&SetScreenName{})
	case TypeTokenVerificationResponse:
		return decode(&TokenVerificationResponse{})
	case TypeGetMessagesResponse:
		return decode(&GetMessagesResponse{})
	case TypeGetPlayersResponse:
		return decode(&GetPlayersResponse{})
	case TypePlayerJoined:
		return decode(&PlayerJoined{})
	case TypePlayerLeft:
		return decode(&PlayerLeft{})
	case TypeMessageReceived:
		return decode(&MessageReceived{})
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownMessageType, kind)
	}
}
