// Package game contains the shipped game logic. ChatGame is the reference
// instance: a multi-user chat room driven entirely through the runtime's
// per-instance serialization, so nothing in here needs a lock.
package game

import (
	"log/slog"

	"gamehub/contract"
	"gamehub/domain/chat"
	"gamehub/protocol"

	"github.com/samber/lo"
)

// Censor rewrites message text before it is stored and broadcast.
type Censor func(text string) string

// ChatGame decodes inbound frames into chat commands, applies them to the
// model and pushes replies and broadcasts back through the sender. It
// registers itself as the model's listener so roster and message changes
// turn into notifications for every roster member.
type ChatGame struct {
	id     string
	model  *chat.Model
	sender contract.Sender
	censor Censor
	log    *slog.Logger
}

func NewChatGame(id string, sender contract.Sender, censor Censor, log *slog.Logger) *ChatGame {
	g := &ChatGame{
		id:     id,
		model:  chat.NewModel(),
		sender: sender,
		censor: censor,
		log:    log,
	}
	g.model.AddListener(g)
	return g
}

func (g *ChatGame) HandleConnected(userID string) {
	g.model.AddPlayer(userID)
}

func (g *ChatGame) HandleDisconnected(userID string) {
	g.model.RemovePlayer(userID)
}

// HandleMessage dispatches one decoded command. Undecodable or unknown
// frames are logged and dropped; the sender gets no reply and the worker
// moves on.
func (g *ChatGame) HandleMessage(userID string, payload []byte) {
	command, err := protocol.Decode(payload)
	if err != nil {
		g.log.Warn("Ignoring unusable chat frame", "game", g.id, "user", userID, "error", err)
		return
	}

	switch cmd := command.(type) {
	case *protocol.GetMessages:
		g.reply(userID, protocol.NewGetMessagesResponse(g.entries()))

	case *protocol.SendMessage:
		text := cmd.Message
		if g.censor != nil {
			text = g.censor(text)
		}
		g.model.Append(userID, text)

	case *protocol.GetPlayers:
		g.reply(userID, protocol.NewGetPlayersResponse(g.model.ScreenNames()))

	case *protocol.SetScreenName:
		// A blank name is rejected without a response; the client sees
		// nothing. Kept as-is from the shipped behavior, logged so the
		// silence is at least visible server-side.
		if err := g.model.SetScreenName(userID, cmd.ScreenName); err != nil {
			g.log.Warn("Rejected screen name", "game", g.id, "user", userID, "error", err)
		}

	default:
		g.log.Warn("Unhandled chat command", "game", g.id, "user", userID)
	}
}

// OnPlayerJoined implements chat.Listener.
func (g *ChatGame) OnPlayerJoined(screenName string) {
	g.broadcast(protocol.NewPlayerJoined(screenName))
}

func (g *ChatGame) OnPlayerLeft(screenName string) {
	g.broadcast(protocol.NewPlayerLeft(screenName))
}

func (g *ChatGame) OnMessageReceived(message chat.VisibleMessage) {
	g.broadcast(protocol.NewMessageReceived(message.ScreenName, message.Text))
}

func (g *ChatGame) entries() []protocol.ChatEntry {
	return lo.Map(g.model.Messages(), func(m chat.VisibleMessage, _ int) protocol.ChatEntry {
		return protocol.ChatEntry{ScreenName: m.ScreenName, Message: m.Text}
	})
}

func (g *ChatGame) reply(userID string, message any) {
	raw, err := protocol.Encode(message)
	if err != nil {
		g.log.Error("Failed to encode chat reply", "game", g.id, "user", userID, "error", err)
		return
	}
	g.sender.SendToUser(userID, raw)
}

func (g *ChatGame) broadcast(message any) {
	raw, err := protocol.Encode(message)
	if err != nil {
		g.log.Error("Failed to encode chat notification", "game", g.id, "error", err)
		return
	}
	for _, userID := range g.model.Roster() {
		g.sender.SendToUser(userID, raw)
	}
}
