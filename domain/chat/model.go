// Package chat holds the pure chat-room state: roster, screen names and the
// append-only message log. The model contains no locking at all; safety comes
// from the per-instance serialization in the runtime package, which guarantees
// a single caller at a time.
package chat

import (
	"slices"
	"strings"

	"github.com/samber/lo"

	"gamehub/errors"
)

// StoredMessage keeps the sender identity, not the screen name: rendering
// resolves the sender's current name at read time.
type StoredMessage struct {
	SenderID string
	Text     string
}

// VisibleMessage is a stored message rendered for clients.
type VisibleMessage struct {
	ScreenName string
	Text       string
}

// Listener observes roster and message changes on the model.
type Listener interface {
	OnPlayerJoined(screenName string)
	OnPlayerLeft(screenName string)
	OnMessageReceived(message VisibleMessage)
}

type Model struct {
	roster    map[string]struct{}
	names     map[string]string
	messages  []StoredMessage
	listeners []Listener
}

func NewModel() *Model {
	return &Model{
		roster: make(map[string]struct{}),
		names:  make(map[string]string),
	}
}

func (m *Model) AddListener(l Listener) {
	if l != nil {
		m.listeners = append(m.listeners, l)
	}
}

// AddPlayer joins a user to the roster. The screen name defaults to the user
// id on first join and survives rejoins.
func (m *Model) AddPlayer(userID string) {
	m.roster[userID] = struct{}{}
	if _, ok := m.names[userID]; !ok {
		m.names[userID] = userID
	}
	for _, l := range m.listeners {
		l.OnPlayerJoined(m.screenName(userID))
	}
}

func (m *Model) RemovePlayer(userID string) {
	delete(m.roster, userID)
	for _, l := range m.listeners {
		l.OnPlayerLeft(m.screenName(userID))
	}
}

// SetScreenName renames a user. Blank names are rejected; a name, once set,
// is never empty.
func (m *Model) SetScreenName(userID, screenName string) error {
	if strings.TrimSpace(screenName) == "" {
		return errors.ErrBlankScreenName
	}
	m.names[userID] = screenName
	return nil
}

// Append stores a message and notifies listeners with the rendering as of now.
func (m *Model) Append(senderID, text string) {
	m.messages = append(m.messages, StoredMessage{SenderID: senderID, Text: text})
	visible := VisibleMessage{ScreenName: m.screenName(senderID), Text: text}
	for _, l := range m.listeners {
		l.OnMessageReceived(visible)
	}
}

// Messages returns a snapshot of the log, each entry rendered with the
// sender's current screen name.
func (m *Model) Messages() []VisibleMessage {
	return lo.Map(m.messages, func(s StoredMessage, _ int) VisibleMessage {
		return VisibleMessage{ScreenName: m.screenName(s.SenderID), Text: s.Text}
	})
}

// ScreenNames returns the sorted screen names of the current roster.
func (m *Model) ScreenNames() []string {
	names := make([]string, 0, len(m.roster))
	for userID := range m.roster {
		names = append(names, m.screenName(userID))
	}
	slices.Sort(names)
	return names
}

// Roster returns the user ids currently joined, in no particular order.
func (m *Model) Roster() []string {
	return lo.Keys(m.roster)
}

func (m *Model) screenName(userID string) string {
	if name, ok := m.names[userID]; ok {
		return name
	}
	return userID
}
