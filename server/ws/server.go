// Package ws is the websocket transport adapter. It is deliberately thin:
// it upgrades connections, hands each one an id and a buffered send handle,
// and forwards every inbound frame to the authentication gate. All session
// and routing decisions live in the runtime package.
package ws

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"gamehub/runtime"
)

type Handler struct {
	log        *slog.Logger
	registry   *runtime.Registry
	gate       *runtime.Gate
	sendBuffer int

	// requireHandshakeAuth rejects upgrades that carry no credential.
	// When false, credential-less connections are admitted unauthenticated
	// and must verify a token in-band before sending anything else.
	requireHandshakeAuth bool

	upgrader websocket.Upgrader
}

func NewHandler(log *slog.Logger, registry *runtime.Registry, gate *runtime.Gate,
	sendBuffer int, requireHandshakeAuth bool) *Handler {
	return &Handler{
		log:                  log,
		registry:             registry,
		gate:                 gate,
		sendBuffer:           sendBuffer,
		requireHandshakeAuth: requireHandshakeAuth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Handshake-time authentication: resolve the credential before the
	// connection exists anywhere in the system. An invalid credential is a
	// rejected upgrade; the registry never sees the connection.
	token := credentialFrom(r)
	var userID string
	if token != "" {
		authorized, err := h.gate.Authorize(token)
		if err != nil {
			h.log.Warn("Handshake rejected", "remote", r.RemoteAddr, "error", err)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		userID = authorized
	} else if h.requireHandshakeAuth {
		h.log.Warn("Handshake rejected, no credential", "remote", r.RemoteAddr)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	connID := uuid.NewString()
	c := newConn(socket, h.sendBuffer, h.log.With("conn", connID))

	h.registry.Connect(connID, c)
	if userID != "" {
		h.registry.Authenticate(connID, userID)
	}

	go c.writePump()
	c.readLoop(func(payload []byte) {
		h.gate.HandleFrame(connID, payload)
	})

	h.registry.Disconnect(connID)
	c.close()
}

// credentialFrom pulls the token from the authToken cookie, falling back to
// the token query parameter for cross-origin clients that cannot set cookies.
func credentialFrom(r *http.Request) string {
	if cookie, err := r.Cookie("authToken"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return r.URL.Query().Get("token")
}
