package runtime

import (
	"log/slog"
	"sync"

	"gamehub/contract"
	"gamehub/observability"
)

// connection is one live transport connection and its authentication state.
// The handle never changes after Connect; userID and authenticated are
// guarded by the record's own mutex so the send path stays lock-free.
type connection struct {
	id     string
	handle contract.Conn

	mu            sync.Mutex
	userID        string
	authenticated bool
}

func (c *connection) state() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID, c.authenticated
}

func (c *connection) setState(userID string, authenticated bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = userID
	c.authenticated = authenticated
}

// Registry owns the connection↔user mappings. At most one live connection
// maps to a given user at any instant: authenticating a user on a new
// connection evicts the previous mapping and demotes the old connection to
// unauthenticated (its transport is not closed).
//
// Sends and lookups run lock-free over sync.Map; only the compound
// authenticate/disconnect transitions take the registry mutex, keeping the
// highest-frequency path (sendToUser) free of any global lock.
type Registry struct {
	conns   sync.Map // connection id -> *connection
	users   sync.Map // user id -> connection id
	mu      sync.Mutex
	bus     *Bus
	log     *slog.Logger
	metrics *observability.Metrics
}

func NewRegistry(log *slog.Logger, bus *Bus, metrics *observability.Metrics) *Registry {
	return &Registry{bus: bus, log: log, metrics: metrics}
}

// Connect registers an unauthenticated connection. Pure bookkeeping; no
// events fire until the connection authenticates.
func (r *Registry) Connect(connID string, handle contract.Conn) {
	r.conns.Store(connID, &connection{id: connID, handle: handle})
	r.metrics.IncrConnectionsOpened()
	r.log.Debug("Connection registered", "conn", connID)
}

// Authenticate binds a connection to a user identity. Repeating an identical
// authentication is a no-op. Re-authenticating the same connection as a
// different user first disconnects the stale user; authenticating a user who
// is live elsewhere demotes that other connection.
func (r *Registry) Authenticate(connID, userID string) {
	if connID == "" || userID == "" {
		return
	}

	record, ok := r.loadConn(connID)
	if !ok {
		r.log.Warn("Authenticate on unknown connection", "conn", connID)
		return
	}

	disconnected, connected := r.transition(record, connID, userID)

	// Events fire outside the registry lock; the bus is synchronous and
	// downstream consumers are safe under concurrent invocation.
	for _, stale := range disconnected {
		r.bus.PublishDisconnected(stale)
	}
	if connected {
		r.metrics.IncrAuthSuccesses()
		r.log.Info("Connection authenticated", "conn", connID, "user", userID)
		r.bus.PublishConnected(userID)
	}
}

// transition applies the evict-old/install-new sequence atomically and
// returns the user ids that must be reported as disconnected.
func (r *Registry) transition(record *connection, connID, userID string) (disconnected []string, connected bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// The connection may have disconnected between the caller's lookup and
	// this critical section; installing a mapping for it would leave a stale
	// user entry pointing at a deleted connection.
	if _, ok := r.conns.Load(connID); !ok {
		return nil, false
	}

	oldUser, wasAuthenticated := record.state()
	if wasAuthenticated && oldUser == userID {
		return nil, false // idempotent re-authentication
	}

	// This connection spoke for someone else before: that identity is gone.
	if wasAuthenticated && oldUser != userID {
		r.users.CompareAndDelete(oldUser, connID)
		disconnected = append(disconnected, oldUser)
	}

	// The user is live on another connection: demote it, last write wins.
	if otherID, ok := r.users.Load(userID); ok && otherID != connID {
		if other, ok := r.loadConn(otherID.(string)); ok {
			other.setState("", false)
		}
		disconnected = append(disconnected, userID)
	}

	record.setState(userID, true)
	r.users.Store(userID, connID)
	return disconnected, true
}

// Disconnect removes a connection. Safe to call repeatedly: only the call
// that actually removes an authenticated record emits a disconnect event.
// Takes the registry mutex so it cannot interleave with an in-flight
// authenticate transition for the same connection.
func (r *Registry) Disconnect(connID string) {
	r.mu.Lock()
	value, loaded := r.conns.LoadAndDelete(connID)
	if !loaded {
		r.mu.Unlock()
		return
	}

	record := value.(*connection)
	userID, authenticated := record.state()
	if authenticated {
		// Only clear the user mapping if it still points at this connection;
		// a re-authentication elsewhere may already own it.
		r.users.CompareAndDelete(userID, connID)
	}
	r.mu.Unlock()

	r.metrics.IncrConnectionsClosed()
	if !authenticated {
		r.log.Debug("Unauthenticated connection closed", "conn", connID)
		return
	}
	r.log.Info("Connection closed", "conn", connID, "user", userID)
	r.bus.PublishDisconnected(userID)
}

// SendToUser delivers a payload to the user's live connection. Fire and
// forget: returns false when the user has no connection or the transport
// rejects the write, and never blocks on I/O.
func (r *Registry) SendToUser(userID string, payload []byte) bool {
	connID, ok := r.users.Load(userID)
	if !ok {
		r.metrics.IncrUndeliverableSends()
		return false
	}
	return r.SendToConn(connID.(string), payload)
}

// SendToConn delivers a payload to a specific connection, authenticated or not.
func (r *Registry) SendToConn(connID string, payload []byte) bool {
	record, ok := r.loadConn(connID)
	if !ok {
		r.metrics.IncrUndeliverableSends()
		return false
	}
	if err := record.handle.Send(payload); err != nil {
		r.metrics.IncrUndeliverableSends()
		r.log.Debug("Send failed", "conn", connID, "error", err)
		return false
	}
	return true
}

func (r *Registry) IsAuthenticated(connID string) bool {
	record, ok := r.loadConn(connID)
	if !ok {
		return false
	}
	_, authenticated := record.state()
	return authenticated
}

// ResolveUser returns the user bound to a connection, if any.
func (r *Registry) ResolveUser(connID string) (string, bool) {
	record, ok := r.loadConn(connID)
	if !ok {
		return "", false
	}
	userID, authenticated := record.state()
	return userID, authenticated
}

// ResolveConnection returns the live connection for a user, if any.
func (r *Registry) ResolveConnection(userID string) (string, bool) {
	connID, ok := r.users.Load(userID)
	if !ok {
		return "", false
	}
	return connID.(string), true
}

func (r *Registry) loadConn(connID string) (*connection, bool) {
	value, ok := r.conns.Load(connID)
	if !ok {
		return nil, false
	}
	return value.(*connection), true
}
