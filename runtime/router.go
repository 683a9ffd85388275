package runtime

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gamehub/contract"
	"gamehub/domain"
	"gamehub/errors"
	"gamehub/observability"
)

// GameFactory builds the game logic for a new instance. The sender lets the
// game reach its players without knowing about connections or transports.
type GameFactory func(gameID string, sender contract.Sender) contract.Game

type gameRecord struct {
	info   domain.GameInfo
	serial *SerialGame
}

// Router owns the set of running game instances and the player→instance
// assignment, and dispatches bus events to the right instance. A user is
// assigned to at most one instance; joining a new game implicitly leaves the
// previous one. Events for users with no assignment are silently ignored —
// a message racing a disconnect is a no-op, not an error.
type Router struct {
	games      sync.Map // game id -> *gameRecord
	assignment sync.Map // user id -> game id
	counter    atomic.Int64

	// mu serializes the compound join/stop transitions. Event dispatch and
	// listing never take it.
	mu sync.Mutex

	factory     GameFactory
	sender      contract.Sender
	queueSize   int
	stopTimeout time.Duration
	log         *slog.Logger
	metrics     *observability.Metrics
}

func NewRouter(log *slog.Logger, sender contract.Sender, factory GameFactory,
	queueSize int, stopTimeout time.Duration, metrics *observability.Metrics) *Router {
	return &Router{
		factory:     factory,
		sender:      sender,
		queueSize:   queueSize,
		stopTimeout: stopTimeout,
		log:         log,
		metrics:     metrics,
	}
}

// Create starts a new game instance and returns its id. No player is
// assigned; the creator joins like anyone else.
func (r *Router) Create(creatorID, displayName string) string {
	gameID := fmt.Sprintf("game-%d", r.counter.Add(1))
	if displayName == "" {
		displayName = "Game " + gameID
	}

	logic := r.factory(gameID, r)
	record := &gameRecord{
		info: domain.GameInfo{
			ID:        gameID,
			Name:      displayName,
			CreatorID: creatorID,
			CreatedAt: time.Now().UTC(),
		},
		serial: NewSerialGame(gameID, logic, r.queueSize, r.log, r.metrics),
	}
	r.games.Store(gameID, record)
	r.log.Info("Game created", "game", gameID, "name", displayName, "creator", creatorID)
	return gameID
}

// Join assigns a user to a game, leaving their previous game first.
func (r *Router) Join(userID, gameID string) error {
	record, ok := r.loadGame(gameID)
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrNoSuchGame, gameID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if previousID, ok := r.assignment.Load(userID); ok {
		if previousID.(string) == gameID {
			return nil
		}
		if previous, ok := r.loadGame(previousID.(string)); ok {
			previous.serial.Disconnected(userID)
		}
	}

	r.assignment.Store(userID, gameID)
	record.serial.Connected(userID)
	r.log.Info("Player joined game", "game", gameID, "user", userID)
	return nil
}

// List snapshots the running games. No ordering guarantee.
func (r *Router) List() []domain.GameInfo {
	var infos []domain.GameInfo
	r.games.Range(func(_, value any) bool {
		infos = append(infos, value.(*gameRecord).info)
		return true
	})
	return infos
}

// Stop removes a game: every assigned player gets a disconnect event, then
// the instance drains within the stop timeout. A drain overrun is logged and
// the worker is terminated forcibly — recorded, not fatal.
func (r *Router) Stop(gameID string) error {
	value, loaded := r.games.LoadAndDelete(gameID)
	if !loaded {
		return fmt.Errorf("%w: %s", errors.ErrNoSuchGame, gameID)
	}
	record := value.(*gameRecord)

	r.mu.Lock()
	r.assignment.Range(func(key, assigned any) bool {
		if assigned.(string) == gameID {
			r.assignment.Delete(key)
			record.serial.Disconnected(key.(string))
		}
		return true
	})
	r.mu.Unlock()

	if !record.serial.Shutdown(r.stopTimeout) {
		r.log.Warn("Game instance did not drain in time, forcing termination",
			"game", gameID, "timeout", r.stopTimeout)
		record.serial.Kill()
	}
	r.log.Info("Game stopped", "game", gameID)
	return nil
}

// StopAll stops every running game; used during process shutdown.
func (r *Router) StopAll() {
	r.games.Range(func(key, _ any) bool {
		_ = r.Stop(key.(string))
		return true
	})
}

// OnConnected re-delivers a connect to the user's assigned instance, if any.
// Fires when a user (re-)authenticates; assignment survives transport churn.
func (r *Router) OnConnected(userID string) {
	if record, ok := r.assignedGame(userID); ok {
		record.serial.Connected(userID)
	}
}

func (r *Router) OnDisconnected(userID string) {
	if record, ok := r.assignedGame(userID); ok {
		record.serial.Disconnected(userID)
	}
}

func (r *Router) OnMessage(userID string, payload []byte) {
	record, ok := r.assignedGame(userID)
	if !ok {
		return
	}
	r.metrics.IncrRoutedMessages()
	record.serial.Message(userID, payload)
}

// SendToUser is the pass-through game instances use to reach players.
func (r *Router) SendToUser(userID string, payload []byte) bool {
	return r.sender.SendToUser(userID, payload)
}

func (r *Router) assignedGame(userID string) (*gameRecord, bool) {
	gameID, ok := r.assignment.Load(userID)
	if !ok {
		return nil, false
	}
	return r.loadGame(gameID.(string))
}

func (r *Router) loadGame(gameID string) (*gameRecord, bool) {
	value, ok := r.games.Load(gameID)
	if !ok {
		return nil, false
	}
	return value.(*gameRecord), true
}
