package domain

import "time"

// GameInfo is the listing metadata for a running game instance.
type GameInfo struct {
	ID        string    `json:"gameId"`
	Name      string    `json:"name"`
	CreatorID string    `json:"creatorId"`
	CreatedAt time.Time `json:"createdAt"`
}
