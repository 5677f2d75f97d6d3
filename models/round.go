package models

import (
	"time"

	"gorm.io/datatypes"
)

// Round is the persisted history of one game session. Live room state is
// in-memory only; a Round row outlives the room that produced it.
type Round struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	RoomID      string `gorm:"index" json:"room_id"`
	Mode        string `json:"mode"`        // e.g. "6/40"
	RevealMode  string `json:"reveal_mode"` // auto | manual
	Stake       float64
	Pot         float64
	Status      string         // in_progress | finished | abandoned
	DeckJSON    datatypes.JSON // full shuffled permutation, in reveal order
	Revealed    int            // how many of DeckJSON were revealed
	WinnersJSON datatypes.JSON // user ids credited a share of the pot
	StartedAt   time.Time
	EndedAt     time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
