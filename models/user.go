package models

import "time"

// User is the persistent identity behind a connection. Balance here is the
// ledger's authoritative value; the coordinator caches it per session and
// tolerates brief staleness.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null" json:"username"`
	Balance   float64   `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
