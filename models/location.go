package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Location types.
const (
	LocationStable     = "stable"
	LocationPaddock    = "paddock"
	LocationTrack      = "track"
	LocationBarn       = "barn"
	LocationMedical    = "medical"
	LocationQuarantine = "quarantine"
)

// Location is a physical area of the facility. CurrentOccupancy is advisory
// only; live occupancy is computed from assignments.
type Location struct {
	bun.BaseModel `bun:"table:locations,alias:l"`

	ID               int       `bun:"id,pk,autoincrement" json:"id"`
	Name             string    `bun:"name,notnull" json:"name"`
	Type             string    `bun:"type,notnull" json:"type"`
	Capacity         int       `bun:"capacity,notnull,default:0" json:"capacity"`
	CurrentOccupancy int       `bun:"current_occupancy,notnull,default:0" json:"currentOccupancy"`
	CreatedAt        time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt        time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}
