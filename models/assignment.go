package models

import (
	"time"

	"github.com/uptrace/bun"
)

// LocationAssignment places a horse in a location from AssignedAt until
// AssignedUntil (nil or future = still active). The most recent active row
// per horse is that horse's current assignment.
type LocationAssignment struct {
	bun.BaseModel `bun:"table:location_assignments,alias:la"`

	ID            int        `bun:"id,pk,autoincrement" json:"id"`
	HorseID       int        `bun:"horse_id,notnull" json:"horseID"`
	LocationID    int        `bun:"location_id,notnull" json:"locationID"`
	AssignedAt    time.Time  `bun:"assigned_at,notnull" json:"assignedAt"`
	AssignedUntil *time.Time `bun:"assigned_until" json:"assignedUntil,omitempty"`
	AssignedBy    int        `bun:"assigned_by" json:"assignedBy"`
	Notes         string     `bun:"notes" json:"notes"`
	CreatedAt     time.Time  `bun:"created_at,notnull" json:"createdAt"`
}
