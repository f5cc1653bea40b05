package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Activity is a logged activity session for a horse (training, walking...).
// The horse's current_activity field is a denormalized copy of the latest
// open session's type.
type Activity struct {
	bun.BaseModel `bun:"table:activities,alias:a"`

	ID           int        `bun:"id,pk,autoincrement" json:"id"`
	HorseID      int        `bun:"horse_id,notnull" json:"horseID"`
	ActivityType string     `bun:"activity_type,notnull" json:"activityType"`
	StartTime    time.Time  `bun:"start_time,notnull" json:"startTime"`
	EndTime      *time.Time `bun:"end_time" json:"endTime,omitempty"`
	Notes        string     `bun:"notes" json:"notes"`
	CreatedAt    time.Time  `bun:"created_at,notnull" json:"createdAt"`
}
