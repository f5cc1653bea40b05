package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Race statuses.
const (
	RaceScheduled = "scheduled"
	RaceRunning   = "running"
	RaceCompleted = "completed"
	RaceCancelled = "cancelled"
)

// Race represents a race event at the facility.
type Race struct {
	bun.BaseModel `bun:"table:races,alias:rc"`

	ID        int       `bun:"id,pk,autoincrement" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	RaceDate  time.Time `bun:"race_date,notnull" json:"raceDate"`
	Track     string    `bun:"track" json:"track"`
	Distance  float64   `bun:"distance" json:"distance"`
	Purse     float64   `bun:"purse" json:"purse"`
	RaceType  string    `bun:"race_type" json:"raceType"`
	Status    string    `bun:"status,notnull,default:'scheduled'" json:"status"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}
