package models

import (
	"time"

	"github.com/uptrace/bun"
)

// RaceParticipant links a horse to a race (many-to-many).
type RaceParticipant struct {
	bun.BaseModel `bun:"table:race_participants,alias:rp"`

	ID             int       `bun:"id,pk,autoincrement" json:"id"`
	RaceID         int       `bun:"race_id,notnull" json:"raceID"`
	HorseID        int       `bun:"horse_id,notnull" json:"horseID"`
	JockeyName     string    `bun:"jockey_name" json:"jockeyName"`
	PostPosition   int       `bun:"post_position" json:"postPosition"`
	Odds           string    `bun:"odds" json:"odds"`
	FinishPosition *int      `bun:"finish_position" json:"finishPosition,omitempty"`
	CreatedAt      time.Time `bun:"created_at,notnull" json:"createdAt"`
}
