package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Drug test statuses.
const (
	TestPending      = "pending"
	TestPassed       = "passed"
	TestFailed       = "failed"
	TestInconclusive = "inconclusive"
)

// DrugTest is a drug screening entry for a horse, optionally tied to a race.
type DrugTest struct {
	bun.BaseModel `bun:"table:drug_tests,alias:dt"`

	ID        int       `bun:"id,pk,autoincrement" json:"id"`
	HorseID   int       `bun:"horse_id,notnull" json:"horseID"`
	RaceID    *int      `bun:"race_id" json:"raceID,omitempty"`
	TestDate  time.Time `bun:"test_date,notnull" json:"testDate"`
	TestType  string    `bun:"test_type" json:"testType"`
	Status    string    `bun:"status,notnull,default:'pending'" json:"status"`
	Notes     string    `bun:"notes" json:"notes"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
}
