package models

import (
	"time"

	"github.com/uptrace/bun"
)

// VeterinaryRecord is a vet visit entry for a horse.
type VeterinaryRecord struct {
	bun.BaseModel `bun:"table:veterinary_records,alias:vr"`

	ID           int       `bun:"id,pk,autoincrement" json:"id"`
	HorseID      int       `bun:"horse_id,notnull" json:"horseID"`
	VisitDate    time.Time `bun:"visit_date,notnull" json:"visitDate"`
	Veterinarian string    `bun:"veterinarian" json:"veterinarian"`
	Diagnosis    string    `bun:"diagnosis" json:"diagnosis"`
	Treatment    string    `bun:"treatment" json:"treatment"`
	Notes        string    `bun:"notes" json:"notes"`
	CreatedAt    time.Time `bun:"created_at,notnull" json:"createdAt"`
}
