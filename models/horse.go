package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Horse lifecycle statuses.
const (
	HorseActive   = "active"
	HorseInactive = "inactive"
	HorseInjured  = "injured"
	HorseRetired  = "retired"
)

// Horse genders.
const (
	GenderStallion = "stallion"
	GenderMare     = "mare"
	GenderGelding  = "gelding"
	GenderFilly    = "filly"
	GenderColt     = "colt"
)

// Horse represents a horse tracked at the facility. TrackingID is the
// facility-unique human-readable identifier (DM<year><4 digits>).
// CurrentLocationID is a denormalized cache of the latest assignment; the
// authoritative location comes from location_assignments.
type Horse struct {
	bun.BaseModel `bun:"table:horses,alias:h"`

	ID                 int       `bun:"id,pk,autoincrement" json:"id"`
	TrackingID         string    `bun:"tracking_id,notnull,unique" json:"trackingID"`
	Name               string    `bun:"name,notnull" json:"name"`
	RegistrationNumber string    `bun:"registration_number" json:"registrationNumber"`
	Breed              string    `bun:"breed" json:"breed"`
	Color              string    `bun:"color" json:"color"`
	Age                int       `bun:"age" json:"age"`
	Gender             string    `bun:"gender" json:"gender"`
	OwnerID            int       `bun:"owner_id,notnull" json:"ownerID"`
	Status             string    `bun:"status,notnull,default:'active'" json:"status"`
	CurrentLocationID  *int      `bun:"current_location_id" json:"currentLocationID,omitempty"`
	CurrentActivity    string    `bun:"current_activity" json:"currentActivity"`
	CreatedAt          time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt          time.Time `bun:"updated_at,notnull" json:"updatedAt"`

	Owner *Owner `bun:"rel:belongs-to,join:owner_id=id" json:"-"`
}
