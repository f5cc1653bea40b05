package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Owner represents a horse owner. An owner cannot be deleted while any
// horse still references it.
type Owner struct {
	bun.BaseModel `bun:"table:owners,alias:o"`

	ID        int       `bun:"id,pk,autoincrement" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Email     string    `bun:"email,notnull,unique" json:"email"`
	Phone     string    `bun:"phone" json:"phone"`
	Address   string    `bun:"address" json:"address"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}
