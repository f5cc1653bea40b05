package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User roles drive row-level visibility: owners only see their own horses.
const (
	RoleAdmin  = "admin"
	RoleOwner  = "owner"
	RoleViewer = "viewer"
)

// User is an API user with bcrypt-hashed password.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        int       `bun:"id,pk,autoincrement" json:"id"`
	Username  string    `bun:"username,notnull,unique" json:"username"`
	Email     string    `bun:"email,notnull" json:"email"`
	Role      string    `bun:"role,notnull,default:'viewer'" json:"role"`
	Password  string    `bun:"password,notnull" json:"-"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
}
