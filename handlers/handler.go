package handlers

import (
	"strings"

	"github.com/uptrace/bun"

	"github.com/mmacri/del-mar-equine-command/derive"
	"github.com/mmacri/del-mar-equine-command/models"
)

// Handler holds shared dependencies used by all route handlers.
type Handler struct {
	db     *bun.DB
	JWTKey []byte

	// Season/Racetrack scope CSV imports.
	Season    string
	Racetrack string

	// Problems configures the triage rules for the problems view.
	Problems derive.ProblemConfig
}

// New creates a Handler with the given database connection and JWT signing key.
func New(db *bun.DB, jwtKey []byte, season, racetrack string) *Handler {
	return &Handler{
		db:        db,
		JWTKey:    jwtKey,
		Season:    season,
		Racetrack: racetrack,
	}
}

// isDuplicateErr detects unique-constraint violations from the driver error
// text (SQLite and Postgres phrasings).
func isDuplicateErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

// ownerScope returns the owner email the request is limited to, or "" when
// the caller sees everything. Users with the owner role only see their own
// horses.
func ownerScope(role, email string) string {
	if role == models.RoleOwner {
		return email
	}
	return ""
}
