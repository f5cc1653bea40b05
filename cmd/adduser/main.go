// cmd/adduser/main.go
// Creates or updates a user in the database.
//
// Usage:
//
//	go run ./cmd/adduser -username mmacri -email m@dmequine.app -role admin -password testing
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmacri/del-mar-equine-command/config"
	bundb "github.com/mmacri/del-mar-equine-command/db"
	"github.com/mmacri/del-mar-equine-command/models"
)

func main() {
	username := flag.String("username", "", "username (required)")
	password := flag.String("password", "", "plain-text password (required)")
	email := flag.String("email", "", "email address")
	role := flag.String("role", models.RoleViewer, "role: admin, owner or viewer")
	flag.Parse()

	if *username == "" || *password == "" {
		log.Fatal("both -username and -password are required")
	}
	switch *role {
	case models.RoleAdmin, models.RoleOwner, models.RoleViewer:
	default:
		log.Fatalf("invalid role %q", *role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("bcrypt:", err)
	}

	cfg := config.Load()
	db := bundb.Setup(cfg)
	defer db.Close()

	ctx := context.Background()
	if err := bundb.CreateTables(ctx, db); err != nil {
		log.Fatal("create tables:", err)
	}

	user := &models.User{
		Username:  *username,
		Email:     *email,
		Role:      *role,
		Password:  string(hash),
		CreatedAt: time.Now(),
	}

	_, err = db.NewInsert().Model(user).
		On("CONFLICT (username) DO UPDATE SET password = EXCLUDED.password, email = EXCLUDED.email, role = EXCLUDED.role").
		Exec(ctx)
	if err != nil {
		log.Fatal("insert user:", err)
	}

	fmt.Printf("user %q saved\n", *username)
}
