package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/mmacri/del-mar-equine-command/config"
	"github.com/mmacri/del-mar-equine-command/models"
)

// Setup opens the embedded SQLite database using the provided config.
func Setup(cfg *config.Config) *bun.DB {
	db, err := Open(cfg.SQLiteDSN())
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	return db
}

// Open connects to the embedded database at the given DSN. Used directly by
// tests and tools that want an error instead of a fatal exit.
func Open(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer; serialise access through one connection.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	if err := db.PingContext(context.Background()); err != nil {
		return nil, err
	}
	return db, nil
}

// CreateTables creates all tables in dependency order.
func CreateTables(ctx context.Context, db *bun.DB) error {
	tables := []interface{}{
		(*models.User)(nil),
		(*models.Owner)(nil),
		(*models.Horse)(nil),
		(*models.Location)(nil),
		(*models.LocationAssignment)(nil),
		(*models.Race)(nil),
		(*models.RaceParticipant)(nil),
		(*models.Activity)(nil),
		(*models.VeterinaryRecord)(nil),
		(*models.DrugTest)(nil),
	}

	for _, model := range tables {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("creating table for %T: %w", model, err)
		}
	}

	// Secondary lookup paths used by the view and filter layers.
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS horses_owner_idx ON horses (owner_id)`,
		`CREATE INDEX IF NOT EXISTS horses_status_idx ON horses (status)`,
		`CREATE INDEX IF NOT EXISTS races_date_idx ON races (race_date)`,
		`CREATE INDEX IF NOT EXISTS activities_start_idx ON activities (start_time)`,
		`CREATE INDEX IF NOT EXISTS drug_tests_horse_idx ON drug_tests (horse_id)`,
		`CREATE INDEX IF NOT EXISTS drug_tests_race_idx ON drug_tests (race_id)`,
		`CREATE INDEX IF NOT EXISTS drug_tests_status_idx ON drug_tests (status)`,
		`CREATE INDEX IF NOT EXISTS assignments_horse_idx ON location_assignments (horse_id)`,
		`CREATE INDEX IF NOT EXISTS assignments_location_idx ON location_assignments (location_id)`,
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			log.Printf("index: %v", err)
		}
	}

	return nil
}
