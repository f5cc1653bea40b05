// cmd/migrate/main.go
// Migrates data from the legacy MySQL facility database into the embedded
// SQLite database.
//
// Usage:
//
//	MYSQL_DSN="user:pass@tcp(host:3306)/facility?parseTime=true" \
//	go run ./cmd/migrate
package main

import (
	"context"
	"database/sql"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"

	"github.com/mmacri/del-mar-equine-command/config"
	bundb "github.com/mmacri/del-mar-equine-command/db"
	"github.com/mmacri/del-mar-equine-command/models"
)

const batchSize = 500

func main() {
	ctx := context.Background()

	cfg := config.Load()

	// --- MySQL ---
	if cfg.MySQLDSN == "" {
		log.Fatal("MYSQL_DSN required, e.g.: user:pass@tcp(host:3306)/facility?parseTime=true")
	}
	myDB, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("open mysql: %v", err)
	}
	defer myDB.Close()
	myDB.SetMaxOpenConns(4)
	if err := myDB.PingContext(ctx); err != nil {
		log.Fatalf("ping mysql: %v", err)
	}
	log.Println("connected to MySQL")

	// --- SQLite ---
	liteDB := bundb.Setup(cfg)
	defer liteDB.Close()
	log.Println("opened embedded database")

	// Create tables (idempotent)
	if err := bundb.CreateTables(ctx, liteDB); err != nil {
		log.Fatalf("create tables: %v", err)
	}

	steps := []struct {
		name string
		fn   func() (int, error)
	}{
		{"users", func() (int, error) { return migrateUsers(ctx, myDB, liteDB) }},
		{"owners", func() (int, error) { return migrateOwners(ctx, myDB, liteDB) }},
		{"horses", func() (int, error) { return migrateHorses(ctx, myDB, liteDB) }},
		{"locations", func() (int, error) { return migrateLocations(ctx, myDB, liteDB) }},
		{"location_assignments", func() (int, error) { return migrateAssignments(ctx, myDB, liteDB) }},
		{"races", func() (int, error) { return migrateRaces(ctx, myDB, liteDB) }},
		{"race_participants", func() (int, error) { return migrateParticipants(ctx, myDB, liteDB) }},
		{"activities", func() (int, error) { return migrateActivities(ctx, myDB, liteDB) }},
		{"veterinary_records", func() (int, error) { return migrateVetRecords(ctx, myDB, liteDB) }},
		{"drug_tests", func() (int, error) { return migrateDrugTests(ctx, myDB, liteDB) }},
	}

	for _, s := range steps {
		n, err := s.fn()
		if err != nil {
			log.Fatalf("migrate %s: %v", s.name, err)
		}
		log.Printf("%-21s  %d rows migrated", s.name, n)
	}

	log.Println("migration complete")
}

// --- helpers ---

func nullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func nullTime(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	return &n.Time
}

func orNow(n sql.NullTime) time.Time {
	if !n.Valid {
		return time.Now()
	}
	return n.Time
}

// bulkInsert inserts a batch, skipping rows that already exist (idempotent re-runs).
func bulkInsert[T any](ctx context.Context, liteDB *bun.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := liteDB.NewInsert().Model(&rows).Ignore().Exec(ctx)
	return err
}

// migrateTable drives one table: scan legacy rows, insert in batches.
func migrateTable[T any](ctx context.Context, myDB *sql.DB, liteDB *bun.DB,
	query string, scan func(*sql.Rows) (T, error)) (int, error) {

	rows, err := myDB.QueryContext(ctx, query)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var batch []T
	total := 0
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return total, err
		}
		batch = append(batch, r)
		if len(batch) >= batchSize {
			if err := bulkInsert(ctx, liteDB, batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if err := bulkInsert(ctx, liteDB, batch); err != nil {
		return total, err
	}
	return total + len(batch), rows.Err()
}

// --- per-table migrations ---

func migrateUsers(ctx context.Context, myDB *sql.DB, liteDB *bun.DB) (int, error) {
	return migrateTable(ctx, myDB, liteDB,
		"SELECT id, username, email, role, password_hash, created_at FROM users",
		func(rows *sql.Rows) (models.User, error) {
			var r models.User
			var created sql.NullTime
			err := rows.Scan(&r.ID, &r.Username, &r.Email, &r.Role, &r.Password, &created)
			r.CreatedAt = orNow(created)
			return r, err
		})
}

func migrateOwners(ctx context.Context, myDB *sql.DB, liteDB *bun.DB) (int, error) {
	return migrateTable(ctx, myDB, liteDB,
		"SELECT id, name, email, phone, address, created_at, updated_at FROM owners",
		func(rows *sql.Rows) (models.Owner, error) {
			var r models.Owner
			var created, updated sql.NullTime
			err := rows.Scan(&r.ID, &r.Name, &r.Email, &r.Phone, &r.Address, &created, &updated)
			r.CreatedAt = orNow(created)
			r.UpdatedAt = orNow(updated)
			return r, err
		})
}

func migrateHorses(ctx context.Context, myDB *sql.DB, liteDB *bun.DB) (int, error) {
	return migrateTable(ctx, myDB, liteDB,
		`SELECT id, tracking_id, name, registration_number, breed, color, age,
		        gender, owner_id, status, current_location_id, current_activity,
		        created_at, updated_at
		 FROM horses`,
		func(rows *sql.Rows) (models.Horse, error) {
			var r models.Horse
			var locationID sql.NullInt64
			var created, updated sql.NullTime
			err := rows.Scan(&r.ID, &r.TrackingID, &r.Name, &r.RegistrationNumber,
				&r.Breed, &r.Color, &r.Age, &r.Gender, &r.OwnerID, &r.Status,
				&locationID, &r.CurrentActivity, &created, &updated)
			r.CurrentLocationID = nullInt(locationID)
			r.CreatedAt = orNow(created)
			r.UpdatedAt = orNow(updated)
			return r, err
		})
}

func migrateLocations(ctx context.Context, myDB *sql.DB, liteDB *bun.DB) (int, error) {
	return migrateTable(ctx, myDB, liteDB,
		"SELECT id, name, type, capacity, current_occupancy, created_at, updated_at FROM locations",
		func(rows *sql.Rows) (models.Location, error) {
			var r models.Location
			var created, updated sql.NullTime
			err := rows.Scan(&r.ID, &r.Name, &r.Type, &r.Capacity, &r.CurrentOccupancy,
				&created, &updated)
			r.CreatedAt = orNow(created)
			r.UpdatedAt = orNow(updated)
			return r, err
		})
}

func migrateAssignments(ctx context.Context, myDB *sql.DB, liteDB *bun.DB) (int, error) {
	return migrateTable(ctx, myDB, liteDB,
		`SELECT id, horse_id, location_id, assigned_at, assigned_until,
		        assigned_by, notes, created_at
		 FROM location_assignments`,
		func(rows *sql.Rows) (models.LocationAssignment, error) {
			var r models.LocationAssignment
			var until, created sql.NullTime
			err := rows.Scan(&r.ID, &r.HorseID, &r.LocationID, &r.AssignedAt,
				&until, &r.AssignedBy, &r.Notes, &created)
			r.AssignedUntil = nullTime(until)
			r.CreatedAt = orNow(created)
			return r, err
		})
}

func migrateRaces(ctx context.Context, myDB *sql.DB, liteDB *bun.DB) (int, error) {
	return migrateTable(ctx, myDB, liteDB,
		`SELECT id, name, race_date, track, distance, purse, race_type, status,
		        created_at, updated_at
		 FROM races`,
		func(rows *sql.Rows) (models.Race, error) {
			var r models.Race
			var created, updated sql.NullTime
			err := rows.Scan(&r.ID, &r.Name, &r.RaceDate, &r.Track, &r.Distance,
				&r.Purse, &r.RaceType, &r.Status, &created, &updated)
			r.CreatedAt = orNow(created)
			r.UpdatedAt = orNow(updated)
			return r, err
		})
}

func migrateParticipants(ctx context.Context, myDB *sql.DB, liteDB *bun.DB) (int, error) {
	return migrateTable(ctx, myDB, liteDB,
		`SELECT id, race_id, horse_id, jockey_name, post_position, odds,
		        finish_position, created_at
		 FROM race_participants`,
		func(rows *sql.Rows) (models.RaceParticipant, error) {
			var r models.RaceParticipant
			var finish sql.NullInt64
			var created sql.NullTime
			err := rows.Scan(&r.ID, &r.RaceID, &r.HorseID, &r.JockeyName,
				&r.PostPosition, &r.Odds, &finish, &created)
			r.FinishPosition = nullInt(finish)
			r.CreatedAt = orNow(created)
			return r, err
		})
}

func migrateActivities(ctx context.Context, myDB *sql.DB, liteDB *bun.DB) (int, error) {
	return migrateTable(ctx, myDB, liteDB,
		"SELECT id, horse_id, activity_type, start_time, end_time, notes, created_at FROM activities",
		func(rows *sql.Rows) (models.Activity, error) {
			var r models.Activity
			var end, created sql.NullTime
			err := rows.Scan(&r.ID, &r.HorseID, &r.ActivityType, &r.StartTime,
				&end, &r.Notes, &created)
			r.EndTime = nullTime(end)
			r.CreatedAt = orNow(created)
			return r, err
		})
}

func migrateVetRecords(ctx context.Context, myDB *sql.DB, liteDB *bun.DB) (int, error) {
	return migrateTable(ctx, myDB, liteDB,
		`SELECT id, horse_id, visit_date, veterinarian, diagnosis, treatment,
		        notes, created_at
		 FROM veterinary_records`,
		func(rows *sql.Rows) (models.VeterinaryRecord, error) {
			var r models.VeterinaryRecord
			var created sql.NullTime
			err := rows.Scan(&r.ID, &r.HorseID, &r.VisitDate, &r.Veterinarian,
				&r.Diagnosis, &r.Treatment, &r.Notes, &created)
			r.CreatedAt = orNow(created)
			return r, err
		})
}

func migrateDrugTests(ctx context.Context, myDB *sql.DB, liteDB *bun.DB) (int, error) {
	return migrateTable(ctx, myDB, liteDB,
		`SELECT id, horse_id, race_id, test_date, test_type, status, notes, created_at
		 FROM drug_tests`,
		func(rows *sql.Rows) (models.DrugTest, error) {
			var r models.DrugTest
			var raceID sql.NullInt64
			var created sql.NullTime
			err := rows.Scan(&r.ID, &r.HorseID, &raceID, &r.TestDate, &r.TestType,
				&r.Status, &r.Notes, &created)
			r.RaceID = nullInt(raceID)
			r.CreatedAt = orNow(created)
			return r, err
		})
}
