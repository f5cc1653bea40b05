package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"

	bundb "github.com/mmacri/del-mar-equine-command/db"
	"github.com/mmacri/del-mar-equine-command/models"
)

func setup(t *testing.T) (*Handler, *bun.DB) {
	t.Helper()

	db, err := bundb.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, bundb.CreateTables(context.Background(), db))

	return New(db, []byte("test-secret"), "2024", "Del Mar"), db
}

func newCtx(t *testing.T, method, target string, body io.Reader, contentType string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.Set("username", "tester")
	c.Set("role", models.RoleAdmin)
	return c, rec
}

func jsonCtx(t *testing.T, method, target string, payload interface{}) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	b, err := json.Marshal(payload)
	require.NoError(t, err)
	return newCtx(t, method, target, bytes.NewReader(b), echo.MIMEApplicationJSON)
}

func seedOwner(t *testing.T, db *bun.DB, name, email string) *models.Owner {
	t.Helper()

	now := time.Now()
	owner := &models.Owner{Name: name, Email: email, CreatedAt: now, UpdatedAt: now}
	_, err := db.NewInsert().Model(owner).Exec(context.Background())
	require.NoError(t, err)
	return owner
}

func seedHorse(t *testing.T, db *bun.DB, trackingID, name string, ownerID int, status string) *models.Horse {
	t.Helper()

	now := time.Now()
	horse := &models.Horse{
		TrackingID: trackingID,
		Name:       name,
		OwnerID:    ownerID,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err := db.NewInsert().Model(horse).Exec(context.Background())
	require.NoError(t, err)
	return horse
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()

	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %v", err)
	return he.Code
}

func TestSignin(t *testing.T) {
	h, db := setup(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.DefaultCost)
	require.NoError(t, err)
	user := &models.User{
		Username: "jane", Email: "jane@example.com", Role: models.RoleAdmin,
		Password: string(hash), CreatedAt: time.Now(),
	}
	_, err = db.NewInsert().Model(user).Exec(context.Background())
	require.NoError(t, err)

	c, rec := jsonCtx(t, http.MethodPost, "/dm/signin", credentials{Username: "jane", Password: "secret"})
	require.NoError(t, h.Signin(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["token"])
	assert.Equal(t, models.RoleAdmin, resp["role"])

	c, _ = jsonCtx(t, http.MethodPost, "/dm/signin", credentials{Username: "jane", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, httpStatus(t, h.Signin(c)))
}

func TestCreateOwnerDuplicateEmail(t *testing.T) {
	h, _ := setup(t)

	c, rec := jsonCtx(t, http.MethodPost, "/dm/owners", ownerRequest{Name: "Jane", Email: "jane@example.com"})
	require.NoError(t, h.CreateOwner(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	c, _ = jsonCtx(t, http.MethodPost, "/dm/owners", ownerRequest{Name: "Other Jane", Email: "jane@example.com"})
	assert.Equal(t, http.StatusConflict, httpStatus(t, h.CreateOwner(c)))
}

func TestDeleteOwnerWithHorsesRefused(t *testing.T) {
	h, db := setup(t)

	owner := seedOwner(t, db, "Jane", "jane@example.com")
	horse := seedHorse(t, db, "DM20240001", "Thunder", owner.ID, models.HorseActive)

	c, _ := jsonCtx(t, http.MethodPost, "/dm/owners/delete", bulkDeleteRequest{IDs: []int{owner.ID}})
	assert.Equal(t, http.StatusConflict, httpStatus(t, h.DeleteOwners(c)))

	// No rows removed.
	count, err := db.NewSelect().Model((*models.Owner)(nil)).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Deleting the horse first unblocks the owner.
	c, _ = jsonCtx(t, http.MethodPost, "/dm/horses/delete", bulkDeleteRequest{IDs: []int{horse.ID}})
	require.NoError(t, h.DeleteHorses(c))
	c, _ = jsonCtx(t, http.MethodPost, "/dm/owners/delete", bulkDeleteRequest{IDs: []int{owner.ID}})
	require.NoError(t, h.DeleteOwners(c))
}

func TestCreateHorseGeneratesUniqueTrackingIDs(t *testing.T) {
	h, db := setup(t)
	owner := seedOwner(t, db, "Jane", "jane@example.com")

	seen := make(map[string]bool)
	for i := 0; i < 25; i++ {
		c, rec := jsonCtx(t, http.MethodPost, "/dm/horses",
			horseRequest{Name: fmt.Sprintf("Horse %d", i), OwnerID: owner.ID})
		require.NoError(t, h.CreateHorse(c))
		require.Equal(t, http.StatusCreated, rec.Code)

		var horse models.Horse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &horse))
		assert.Regexp(t, fmt.Sprintf(`^DM%d\d{4}$`, time.Now().Year()), horse.TrackingID)
		assert.False(t, seen[horse.TrackingID], "duplicate tracking id %s", horse.TrackingID)
		seen[horse.TrackingID] = true
	}
}

func TestTrackingIDExhaustion(t *testing.T) {
	_, db := setup(t)
	ctx := context.Background()
	owner := seedOwner(t, db, "Jane", "jane@example.com")

	// Occupy the entire DM<year>0000-9999 space.
	now := time.Now()
	year := now.Year()
	var batch []models.Horse
	for i := 0; i < 10000; i++ {
		batch = append(batch, models.Horse{
			TrackingID: fmt.Sprintf("DM%d%04d", year, i),
			Name:       "Filler",
			OwnerID:    owner.ID,
			Status:     models.HorseActive,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if len(batch) == 500 {
			_, err := db.NewInsert().Model(&batch).Exec(ctx)
			require.NoError(t, err)
			batch = batch[:0]
		}
	}

	_, err := generateTrackingID(ctx, db, now)
	require.ErrorIs(t, err, errTrackingIDExhausted)
}

func TestHorsesOwnerRoleScoped(t *testing.T) {
	h, db := setup(t)

	jane := seedOwner(t, db, "Jane", "jane@example.com")
	bob := seedOwner(t, db, "Bob", "bob@example.com")
	seedHorse(t, db, "DM20240001", "Thunder", jane.ID, models.HorseActive)
	seedHorse(t, db, "DM20240002", "Lightning", bob.ID, models.HorseActive)

	c, rec := newCtx(t, http.MethodGet, "/dm/horses", nil, "")
	c.Set("role", models.RoleOwner)
	c.Set("email", "jane@example.com")
	require.NoError(t, h.Horses(c))

	var horses []json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &horses))
	require.Len(t, horses, 1)
	assert.Contains(t, string(horses[0]), "Thunder")
}

func TestDashboardScenario(t *testing.T) {
	h, db := setup(t)
	ctx := context.Background()

	owner := seedOwner(t, db, "Jane", "jane@example.com")
	horse := seedHorse(t, db, "DM20240001", "Thunder", owner.ID, models.HorseActive)
	_, err := db.NewUpdate().Model((*models.Horse)(nil)).
		Set("current_activity = ?", "racing").
		Where("id = ?", horse.ID).
		Exec(ctx)
	require.NoError(t, err)

	location := &models.Location{Name: "Main Track", Type: models.LocationTrack,
		Capacity: 4, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	_, err = db.NewInsert().Model(location).Exec(ctx)
	require.NoError(t, err)

	assignment := &models.LocationAssignment{HorseID: horse.ID, LocationID: location.ID,
		AssignedAt: time.Now().Add(-time.Hour), CreatedAt: time.Now()}
	_, err = db.NewInsert().Model(assignment).Exec(ctx)
	require.NoError(t, err)

	c, rec := newCtx(t, http.MethodGet, "/dm/dashboard", nil, "")
	require.NoError(t, h.Dashboard(c))

	body := rec.Body.String()
	assert.Contains(t, body, `"locationStatus":"racing"`)
	assert.Contains(t, body, `"level":"green"`)
	assert.Contains(t, body, `"In Main Track - racing"`)
}

func TestCommandCenterCounts(t *testing.T) {
	h, db := setup(t)
	ctx := context.Background()

	owner := seedOwner(t, db, "Jane", "jane@example.com")
	seedHorse(t, db, "DM20240001", "Thunder", owner.ID, models.HorseActive)
	seedHorse(t, db, "DM20240002", "Limper", owner.ID, models.HorseInjured)

	race := &models.Race{Name: "Pacific Classic", RaceDate: time.Now(),
		Status: models.RaceScheduled, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	_, err := db.NewInsert().Model(race).Exec(ctx)
	require.NoError(t, err)

	test := &models.DrugTest{HorseID: 1, TestDate: time.Now(),
		Status: models.TestPending, CreatedAt: time.Now()}
	_, err = db.NewInsert().Model(test).Exec(ctx)
	require.NoError(t, err)

	c, rec := newCtx(t, http.MethodGet, "/dm/command-center", nil, "")
	require.NoError(t, h.CommandCenter(c))

	var resp commandCenterResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.TotalHorses)
	assert.Equal(t, 1, resp.StatusCounts[models.HorseActive])
	assert.Equal(t, 1, resp.StatusCounts[models.HorseInjured])
	assert.Equal(t, 1, resp.ActiveRaces)
	assert.Equal(t, 1, resp.PendingDrugTests)

	// The injured horse shows up in the triage list too.
	var issues []string
	for _, p := range resp.Problems {
		issues = append(issues, p.Issue)
	}
	assert.Contains(t, issues, "Horse Injured")
}

func TestProblemsViewSeverityParam(t *testing.T) {
	h, db := setup(t)

	owner := seedOwner(t, db, "Jane", "jane@example.com")
	horse := seedHorse(t, db, "DM20240001", "Walker", owner.ID, models.HorseActive)
	_, err := db.NewUpdate().Model((*models.Horse)(nil)).
		Set("current_activity = ?", "walking").
		Where("id = ?", horse.ID).
		Exec(context.Background())
	require.NoError(t, err)

	c, rec := newCtx(t, http.MethodGet, "/dm/problems?severity=warning", nil, "")
	require.NoError(t, h.ProblemsView(c))

	var problems []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problems))
	require.Len(t, problems, 1)
	assert.Equal(t, "Walking Without Location", problems[0]["issue"])
}

func csvRequest(t *testing.T, content string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", "import.csv")
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return newCtx(t, http.MethodPost, "/dm/import/csv", &buf, w.FormDataContentType())
}

func TestImportCSVSimpleLayout(t *testing.T) {
	h, db := setup(t)

	csvData := strings.Join([]string{
		strings.Join(simpleHeader, ","),
		"Thunder,Jane Smith,jane@example.com,555-0100,1 Track Rd,REG1,Thoroughbred,Bay,4,mare,active,training",
		"Lightning,Jane Smith,jane@example.com,555-0100,1 Track Rd,REG2,Arabian,Grey,5,colt,active,",
	}, "\n")

	c, rec := csvRequest(t, csvData)
	require.NoError(t, h.ImportCSV(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var summary importSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.HorsesCreated)
	assert.Equal(t, 1, summary.OwnersCreated) // shared email, one owner

	ctx := context.Background()
	horses, err := db.NewSelect().Model((*models.Horse)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, horses)
}

func TestImportCSVSeasonMismatchRejected(t *testing.T) {
	h, db := setup(t)

	csvData := strings.Join([]string{
		strings.Join(seasonHeader, ","),
		"2023,Del Mar,Thunder,Jane,jane@example.com,555-0100,4,Thoroughbred,Bay,mare,active,DM20230001,Barn A,barn,training",
	}, "\n")

	c, _ := csvRequest(t, csvData)
	assert.Equal(t, http.StatusBadRequest, httpStatus(t, h.ImportCSV(c)))

	// Rejected before any row is written.
	count, err := db.NewSelect().Model((*models.Horse)(nil)).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestImportCSVSeasonLayout(t *testing.T) {
	h, db := setup(t)

	csvData := strings.Join([]string{
		strings.Join(seasonHeader, ","),
		"2024,Del Mar,Thunder,Jane,jane@example.com,555-0100,4,Thoroughbred,Bay,mare,active,DM20240001,Barn A,barn,training",
	}, "\n")

	c, rec := csvRequest(t, csvData)
	require.NoError(t, h.ImportCSV(c))

	var summary importSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.HorsesCreated)
	assert.Equal(t, 1, summary.LocationsCreated)

	// The location assignment was created along with the horse.
	ctx := context.Background()
	count, err := db.NewSelect().Model((*models.LocationAssignment)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Re-importing the same file duplicates nothing.
	c, rec = csvRequest(t, csvData)
	require.NoError(t, h.ImportCSV(c))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 0, summary.HorsesCreated)
	assert.Equal(t, 1, summary.HorsesSkipped)
}

func TestJSONRoundTrip(t *testing.T) {
	h, db := setup(t)
	ctx := context.Background()

	owner := seedOwner(t, db, "Jane", "jane@example.com")
	seedHorse(t, db, "DM20240001", "Thunder", owner.ID, models.HorseActive)
	seedHorse(t, db, "DM20240002", "Lightning", owner.ID, models.HorseActive)
	location := &models.Location{Name: "Barn A", Type: models.LocationBarn,
		Capacity: 10, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	_, err := db.NewInsert().Model(location).Exec(ctx)
	require.NoError(t, err)

	c, rec := newCtx(t, http.MethodGet, "/dm/export/json", nil, "")
	require.NoError(t, h.ExportJSON(c))

	var snap Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "2024", snap.Season)
	assert.Equal(t, "Del Mar", snap.Racetrack)
	require.Len(t, snap.Horses, 2)

	// Re-importing the export creates no duplicates.
	c, rec = newCtx(t, http.MethodPost, "/dm/import/json",
		bytes.NewReader(rec.Body.Bytes()), echo.MIMEApplicationJSON)
	require.NoError(t, h.ImportJSON(c))

	var summary importSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 0, summary.HorsesCreated)
	assert.Equal(t, 2, summary.HorsesSkipped)
	assert.Equal(t, 0, summary.OwnersCreated)
	assert.Equal(t, 0, summary.LocationsCreated)

	horses, err := db.NewSelect().Model((*models.Horse)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, horses)
	owners, err := db.NewSelect().Model((*models.Owner)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, owners)

	// Mismatched context is rejected outright.
	snap.Season = "2019"
	c, _ = jsonCtx(t, http.MethodPost, "/dm/import/json", snap)
	assert.Equal(t, http.StatusBadRequest, httpStatus(t, h.ImportJSON(c)))
}

func TestAssignmentUpdatesHorseCache(t *testing.T) {
	h, db := setup(t)
	ctx := context.Background()

	owner := seedOwner(t, db, "Jane", "jane@example.com")
	horse := seedHorse(t, db, "DM20240001", "Thunder", owner.ID, models.HorseActive)
	location := &models.Location{Name: "Barn A", Type: models.LocationBarn,
		Capacity: 10, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	_, err := db.NewInsert().Model(location).Exec(ctx)
	require.NoError(t, err)

	c, rec := jsonCtx(t, http.MethodPost, "/dm/assignments",
		assignmentRequest{HorseID: horse.ID, LocationID: location.ID})
	require.NoError(t, h.CreateAssignment(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var updated models.Horse
	require.NoError(t, db.NewSelect().Model(&updated).
		Where("id = ?", horse.ID).Scan(ctx))
	require.NotNil(t, updated.CurrentLocationID)
	assert.Equal(t, location.ID, *updated.CurrentLocationID)
}
