package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mmacri/del-mar-equine-command/models"
	"github.com/mmacri/del-mar-equine-command/views"
)

// The two accepted CSV layouts. The season-scoped layout carries its own
// Season/Racetrack columns and is rejected when they do not match the
// configured facility context.
var (
	simpleHeader = []string{
		"horse_name", "owner_name", "owner_email", "owner_phone", "owner_address",
		"registration_number", "breed", "color", "age", "gender", "status",
		"current_activity",
	}
	seasonHeader = []string{
		"Season", "Racetrack", "HorseName", "OwnerName", "OwnerEmail",
		"OwnerPhone", "Age", "Breed", "Color", "Gender", "Status",
		"TrackingID", "LocationName", "LocationType", "CurrentActivity",
	}
)

type importRow struct {
	HorseName          string
	OwnerName          string
	OwnerEmail         string
	OwnerPhone         string
	OwnerAddress       string
	RegistrationNumber string
	Breed              string
	Color              string
	Age                int
	Gender             string
	Status             string
	TrackingID         string
	LocationName       string
	LocationType       string
	CurrentActivity    string
}

type importSummary struct {
	HorsesCreated    int `json:"horsesCreated"`
	HorsesSkipped    int `json:"horsesSkipped"`
	OwnersCreated    int `json:"ownersCreated"`
	LocationsCreated int `json:"locationsCreated"`
}

func headerMatches(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if !strings.EqualFold(strings.TrimSpace(got[i]), want[i]) {
			return false
		}
	}
	return true
}

// ImportCSV bulk-loads horses and owners from an uploaded CSV file. The
// whole file is parsed and validated before any row is written; a malformed
// row or a season/racetrack mismatch rejects the entire import.
func (h *Handler) ImportCSV(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer src.Close()

	r := csv.NewReader(src)
	records, err := r.ReadAll()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("malformed CSV: %v", err))
	}
	if len(records) < 2 {
		return echo.NewHTTPError(http.StatusBadRequest, "CSV has no data rows")
	}

	var rows []importRow
	switch {
	case headerMatches(records[0], simpleHeader):
		rows, err = parseSimpleRows(records[1:])
	case headerMatches(records[0], seasonHeader):
		rows, err = h.parseSeasonRows(records[1:])
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unrecognised CSV header")
	}
	if err != nil {
		return err
	}

	summary, err := h.importRows(c, rows)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

func parseSimpleRows(records [][]string) ([]importRow, error) {
	rows := make([]importRow, 0, len(records))
	for i, rec := range records {
		if len(rec) != len(simpleHeader) {
			return nil, echo.NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("row %d: expected %d columns, got %d", i+2, len(simpleHeader), len(rec)))
		}
		age, err := parseAge(rec[8], i+2)
		if err != nil {
			return nil, err
		}
		rows = append(rows, importRow{
			HorseName:          strings.TrimSpace(rec[0]),
			OwnerName:          strings.TrimSpace(rec[1]),
			OwnerEmail:         strings.TrimSpace(strings.ToLower(rec[2])),
			OwnerPhone:         strings.TrimSpace(rec[3]),
			OwnerAddress:       strings.TrimSpace(rec[4]),
			RegistrationNumber: strings.TrimSpace(rec[5]),
			Breed:              strings.TrimSpace(rec[6]),
			Color:              strings.TrimSpace(rec[7]),
			Age:                age,
			Gender:             strings.TrimSpace(rec[9]),
			Status:             strings.TrimSpace(rec[10]),
			CurrentActivity:    strings.TrimSpace(rec[11]),
		})
	}
	return rows, nil
}

func (h *Handler) parseSeasonRows(records [][]string) ([]importRow, error) {
	rows := make([]importRow, 0, len(records))
	for i, rec := range records {
		if len(rec) != len(seasonHeader) {
			return nil, echo.NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("row %d: expected %d columns, got %d", i+2, len(seasonHeader), len(rec)))
		}
		season := strings.TrimSpace(rec[0])
		racetrack := strings.TrimSpace(rec[1])
		if season != h.Season || !strings.EqualFold(racetrack, h.Racetrack) {
			return nil, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf(
				"row %d: file is for %s/%s, current context is %s/%s",
				i+2, season, racetrack, h.Season, h.Racetrack))
		}
		age, err := parseAge(rec[6], i+2)
		if err != nil {
			return nil, err
		}
		rows = append(rows, importRow{
			HorseName:       strings.TrimSpace(rec[2]),
			OwnerName:       strings.TrimSpace(rec[3]),
			OwnerEmail:      strings.TrimSpace(strings.ToLower(rec[4])),
			OwnerPhone:      strings.TrimSpace(rec[5]),
			Age:             age,
			Breed:           strings.TrimSpace(rec[7]),
			Color:           strings.TrimSpace(rec[8]),
			Gender:          strings.TrimSpace(rec[9]),
			Status:          strings.TrimSpace(rec[10]),
			TrackingID:      strings.TrimSpace(rec[11]),
			LocationName:    strings.TrimSpace(rec[12]),
			LocationType:    strings.TrimSpace(rec[13]),
			CurrentActivity: strings.TrimSpace(rec[14]),
		})
	}
	return rows, nil
}

func parseAge(s string, line int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	age, err := strconv.Atoi(s)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("row %d: invalid age %q", line, s))
	}
	return age, nil
}

// importRows writes validated rows. Owners are deduplicated by email, horses
// by tracking id, locations by name; existing rows are reused, never
// duplicated, so re-importing an export is a no-op on counts.
func (h *Handler) importRows(c echo.Context, rows []importRow) (*importSummary, error) {
	ctx := c.Request().Context()
	now := time.Now()
	summary := &importSummary{}

	username, _ := c.Get("username").(string)
	var assignedBy int
	_ = h.db.NewSelect().Model((*models.User)(nil)).
		Column("id").
		Where("username = ?", username).
		Scan(ctx, &assignedBy)

	for _, row := range rows {
		if row.HorseName == "" || row.OwnerEmail == "" {
			continue
		}

		owner := &models.Owner{}
		err := h.db.NewSelect().Model(owner).
			Where("email = ?", row.OwnerEmail).
			Scan(ctx)
		if err != nil {
			owner = &models.Owner{
				Name:      row.OwnerName,
				Email:     row.OwnerEmail,
				Phone:     row.OwnerPhone,
				Address:   row.OwnerAddress,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if _, err := h.db.NewInsert().Model(owner).Exec(ctx); err != nil {
				return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}
			summary.OwnersCreated++
		}

		trackingID := row.TrackingID
		if trackingID != "" {
			exists, err := h.db.NewSelect().Model((*models.Horse)(nil)).
				Where("tracking_id = ?", trackingID).
				Exists(ctx)
			if err != nil {
				return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}
			if exists {
				summary.HorsesSkipped++
				continue
			}
		} else {
			var err error
			trackingID, err = generateTrackingID(ctx, h.db, now)
			if err != nil {
				return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}
		}

		status := row.Status
		if status == "" {
			status = models.HorseActive
		}
		horse := &models.Horse{
			TrackingID:         trackingID,
			Name:               row.HorseName,
			RegistrationNumber: row.RegistrationNumber,
			Breed:              row.Breed,
			Color:              row.Color,
			Age:                row.Age,
			Gender:             row.Gender,
			OwnerID:            owner.ID,
			Status:             status,
			CurrentActivity:    row.CurrentActivity,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if _, err := h.db.NewInsert().Model(horse).Exec(ctx); err != nil {
			return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		summary.HorsesCreated++

		if row.LocationName != "" {
			location := &models.Location{}
			err := h.db.NewSelect().Model(location).
				Where("name = ?", row.LocationName).
				Scan(ctx)
			if err != nil {
				locType := row.LocationType
				if locType == "" {
					locType = models.LocationStable
				}
				location = &models.Location{
					Name:      row.LocationName,
					Type:      locType,
					CreatedAt: now,
					UpdatedAt: now,
				}
				if _, err := h.db.NewInsert().Model(location).Exec(ctx); err != nil {
					return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
				}
				summary.LocationsCreated++
			}

			assignment := &models.LocationAssignment{
				HorseID:    horse.ID,
				LocationID: location.ID,
				AssignedAt: now,
				AssignedBy: assignedBy,
				Notes:      "imported",
				CreatedAt:  now,
			}
			if _, err := h.db.NewInsert().Model(assignment).Exec(ctx); err != nil {
				return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}
			if _, err := h.db.NewUpdate().Model((*models.Horse)(nil)).
				Set("current_location_id = ?", location.ID).
				Where("id = ?", horse.ID).
				Exec(ctx); err != nil {
				return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}
		}
	}

	return summary, nil
}

// ExportCSV streams the denormalized horse/owner/location rows in the
// season-scoped layout, so an export can be re-imported as-is.
func (h *Handler) ExportCSV(c echo.Context) error {
	ds, err := views.LoadDataset(c.Request().Context(), h.db)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	horses := views.BuildHorseViews(ds, time.Now())

	locationTypes := make(map[string]string, len(ds.Locations))
	for _, l := range ds.Locations {
		locationTypes[l.Name] = l.Type
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="horses-%s.csv"`, time.Now().Format("2006-01-02")))
	c.Response().WriteHeader(http.StatusOK)

	w := csv.NewWriter(c.Response())
	if err := w.Write(seasonHeader); err != nil {
		return err
	}
	for _, v := range horses {
		rec := []string{
			h.Season, h.Racetrack, v.Name, v.OwnerName, v.OwnerEmail, "",
			strconv.Itoa(v.Age), v.Breed, v.Color, v.Gender, v.Status,
			v.TrackingID, v.LocationName, locationTypes[v.LocationName],
			v.CurrentActivity,
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// Snapshot is the JSON export format.
type Snapshot struct {
	Season     string            `json:"season"`
	Racetrack  string            `json:"racetrack"`
	ExportDate time.Time         `json:"exportDate"`
	Horses     []models.Horse    `json:"horses"`
	Owners     []models.Owner    `json:"owners"`
	Locations  []models.Location `json:"locations"`
}

// ExportJSON downloads a nested snapshot of horses, owners and locations.
func (h *Handler) ExportJSON(c echo.Context) error {
	ds, err := views.LoadDataset(c.Request().Context(), h.db)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="snapshot-%s.json"`, time.Now().Format("2006-01-02")))

	return c.JSON(http.StatusOK, Snapshot{
		Season:     h.Season,
		Racetrack:  h.Racetrack,
		ExportDate: time.Now(),
		Horses:     ds.Horses,
		Owners:     ds.Owners,
		Locations:  ds.Locations,
	})
}

// ImportJSON restores a snapshot. The season/racetrack context must match,
// and existing tracking ids, owner emails and location names are never
// duplicated.
func (h *Handler) ImportJSON(c echo.Context) error {
	var snap Snapshot
	if err := c.Bind(&snap); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if snap.Season != h.Season || !strings.EqualFold(snap.Racetrack, h.Racetrack) {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf(
			"snapshot is for %s/%s, current context is %s/%s",
			snap.Season, snap.Racetrack, h.Season, h.Racetrack))
	}

	ctx := c.Request().Context()
	now := time.Now()
	summary := &importSummary{}

	ownerIDs := make(map[int]int, len(snap.Owners))
	for _, o := range snap.Owners {
		existing := &models.Owner{}
		err := h.db.NewSelect().Model(existing).
			Where("email = ?", strings.ToLower(o.Email)).
			Scan(ctx)
		if err == nil {
			ownerIDs[o.ID] = existing.ID
			continue
		}
		owner := &models.Owner{
			Name:      o.Name,
			Email:     strings.ToLower(o.Email),
			Phone:     o.Phone,
			Address:   o.Address,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := h.db.NewInsert().Model(owner).Exec(ctx); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		ownerIDs[o.ID] = owner.ID
		summary.OwnersCreated++
	}

	for _, l := range snap.Locations {
		exists, err := h.db.NewSelect().Model((*models.Location)(nil)).
			Where("name = ?", l.Name).
			Exists(ctx)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if exists {
			continue
		}
		location := &models.Location{
			Name:             l.Name,
			Type:             l.Type,
			Capacity:         l.Capacity,
			CurrentOccupancy: l.CurrentOccupancy,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if _, err := h.db.NewInsert().Model(location).Exec(ctx); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		summary.LocationsCreated++
	}

	for _, hr := range snap.Horses {
		exists, err := h.db.NewSelect().Model((*models.Horse)(nil)).
			Where("tracking_id = ?", hr.TrackingID).
			Exists(ctx)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if exists {
			summary.HorsesSkipped++
			continue
		}
		ownerID, ok := ownerIDs[hr.OwnerID]
		if !ok {
			ownerID = hr.OwnerID
		}
		horse := &models.Horse{
			TrackingID:         hr.TrackingID,
			Name:               hr.Name,
			RegistrationNumber: hr.RegistrationNumber,
			Breed:              hr.Breed,
			Color:              hr.Color,
			Age:                hr.Age,
			Gender:             hr.Gender,
			OwnerID:            ownerID,
			Status:             hr.Status,
			CurrentActivity:    hr.CurrentActivity,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if _, err := h.db.NewInsert().Model(horse).Exec(ctx); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		summary.HorsesCreated++
	}

	return c.JSON(http.StatusOK, summary)
}
