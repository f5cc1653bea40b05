package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	"github.com/mmacri/del-mar-equine-command/models"
)

// Activities returns activity sessions ordered by start time, optionally for
// one horse.
func (h *Handler) Activities(c echo.Context) error {
	var activities []models.Activity
	q := h.db.NewSelect().Model(&activities).Order("start_time DESC")
	if horseID := c.QueryParam("horseID"); horseID != "" {
		q = q.Where("horse_id = ?", horseID)
	}

	if err := q.Scan(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, activities)
}

type activityRequest struct {
	HorseID      int        `json:"horseID"`
	ActivityType string     `json:"activityType"`
	StartTime    time.Time  `json:"startTime"`
	EndTime      *time.Time `json:"endTime,omitempty"`
	Notes        string     `json:"notes"`
}

// CreateActivity logs an activity session and refreshes the horse's
// denormalized current_activity field for open sessions.
func (h *Handler) CreateActivity(c echo.Context) error {
	var req activityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.HorseID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "horseID is required")
	}
	req.ActivityType = strings.TrimSpace(req.ActivityType)
	if req.ActivityType == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "activityType is required")
	}
	if req.StartTime.IsZero() {
		req.StartTime = time.Now()
	}

	ctx := c.Request().Context()
	activity := &models.Activity{
		HorseID:      req.HorseID,
		ActivityType: req.ActivityType,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Notes:        strings.TrimSpace(req.Notes),
		CreatedAt:    time.Now(),
	}

	if _, err := h.db.NewInsert().Model(activity).Exec(ctx); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if req.EndTime == nil {
		if _, err := h.db.NewUpdate().Model((*models.Horse)(nil)).
			Set("current_activity = ?", req.ActivityType).
			Set("updated_at = ?", time.Now()).
			Where("id = ?", req.HorseID).
			Exec(ctx); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusCreated, activity)
}

// DeleteActivities removes the given activity rows.
func (h *Handler) DeleteActivities(c echo.Context) error {
	var req bulkDeleteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.IDs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "ids is required")
	}

	if _, err := h.db.NewDelete().Model((*models.Activity)(nil)).
		Where("id IN (?)", bun.In(req.IDs)).
		Exec(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusOK)
}

// VeterinaryRecords returns vet records, optionally for one horse.
func (h *Handler) VeterinaryRecords(c echo.Context) error {
	var records []models.VeterinaryRecord
	q := h.db.NewSelect().Model(&records).Order("visit_date DESC")
	if horseID := c.QueryParam("horseID"); horseID != "" {
		q = q.Where("horse_id = ?", horseID)
	}

	if err := q.Scan(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, records)
}

type vetRecordRequest struct {
	HorseID      int       `json:"horseID"`
	VisitDate    time.Time `json:"visitDate"`
	Veterinarian string    `json:"veterinarian"`
	Diagnosis    string    `json:"diagnosis"`
	Treatment    string    `json:"treatment"`
	Notes        string    `json:"notes"`
}

// CreateVeterinaryRecord logs a vet visit.
func (h *Handler) CreateVeterinaryRecord(c echo.Context) error {
	var req vetRecordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.HorseID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "horseID is required")
	}
	if req.VisitDate.IsZero() {
		req.VisitDate = time.Now()
	}

	record := &models.VeterinaryRecord{
		HorseID:      req.HorseID,
		VisitDate:    req.VisitDate,
		Veterinarian: strings.TrimSpace(req.Veterinarian),
		Diagnosis:    strings.TrimSpace(req.Diagnosis),
		Treatment:    strings.TrimSpace(req.Treatment),
		Notes:        strings.TrimSpace(req.Notes),
		CreatedAt:    time.Now(),
	}

	if _, err := h.db.NewInsert().Model(record).Exec(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, record)
}

// DrugTests returns drug tests filtered by horse, race or status.
func (h *Handler) DrugTests(c echo.Context) error {
	var tests []models.DrugTest
	q := h.db.NewSelect().Model(&tests).Order("test_date DESC")
	if horseID := c.QueryParam("horseID"); horseID != "" {
		q = q.Where("horse_id = ?", horseID)
	}
	if raceID := c.QueryParam("raceID"); raceID != "" {
		q = q.Where("race_id = ?", raceID)
	}
	if status := c.QueryParam("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	if err := q.Scan(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, tests)
}

type drugTestRequest struct {
	HorseID  int       `json:"horseID"`
	RaceID   *int      `json:"raceID,omitempty"`
	TestDate time.Time `json:"testDate"`
	TestType string    `json:"testType"`
	Status   string    `json:"status"`
	Notes    string    `json:"notes"`
}

// CreateDrugTest logs a drug screening.
func (h *Handler) CreateDrugTest(c echo.Context) error {
	var req drugTestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.HorseID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "horseID is required")
	}
	if req.Status == "" {
		req.Status = models.TestPending
	}
	switch req.Status {
	case models.TestPending, models.TestPassed, models.TestFailed, models.TestInconclusive:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	if req.TestDate.IsZero() {
		req.TestDate = time.Now()
	}

	test := &models.DrugTest{
		HorseID:   req.HorseID,
		RaceID:    req.RaceID,
		TestDate:  req.TestDate,
		TestType:  strings.TrimSpace(req.TestType),
		Status:    req.Status,
		Notes:     strings.TrimSpace(req.Notes),
		CreatedAt: time.Now(),
	}

	if _, err := h.db.NewInsert().Model(test).Exec(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, test)
}

// UpdateDrugTest updates a screening's status and notes.
func (h *Handler) UpdateDrugTest(c echo.Context) error {
	id := c.Param("id")

	var req drugTestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	switch req.Status {
	case models.TestPending, models.TestPassed, models.TestFailed, models.TestInconclusive:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	res, err := h.db.NewUpdate().Model((*models.DrugTest)(nil)).
		Set("status = ?", req.Status).
		Set("notes = ?", strings.TrimSpace(req.Notes)).
		Where("id = ?", id).
		Exec(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "drug test not found")
	}

	return c.NoContent(http.StatusOK)
}
