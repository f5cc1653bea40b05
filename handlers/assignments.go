package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	"github.com/mmacri/del-mar-equine-command/models"
)

type assignmentRequest struct {
	HorseID       int        `json:"horseID"`
	LocationID    int        `json:"locationID"`
	AssignedUntil *time.Time `json:"assignedUntil,omitempty"`
	Notes         string     `json:"notes"`
}

// Assignments returns assignment history, optionally for one horse.
func (h *Handler) Assignments(c echo.Context) error {
	var assignments []models.LocationAssignment
	q := h.db.NewSelect().Model(&assignments).Order("id ASC")
	if horseID := c.QueryParam("horseID"); horseID != "" {
		q = q.Where("horse_id = ?", horseID)
	}
	if locationID := c.QueryParam("locationID"); locationID != "" {
		q = q.Where("location_id = ?", locationID)
	}

	if err := q.Scan(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, assignments)
}

// CreateAssignment places a horse in a location and refreshes the horse's
// denormalized current_location_id cache.
func (h *Handler) CreateAssignment(c echo.Context) error {
	var req assignmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.HorseID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "horseID is required")
	}
	if req.LocationID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "locationID is required")
	}

	ctx := c.Request().Context()
	horseExists, err := h.db.NewSelect().Model((*models.Horse)(nil)).
		Where("id = ?", req.HorseID).
		Exists(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !horseExists {
		return echo.NewHTTPError(http.StatusBadRequest, "horse does not exist")
	}
	locationExists, err := h.db.NewSelect().Model((*models.Location)(nil)).
		Where("id = ?", req.LocationID).
		Exists(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !locationExists {
		return echo.NewHTTPError(http.StatusBadRequest, "location does not exist")
	}

	username, _ := c.Get("username").(string)
	var assignedBy int
	_ = h.db.NewSelect().Model((*models.User)(nil)).
		Column("id").
		Where("username = ?", username).
		Scan(ctx, &assignedBy)

	now := time.Now()
	assignment := &models.LocationAssignment{
		HorseID:       req.HorseID,
		LocationID:    req.LocationID,
		AssignedAt:    now,
		AssignedUntil: req.AssignedUntil,
		AssignedBy:    assignedBy,
		Notes:         strings.TrimSpace(req.Notes),
		CreatedAt:     now,
	}

	if _, err := h.db.NewInsert().Model(assignment).Exec(ctx); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Cache only; the joiner always recomputes from assignment rows.
	if _, err := h.db.NewUpdate().Model((*models.Horse)(nil)).
		Set("current_location_id = ?", req.LocationID).
		Set("updated_at = ?", now).
		Where("id = ?", req.HorseID).
		Exec(ctx); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, assignment)
}

// EndAssignment closes an assignment by stamping assigned_until.
func (h *Handler) EndAssignment(c echo.Context) error {
	id := c.Param("id")

	now := time.Now()
	res, err := h.db.NewUpdate().Model((*models.LocationAssignment)(nil)).
		Set("assigned_until = ?", now).
		Where("id = ?", id).
		Where("assigned_until IS NULL OR assigned_until > ?", now).
		Exec(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "active assignment not found")
	}

	return c.NoContent(http.StatusOK)
}

// DeleteAssignments removes the given assignment rows.
func (h *Handler) DeleteAssignments(c echo.Context) error {
	var req bulkDeleteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.IDs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "ids is required")
	}

	if _, err := h.db.NewDelete().Model((*models.LocationAssignment)(nil)).
		Where("id IN (?)", bun.In(req.IDs)).
		Exec(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusOK)
}
