package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	"github.com/mmacri/del-mar-equine-command/models"
)

type locationRequest struct {
	Name             string `json:"name"`
	Type             string `json:"type"`
	Capacity         int    `json:"capacity"`
	CurrentOccupancy int    `json:"currentOccupancy"`
}

func (r *locationRequest) validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	switch r.Type {
	case models.LocationStable, models.LocationPaddock, models.LocationTrack,
		models.LocationBarn, models.LocationMedical, models.LocationQuarantine:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "invalid location type")
	}
	if r.Capacity < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "capacity must not be negative")
	}
	return nil
}

// Locations returns all locations in insertion order.
func (h *Handler) Locations(c echo.Context) error {
	var locations []models.Location
	err := h.db.NewSelect().Model(&locations).Order("id ASC").Scan(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, locations)
}

// CreateLocation inserts a new location.
func (h *Handler) CreateLocation(c echo.Context) error {
	var req locationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.validate(); err != nil {
		return err
	}

	now := time.Now()
	location := &models.Location{
		Name:             req.Name,
		Type:             req.Type,
		Capacity:         req.Capacity,
		CurrentOccupancy: req.CurrentOccupancy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if _, err := h.db.NewInsert().Model(location).Exec(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, location)
}

// UpdateLocation replaces a location's fields.
func (h *Handler) UpdateLocation(c echo.Context) error {
	id := c.Param("id")

	var req locationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.validate(); err != nil {
		return err
	}

	res, err := h.db.NewUpdate().Model((*models.Location)(nil)).
		Set("name = ?", req.Name).
		Set("type = ?", req.Type).
		Set("capacity = ?", req.Capacity).
		Set("current_occupancy = ?", req.CurrentOccupancy).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "location not found")
	}

	return c.NoContent(http.StatusOK)
}

// DeleteLocations removes the given locations and their assignment history.
func (h *Handler) DeleteLocations(c echo.Context) error {
	var req bulkDeleteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.IDs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "ids is required")
	}

	ctx := c.Request().Context()
	if _, err := h.db.NewDelete().Model((*models.LocationAssignment)(nil)).
		Where("location_id IN (?)", bun.In(req.IDs)).
		Exec(ctx); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if _, err := h.db.NewDelete().Model((*models.Location)(nil)).
		Where("id IN (?)", bun.In(req.IDs)).
		Exec(ctx); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusOK)
}
