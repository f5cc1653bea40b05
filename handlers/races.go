package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	"github.com/mmacri/del-mar-equine-command/filter"
	"github.com/mmacri/del-mar-equine-command/models"
	"github.com/mmacri/del-mar-equine-command/views"
)

type raceRequest struct {
	Name     string    `json:"name"`
	RaceDate time.Time `json:"raceDate"`
	Track    string    `json:"track"`
	Distance float64   `json:"distance"`
	Purse    float64   `json:"purse"`
	RaceType string    `json:"raceType"`
	Status   string    `json:"status"`
}

func (r *raceRequest) validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if r.RaceDate.IsZero() {
		return echo.NewHTTPError(http.StatusBadRequest, "raceDate is required")
	}
	if r.Status == "" {
		r.Status = models.RaceScheduled
	}
	switch r.Status {
	case models.RaceScheduled, models.RaceRunning, models.RaceCompleted, models.RaceCancelled:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	return nil
}

// Races returns race views with participants, filterable. This backs the
// race history screen.
func (h *Handler) Races(c echo.Context) error {
	var f filter.Filters
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ds, err := views.LoadDataset(c.Request().Context(), h.db)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, f.RaceViews(views.BuildRaceViews(ds)))
}

// CreateRace inserts a new race.
func (h *Handler) CreateRace(c echo.Context) error {
	var req raceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.validate(); err != nil {
		return err
	}

	now := time.Now()
	race := &models.Race{
		Name:      req.Name,
		RaceDate:  req.RaceDate,
		Track:     strings.TrimSpace(req.Track),
		Distance:  req.Distance,
		Purse:     req.Purse,
		RaceType:  strings.TrimSpace(req.RaceType),
		Status:    req.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := h.db.NewInsert().Model(race).Exec(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, race)
}

// UpdateRace replaces a race's fields.
func (h *Handler) UpdateRace(c echo.Context) error {
	id := c.Param("id")

	var req raceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.validate(); err != nil {
		return err
	}

	res, err := h.db.NewUpdate().Model((*models.Race)(nil)).
		Set("name = ?", req.Name).
		Set("race_date = ?", req.RaceDate).
		Set("track = ?", strings.TrimSpace(req.Track)).
		Set("distance = ?", req.Distance).
		Set("purse = ?", req.Purse).
		Set("race_type = ?", strings.TrimSpace(req.RaceType)).
		Set("status = ?", req.Status).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "race not found")
	}

	return c.NoContent(http.StatusOK)
}

// DeleteRaces removes the given races and their entries.
func (h *Handler) DeleteRaces(c echo.Context) error {
	var req bulkDeleteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.IDs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "ids is required")
	}

	ctx := c.Request().Context()
	if _, err := h.db.NewDelete().Model((*models.RaceParticipant)(nil)).
		Where("race_id IN (?)", bun.In(req.IDs)).
		Exec(ctx); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if _, err := h.db.NewDelete().Model((*models.Race)(nil)).
		Where("id IN (?)", bun.In(req.IDs)).
		Exec(ctx); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusOK)
}

type participantRequest struct {
	RaceID         int    `json:"raceID"`
	HorseID        int    `json:"horseID"`
	JockeyName     string `json:"jockeyName"`
	PostPosition   int    `json:"postPosition"`
	Odds           string `json:"odds"`
	FinishPosition *int   `json:"finishPosition,omitempty"`
}

// CreateParticipant enters a horse into a race.
func (h *Handler) CreateParticipant(c echo.Context) error {
	var req participantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.RaceID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "raceID is required")
	}
	if req.HorseID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "horseID is required")
	}

	participant := &models.RaceParticipant{
		RaceID:         req.RaceID,
		HorseID:        req.HorseID,
		JockeyName:     strings.TrimSpace(req.JockeyName),
		PostPosition:   req.PostPosition,
		Odds:           strings.TrimSpace(req.Odds),
		FinishPosition: req.FinishPosition,
		CreatedAt:      time.Now(),
	}

	if _, err := h.db.NewInsert().Model(participant).Exec(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, participant)
}

// UpdateParticipant records the outcome fields for a race entry.
func (h *Handler) UpdateParticipant(c echo.Context) error {
	id := c.Param("id")

	var req participantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := h.db.NewUpdate().Model((*models.RaceParticipant)(nil)).
		Set("jockey_name = ?", strings.TrimSpace(req.JockeyName)).
		Set("post_position = ?", req.PostPosition).
		Set("odds = ?", strings.TrimSpace(req.Odds)).
		Set("finish_position = ?", req.FinishPosition).
		Where("id = ?", id).
		Exec(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "participant not found")
	}

	return c.NoContent(http.StatusOK)
}

// DeleteParticipants removes the given race entries.
func (h *Handler) DeleteParticipants(c echo.Context) error {
	var req bulkDeleteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.IDs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "ids is required")
	}

	if _, err := h.db.NewDelete().Model((*models.RaceParticipant)(nil)).
		Where("id IN (?)", bun.In(req.IDs)).
		Exec(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusOK)
}
