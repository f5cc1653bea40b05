package handlers

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	"github.com/mmacri/del-mar-equine-command/filter"
	"github.com/mmacri/del-mar-equine-command/models"
	"github.com/mmacri/del-mar-equine-command/views"
)

// trackingIDAttempts bounds tracking-id generation before giving up.
const trackingIDAttempts = 100

var errTrackingIDExhausted = errors.New("could not generate a unique tracking ID")

// generateTrackingID produces a facility-unique DM<year><4 digits> id,
// retrying on collision up to trackingIDAttempts times.
func generateTrackingID(ctx context.Context, db *bun.DB, now time.Time) (string, error) {
	year := now.Year()
	for i := 0; i < trackingIDAttempts; i++ {
		id := fmt.Sprintf("DM%d%04d", year, rand.Intn(10000))
		exists, err := db.NewSelect().Model((*models.Horse)(nil)).
			Where("tracking_id = ?", id).
			Exists(ctx)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
	}
	return "", errTrackingIDExhausted
}

type horseRequest struct {
	Name               string `json:"name"`
	RegistrationNumber string `json:"registrationNumber"`
	Breed              string `json:"breed"`
	Color              string `json:"color"`
	Age                int    `json:"age"`
	Gender             string `json:"gender"`
	OwnerID            int    `json:"ownerID"`
	Status             string `json:"status"`
	CurrentActivity    string `json:"currentActivity"`
}

func (r *horseRequest) validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if r.OwnerID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "ownerID is required")
	}
	if r.Status == "" {
		r.Status = models.HorseActive
	}
	switch r.Status {
	case models.HorseActive, models.HorseInactive, models.HorseInjured, models.HorseRetired:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	if r.Gender != "" {
		switch r.Gender {
		case models.GenderStallion, models.GenderMare, models.GenderGelding,
			models.GenderFilly, models.GenderColt:
		default:
			return echo.NewHTTPError(http.StatusBadRequest, "invalid gender")
		}
	}
	return nil
}

// Horses returns denormalized horse views, filterable, scoped to the
// caller's own horses for owner-role users.
func (h *Handler) Horses(c echo.Context) error {
	var f filter.Filters
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ds, err := views.LoadDataset(c.Request().Context(), h.db)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	all := views.BuildHorseViews(ds, time.Now())
	role, _ := c.Get("role").(string)
	email, _ := c.Get("email").(string)
	all = scopeHorseViews(all, ownerScope(role, email))

	return c.JSON(http.StatusOK, f.HorseViews(all, f.RaceHorseIDs(ds.Participants)))
}

// Horse returns one denormalized horse view by id.
func (h *Handler) Horse(c echo.Context) error {
	id := c.Param("id")

	ds, err := views.LoadDataset(c.Request().Context(), h.db)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	for _, v := range views.BuildHorseViews(ds, time.Now()) {
		if fmt.Sprint(v.ID) == id {
			return c.JSON(http.StatusOK, v)
		}
	}
	return echo.NewHTTPError(http.StatusNotFound, "horse not found")
}

// CreateHorse inserts a new horse, generating its tracking id.
func (h *Handler) CreateHorse(c echo.Context) error {
	var req horseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.validate(); err != nil {
		return err
	}

	ctx := c.Request().Context()
	ownerExists, err := h.db.NewSelect().Model((*models.Owner)(nil)).
		Where("id = ?", req.OwnerID).
		Exists(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ownerExists {
		return echo.NewHTTPError(http.StatusBadRequest, "owner does not exist")
	}

	now := time.Now()
	trackingID, err := generateTrackingID(ctx, h.db, now)
	if err != nil {
		if errors.Is(err, errTrackingIDExhausted) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	horse := &models.Horse{
		TrackingID:         trackingID,
		Name:               req.Name,
		RegistrationNumber: strings.TrimSpace(req.RegistrationNumber),
		Breed:              strings.TrimSpace(req.Breed),
		Color:              strings.TrimSpace(req.Color),
		Age:                req.Age,
		Gender:             req.Gender,
		OwnerID:            req.OwnerID,
		Status:             req.Status,
		CurrentActivity:    strings.TrimSpace(req.CurrentActivity),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if _, err := h.db.NewInsert().Model(horse).Exec(ctx); err != nil {
		if isDuplicateErr(err) {
			return echo.NewHTTPError(http.StatusConflict, "tracking ID already exists")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, horse)
}

// UpdateHorse replaces a horse's editable fields. The tracking id is never
// regenerated.
func (h *Handler) UpdateHorse(c echo.Context) error {
	id := c.Param("id")

	var req horseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.validate(); err != nil {
		return err
	}

	res, err := h.db.NewUpdate().Model((*models.Horse)(nil)).
		Set("name = ?", req.Name).
		Set("registration_number = ?", strings.TrimSpace(req.RegistrationNumber)).
		Set("breed = ?", strings.TrimSpace(req.Breed)).
		Set("color = ?", strings.TrimSpace(req.Color)).
		Set("age = ?", req.Age).
		Set("gender = ?", req.Gender).
		Set("owner_id = ?", req.OwnerID).
		Set("status = ?", req.Status).
		Set("current_activity = ?", strings.TrimSpace(req.CurrentActivity)).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "horse not found")
	}

	return c.NoContent(http.StatusOK)
}

// DeleteHorses removes the given horses and their dependent rows.
func (h *Handler) DeleteHorses(c echo.Context) error {
	var req bulkDeleteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.IDs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "ids is required")
	}

	ctx := c.Request().Context()
	dependents := []interface{}{
		(*models.LocationAssignment)(nil),
		(*models.RaceParticipant)(nil),
		(*models.Activity)(nil),
		(*models.VeterinaryRecord)(nil),
		(*models.DrugTest)(nil),
	}
	for _, model := range dependents {
		if _, err := h.db.NewDelete().Model(model).
			Where("horse_id IN (?)", bun.In(req.IDs)).
			Exec(ctx); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	if _, err := h.db.NewDelete().Model((*models.Horse)(nil)).
		Where("id IN (?)", bun.In(req.IDs)).
		Exec(ctx); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusOK)
}

// scopeHorseViews limits views to horses whose owner email matches; an empty
// scope returns the input unchanged.
func scopeHorseViews(in []views.HorseView, ownerEmail string) []views.HorseView {
	if ownerEmail == "" {
		return in
	}
	out := make([]views.HorseView, 0, len(in))
	for _, v := range in {
		if strings.EqualFold(v.OwnerEmail, ownerEmail) {
			out = append(out, v)
		}
	}
	return out
}
