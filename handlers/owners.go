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

type ownerRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (r *ownerRequest) validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
	if r.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if r.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}
	return nil
}

// Owners returns all owners with horse counts, filterable.
func (h *Handler) Owners(c echo.Context) error {
	var f filter.Filters
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ds, err := views.LoadDataset(c.Request().Context(), h.db)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, f.OwnerViews(views.BuildOwnerViews(ds)))
}

// CreateOwner inserts a new owner. Email must be unique.
func (h *Handler) CreateOwner(c echo.Context) error {
	var req ownerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.validate(); err != nil {
		return err
	}

	now := time.Now()
	owner := &models.Owner{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     strings.TrimSpace(req.Phone),
		Address:   strings.TrimSpace(req.Address),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := h.db.NewInsert().Model(owner).Exec(c.Request().Context()); err != nil {
		if isDuplicateErr(err) {
			return echo.NewHTTPError(http.StatusConflict, "owner email already exists")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, owner)
}

// UpdateOwner replaces an owner's fields.
func (h *Handler) UpdateOwner(c echo.Context) error {
	id := c.Param("id")

	var req ownerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.validate(); err != nil {
		return err
	}

	res, err := h.db.NewUpdate().Model((*models.Owner)(nil)).
		Set("name = ?", req.Name).
		Set("email = ?", req.Email).
		Set("phone = ?", strings.TrimSpace(req.Phone)).
		Set("address = ?", strings.TrimSpace(req.Address)).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(c.Request().Context())
	if err != nil {
		if isDuplicateErr(err) {
			return echo.NewHTTPError(http.StatusConflict, "owner email already exists")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "owner not found")
	}

	return c.NoContent(http.StatusOK)
}

type bulkDeleteRequest struct {
	IDs []int `json:"ids"`
}

// DeleteOwners removes the given owners. The whole batch is refused when any
// owner in it still has horses.
func (h *Handler) DeleteOwners(c echo.Context) error {
	var req bulkDeleteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.IDs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "ids is required")
	}

	ctx := c.Request().Context()
	owned, err := h.db.NewSelect().Model((*models.Horse)(nil)).
		Where("owner_id IN (?)", bun.In(req.IDs)).
		Count(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if owned > 0 {
		return echo.NewHTTPError(http.StatusConflict, "cannot delete owner with horses")
	}

	if _, err := h.db.NewDelete().Model((*models.Owner)(nil)).
		Where("id IN (?)", bun.In(req.IDs)).
		Exec(ctx); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusOK)
}
