package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mmacri/del-mar-equine-command/derive"
	"github.com/mmacri/del-mar-equine-command/filter"
	"github.com/mmacri/del-mar-equine-command/models"
	"github.com/mmacri/del-mar-equine-command/views"
)

type dashboardResponse struct {
	Horses      []views.HorseView         `json:"horses"`
	AlertCounts map[derive.AlertLevel]int `json:"alertCounts"`
	Filters     filter.Filters            `json:"filters"`
}

// Dashboard returns the filtered horse views plus alert tallies for the main
// screen.
func (h *Handler) Dashboard(c echo.Context) error {
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

	horses := f.HorseViews(all, f.RaceHorseIDs(ds.Participants))
	counts := map[derive.AlertLevel]int{
		derive.AlertGreen:  0,
		derive.AlertYellow: 0,
		derive.AlertRed:    0,
		derive.AlertGrey:   0,
	}
	for _, v := range horses {
		counts[v.Alert.Level]++
	}

	return c.JSON(http.StatusOK, dashboardResponse{
		Horses:      horses,
		AlertCounts: counts,
		Filters:     f,
	})
}

type commandCenterResponse struct {
	GeneratedAt      time.Time                 `json:"generatedAt"`
	TotalHorses      int                       `json:"totalHorses"`
	StatusCounts     map[string]int            `json:"statusCounts"`
	AlertCounts      map[derive.AlertLevel]int `json:"alertCounts"`
	ActiveRaces      int                       `json:"activeRaces"`
	PendingDrugTests int                       `json:"pendingDrugTests"`
	Problems         []derive.Problem          `json:"problems"`
	Horses           []views.HorseView         `json:"horses"`
}

// CommandCenter returns a full operational snapshot. Clients poll this
// endpoint; every call computes a fresh snapshot.
func (h *Handler) CommandCenter(c echo.Context) error {
	ds, err := views.LoadDataset(c.Request().Context(), h.db)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	now := time.Now()
	horses := views.BuildHorseViews(ds, now)

	resp := commandCenterResponse{
		GeneratedAt:  now,
		TotalHorses:  len(horses),
		StatusCounts: map[string]int{},
		AlertCounts:  map[derive.AlertLevel]int{},
		Problems:     views.BuildProblems(ds, h.Problems, now),
		Horses:       horses,
	}
	for _, v := range horses {
		resp.StatusCounts[v.Status]++
		resp.AlertCounts[v.Alert.Level]++
	}
	for _, rc := range ds.Races {
		if rc.Status == models.RaceScheduled || rc.Status == models.RaceRunning {
			resp.ActiveRaces++
		}
	}
	for _, dt := range ds.DrugTests {
		if dt.Status == models.TestPending {
			resp.PendingDrugTests++
		}
	}

	return c.JSON(http.StatusOK, resp)
}

// ProblemsView returns the triage list, optionally limited to one severity.
func (h *Handler) ProblemsView(c echo.Context) error {
	ds, err := views.LoadDataset(c.Request().Context(), h.db)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	problems := views.BuildProblems(ds, h.Problems, time.Now())
	if severity := c.QueryParam("severity"); severity != "" {
		kept := problems[:0]
		for _, p := range problems {
			if p.Severity == severity {
				kept = append(kept, p)
			}
		}
		problems = kept
	}

	return c.JSON(http.StatusOK, problems)
}

// LocationMap returns every location with its live occupants and
// over-capacity flag.
func (h *Handler) LocationMap(c echo.Context) error {
	ds, err := views.LoadDataset(c.Request().Context(), h.db)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, views.BuildLocationViews(ds, time.Now()))
}
