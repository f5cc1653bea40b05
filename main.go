package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/mmacri/del-mar-equine-command/config"
	"github.com/mmacri/del-mar-equine-command/db"
	"github.com/mmacri/del-mar-equine-command/handlers"
	applog "github.com/mmacri/del-mar-equine-command/logger"
	mw "github.com/mmacri/del-mar-equine-command/middleware"
	"github.com/mmacri/del-mar-equine-command/models"
)

func main() {
	cfg := config.Load()
	logger, err := applog.New(cfg.Debug, cfg.Season, cfg.Racetrack)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	bdb := db.Setup(cfg)
	defer bdb.Close()

	if err := db.CreateTables(context.Background(), bdb); err != nil {
		logger.Fatal("create tables failed", zap.Error(err))
	}

	h := handlers.New(bdb, cfg.JWTKey(), cfg.Season, cfg.Racetrack)

	e := echo.New()
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.Int("status", v.Status),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			switch {
			case v.Status >= 500:
				logger.Error("http request", fields...)
			case v.Status >= 400:
				logger.Warn("http request", fields...)
			default:
				logger.Info("http request", fields...)
			}
			return nil
		},
	}))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"*", "Authorization"},
		AllowCredentials: true,
	}))

	// Public
	e.POST("/dm/signin", h.Signin)

	// Protected – require valid JWT in Authorization header
	dm := e.Group("/dm", mw.JWT(cfg.JWTKey(), bdb))

	dm.GET("/owners", h.Owners)
	dm.POST("/owners", h.CreateOwner, mw.RequireRole(models.RoleAdmin))
	dm.PUT("/owners/:id", h.UpdateOwner, mw.RequireRole(models.RoleAdmin))
	dm.POST("/owners/delete", h.DeleteOwners, mw.RequireRole(models.RoleAdmin))

	dm.GET("/horses", h.Horses)
	dm.GET("/horses/:id", h.Horse)
	dm.POST("/horses", h.CreateHorse, mw.RequireRole(models.RoleAdmin))
	dm.PUT("/horses/:id", h.UpdateHorse, mw.RequireRole(models.RoleAdmin))
	dm.POST("/horses/delete", h.DeleteHorses, mw.RequireRole(models.RoleAdmin))

	dm.GET("/locations", h.Locations)
	dm.POST("/locations", h.CreateLocation, mw.RequireRole(models.RoleAdmin))
	dm.PUT("/locations/:id", h.UpdateLocation, mw.RequireRole(models.RoleAdmin))
	dm.POST("/locations/delete", h.DeleteLocations, mw.RequireRole(models.RoleAdmin))

	dm.GET("/assignments", h.Assignments)
	dm.POST("/assignments", h.CreateAssignment, mw.RequireRole(models.RoleAdmin))
	dm.PUT("/assignments/:id/end", h.EndAssignment, mw.RequireRole(models.RoleAdmin))
	dm.POST("/assignments/delete", h.DeleteAssignments, mw.RequireRole(models.RoleAdmin))

	dm.GET("/races", h.Races)
	dm.GET("/race-history", h.Races)
	dm.POST("/races", h.CreateRace, mw.RequireRole(models.RoleAdmin))
	dm.PUT("/races/:id", h.UpdateRace, mw.RequireRole(models.RoleAdmin))
	dm.POST("/races/delete", h.DeleteRaces, mw.RequireRole(models.RoleAdmin))
	dm.POST("/participants", h.CreateParticipant, mw.RequireRole(models.RoleAdmin))
	dm.PUT("/participants/:id", h.UpdateParticipant, mw.RequireRole(models.RoleAdmin))
	dm.POST("/participants/delete", h.DeleteParticipants, mw.RequireRole(models.RoleAdmin))

	dm.GET("/activities", h.Activities)
	dm.POST("/activities", h.CreateActivity)
	dm.POST("/activities/delete", h.DeleteActivities, mw.RequireRole(models.RoleAdmin))
	dm.GET("/veterinary-records", h.VeterinaryRecords)
	dm.POST("/veterinary-records", h.CreateVeterinaryRecord)
	dm.GET("/drug-tests", h.DrugTests)
	dm.POST("/drug-tests", h.CreateDrugTest)
	dm.PUT("/drug-tests/:id", h.UpdateDrugTest)

	dm.GET("/dashboard", h.Dashboard)
	dm.GET("/command-center", h.CommandCenter)
	dm.GET("/problems", h.ProblemsView)
	dm.GET("/location-map", h.LocationMap)

	dm.POST("/import/csv", h.ImportCSV, mw.RequireRole(models.RoleAdmin))
	dm.POST("/import/json", h.ImportJSON, mw.RequireRole(models.RoleAdmin))
	dm.GET("/export/csv", h.ExportCSV)
	dm.GET("/export/json", h.ExportJSON)

	dm.POST("/password-hash", h.PasswordHash)

	if cfg.Debug {
		logger.Info("starting server", zap.String("mode", "debug"), zap.String("addr", cfg.Port))
		if err := e.Start(cfg.Port); err != nil {
			logger.Fatal("server exited", zap.Error(err))
		}
		return
	}

	autoTLS := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		Cache:      autocert.DirCache(".cache"),
		HostPolicy: autocert.HostWhitelist(cfg.TLSDomains...),
	}

	s := &http.Server{
		Addr:         ":443",
		Handler:      e,
		TLSConfig:    autoTLS.TLSConfig(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	if err := s.ListenAndServeTLS("", ""); err != http.ErrServerClosed {
		logger.Error("tls server exited", zap.Error(err))
		os.Exit(1)
	}
}
