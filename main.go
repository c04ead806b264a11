package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"volunteerhub/config"
	_ "volunteerhub/docs"
	"volunteerhub/internal/adapters/auth"
	"volunteerhub/internal/adapters/icalendar"
	httpDelivery "volunteerhub/internal/delivery/http"
	"volunteerhub/internal/delivery/http/controllers"
	"volunteerhub/internal/delivery/http/middleware"
	"volunteerhub/internal/repository/postgres"
	"volunteerhub/internal/services"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// @title VolunteerHub API
// @version 1.0
// @description Volunteering events with recurring series and scoped series edits.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		logger.Error("ping database", "err", err)
		os.Exit(1)
	}
	if err := postgres.Migrate(db, logger); err != nil {
		logger.Error("migrate database", "err", err)
		os.Exit(1)
	}

	eventRepo := postgres.NewEventRepository(db)
	eventService := services.NewEventService(eventRepo, logger, cfg.RequestTimeout)
	eventController := controllers.NewEventController(logger, eventService, icalendar.NewCalendarRenderer(), cfg.ScheduleTimezone)
	verifier := auth.NewJWTVerifier(cfg.JWTSecret)

	if !cfg.IsProduction() {
		organizerID := uuid.NewString()
		token, err := auth.NewJWTIssuer(cfg.JWTSecret).Issue(organizerID, "organizer@example.org", 24*time.Hour)
		if err == nil {
			logger.Debug("development bearer token", "user_id", organizerID, "token", token)
		}
	}

	router := httpDelivery.NewRouter(eventController, verifier, logger)
	var handler http.Handler = router
	handler = middleware.CORS(cfg.CORSAllowedOrigins, handler)
	handler = middleware.LoggingMiddleware(logger, handler)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", cfg.Environment, "schedule_timezone", cfg.ScheduleTimezone.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "err", err)
	}
	logger.Info("server stopped")
}
