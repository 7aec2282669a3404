package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/vaxbook/booking-api/internal/config"
	availabilityHandler "github.com/vaxbook/booking-api/internal/handler/availability"
	bookingHandler "github.com/vaxbook/booking-api/internal/handler/booking"
	catalogHandler "github.com/vaxbook/booking-api/internal/handler/catalog"
	healthHandler "github.com/vaxbook/booking-api/internal/handler/health"
	slotHandler "github.com/vaxbook/booking-api/internal/handler/slot"
	"github.com/vaxbook/booking-api/internal/middleware"
	"github.com/vaxbook/booking-api/internal/model"
	"github.com/vaxbook/booking-api/internal/repository/postgres"
	"github.com/vaxbook/booking-api/internal/router"
	"github.com/vaxbook/booking-api/internal/scheduling"
	availabilityService "github.com/vaxbook/booking-api/internal/service/availability"
	bookingService "github.com/vaxbook/booking-api/internal/service/booking"
	catalogService "github.com/vaxbook/booking-api/internal/service/catalog"
	slotService "github.com/vaxbook/booking-api/internal/service/slot"
	"github.com/vaxbook/booking-api/pkg/logger"
	"github.com/vaxbook/booking-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := logger.NewLogger(&logger.Config{
		Level:  level,
		Pretty: cfg.Log.Pretty,
	})

	registerValidators()

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	serviceRepo := postgres.NewServiceRepository(db)
	slotRepo := postgres.NewTimeSlotRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)

	m := metrics.NewMetrics("vaxbook", "booking_api")
	clock := scheduling.NewClock()
	policy := scheduling.WindowPolicy{WeekdayFailOpen: cfg.Booking.WeekdayFailOpen}

	catalogSvc := catalogService.NewService(serviceRepo, cfg.Booking.CatalogCacheTTL)
	availabilitySvc := availabilityService.NewService(catalogSvc, slotRepo, bookingRepo, clock, policy)
	bookingSvc := bookingService.NewService(serviceRepo, slotRepo, bookingRepo, clock, policy, cfg.Booking.CommitAttempts, log, m)
	slotSvc := slotService.NewService(serviceRepo, slotRepo)

	auth := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	r := router.NewRouter(
		auth,
		healthHandler.NewHandler(db),
		availabilityHandler.NewHandler(availabilitySvc, m),
		bookingHandler.NewHandler(bookingSvc),
		catalogHandler.NewHandler(catalogSvc),
		slotHandler.NewHandler(slotSvc),
		router.RouterConfig{
			RateLimitEnabled: cfg.RateLimit.Enabled,
			RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:        cfg.RateLimit.Burst,
			RequestTimeout:   cfg.Server.RequestTimeout,
			CORSConfig:       corsConfig(cfg.Security),
			MetricsPrefix:    "booking_api",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error(err, "forced shutdown")
	}
}

// registerValidators installs the custom binding rules the request
// types rely on.
func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("timeofday", func(fl validator.FieldLevel) bool {
			_, err := model.ParseMinuteOfDay(fl.Field().String())
			return err == nil
		})
	}
}

func corsConfig(sec config.SecurityConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	if len(sec.AllowedOrigins) > 0 {
		cors.AllowOrigins = sec.AllowedOrigins
	}
	if len(sec.AllowedMethods) > 0 {
		cors.AllowMethods = sec.AllowedMethods
	}
	if len(sec.AllowedHeaders) > 0 {
		cors.AllowHeaders = sec.AllowedHeaders
	}
	return cors
}
