package main // Entry point package

import (
	"context"
	"errors"
	"log/slog" // structured logging
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"     // loads .env for local runs
	"github.com/labstack/echo/v4"  // Echo web framework
	"github.com/redis/go-redis/v9" // Redis client interface

	"github.com/iliyamo/cinema-reservation-api/internal/cache"
	"github.com/iliyamo/cinema-reservation-api/internal/config" // Internal config loader
	"github.com/iliyamo/cinema-reservation-api/internal/database"
	"github.com/iliyamo/cinema-reservation-api/internal/handler"
	"github.com/iliyamo/cinema-reservation-api/internal/middleware"
	"github.com/iliyamo/cinema-reservation-api/internal/queue"
	"github.com/iliyamo/cinema-reservation-api/internal/repository"
	"github.com/iliyamo/cinema-reservation-api/internal/router" // Internal router setup
	"github.com/iliyamo/cinema-reservation-api/internal/service"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config
	logger := newLogger(cfg)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.RunMigrations {
		if err := database.Migrate(database.DSN(cfg, true)); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// Redis is optional: without it the seat cache, response cache and
	// rate limiter are disabled.  Keep the interface nil rather than a
	// typed nil pointer so the middleware can detect it.
	var rdb redis.Cmdable
	if client, err := config.NewRedisClient(ctx, config.LoadRedisConfig()); err == nil {
		defer client.Close()
		rdb = client
	} else {
		logger.Warn("redis unavailable, caching and rate limiting disabled", "error", err)
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	cinemas := repository.NewCinemaRepo(db)
	halls := repository.NewHallRepo(db)
	genres := repository.NewGenreRepo(db)
	movies := repository.NewMovieRepo(db)
	showtimes := repository.NewShowtimeRepo(db)
	reservations := repository.NewReservationRepo(db)

	var opts []service.ReservationOption
	var catalogOpts []service.CatalogOption
	if rdb != nil {
		seats := cache.NewSeatCache(rdb, cfg.SeatCacheTTL, logger)
		opts = append(opts, service.WithSeatCache(seats))
		catalogOpts = append(catalogOpts, service.InvalidateSeatMaps(seats))
	}
	if cfg.RabbitMQURL != "" {
		pub := queue.NewPublisher(cfg.RabbitMQURL, logger)
		defer pub.Close()
		opts = append(opts, service.WithEventPublisher(pub))

		consumer := queue.NewConsumer(cfg.RabbitMQURL, "", logger)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("reservation log consumer stopped", "error", err)
			}
		}()
	}

	authSvc := service.NewAuthService(users, tokens, service.AuthConfig{
		JWTSecret:      cfg.JWTSecret,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
		BcryptCost:     cfg.BcryptCost,
	}, logger)
	catalogSvc := service.NewCatalogService(service.CatalogStores{
		Cinemas:   cinemas,
		Halls:     halls,
		Genres:    genres,
		Movies:    movies,
		Showtimes: showtimes,
		Holds:     reservations,
	}, cfg.StrictDuration(), catalogOpts...)
	reservationSvc := service.NewReservationService(showtimes, halls, reservations, logger, opts...)
	reportSvc := service.NewReportService(users, reservations, cinemas, showtimes)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		seedCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := authSvc.EnsureAdmin(seedCtx, cfg.AdminEmail, cfg.AdminPassword)
		cancel()
		if err != nil {
			return err
		}
	}

	catalogCache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb, logger)

	e := router.New(logger)
	router.RegisterRoutes(e, db, rdb)
	router.RegisterAuth(e, handler.NewAuthHandler(authSvc, logger, cfg.RequestTimeout), cfg.JWTSecret)
	router.RegisterPublic(e,
		handler.NewPublicHandler(catalogSvc, logger, cfg.RequestTimeout),
		catalogCache,
	)
	resHandler := handler.NewReservationHandler(reservationSvc, logger, cfg.RequestTimeout)
	router.RegisterReservation(e, resHandler, cfg.JWTSecret,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger),
	)
	router.RegisterAdmin(e,
		handler.NewAdminHandler(catalogSvc, reportSvc, authSvc, logger, cfg.RequestTimeout),
		resHandler,
		cfg.JWTSecret,
		catalogCache,
	)

	return serve(ctx, e, ":"+cfg.Port, logger)
}

// serve runs the HTTP server until ctx is canceled, then drains
// in-flight requests.
func serve(ctx context.Context, e *echo.Echo, addr string, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr) // Print startup info
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return e.Shutdown(shutdownCtx)
}
