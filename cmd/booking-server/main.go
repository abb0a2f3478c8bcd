package main

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medbook/booking/internal/config"
	"github.com/medbook/booking/internal/domain/appointment"
	"github.com/medbook/booking/internal/domain/doctor"
	"github.com/medbook/booking/internal/domain/hospital"
	"github.com/medbook/booking/internal/domain/scheduling"
	"github.com/medbook/booking/internal/domain/user"
	"github.com/medbook/booking/internal/platform/auth"
	"github.com/medbook/booking/internal/platform/db"
	"github.com/medbook/booking/internal/platform/events"
	"github.com/medbook/booking/internal/platform/middleware"
	"github.com/medbook/booking/migrations"
	"github.com/medbook/booking/pkg/civil"
)

const (
	version         = "0.1.0"
	shutdownTimeout = 10 * time.Second
	maxBodySize     = "1M"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "booking-server",
		Short: "Medical appointment booking API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the booking API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			migrator, closePool, err := openMigrator(cmd.Context(), dir)
			if err != nil {
				return err
			}
			defer closePool()

			fmt.Printf("Running migrations on schema: %s\n", schema)
			count, err := migrator.Up(cmd.Context(), schema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	addMigrateFlags(upCmd)
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			migrator, closePool, err := openMigrator(cmd.Context(), dir)
			if err != nil {
				return err
			}
			defer closePool()

			statuses, err := migrator.Status(cmd.Context(), schema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("Migration status for schema: %s\n", schema)
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	addMigrateFlags(statusCmd)
	cmd.AddCommand(statusCmd)

	return cmd
}

func addMigrateFlags(cmd *cobra.Command) {
	cmd.Flags().String("schema", "public", "Target schema for migrations")
	cmd.Flags().String("dir", "", "Migrations directory (default: migrations bundled in the binary)")
}

// migrationSource returns the bundled migrations, or dir when given.
func migrationSource(dir string) fs.FS {
	if dir == "" {
		return migrations.FS
	}
	return os.DirFS(dir)
}

func openMigrator(ctx context.Context, dir string) (*db.Migrator, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	return db.NewMigrator(pool, migrationSource(dir)), pool.Close, nil
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func runServer() error {
	logger := newLogger(os.Getenv("ENV"))

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Events
	pub, err := events.NewPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to message broker")
	}
	defer pub.Close()

	e, err := newServer(cfg, pool, pub, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build server")
	}

	addr := ":" + cfg.Port
	go func() {
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting booking server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newServer wires the middleware chain, services and routes. Only the
// repositories touch pool, so a nil pool is enough to inspect routing.
func newServer(cfg *config.Config, pool *pgxpool.Pool, pub events.Publisher, logger zerolog.Logger) (*echo.Echo, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.BodyLimit(maxBodySize))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	if pool != nil {
		e.GET("/health/db", db.HealthHandler(pool))
	}

	api := e.Group("/api")

	// Auth runs before rate limiting so clients are keyed by subject.
	if cfg.IsDev() && cfg.AuthSigningKey == "" && cfg.AuthJWKSURL == "" {
		logger.Warn().Msg("no token verification configured, all requests run as admin")
		api.Use(auth.DevAuthMiddleware())
	} else {
		api.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			JWKSURL:    cfg.AuthJWKSURL,
			SigningKey: []byte(cfg.AuthSigningKey),
		}))
	}

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
		MaxClients:        cfg.RateLimitClients,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	api.Use(middleware.RateLimit(rateLimitCfg))

	emitter := events.NewEmitter(pub, logger.With().Str("component", "events").Logger())

	// Directory
	hospitalSvc := hospital.NewService(hospital.NewRepoPG(pool))
	hospital.NewHandler(hospitalSvc).RegisterRoutes(api)

	doctorSvc := doctor.NewService(doctor.NewRepoPG(pool), hospitalSvc)
	doctor.NewHandler(doctorSvc).RegisterRoutes(api)

	userSvc := user.NewService(user.NewRepoPG(pool), auth.NewBcryptHasher(cfg.BcryptCost), logger)
	user.NewHandler(userSvc).RegisterRoutes(api)

	// Appointments and scheduling
	apptRepo := appointment.NewRepoPG(pool)
	apptSvc := appointment.NewService(apptRepo, userSvc, doctorSvc, hospitalSvc, emitter, logger)
	appointment.NewHandler(apptSvc).RegisterRoutes(api)

	schedSvc := scheduling.NewService(
		scheduling.NewScheduleRepoPG(pool), apptRepo, doctorSvc, userSvc,
		db.NewTxRunner(pool), civil.SystemClock(loc), emitter, logger,
		scheduling.Options{
			SlotDuration:          cfg.SlotDuration(),
			CancelledReleasesSlot: cfg.CancelledReleasesSlot,
		},
	)
	scheduling.NewHandler(schedSvc).RegisterRoutes(api)

	logger.Info().
		Str("timezone", loc.String()).
		Dur("slot", cfg.SlotDuration()).
		Bool("cancelled_releases_slot", cfg.CancelledReleasesSlot).
		Msg("scheduling configured")
	return e, nil
}
