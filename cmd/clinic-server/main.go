package main

import (
	"context"
	"fmt"
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

	"github.com/clinic/patientmanager/internal/config"
	"github.com/clinic/patientmanager/internal/domain/codes"
	"github.com/clinic/patientmanager/internal/domain/patient"
	"github.com/clinic/patientmanager/internal/platform/db"
	"github.com/clinic/patientmanager/internal/platform/logging"
	"github.com/clinic/patientmanager/internal/platform/metrics"
	"github.com/clinic/patientmanager/internal/platform/middleware"
	"github.com/clinic/patientmanager/internal/platform/openapi"
	"github.com/clinic/patientmanager/migrations"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Patient records API server",
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
		Short: "Start the patient API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations for the postgres store",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(ctx context.Context, m *db.Migrator) error {
				count, err := m.Up(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(ctx context.Context, m *db.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
				fmt.Fprintln(out, "---------- ---------------------------------------- ---------- --------------------")
				for _, s := range statuses {
					status := "pending"
					appliedAt := ""
					if s.Applied {
						status = "applied"
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
					fmt.Fprintf(out, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
				}
				return nil
			})
		},
	})

	return cmd
}

func withMigrator(ctx context.Context, fn func(context.Context, *db.Migrator) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.LoadForMigrate()
	if err != nil {
		return err
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, db.NewMigrator(pool, migrations.FS))
}

func runServer() error {
	// Bootstrap logger until the configured one exists.
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	logger, closeLog, err := logging.New(logging.Options{
		Console:  cfg.IsDev(),
		Level:    cfg.LogLevel,
		FilePath: cfg.LogFilePath,
	})
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := context.Background()
	st, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open patient store")
	}
	defer st.Close()
	logger.Info().Str("driver", cfg.StoreDriver).Msg("patient store ready")

	if cfg.CodeAssignmentEnabled() {
		logger.Info().Str("url", cfg.CodeServiceURL).Dur("timeout", cfg.CodeServiceTimeout).Msg("remote code assignment enabled")
	}

	e := newServer(cfg, logger, st, metrics.NewCollector())

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// store is the selected patient backend plus what it needs released on
// shutdown. pool is set only for the postgres driver.
type store struct {
	patients patient.Repository
	pool     *pgxpool.Pool
	closeFn  func() error
}

func (s *store) Close() error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	switch cfg.StoreDriver {
	case config.DriverFile:
		repo, err := patient.NewFileRepo(cfg.PatientFilePath)
		if err != nil {
			return nil, err
		}
		return &store{patients: repo}, nil

	case config.DriverLevelDB:
		repo, closeFn, err := patient.OpenLevelDBRepo(cfg.LevelDBPath)
		if err != nil {
			return nil, err
		}
		return &store{patients: repo, closeFn: closeFn}, nil

	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}
		return &store{
			patients: patient.NewPatientRepoPG(pool),
			pool:     pool,
			closeFn:  func() error { pool.Close(); return nil },
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func newServer(cfg *config.Config, logger zerolog.Logger, st *store, m *metrics.Collector) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Metrics(m))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderContentType, middleware.RequestIDHeader},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	if st.pool != nil {
		e.GET("/health/db", db.HealthHandler(st.pool))
	}
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	opts := []patient.Option{
		patient.WithRecorder(m),
		patient.WithLogger(logger),
	}
	if cfg.CodeAssignmentEnabled() {
		opts = append(opts, patient.WithCodeAssigner(codes.NewClient(cfg.CodeServiceURL, cfg.CodeServiceTimeout)))
	}
	svc := patient.NewService(st.patients, opts...)

	api := e.Group("")
	patient.NewHandler(svc, logger).RegisterRoutes(api)
	codes.NewHandler(codes.NewGenerator(cfg.CodePrefix)).RegisterRoutes(api)

	if cfg.IsDev() {
		openapi.NewGenerator(version, "http://localhost:"+cfg.Port, cfg.CodeAssignmentEnabled()).RegisterRoutes(e)
	}

	return e
}
