package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"marketplace-service/internal/blob"
	"marketplace-service/internal/handler"
	"marketplace-service/internal/realtime"
	"marketplace-service/internal/repository"
	"marketplace-service/internal/service"
	"marketplace-service/pkg/config"
	"marketplace-service/pkg/database"
	"marketplace-service/pkg/jwtutil"
	"marketplace-service/pkg/logger"
	"marketplace-service/pkg/metrics"
	"marketplace-service/prometheus"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var autoMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API and the realtime change feed.

Examples:
  marketplace serve                    # Postgres store, images per STORAGE_DRIVER
  DB_DRIVER=memory marketplace serve   # Everything in process memory`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().BoolVar(&autoMigrate, "migrate", true, "Migrate the database schema before serving")
}

// openRepository returns the configured store and a function releasing it
func openRepository(cfg *config.Config) (repository.Repository, func(), error) {
	if cfg.DB.Driver == "memory" {
		logger.GetLogger().Warn("Using in-memory store, data is lost on exit")
		return repository.NewMemory(), func() {}, nil
	}

	db, err := database.InitDB(&cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	if autoMigrate {
		if err := database.Migrate(db); err != nil {
			_ = database.Close(db)
			return nil, nil, err
		}
	}
	return repository.NewGorm(db), func() { _ = database.Close(db) }, nil
}

// openBlobStore returns the image store. The memory store is also returned
// on its own so the router can serve it.
func openBlobStore(cfg *config.Config) (blob.Store, *blob.MemoryStore, error) {
	if cfg.Storage.Driver == "cloudinary" {
		store, err := blob.NewCloudinary(cfg.Storage.CloudinaryURL, cfg.Storage.Folder)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	}
	store := blob.NewMemory(cfg.Storage.PublicBaseURL)
	return store, store, nil
}

func runServe(ctx context.Context) error {
	log := logger.GetLogger()
	log.Info("Starting marketplace service...", cfg.LogConfig()...)

	prometheus.InitMetrics(cfg)
	httpMetrics := metrics.NewHTTPMetrics(cfg.ServiceName)
	log.Info("Prometheus metrics initialized")

	repo, closeRepo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	store, served, err := openBlobStore(cfg)
	if err != nil {
		return err
	}

	hub := realtime.NewHub()
	e := handler.NewRouter(handler.Deps{
		Services: service.New(repo, store, hub, cfg.Storage),
		JWT:      jwtutil.NewJWTUtil(&cfg.JWT),
		Bridge:   realtime.NewBridge(hub, cfg.Realtime.ClientBuffer),
		Blobs:    served,
		Metrics:  httpMetrics,
	})
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("port", cfg.Server.Port))
		errCh <- e.Start(":" + cfg.Server.Port)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
