package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evcraddock/havenrise/internal/config"
	"github.com/evcraddock/havenrise/internal/db"
	"github.com/evcraddock/havenrise/internal/favourites"
	"github.com/evcraddock/havenrise/internal/logging"
	"github.com/evcraddock/havenrise/internal/metrics"
	"github.com/evcraddock/havenrise/internal/property"
	"github.com/evcraddock/havenrise/internal/transfer"
	"github.com/evcraddock/havenrise/internal/web"
)

func newServeCmd() *cobra.Command {
	var (
		port    int
		catalog string
		driver  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the HTTP API. Settings come from the config file, .env files and HR_* environment variables; flags override them.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagConfig)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if catalog != "" {
				cfg.Catalog.Source = catalog
			}
			if driver != "" {
				cfg.Storage.Driver = driver
			}
			if flagDB != "" {
				cfg.Storage.SQLitePath = flagDB
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on")
	cmd.Flags().StringVar(&catalog, "catalog", "", "catalog location: path, http(s):// or s3://bucket/key")
	cmd.Flags().StringVar(&driver, "storage", "", "favourites storage driver (sqlite|memory|postgres)")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	closeLogs, err := logging.Setup(cfg.Logging())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeLogs(); cerr != nil {
			fmt.Fprintf(os.Stderr, "warning: closing log sinks: %v\n", cerr)
		}
	}()
	logger := slog.Default()

	m := metrics.New()

	source, err := property.NewSource(ctx, cfg.Catalog.Source, sourceOptions(cfg.Catalog))
	if err != nil {
		return err
	}
	catalog := property.NewStore(source)
	// A failed load is recorded and served as 503; the server still starts.
	loadErr := catalog.Load(ctx)
	c, _ := catalog.Catalog(ctx)
	m.CatalogLoaded(c.Len(), loadErr)

	storage, closeStorage, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeStorage.Close(); cerr != nil {
			logger.Warn("closing storage", "error", cerr)
		}
	}()

	favs := favourites.NewStore(storage,
		favourites.WithKey(cfg.Storage.Key),
		favourites.WithLogger(logger),
		favourites.WithObserver(m),
	)
	favs.Restore(ctx)
	m.FavouritesRestored(favs.Len())
	logger.Info("favourites restored", "driver", cfg.Storage.Driver, "count", favs.Len())

	srv := web.NewServer(web.Deps{
		Catalog:     catalog,
		Favourites:  favs,
		Transfer:    transfer.New(favs, logger, m),
		Metrics:     m,
		CORSOrigins: cfg.Server.CORSOrigins,
		Logger:      logger,
	})
	return srv.ListenAndServe(ctx, cfg.Server.Port, cfg.Server.ShutdownTimeout)
}

// sourceOptions maps catalog configuration onto property.SourceOptions.
func sourceOptions(cfg config.CatalogConfig) property.SourceOptions {
	return property.SourceOptions{
		Timeout: cfg.Timeout,
		S3: property.S3Options{
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			PathStyle:       cfg.S3.PathStyle,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		},
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// openStorage opens the favourites storage for the configured driver.
func openStorage(ctx context.Context, cfg config.StorageConfig) (favourites.Storage, io.Closer, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return favourites.NewMemoryStorage(), closerFunc(func() error { return nil }), nil

	case config.DriverPostgres:
		pool, err := db.OpenPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		storage, err := favourites.NewPostgresStorage(pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return storage, closerFunc(func() error { pool.Close(); return nil }), nil

	default:
		path := cfg.SQLitePath
		if path == "" {
			var err error
			path, err = db.DefaultPath()
			if err != nil {
				return nil, nil, err
			}
		}
		storage, err := favourites.OpenSQLiteStorage(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		return storage, storage, nil
	}
}
