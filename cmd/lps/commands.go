package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/OEduardoGL/lps-ecommerce/config"
	"github.com/OEduardoGL/lps-ecommerce/internal/app"
	"github.com/OEduardoGL/lps-ecommerce/internal/repository"
	"github.com/OEduardoGL/lps-ecommerce/internal/repository/migrations"
	"github.com/OEduardoGL/lps-ecommerce/internal/server"
	"github.com/OEduardoGL/lps-ecommerce/pkg/db"
	"github.com/OEduardoGL/lps-ecommerce/pkg/logger"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "lps",
		Short:         "e-commerce product line: run a variant of the catalog, users, orders and recommendation services",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		serveCommand(),
		migrateCommand(),
		seedCommand(),
		variantsCommand(),
	)
	return rootCmd
}

// session holds what every command needs after configuration is loaded.
type session struct {
	cfg    *config.Config
	log    *logrus.Logger
	closer io.Closer
	db     *sqlx.DB
}

func setup() (*session, error) {
	bootstrap := logrus.New()
	bootstrap.SetFormatter(&logrus.JSONFormatter{})
	cfg, err := config.LoadConfig(bootstrap)
	if err != nil {
		return nil, err
	}
	log, closer := logger.New(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	return &session{cfg: cfg, log: log, closer: closer}, nil
}

func (r *session) connect(ctx context.Context) error {
	if r.cfg.StorageBackend != config.BackendPostgres {
		return nil
	}
	database, err := db.Connect(ctx, r.cfg.DatabaseURL)
	if err != nil {
		return err
	}
	r.db = database
	r.log.Info("Database connection established.")
	return nil
}

func (r *session) close() {
	if r.db != nil {
		if err := r.db.Close(); err != nil {
			r.log.Errorf("Error closing database connection: %v", err)
		}
	}
	_ = r.closer.Close()
}

// stores opens the configured backend, migrating the schema first when it is postgres.
func (r *session) stores(ctx context.Context) (*repository.Stores, error) {
	if err := r.connect(ctx); err != nil {
		return nil, err
	}
	if r.db != nil {
		if err := migrations.Up(r.db.DB, r.log); err != nil {
			return nil, err
		}
	}
	return repository.NewStores(r.cfg.StorageBackend, r.db, r.log)
}

func serveCommand() *cobra.Command {
	var variant string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "start every feature of a variant on its own port",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup()
			if err != nil {
				return err
			}
			defer rt.close()
			if variant == "" {
				variant = rt.cfg.Variant
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			manifest, err := config.LoadManifest(rt.cfg.ManifestPath)
			if err != nil {
				return err
			}
			stores, err := rt.stores(ctx)
			if err != nil {
				return err
			}
			if rt.cfg.ShouldSeed() {
				if err := repository.Seed(ctx, stores, rt.log); err != nil {
					return err
				}
			}

			application, err := app.New(app.Options{
				Manifest:        manifest,
				Variant:         variant,
				Stores:          stores,
				DispatchWorkers: rt.cfg.DispatchWorkers,
				Logger:          rt.log,
			})
			if err != nil {
				return err
			}
			defer application.Close(rt.cfg.ShutdownTimeout)

			rt.log.Infof("Starting variant '%s'...", variant)
			return server.New(application.Services(), rt.cfg.GrpcPort, rt.log).Run(ctx, rt.cfg.ShutdownTimeout)
		},
	}
	cmd.Flags().StringVar(&variant, "variant", "", "variant to start (defaults to LPS_VARIANT)")
	return cmd
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-up",
		Short: "migrate the postgres schema all the way up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup()
			if err != nil {
				return err
			}
			defer rt.close()
			if rt.cfg.StorageBackend != config.BackendPostgres {
				return fmt.Errorf("migrate-up needs STORAGE_BACKEND=%s", config.BackendPostgres)
			}
			if err := rt.connect(cmd.Context()); err != nil {
				return err
			}
			return migrations.Up(rt.db.DB, rt.log)
		},
	}
}

func seedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "load the demo catalog and customers into the configured backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup()
			if err != nil {
				return err
			}
			defer rt.close()
			stores, err := rt.stores(cmd.Context())
			if err != nil {
				return err
			}
			return repository.Seed(cmd.Context(), stores, rt.log)
		},
	}
}

func variantsCommand() *cobra.Command {
	var manifestPath string
	cmd := &cobra.Command{
		Use:   "variants",
		Short: "list the variants declared in the manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if manifestPath == "" {
				manifestPath = os.Getenv("MANIFEST_PATH")
			}
			manifest, err := config.LoadManifest(manifestPath)
			if err != nil {
				return err
			}
			return printVariants(cmd.OutOrStdout(), manifest)
		},
	}
	cmd.Flags().StringVar(&manifestPath, "manifest", "", "manifest file (defaults to MANIFEST_PATH or the built-in one)")
	return cmd
}

func printVariants(w io.Writer, manifest *config.Manifest) error {
	for _, name := range manifest.VariantNames() {
		variant := manifest.Variants[name]
		features := make([]string, 0, len(variant.Features))
		for _, f := range variant.Features {
			features = append(features, fmt.Sprintf("%s:%d", f, manifest.Features[f].Port))
		}
		if _, err := fmt.Fprintf(w, "%-20s %s\n%-20s %s\n", name, variant.Description, "", strings.Join(features, " ")); err != nil {
			return err
		}
	}
	return nil
}
