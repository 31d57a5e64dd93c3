package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"carp-service/internal/app"
	"carp-service/internal/config"
	"carp-service/internal/db"
	"carp-service/internal/repository/postgres"
	authUsecase "carp-service/internal/service/auth"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "carpctl",
		Short:         "Operator tooling for the carp service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load(envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	root.AddCommand(newMigrateCmd(), newSeedCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	migrate.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withPool(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool) error {
					return db.RunMigrations(ctx, pool)
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withPool(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool) error {
					return db.RollbackMigration(ctx, pool)
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show applied and pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withPool(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool) error {
					return db.MigrationStatus(ctx, pool)
				})
			},
		},
	)
	return migrate
}

func newSeedCmd() *cobra.Command {
	var withSample bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the configured admin account and optional sample user",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := zap.NewProduction()
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer logger.Sync()

			cfg := config.Load()
			if cmd.Flags().Changed("sample-user") {
				cfg.SeedSampleUser = withSample
			}

			return withPool(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool) error {
				seeder := authUsecase.NewSeeder(postgres.NewUserRepository(pool), logger)
				return app.SeedAccounts(ctx, cfg, seeder)
			})
		},
	}
	cmd.Flags().BoolVar(&withSample, "sample-user", false, "also create the sample user")
	return cmd
}

func withPool(ctx context.Context, fn func(ctx context.Context, pool *pgxpool.Pool) error) error {
	pool, err := db.ConnectDB(ctx, config.Load())
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, pool)
}
