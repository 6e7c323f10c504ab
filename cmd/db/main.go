package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync/atomic"

	"github.com/mentorhub/repengine/internal/database"
	"github.com/mentorhub/repengine/internal/database/migrations"
	"github.com/mentorhub/repengine/internal/database/types"
	"github.com/mentorhub/repengine/internal/setup/config"
	"github.com/sourcegraph/conc/pool"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

var (
	ErrNameRequired    = errors.New("NAME argument required")
	ErrConfirmRequired = errors.New("pass --confirm to reset the database")
	ErrDriftFound      = errors.New("drift detected, cached projections were repaired")
)

// reconcileWorkers bounds the sweep's concurrent database work.
const reconcileWorkers = 8

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	// Setup dependencies
	db, migrator, logger, err := setupMigrator()
	if err != nil {
		return fmt.Errorf("failed to setup migrator: %w", err)
	}
	defer db.Close()

	app := &cli.Command{
		Name:  "db",
		Usage: "Database management tool",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Initialize migration tables",
				Action: func(ctx context.Context, _ *cli.Command) error {
					return migrator.Init(ctx)
				},
			},
			{
				Name:  "migrate",
				Usage: "Run pending migrations",
				Action: func(ctx context.Context, _ *cli.Command) error {
					if err := migrator.Lock(ctx); err != nil {
						return err
					}
					defer migrator.Unlock(ctx) //nolint:errcheck

					group, err := migrator.Migrate(ctx)
					if err != nil {
						return err
					}

					if group.IsZero() {
						logger.Info("No new migrations to run (database is up to date)")
						return nil
					}

					logger.Info("Successfully migrated",
						zap.String("group", group.String()),
					)

					return nil
				},
			},
			{
				Name:  "rollback",
				Usage: "Rollback the last migration group",
				Action: func(ctx context.Context, _ *cli.Command) error {
					if err := migrator.Lock(ctx); err != nil {
						return err
					}
					defer migrator.Unlock(ctx) //nolint:errcheck

					group, err := migrator.Rollback(ctx)
					if err != nil {
						return err
					}

					if group.IsZero() {
						logger.Info("No groups to roll back")
						return nil
					}

					logger.Info("Successfully rolled back",
						zap.String("group", group.String()),
					)

					return nil
				},
			},
			{
				Name:  "status",
				Usage: "Show migration status",
				Action: func(ctx context.Context, _ *cli.Command) error {
					ms, err := migrator.MigrationsWithStatus(ctx)
					if err != nil {
						return err
					}

					logger.Info("Migration status",
						zap.String("migrations", ms.String()),
						zap.String("unapplied", ms.Unapplied().String()),
						zap.String("last_group", ms.LastGroup().String()),
					)

					return nil
				},
			},
			{
				Name:      "create",
				Usage:     "Create a new Go migration file",
				ArgsUsage: "NAME",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return ErrNameRequired
					}

					mf, err := migrator.CreateGoMigration(ctx, c.Args().First())
					if err != nil {
						return err
					}

					logger.Info("Created Go migration",
						zap.String("name", mf.Name),
						zap.String("path", mf.Path),
					)

					return nil
				},
			},
			{
				Name:  "reset",
				Usage: "Roll back all migration groups and re-run them",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "confirm",
						Usage: "Required; this drops and recreates all tables",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					if !c.Bool("confirm") {
						return ErrConfirmRequired
					}

					if err := migrator.Lock(ctx); err != nil {
						return err
					}
					defer migrator.Unlock(ctx) //nolint:errcheck

					for {
						group, err := migrator.Rollback(ctx)
						if err != nil {
							return err
						}

						if group.IsZero() {
							break
						}

						logger.Info("Rolled back",
							zap.String("group", group.String()),
						)
					}

					group, err := migrator.Migrate(ctx)
					if err != nil {
						return err
					}

					logger.Info("Successfully reset",
						zap.String("group", group.String()),
					)

					return nil
				},
			},
			{
				Name:  "reconcile",
				Usage: "Rebuild cached reputation totals and vote counters, reporting drift",
				Action: func(ctx context.Context, _ *cli.Command) error {
					return reconcile(ctx, db, logger)
				},
			},
		},
	}

	return app.Run(context.Background(), os.Args)
}

// reconcile sweeps every cached projection against its source of truth.
// Exits non-zero when drift was found so schedulers can alert on it.
func reconcile(ctx context.Context, db database.Client, logger *zap.Logger) error {
	var drift atomic.Int64

	pairs, err := db.Model().Reputation().ListLedgerPairs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list ledger pairs: %w", err)
	}

	targets, err := db.Model().Vote().ListVotedTargets(ctx)
	if err != nil {
		return fmt.Errorf("failed to list voted targets: %w", err)
	}

	p := pool.New().WithContext(ctx).WithMaxGoroutines(reconcileWorkers)

	for _, pair := range pairs {
		p.Go(func(ctx context.Context) error {
			_, err := db.Service().Reputation().Reconcile(ctx, pair.UserID, pair.Role)
			if errors.Is(err, types.ErrLedgerDrift) {
				drift.Add(1)
				return nil
			}

			return err
		})
	}

	for _, target := range targets {
		p.Go(func(ctx context.Context) error {
			_, drifted, err := db.Service().Vote().ReconcileCounters(ctx, target)
			if drifted {
				drift.Add(1)
			}

			return err
		})
	}

	if err := p.Wait(); err != nil {
		return fmt.Errorf("reconcile sweep failed: %w", err)
	}

	logger.Info("Reconcile sweep finished",
		zap.Int("ledgerPairs", len(pairs)),
		zap.Int("votedTargets", len(targets)),
		zap.Int64("drift", drift.Load()))

	if drift.Load() > 0 {
		return ErrDriftFound
	}

	return nil
}

// setupMigrator initializes the database connection and migrator.
func setupMigrator() (database.Client, *migrate.Migrator, *zap.Logger, error) {
	// Load full configuration
	cfg, _, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Create development logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	// Connect to database
	db, err := database.NewConnection(context.Background(), cfg, nil, logger, false)
	if err != nil {
		return nil, nil, logger, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Create migrator using database connection and migrations
	migrator := migrate.NewMigrator(db.DB(), migrations.Migrations)

	return db, migrator, logger, nil
}
