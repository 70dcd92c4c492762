// Command migrate manages the PostgreSQL schema outside of server startup.
//
//	migrate up       apply pending migrations
//	migrate down     revert the newest applied migration
//	migrate status   list migrations and whether they are applied
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/scrimhub/scrim-lineup/config"
	"github.com/scrimhub/scrim-lineup/internal/bootstrap"
	"github.com/scrimhub/scrim-lineup/internal/infrastructure/persistence/postgres"
	"github.com/scrimhub/scrim-lineup/pkg/logger"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: migrate up|down|status")
		os.Exit(2)
	}
	if err := run(os.Args[1]); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database.Driver != config.DriverPostgres {
		return fmt.Errorf("DB_DRIVER is %q; migrations only apply to postgres", cfg.Database.Driver)
	}
	log := bootstrap.NewLogger(cfg).With(logger.Component("migrate"))

	conn, err := postgres.NewConnection(ctx, cfg.Database.URL, postgres.PoolOptions{MaxConns: 2})
	if err != nil {
		return err
	}
	defer conn.Close()
	m := postgres.NewMigrator(conn)

	switch cmd {
	case "up":
		n, err := m.Migrate(ctx)
		if err != nil {
			return err
		}
		log.Info("migrations applied", logger.Int("count", n))
	case "down":
		mig, err := m.Rollback(ctx)
		if err != nil {
			return err
		}
		if mig == nil {
			log.Info("nothing to roll back")
			return nil
		}
		log.Info("migration rolled back", logger.Int("version", mig.Version), logger.String("name", mig.Name))
	case "status":
		migs, err := m.Status(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "VERSION\tNAME\tAPPLIED")
		for _, mig := range migs {
			applied := "-"
			if mig.IsApplied {
				applied = mig.AppliedAt.UTC().Format(time.RFC3339)
			}
			fmt.Fprintf(tw, "%03d\t%s\t%s\n", mig.Version, mig.Name, applied)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}
