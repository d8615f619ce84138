// Command fitctl 运维工具：迁移、计数对账与压测
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/fitsocial/config"
	"github.com/d60-Lab/fitsocial/internal/repository"
	"github.com/d60-Lab/fitsocial/internal/service"
	"github.com/d60-Lab/fitsocial/pkg/database"
	"github.com/d60-Lab/fitsocial/pkg/logger"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "fitctl: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "fitctl",
		Usage: "fitsocial maintenance commands",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Create or update tables and indexes",
				Action: runMigrate,
			},
			{
				Name:      "reconcile",
				Usage:     "Recompute follower/following counters from follow edges",
				ArgsUsage: "[USER_ID]",
				Description: `Without USER_ID every user is checked in id order.
Counters that drifted from the edge tables are rewritten and logged.`,
				Action: runReconcile,
			},
			benchCommand(),
		},
	}
}

// deps 命令共享的初始化结果
type deps struct {
	cfg   *config.Config
	db    *gorm.DB
	store *repository.Store
	log   *zap.Logger
}

func setup() (*deps, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, nil, err
	}
	db, err := database.InitDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = database.Close(db)
		logger.Sync()
	}
	return &deps{cfg: cfg, db: db, store: repository.NewStore(db), log: logger.L()}, cleanup, nil
}

func runMigrate(_ context.Context, _ *cli.Command) error {
	d, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := repository.Migrate(d.db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	d.log.Info("migration finished", zap.Int("models", len(repository.Models())))
	return nil
}

func runReconcile(ctx context.Context, c *cli.Command) error {
	d, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	users := service.NewUserDirectory(d.store, logger.Named("reconcile"))
	if id := c.Args().First(); id != "" {
		drifted, err := users.Reconcile(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("user %s drifted=%t\n", id, drifted)
		return nil
	}

	n, err := users.ReconcileAll(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("reconciled, %d user(s) drifted\n", n)
	return nil
}
