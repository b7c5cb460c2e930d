package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/portalusers/internal/admincli"
	"github.com/dmitrijs2005/portalusers/internal/flagx"
	"github.com/dmitrijs2005/portalusers/internal/server/auth"
	"github.com/dmitrijs2005/portalusers/internal/server/config"
	"github.com/dmitrijs2005/portalusers/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/portalusers/internal/server/services"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx := context.Background()
	cfg := config.LoadConfig()

	db, err := repomanager.OpenPostgres(ctx, cfg.DatabaseDSN)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	us := services.NewUserService(db, rm, auth.NewBcryptHasher(cfg.BcryptCost), cfg)
	app := admincli.NewApp(us, os.Stdout)

	if err := app.Run(ctx, flagx.Positional(os.Args[1:])); err != nil {
		if !errors.Is(err, admincli.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
		}
		return 2
	}
	return 0
}
