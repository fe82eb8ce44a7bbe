package main

import (
	"database/sql"
	"fmt"

	"github.com/soaringjerry/devlevel/internal/config"
	dbstore "github.com/soaringjerry/devlevel/internal/db"
)

type MigrateCmd struct{}

func (c *MigrateCmd) Run(app *appContext) error {
	if app.cfg.Storage.Driver == config.StorageMemory {
		app.logger.Info("memory storage has no schema; nothing to migrate")
		return nil
	}
	conn, err := openSQLite(app.cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			app.logger.Warn("close sqlite", "err", cerr)
		}
	}()
	app.logger.Info("migrations applied", "path", app.cfg.Storage.Path)
	return nil
}

// openSQLite opens the configured database and brings its schema up to date.
func openSQLite(cfg config.Config) (*sql.DB, error) {
	conn, err := dbstore.Open(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}
	if err := dbstore.RunMigrations(conn, cfg.Storage.MigrationsDir); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return conn, nil
}
