package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ridloal/product-dashboard/internal/permission"
	"github.com/ridloal/product-dashboard/internal/platform/config"
	"github.com/ridloal/product-dashboard/internal/platform/database"
	"github.com/ridloal/product-dashboard/internal/platform/logger"
	"github.com/ridloal/product-dashboard/internal/product/repository"
)

// seedSource picks the seed in order of precedence: database, YAML file, built-in list.
// The returned closer releases the database pool, if one was opened.
func seedSource(ctx context.Context, cfg config.DashboardConfig) (repository.SeedSource, func(), error) {
	switch {
	case cfg.SeedDB.DSN != "":
		db, err := database.Connect(ctx, cfg.SeedDB.DSN)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Seeding products from database")
		return repository.NewPostgresSeed(db), closeDB(db), nil
	case cfg.SeedFile != "":
		logger.Info("Seeding products from " + cfg.SeedFile)
		return repository.YAMLSeed{Path: cfg.SeedFile}, func() {}, nil
	default:
		return repository.DefaultSeed(), func() {}, nil
	}
}

func closeDB(db *sql.DB) func() {
	return func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close seed database", err, nil)
		}
	}
}

// permissionSource uses the remote endpoint when configured, else the static list.
func permissionSource(cfg config.DashboardConfig) (permission.Source, error) {
	if cfg.PermissionsURL != "" {
		logger.Info("Fetching permissions from " + cfg.PermissionsURL)
		return permission.NewHTTPSource(cfg.PermissionsURL), nil
	}
	caps, err := permission.Parse(cfg.Permissions)
	if err != nil {
		return nil, fmt.Errorf("invalid PERMISSIONS: %w", err)
	}
	return permission.NewStaticSource(caps...), nil
}
