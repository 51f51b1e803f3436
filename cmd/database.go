package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/band-gallery/internal/config"
	"github.com/kozaktomas/band-gallery/internal/database/postgres"
)

// openDatabase connects to PostgreSQL, applies migrations and registers the repositories.
func openDatabase(ctx context.Context, cfg *config.Config) (*postgres.Pool, error) {
	if cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL environment variable is required")
	}
	pool, err := postgres.Initialize(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	return pool, nil
}
