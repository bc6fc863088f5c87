package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"

	"socialsaver/internal/config"
)

// Open picks a backend from the database URL scheme:
//
//	badger://<dir>
//	sqlite:///<relative path> or sqlite:////<absolute path>
//	postgres://... or postgresql://...
func Open(ctx context.Context, cfg config.DatabaseConfig, logger logrus.FieldLogger) (Repository, error) {
	raw := strings.TrimSpace(cfg.URL)
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return nil, fmt.Errorf("database url %q has no scheme", raw)
	}

	switch strings.ToLower(scheme) {
	case "badger":
		if rest == "" {
			return nil, fmt.Errorf("database url %q has no directory", raw)
		}
		return NewBadgerRepository(rest, cfg.GCInterval, logger)
	case "sqlite":
		path := strings.TrimPrefix(rest, "/")
		if path == "" {
			return nil, fmt.Errorf("database url %q has no file path", raw)
		}
		return NewSQLRepository(ctx, sqlite.Open(path), logger)
	case "postgres", "postgresql":
		return NewSQLRepository(ctx, postgres.Open(raw), logger)
	default:
		return nil, fmt.Errorf("unsupported database scheme %q", scheme)
	}
}
