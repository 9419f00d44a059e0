package bootstrap

import (
	"fmt"

	"github.com/YRUSONOZ/stable-ui/config"
	"github.com/YRUSONOZ/stable-ui/internal/storage/postgres"

	"database/sql"
)

// OpenDB connects to Postgres and ensures the schema exists.
func OpenDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := postgres.NewConnection(cfg)
	if err != nil {
		return nil, err
	}

	if err := postgres.EnsureSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return db, nil
}
