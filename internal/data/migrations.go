package data

import (
	"context"
	"database/sql"

	"github.com/darahconnect/darah-dashboard/internal/migrate"
)

// RunMigrations brings the audit schema up to date.
func RunMigrations(ctx context.Context, db *sql.DB) ([]string, error) {
	return migrate.Run(ctx, db)
}
