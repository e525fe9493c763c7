package database

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates the catalog tables if they do not exist.
func EnsureSchema(ctx context.Context, p *pgxpool.Pool) error {
	if p == nil {
		return fmt.Errorf("database not initialized")
	}
	if _, err := p.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
