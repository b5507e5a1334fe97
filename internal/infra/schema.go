package infra

import (
	"context"
	"fmt"
	"time"

	"componentlab/internal/sqlinline"
)

// EnsureSchema creates the tables and indexes if they do not exist yet.
func EnsureSchema(ctx context.Context, sql SQLExecutor) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := sql.Exec(ctx, sqlinline.QSchema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
