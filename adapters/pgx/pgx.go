package pgx

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adionit7/devstarter/core"
)

//go:embed schema.sql
var schema string

// Adapter implements core.AccountStorage on a Postgres pool.
type Adapter struct {
	pool *pgxpool.Pool
}

var _ core.AccountStorage = (*Adapter)(nil)

func New(pool *pgxpool.Pool) *Adapter {
	return &Adapter{
		pool: pool,
	}
}

// EnsureSchema creates the accounts table if it does not exist yet.
// Good enough for development and tests; production deployments run
// proper migrations instead.
func (a *Adapter) EnsureSchema(ctx context.Context) error {
	if _, err := a.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
