package pgx

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/adionit7/devstarter/core"
)

// Postgres error code for unique constraint violations.
const uniqueViolation = "23505"

const accountColumns = `id, email, name, credential_hash, billing_customer_ref, billing_subscription_ref, plan, is_active, created_at, updated_at`

func (a *Adapter) CreateAccount(ctx context.Context, account *core.Account) error {
	query := `INSERT INTO public.accounts (id, email, name, credential_hash, billing_customer_ref, billing_subscription_ref, plan, is_active)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING created_at, updated_at`

	id := uuid.NewString()
	var createdAt, updatedAt time.Time

	err := a.pool.QueryRow(ctx, query,
		id, account.Email, account.Name, account.CredentialHash,
		account.BillingCustomerRef, account.BillingSubscriptionRef,
		account.Plan, account.IsActive,
	).Scan(&createdAt, &updatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return core.ErrDuplicateEmail
		}
		return err
	}

	account.ID = id
	account.CreatedAt = createdAt
	account.UpdatedAt = updatedAt
	return nil
}

func (a *Adapter) GetAccountByID(ctx context.Context, id string) (*core.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM public.accounts WHERE id = $1`
	return a.scanAccount(a.pool.QueryRow(ctx, q, id))
}

func (a *Adapter) GetAccountByEmail(ctx context.Context, email string) (*core.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM public.accounts WHERE email = $1`
	return a.scanAccount(a.pool.QueryRow(ctx, q, email))
}

func (a *Adapter) GetAccountBySubscriptionRef(ctx context.Context, ref string) (*core.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM public.accounts WHERE billing_subscription_ref = $1`
	return a.scanAccount(a.pool.QueryRow(ctx, q, ref))
}

func (a *Adapter) UpdateAccount(ctx context.Context, account *core.Account) error {
	q := `UPDATE public.accounts
	      SET email = $1, name = $2, credential_hash = $3, is_active = $4, updated_at = now()
	      WHERE id = $5 RETURNING updated_at`

	var updatedAt time.Time
	err := a.pool.QueryRow(ctx, q,
		account.Email, account.Name, account.CredentialHash, account.IsActive, account.ID,
	).Scan(&updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.ErrAccountNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return core.ErrDuplicateEmail
		}
		return err
	}
	account.UpdatedAt = updatedAt
	return nil
}

// SetPlan writes the plan and subscription reference in one statement,
// so a replayed billing event lands on exactly the same row state.
func (a *Adapter) SetPlan(ctx context.Context, id string, plan core.Plan, subscriptionRef *string) error {
	q := `UPDATE public.accounts
	      SET plan = $1, billing_subscription_ref = $2, updated_at = now()
	      WHERE id = $3`

	tag, err := a.pool.Exec(ctx, q, plan, subscriptionRef, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrAccountNotFound
	}
	return nil
}

// SetCustomerRef assigns the customer reference only when none is set;
// a concurrent first write wins and later calls are no-ops.
func (a *Adapter) SetCustomerRef(ctx context.Context, id, ref string) error {
	q := `UPDATE public.accounts
	      SET billing_customer_ref = $1, updated_at = now()
	      WHERE id = $2 AND billing_customer_ref IS NULL`

	tag, err := a.pool.Exec(ctx, q, ref, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Nothing written: either the ref already exists (fine) or the
	// account is gone.
	var exists bool
	if err := a.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM public.accounts WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return core.ErrAccountNotFound
	}
	return nil
}

func (a *Adapter) scanAccount(row pgx.Row) (*core.Account, error) {
	account := &core.Account{}
	err := row.Scan(
		&account.ID, &account.Email, &account.Name, &account.CredentialHash,
		&account.BillingCustomerRef, &account.BillingSubscriptionRef,
		&account.Plan, &account.IsActive, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}
