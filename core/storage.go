package core

import "context"

// AccountStorage defines the durable account repository.
//
// Every method is atomic with respect to a single account row; plan
// mutations go through SetPlan as absolute sets so that reapplying the
// same billing event is a no-op.
type AccountStorage interface {
	// CreateAccount inserts a new account and fills in the generated
	// ID and timestamps. A violated email uniqueness constraint is
	// reported as ErrDuplicateEmail.
	CreateAccount(ctx context.Context, a *Account) error

	// Query methods. A missing row is reported as ErrAccountNotFound.
	GetAccountByID(ctx context.Context, id string) (*Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)
	GetAccountBySubscriptionRef(ctx context.Context, ref string) (*Account, error)

	// UpdateAccount persists mutable identity fields (name, email,
	// credential hash, active flag).
	UpdateAccount(ctx context.Context, a *Account) error

	// SetPlan sets the plan and subscription reference in a single
	// atomic write. A nil subscriptionRef clears the reference.
	SetPlan(ctx context.Context, id string, plan Plan, subscriptionRef *string) error

	// SetCustomerRef assigns the billing customer reference if and only
	// if none is set yet. Assigning over an existing reference is a
	// no-op; the first write wins.
	SetCustomerRef(ctx context.Context, id, ref string) error
}
