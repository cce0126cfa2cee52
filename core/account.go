package core

import "time"

// Plan is the subscription tier of an account.
//
// It is a closed enumeration; Plan never changes through a user-facing
// request, only through the billing event processor.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// Valid reports whether p is one of the known plans.
func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanPro, PlanEnterprise:
		return true
	}
	return false
}

// Paid reports whether p requires an active subscription.
func (p Plan) Paid() bool {
	return p == PlanPro || p == PlanEnterprise
}

// Account represents a user account in the system
//
// This is both the identity (email, name, credential) and the
// entitlement state (plan, billing references).
type Account struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	CredentialHash string `json:"-"` // Never expose in JSON

	// BillingCustomerRef is set on the first checkout attempt and is
	// stable for the lifetime of the account. BillingSubscriptionRef is
	// set when a subscription activates and cleared when it is cancelled.
	BillingCustomerRef     *string `json:"-"`
	BillingSubscriptionRef *string `json:"-"`

	Plan      Plan      `json:"plan"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PublicAccount is the account view returned to clients.
// No credential hash, no billing provider references.
type PublicAccount struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Plan      Plan      `json:"plan"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public returns the client-safe view of the account.
func (a *Account) Public() PublicAccount {
	return PublicAccount{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Plan:      a.Plan,
		CreatedAt: a.CreatedAt,
	}
}
