package core

import "context"

// CheckoutParams describes a hosted checkout session to create with the
// billing provider.
type CheckoutParams struct {
	CustomerRef string
	PriceID     string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

// CheckoutSession is the provider's hosted payment session.
type CheckoutSession struct {
	ID  string
	URL string
}

// BillingProvider abstracts the external billing service.
//
// Implementations must translate provider-specific failures into the
// local error taxonomy (ErrProviderUnavailable); provider error types
// never leak past this boundary.
type BillingProvider interface {
	CreateCustomer(ctx context.Context, email, name string, metadata map[string]string) (string, error)
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
}
