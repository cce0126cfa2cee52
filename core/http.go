package core

import "context"

// RegisterInput contains the data needed to create a new account
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginInput contains the credentials for authentication
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult contains the bearer token and the public account view
// returned after a successful registration or login.
type AuthResult struct {
	Token   string        `json:"token"`
	Account PublicAccount `json:"account"`
}

// ReviewInput is a code snippet submitted for AI review.
type ReviewInput struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// ReviewResult is the completion returned by the AI review passthrough.
type ReviewResult struct {
	Review   string `json:"review"`
	Language string `json:"language"`
	Model    string `json:"model"`
}

// SubscriptionStatus reports the entitlement state of an account.
type SubscriptionStatus struct {
	Plan            Plan    `json:"plan"`
	CustomerRef     *string `json:"customerRef"`
	SubscriptionRef *string `json:"subscriptionRef"`
}

// WebhookOutcome distinguishes a billing event that mutated state from
// one that was acknowledged without effect. Both are successes on the
// wire; logs and metrics must not conflate them.
type WebhookOutcome int

const (
	OutcomeIgnored WebhookOutcome = iota
	OutcomeApplied
)

func (o WebhookOutcome) String() string {
	if o == OutcomeApplied {
		return "applied"
	}
	return "ignored"
}

// Handler provides the core operations for HTTP adapters
type Handler interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, input LoginInput) (*AuthResult, error)
	Authenticate(ctx context.Context, authorizationHeader string) (*Account, error)
	StartCheckout(ctx context.Context, account *Account, plan Plan) (string, error)
	HandleWebhook(ctx context.Context, rawBody []byte, signatureHeader string) (WebhookOutcome, error)
	Subscription(account *Account) SubscriptionStatus
	Review(ctx context.Context, input ReviewInput) (*ReviewResult, error)
}

// HTTPAdapter mounts the core operations onto a web framework
type HTTPAdapter interface {
	RegisterRoutes(handler Handler, basePath string) error
}
