package devstarter

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/adionit7/devstarter/core"
	"github.com/adionit7/devstarter/pkg/crypto"
	"github.com/adionit7/devstarter/pkg/token"
	"github.com/adionit7/devstarter/services"
)

// interfaces
type (
	AccountStorage  = core.AccountStorage
	BillingProvider = core.BillingProvider
	Cache           = core.Cache

	HTTPAdapter = core.HTTPAdapter

	PasswordHandler = crypto.PasswordHandler
)

// structs
type (
	CacheConfig   = core.CacheConfig
	BillingConfig = services.BillingConfig
	ReviewConfig  = services.ReviewConfig
)

type (
	Account            = core.Account
	PublicAccount      = core.PublicAccount
	Plan               = core.Plan
	AuthResult         = core.AuthResult
	SubscriptionStatus = core.SubscriptionStatus
	WebhookOutcome     = core.WebhookOutcome
	CacheStats         = core.CacheStats
)

const (
	PlanFree       = core.PlanFree
	PlanPro        = core.PlanPro
	PlanEnterprise = core.PlanEnterprise
)

const (
	defaultBasePath  = "/api"
	defaultSecretLen = 32
)

// Constructors & helpers (convenience re-exports)
var (
	NewInMemoryCache = core.NewInMemoryCache
	NewArgon2        = crypto.NewArgon2
)

var (
	ErrDuplicateEmail     = core.ErrDuplicateEmail
	ErrAccountNotFound    = core.ErrAccountNotFound
	ErrInvalidCredentials = core.ErrInvalidCredentials
	ErrAccountDisabled    = core.ErrAccountDisabled
)

var (
	ErrUnauthenticated     = core.ErrUnauthenticated
	ErrInvalidSignature    = core.ErrInvalidSignature
	ErrInvalidPlan         = core.ErrInvalidPlan
	ErrProviderUnavailable = core.ErrProviderUnavailable
)

var (
	ErrEmailRequired    = core.ErrEmailRequired
	ErrInvalidEmail     = core.ErrInvalidEmail
	ErrNameRequired     = core.ErrNameRequired
	ErrPasswordRequired = core.ErrPasswordRequired
	ErrPasswordTooShort = core.ErrPasswordTooShort
	ErrPasswordTooLong  = core.ErrPasswordTooLong
)

var (
	ErrStorageRequired     = core.ErrStorageRequired
	ErrHTTPAdapterRequired = core.ErrHTTPAdapterRequired
	ErrSecretRequired      = core.ErrSecretRequired
	ErrSecretTooShort      = core.ErrSecretTooShort
)

// Config wires the application together. Database, HTTP and Secret are
// required; everything else has a working default.
type Config struct {
	// Secret signs session tokens. Minimum 32 characters.
	Secret string

	Database AccountStorage
	HTTP     HTTPAdapter

	// Provider is the external billing service. Nil disables checkout
	// but webhook processing still works when Billing.WebhookSecret is
	// set.
	Provider BillingProvider

	Billing BillingConfig
	Review  ReviewConfig

	// CacheAdapter backs the review-response cache. Defaults to an
	// in-process cache; pass an adapter to share it across instances.
	CacheAdapter Cache
	DisableCache bool

	TokenTTL       time.Duration
	PasswordHasher PasswordHandler

	BasePath string
	Logger   *logrus.Logger
}

// DevStarter is the assembled application core. It satisfies
// core.Handler; HTTP adapters hold one and translate requests into
// these calls.
type DevStarter struct {
	auth    *services.AuthService
	billing *services.BillingService
	review  *services.ReviewService
	guard   *core.Guard

	BasePath string
}

var _ core.Handler = (*DevStarter)(nil)

func New(config Config) (*DevStarter, error) {
	if config.Secret == "" {
		return nil, ErrSecretRequired
	}
	if len(config.Secret) < defaultSecretLen {
		return nil, fmt.Errorf("%w - minimum of %d characters", ErrSecretTooShort, defaultSecretLen)
	}
	if config.Database == nil {
		return nil, ErrStorageRequired
	}
	if config.HTTP == nil {
		return nil, ErrHTTPAdapterRequired
	}

	// Set Defaults

	logger := config.Logger
	if logger == nil {
		logger = logrus.New()
	}

	cacheAdapter := config.CacheAdapter
	if cacheAdapter == nil && !config.DisableCache {
		cacheAdapter = NewInMemoryCache(CacheConfig{
			TTL:     5 * time.Minute,
			MaxSize: 500,
		})
	}

	passwordHasher := config.PasswordHasher
	if passwordHasher == nil {
		passwordHasher = crypto.NewArgon2()
	}

	basePath := config.BasePath
	if basePath == "" {
		basePath = defaultBasePath
	}

	issuer := token.NewIssuer(config.Secret, config.TokenTTL)

	auth, err := services.NewAuthService(config.Database, passwordHasher, issuer)
	if err != nil {
		return nil, err
	}

	app := &DevStarter{
		auth:     auth,
		billing:  services.NewBillingService(config.Database, config.Provider, config.Billing, logger),
		review:   services.NewReviewService(config.Review, cacheAdapter, logger),
		guard:    core.NewGuard(issuer, config.Database),
		BasePath: basePath,
	}

	if err := config.HTTP.RegisterRoutes(app, basePath); err != nil {
		return nil, err
	}

	return app, nil
}

func (d *DevStarter) Register(ctx context.Context, input core.RegisterInput) (*core.AuthResult, error) {
	return d.auth.Register(ctx, input)
}

func (d *DevStarter) Login(ctx context.Context, input core.LoginInput) (*core.AuthResult, error) {
	return d.auth.Login(ctx, input)
}

func (d *DevStarter) Authenticate(ctx context.Context, authorizationHeader string) (*core.Account, error) {
	return d.guard.Authenticate(ctx, authorizationHeader)
}

func (d *DevStarter) StartCheckout(ctx context.Context, account *core.Account, plan core.Plan) (string, error) {
	return d.billing.StartCheckout(ctx, account, plan)
}

func (d *DevStarter) HandleWebhook(ctx context.Context, rawBody []byte, signatureHeader string) (core.WebhookOutcome, error) {
	return d.billing.HandleWebhook(ctx, rawBody, signatureHeader)
}

func (d *DevStarter) Subscription(account *core.Account) core.SubscriptionStatus {
	return d.billing.Subscription(account)
}

func (d *DevStarter) Review(ctx context.Context, input core.ReviewInput) (*core.ReviewResult, error) {
	return d.review.Review(ctx, input)
}
