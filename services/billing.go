package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/adionit7/devstarter/core"
	"github.com/adionit7/devstarter/pkg/crypto"
)

// Billing provider event kinds this processor acts on. Everything else
// is acknowledged and ignored.
const (
	eventCheckoutCompleted   = "checkout.session.completed"
	eventSubscriptionDeleted = "customer.subscription.deleted"
)

// BillingConfig configures webhook verification and checkout.
type BillingConfig struct {
	WebhookSecret string
	// Tolerance bounds the accepted age of a signed event timestamp.
	// Zero means DefaultSignatureTolerance; negative disables the check.
	Tolerance  time.Duration
	PriceIDs   map[core.Plan]string
	SuccessURL string
	CancelURL  string
}

// BillingService is the billing event processor and checkout initiator.
// Webhook transitions are absolute sets, so replaying an event leaves
// the account exactly where one application put it.
type BillingService struct {
	storage   core.AccountStorage
	provider  core.BillingProvider
	config    BillingConfig
	tolerance time.Duration
	logger    logrus.FieldLogger
}

func NewBillingService(storage core.AccountStorage, provider core.BillingProvider, config BillingConfig, logger logrus.FieldLogger) *BillingService {
	tolerance := config.Tolerance
	if tolerance == 0 {
		tolerance = crypto.DefaultSignatureTolerance
	}
	if tolerance < 0 {
		tolerance = 0
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &BillingService{
		storage:   storage,
		provider:  provider,
		config:    config,
		tolerance: tolerance,
		logger:    logger,
	}
}

// webhookEvent is the envelope the provider posts. Only the fields the
// processor reads are decoded; the signature was computed over the raw
// bytes, never over this structure.
type webhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type checkoutSessionObject struct {
	ID           string            `json:"id"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

type subscriptionObject struct {
	ID string `json:"id"`
}

// HandleWebhook verifies and applies one provider event.
//
// The signature check runs against the exact raw bytes before anything
// is parsed; a failed check rejects the event with ErrInvalidSignature
// and zero mutations. A well-signed event that cannot be resolved to an
// account is acknowledged without effect (OutcomeIgnored) - the
// provider retries on non-success and this boundary must never create
// duplicate side effects on retry.
func (s *BillingService) HandleWebhook(ctx context.Context, rawBody []byte, signatureHeader string) (core.WebhookOutcome, error) {
	if s.config.WebhookSecret == "" {
		s.logger.Warn("webhook received but no signing secret is configured")
		return core.OutcomeIgnored, core.ErrInvalidSignature
	}
	if err := crypto.VerifySignature(rawBody, signatureHeader, s.config.WebhookSecret, s.tolerance); err != nil {
		s.logger.WithError(err).Warn("webhook signature rejected")
		return core.OutcomeIgnored, core.ErrInvalidSignature
	}

	var event webhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		s.logger.WithError(err).Warn("well-signed webhook payload is malformed")
		return core.OutcomeIgnored, nil
	}

	log := s.logger.WithFields(logrus.Fields{
		"event_id":   event.ID,
		"event_type": event.Type,
	})

	switch event.Type {
	case eventCheckoutCompleted:
		return s.applyCheckoutCompleted(ctx, log, event.Data.Object)
	case eventSubscriptionDeleted:
		return s.applySubscriptionDeleted(ctx, log, event.Data.Object)
	default:
		log.Debug("unrecognized event kind ignored")
		return core.OutcomeIgnored, nil
	}
}

// applyCheckoutCompleted upgrades the account named in the event
// metadata. The signed event itself is the authority here, not any user
// session; the account id and target plan come from the metadata the
// checkout session was created with.
func (s *BillingService) applyCheckoutCompleted(ctx context.Context, log logrus.FieldLogger, object json.RawMessage) (core.WebhookOutcome, error) {
	var session checkoutSessionObject
	if err := json.Unmarshal(object, &session); err != nil {
		log.WithError(err).Warn("malformed checkout session object")
		return core.OutcomeIgnored, nil
	}

	accountID := session.Metadata["account_id"]
	if accountID == "" {
		log.Warn("checkout event carries no account_id metadata")
		return core.OutcomeIgnored, nil
	}

	plan := core.Plan(session.Metadata["plan"])
	if plan == "" {
		plan = core.PlanPro
	}
	if !plan.Valid() {
		log.WithField("plan", session.Metadata["plan"]).Warn("checkout event names an unknown plan")
		return core.OutcomeIgnored, nil
	}

	account, err := s.storage.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, core.ErrAccountNotFound) {
			log.WithField("account_id", accountID).Info("checkout event for unknown account ignored")
			return core.OutcomeIgnored, nil
		}
		return core.OutcomeIgnored, fmt.Errorf("failed to resolve account: %w", err)
	}

	var subscriptionRef *string
	if session.Subscription != "" {
		subscriptionRef = &session.Subscription
	}

	if err := s.storage.SetPlan(ctx, account.ID, plan, subscriptionRef); err != nil {
		return core.OutcomeIgnored, fmt.Errorf("failed to set plan: %w", err)
	}

	log.WithFields(logrus.Fields{
		"account_id": account.ID,
		"plan":       plan,
	}).Info("subscription activated")
	return core.OutcomeApplied, nil
}

// applySubscriptionDeleted downgrades whichever account holds the
// cancelled subscription reference. Resolution goes by the stored
// reference, never by event metadata.
func (s *BillingService) applySubscriptionDeleted(ctx context.Context, log logrus.FieldLogger, object json.RawMessage) (core.WebhookOutcome, error) {
	var subscription subscriptionObject
	if err := json.Unmarshal(object, &subscription); err != nil {
		log.WithError(err).Warn("malformed subscription object")
		return core.OutcomeIgnored, nil
	}
	if subscription.ID == "" {
		log.Warn("subscription deletion event carries no id")
		return core.OutcomeIgnored, nil
	}

	account, err := s.storage.GetAccountBySubscriptionRef(ctx, subscription.ID)
	if err != nil {
		if errors.Is(err, core.ErrAccountNotFound) {
			log.WithField("subscription", subscription.ID).Info("deletion event for unknown subscription ignored")
			return core.OutcomeIgnored, nil
		}
		return core.OutcomeIgnored, fmt.Errorf("failed to resolve subscription: %w", err)
	}

	if err := s.storage.SetPlan(ctx, account.ID, core.PlanFree, nil); err != nil {
		return core.OutcomeIgnored, fmt.Errorf("failed to reset plan: %w", err)
	}

	log.WithField("account_id", account.ID).Info("subscription cancelled, account reverted to free")
	return core.OutcomeApplied, nil
}

// StartCheckout creates a hosted checkout session for a paid plan. The
// provider customer is created at most once per account; the stored
// reference wins every subsequent race.
func (s *BillingService) StartCheckout(ctx context.Context, account *core.Account, plan core.Plan) (string, error) {
	if s.provider == nil {
		return "", core.ErrProviderUnavailable
	}
	if !plan.Paid() {
		return "", core.ErrInvalidPlan
	}
	priceID, ok := s.config.PriceIDs[plan]
	if !ok {
		return "", core.ErrInvalidPlan
	}

	customerRef, err := s.ensureCustomerRef(ctx, account)
	if err != nil {
		return "", err
	}

	session, err := s.provider.CreateCheckoutSession(ctx, core.CheckoutParams{
		CustomerRef: customerRef,
		PriceID:     priceID,
		SuccessURL:  s.config.SuccessURL,
		CancelURL:   s.config.CancelURL,
		Metadata: map[string]string{
			"account_id": account.ID,
			"plan":       string(plan),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	return session.URL, nil
}

func (s *BillingService) ensureCustomerRef(ctx context.Context, account *core.Account) (string, error) {
	if account.BillingCustomerRef != nil {
		return *account.BillingCustomerRef, nil
	}

	ref, err := s.provider.CreateCustomer(ctx, account.Email, account.Name, map[string]string{
		"account_id": account.ID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create provider customer: %w", err)
	}

	if err := s.storage.SetCustomerRef(ctx, account.ID, ref); err != nil {
		return "", fmt.Errorf("failed to persist customer ref: %w", err)
	}

	// Re-read in case a concurrent checkout won the write-once race.
	refreshed, err := s.storage.GetAccountByID(ctx, account.ID)
	if err != nil {
		return "", fmt.Errorf("failed to re-read account: %w", err)
	}
	if refreshed.BillingCustomerRef == nil {
		return "", core.ErrProviderUnavailable
	}

	account.BillingCustomerRef = refreshed.BillingCustomerRef
	return *refreshed.BillingCustomerRef, nil
}

// Subscription reports the entitlement state of an account.
func (s *BillingService) Subscription(account *core.Account) core.SubscriptionStatus {
	return core.SubscriptionStatus{
		Plan:            account.Plan,
		CustomerRef:     account.BillingCustomerRef,
		SubscriptionRef: account.BillingSubscriptionRef,
	}
}
