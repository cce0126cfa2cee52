package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/adionit7/devstarter/core"
	"github.com/adionit7/devstarter/pkg/crypto"
	"github.com/adionit7/devstarter/pkg/token"
)

const webhookSecret = "whsec_test_secret"

func testLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestBillingService(storage *FakeAccountStorage, provider *FakeBillingProvider) *BillingService {
	return NewBillingService(storage, provider, BillingConfig{
		WebhookSecret: webhookSecret,
		PriceIDs: map[core.Plan]string{
			core.PlanPro:        "price_pro_test",
			core.PlanEnterprise: "price_enterprise_test",
		},
		SuccessURL: "https://app.example.com/dashboard?upgraded=true",
		CancelURL:  "https://app.example.com/pricing",
	}, testLogger())
}

// signedCheckoutEvent builds a well-signed checkout.session.completed payload.
func signedCheckoutEvent(t *testing.T, accountID string, plan core.Plan, subscriptionRef string) ([]byte, string) {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"id":   "evt_1",
		"type": "checkout.session.completed",
		"data": map[string]any{
			"object": map[string]any{
				"id":           "cs_1",
				"subscription": subscriptionRef,
				"metadata": map[string]string{
					"account_id": accountID,
					"plan":       string(plan),
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return payload, crypto.SignPayload(payload, webhookSecret, time.Now())
}

func signedSubscriptionDeletedEvent(t *testing.T, subscriptionRef string) ([]byte, string) {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"id":   "evt_2",
		"type": "customer.subscription.deleted",
		"data": map[string]any{
			"object": map[string]any{"id": subscriptionRef},
		},
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return payload, crypto.SignPayload(payload, webhookSecret, time.Now())
}

func seedAccount(t *testing.T, storage *FakeAccountStorage, email string) *core.Account {
	t.Helper()
	account := &core.Account{
		Email:    email,
		Name:     "Seeded",
		Plan:     core.PlanFree,
		IsActive: true,
	}
	if err := storage.CreateAccount(context.Background(), account); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	return account
}

// Requirement: a well-signed checkout event upgrades the account named
// in its metadata and records the subscription reference.
func TestBillingService_CheckoutCompleted(t *testing.T) {
	// Arrange
	storage := NewFakeAccountStorage()
	service := newTestBillingService(storage, NewFakeBillingProvider())
	account := seedAccount(t, storage, "alice@example.com")
	payload, header := signedCheckoutEvent(t, account.ID, core.PlanPro, "sub_1")

	// Act
	outcome, err := service.HandleWebhook(context.Background(), payload, header)

	// Assert
	if err != nil {
		t.Fatalf("HandleWebhook() error = %v", err)
	}
	if outcome != core.OutcomeApplied {
		t.Fatalf("HandleWebhook() outcome = %v, want applied", outcome)
	}
	stored := storage.snapshot(account.ID)
	if stored.Plan != core.PlanPro {
		t.Errorf("plan = %v, want pro", stored.Plan)
	}
	if stored.BillingSubscriptionRef == nil || *stored.BillingSubscriptionRef != "sub_1" {
		t.Errorf("subscription ref = %v, want sub_1", stored.BillingSubscriptionRef)
	}
}

// Requirement: processing the same event payload twice yields exactly
// the state produced by one application.
func TestBillingService_WebhookIdempotence(t *testing.T) {
	// Arrange
	storage := NewFakeAccountStorage()
	service := newTestBillingService(storage, NewFakeBillingProvider())
	account := seedAccount(t, storage, "alice@example.com")
	payload, header := signedCheckoutEvent(t, account.ID, core.PlanPro, "sub_1")

	// Act
	for i := 0; i < 2; i++ {
		outcome, err := service.HandleWebhook(context.Background(), payload, header)
		if err != nil {
			t.Fatalf("HandleWebhook() pass %d error = %v", i, err)
		}
		if outcome != core.OutcomeApplied {
			t.Fatalf("HandleWebhook() pass %d outcome = %v, want applied", i, outcome)
		}
	}

	// Assert
	stored := storage.snapshot(account.ID)
	if stored.Plan != core.PlanPro || stored.BillingSubscriptionRef == nil || *stored.BillingSubscriptionRef != "sub_1" {
		t.Errorf("state after replay = plan %v ref %v, want pro/sub_1", stored.Plan, stored.BillingSubscriptionRef)
	}
}

// Requirement: a signature computed over a tampered payload is rejected
// with ErrInvalidSignature and produces zero mutations.
func TestBillingService_TamperedPayloadRejected(t *testing.T) {
	// Arrange
	storage := NewFakeAccountStorage()
	service := newTestBillingService(storage, NewFakeBillingProvider())
	account := seedAccount(t, storage, "alice@example.com")
	payload, header := signedCheckoutEvent(t, account.ID, core.PlanPro, "sub_1")
	tampered := []byte(string(payload[:len(payload)-1]) + " ")

	// Act
	_, err := service.HandleWebhook(context.Background(), tampered, header)

	// Assert
	if !errors.Is(err, core.ErrInvalidSignature) {
		t.Fatalf("HandleWebhook() error = %v, want ErrInvalidSignature", err)
	}
	if stored := storage.snapshot(account.ID); stored.Plan != core.PlanFree {
		t.Errorf("plan mutated to %v on rejected event", stored.Plan)
	}
}

// Requirement: well-signed events that cannot be resolved, or that are
// malformed or unrecognized, are acknowledged without effect.
func TestBillingService_SoftIgnores(t *testing.T) {
	sign := func(payload []byte) string {
		return crypto.SignPayload(payload, webhookSecret, time.Now())
	}

	tests := []struct {
		name    string
		payload []byte
	}{
		{
			name: "unknown account id",
			payload: []byte(`{"id":"evt_x","type":"checkout.session.completed",
				"data":{"object":{"subscription":"sub_9","metadata":{"account_id":"acc_missing","plan":"pro"}}}}`),
		},
		{
			name: "unknown subscription ref",
			payload: []byte(`{"id":"evt_x","type":"customer.subscription.deleted",
				"data":{"object":{"id":"sub_missing"}}}`),
		},
		{
			name:    "unrecognized event kind",
			payload: []byte(`{"id":"evt_x","type":"invoice.paid","data":{"object":{}}}`),
		},
		{
			name:    "malformed but well-signed payload",
			payload: []byte(`this is not json at all`),
		},
		{
			name: "checkout with unknown plan name",
			payload: []byte(`{"id":"evt_x","type":"checkout.session.completed",
				"data":{"object":{"metadata":{"account_id":"acc_1","plan":"platinum"}}}}`),
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			storage := NewFakeAccountStorage()
			service := newTestBillingService(storage, NewFakeBillingProvider())
			account := seedAccount(t, storage, "alice@example.com")

			// Act
			outcome, err := service.HandleWebhook(context.Background(), test.payload, sign(test.payload))

			// Assert
			if err != nil {
				t.Fatalf("HandleWebhook() error = %v, want accept-and-no-op", err)
			}
			if outcome != core.OutcomeIgnored {
				t.Errorf("HandleWebhook() outcome = %v, want ignored", outcome)
			}
			if stored := storage.snapshot(account.ID); stored.Plan != core.PlanFree {
				t.Errorf("plan mutated to %v by ignored event", stored.Plan)
			}
		})
	}
}

// Requirement: a checkout event with no plan metadata defaults to pro.
func TestBillingService_CheckoutDefaultsPlanToPro(t *testing.T) {
	// Arrange
	storage := NewFakeAccountStorage()
	service := newTestBillingService(storage, NewFakeBillingProvider())
	account := seedAccount(t, storage, "alice@example.com")
	payload := []byte(fmt.Sprintf(
		`{"id":"evt_x","type":"checkout.session.completed","data":{"object":{"subscription":"sub_1","metadata":{"account_id":"%s"}}}}`,
		account.ID))
	header := crypto.SignPayload(payload, webhookSecret, time.Now())

	// Act
	outcome, err := service.HandleWebhook(context.Background(), payload, header)

	// Assert
	if err != nil || outcome != core.OutcomeApplied {
		t.Fatalf("HandleWebhook() = %v, %v; want applied", outcome, err)
	}
	if stored := storage.snapshot(account.ID); stored.Plan != core.PlanPro {
		t.Errorf("plan = %v, want pro", stored.Plan)
	}
}

// Requirement: StartCheckout creates the provider customer exactly once
// per account; the stored reference is reused on later checkouts.
func TestBillingService_StartCheckout(t *testing.T) {
	// Arrange
	storage := NewFakeAccountStorage()
	provider := NewFakeBillingProvider()
	service := newTestBillingService(storage, provider)
	account := seedAccount(t, storage, "alice@example.com")

	// Act
	url1, err := service.StartCheckout(context.Background(), account, core.PlanPro)
	if err != nil {
		t.Fatalf("StartCheckout() error = %v", err)
	}
	refreshed := storage.snapshot(account.ID)
	url2, err := service.StartCheckout(context.Background(), refreshed, core.PlanEnterprise)
	if err != nil {
		t.Fatalf("StartCheckout() second call error = %v", err)
	}

	// Assert
	if url1 == "" || url2 == "" {
		t.Error("StartCheckout() should return checkout URLs")
	}
	if provider.customersCreated != 1 {
		t.Errorf("customers created = %d, want 1 (write-once ref)", provider.customersCreated)
	}
	if len(provider.sessionsCreated) != 2 {
		t.Fatalf("sessions created = %d, want 2", len(provider.sessionsCreated))
	}
	meta := provider.sessionsCreated[0].Metadata
	if meta["account_id"] != account.ID || meta["plan"] != string(core.PlanPro) {
		t.Errorf("session metadata = %v, want account id and plan", meta)
	}
}

// Requirement: checkout only accepts paid plans.
func TestBillingService_StartCheckoutRejectsFreePlan(t *testing.T) {
	storage := NewFakeAccountStorage()
	service := newTestBillingService(storage, NewFakeBillingProvider())
	account := seedAccount(t, storage, "alice@example.com")

	if _, err := service.StartCheckout(context.Background(), account, core.PlanFree); !errors.Is(err, core.ErrInvalidPlan) {
		t.Fatalf("StartCheckout() error = %v, want ErrInvalidPlan", err)
	}
	if _, err := service.StartCheckout(context.Background(), account, core.Plan("platinum")); !errors.Is(err, core.ErrInvalidPlan) {
		t.Fatalf("StartCheckout() error = %v, want ErrInvalidPlan", err)
	}
}

// Requirement: end to end - register, authenticate, upgrade via signed
// checkout event, observe pro on the next request, cancel via signed
// deletion event, observe free with the reference cleared.
func TestBillingService_EndToEndUpgradeAndCancel(t *testing.T) {
	// Arrange
	ctx := context.Background()
	storage := NewFakeAccountStorage()
	issuer := token.NewIssuer(testTokenSecret, time.Hour)
	auth, err := NewAuthService(storage, testHasher(), issuer)
	if err != nil {
		t.Fatalf("NewAuthService() error = %v", err)
	}
	billing := newTestBillingService(storage, NewFakeBillingProvider())
	guard := core.NewGuard(issuer, storage)

	registered, err := auth.Register(ctx, core.RegisterInput{
		Name: "Alice", Email: "alice@example.com", Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	header := "Bearer " + registered.Token

	// Initial protected request sees the free plan.
	account, err := guard.Authenticate(ctx, header)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if account.Plan != core.PlanFree {
		t.Fatalf("plan = %v, want free", account.Plan)
	}

	// Act: upgrade.
	payload, sig := signedCheckoutEvent(t, account.ID, core.PlanPro, "sub_1")
	if outcome, err := billing.HandleWebhook(ctx, payload, sig); err != nil || outcome != core.OutcomeApplied {
		t.Fatalf("HandleWebhook(checkout) = %v, %v", outcome, err)
	}

	// Assert: same token now resolves to pro.
	account, err = guard.Authenticate(ctx, header)
	if err != nil {
		t.Fatalf("Authenticate() after upgrade error = %v", err)
	}
	if account.Plan != core.PlanPro {
		t.Fatalf("plan after upgrade = %v, want pro", account.Plan)
	}

	// Act: cancel.
	payload, sig = signedSubscriptionDeletedEvent(t, "sub_1")
	if outcome, err := billing.HandleWebhook(ctx, payload, sig); err != nil || outcome != core.OutcomeApplied {
		t.Fatalf("HandleWebhook(deletion) = %v, %v", outcome, err)
	}

	// Assert: reverted to free, reference cleared.
	account, err = guard.Authenticate(ctx, header)
	if err != nil {
		t.Fatalf("Authenticate() after cancel error = %v", err)
	}
	if account.Plan != core.PlanFree {
		t.Errorf("plan after cancel = %v, want free", account.Plan)
	}
	if account.BillingSubscriptionRef != nil {
		t.Errorf("subscription ref = %v, want cleared", *account.BillingSubscriptionRef)
	}
}
