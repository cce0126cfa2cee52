package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/adionit7/devstarter/core"
)

// FakeAccountStorage is a test-only fake implementing core.AccountStorage.
// It stores accounts in a map and exposes error fields for behavior injection.
type FakeAccountStorage struct {
	mu       sync.RWMutex
	accounts map[string]*core.Account
	nextID   int

	createErr error
	getErr    error
	updateErr error
}

var _ core.AccountStorage = (*FakeAccountStorage)(nil)

func NewFakeAccountStorage() *FakeAccountStorage {
	return &FakeAccountStorage{accounts: make(map[string]*core.Account)}
}

func (f *FakeAccountStorage) CreateAccount(_ context.Context, a *core.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.accounts {
		if existing.Email == a.Email {
			return core.ErrDuplicateEmail
		}
	}

	if a.ID == "" {
		f.nextID++
		a.ID = fmt.Sprintf("acc_%d", f.nextID)
	}
	copied := *a
	f.accounts[a.ID] = &copied
	return nil
}

func (f *FakeAccountStorage) GetAccountByID(_ context.Context, id string) (*core.Account, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	a, ok := f.accounts[id]
	if !ok {
		return nil, core.ErrAccountNotFound
	}
	copied := *a
	return &copied, nil
}

func (f *FakeAccountStorage) GetAccountByEmail(_ context.Context, email string) (*core.Account, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, a := range f.accounts {
		if a.Email == email {
			copied := *a
			return &copied, nil
		}
	}
	return nil, core.ErrAccountNotFound
}

func (f *FakeAccountStorage) GetAccountBySubscriptionRef(_ context.Context, ref string) (*core.Account, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, a := range f.accounts {
		if a.BillingSubscriptionRef != nil && *a.BillingSubscriptionRef == ref {
			copied := *a
			return &copied, nil
		}
	}
	return nil, core.ErrAccountNotFound
}

func (f *FakeAccountStorage) UpdateAccount(_ context.Context, a *core.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.accounts[a.ID]; !ok {
		return core.ErrAccountNotFound
	}
	copied := *a
	f.accounts[a.ID] = &copied
	return nil
}

func (f *FakeAccountStorage) SetPlan(_ context.Context, id string, plan core.Plan, subscriptionRef *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	a, ok := f.accounts[id]
	if !ok {
		return core.ErrAccountNotFound
	}
	a.Plan = plan
	if subscriptionRef != nil {
		ref := *subscriptionRef
		a.BillingSubscriptionRef = &ref
	} else {
		a.BillingSubscriptionRef = nil
	}
	return nil
}

func (f *FakeAccountStorage) SetCustomerRef(_ context.Context, id, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	a, ok := f.accounts[id]
	if !ok {
		return core.ErrAccountNotFound
	}
	if a.BillingCustomerRef == nil {
		a.BillingCustomerRef = &ref
	}
	return nil
}

// snapshot returns a copy of the stored account for assertions.
func (f *FakeAccountStorage) snapshot(id string) *core.Account {
	f.mu.RLock()
	defer f.mu.RUnlock()
	a, ok := f.accounts[id]
	if !ok {
		return nil
	}
	copied := *a
	return &copied
}

// FakeBillingProvider is a test-only fake implementing core.BillingProvider.
type FakeBillingProvider struct {
	mu sync.Mutex

	customersCreated int
	sessionsCreated  []core.CheckoutParams

	customerErr error
	sessionErr  error
}

var _ core.BillingProvider = (*FakeBillingProvider)(nil)

func NewFakeBillingProvider() *FakeBillingProvider {
	return &FakeBillingProvider{}
}

func (f *FakeBillingProvider) CreateCustomer(_ context.Context, email, name string, metadata map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.customerErr != nil {
		return "", f.customerErr
	}
	f.customersCreated++
	return fmt.Sprintf("cus_fake_%d", f.customersCreated), nil
}

func (f *FakeBillingProvider) CreateCheckoutSession(_ context.Context, params core.CheckoutParams) (*core.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	f.sessionsCreated = append(f.sessionsCreated, params)
	return &core.CheckoutSession{
		ID:  fmt.Sprintf("cs_fake_%d", len(f.sessionsCreated)),
		URL: fmt.Sprintf("https://billing.example.com/pay/cs_fake_%d", len(f.sessionsCreated)),
	}, nil
}
