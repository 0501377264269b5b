package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/GregMSThompson/dispatch-backend/internal/errs"
	"github.com/GregMSThompson/dispatch-backend/internal/models"
	"github.com/GregMSThompson/dispatch-backend/pkg/helpers"
)

func testCtx() context.Context {
	return helpers.TestCtx()
}

// fakeClock is a settable clock for services that take clockNow.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// memAccounts is an in-memory bank account store keyed by driver.
type memAccounts struct {
	mu       sync.Mutex
	byDriver map[string][]models.BankAccount
	saves    int
	listErr  error
}

func newMemAccounts() *memAccounts {
	return &memAccounts{byDriver: map[string][]models.BankAccount{}}
}

func (m *memAccounts) List(_ context.Context, driverID string) ([]models.BankAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]models.BankAccount(nil), m.byDriver[driverID]...), nil
}

func (m *memAccounts) Get(_ context.Context, driverID, accountID string) (*models.BankAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byDriver[driverID] {
		if a.AccountID == accountID {
			cp := a
			return &cp, nil
		}
	}
	return nil, errs.NewNotFoundError("bank account not found")
}

func (m *memAccounts) Save(_ context.Context, driverID string, account *models.BankAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	list := m.byDriver[driverID]
	for i, a := range list {
		if a.AccountID == account.AccountID {
			list[i] = *account
			return nil
		}
	}
	m.byDriver[driverID] = append(list, *account)
	return nil
}

func (m *memAccounts) ReplaceAll(_ context.Context, driverID string, accounts []models.BankAccount, _ []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byDriver[driverID] = append([]models.BankAccount(nil), accounts...)
	return nil
}

type fakeContacts struct {
	drivers map[string]*models.Driver
}

func (f *fakeContacts) Get(_ context.Context, driverID string) (*models.Driver, error) {
	d, ok := f.drivers[driverID]
	if !ok {
		return nil, errs.NewNotFoundError("driver not found")
	}
	return d, nil
}

type fakeOutbox struct {
	mu   sync.Mutex
	sent []models.Notification
	err  error
}

func (f *fakeOutbox) Enqueue(_ context.Context, n models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeOutbox) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// prefixCipher stands in for KMS.
type prefixCipher struct{}

func (prefixCipher) Encrypt(_ context.Context, s string) (string, error) { return "sealed:" + s, nil }
func (prefixCipher) Decrypt(_ context.Context, s string) (string, error) {
	return strings.TrimPrefix(s, "sealed:"), nil
}

// sequenceCodes hands out codes in order.
func sequenceCodes(codes ...string) func(int) (string, error) {
	var mu sync.Mutex
	i := 0
	return func(int) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		c := codes[i%len(codes)]
		i++
		return c, nil
	}
}
