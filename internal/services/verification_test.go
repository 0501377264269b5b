package services

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/GregMSThompson/dispatch-backend/internal/errs"
	"github.com/GregMSThompson/dispatch-backend/internal/models"
)

type verificationFixture struct {
	svc      *verificationService
	accounts *memAccounts
	outbox   *fakeOutbox
	clock    *fakeClock
}

func newVerificationFixture(method models.VerificationMethod, codes ...string) verificationFixture {
	accounts := newMemAccounts()
	accounts.byDriver["d1"] = []models.BankAccount{{
		AccountID:          "acc1",
		DriverID:           "d1",
		AccountNumber:      "12345678",
		SortCode:           "112233",
		IsDefault:          true,
		VerificationMethod: method,
	}}
	contacts := &fakeContacts{drivers: map[string]*models.Driver{
		"d1": {DriverID: "d1", Email: "jane@example.com", Phone: "+447700900123"},
	}}
	outbox := &fakeOutbox{}
	clock := &fakeClock{now: time.Date(2025, time.July, 1, 12, 0, 0, 0, time.UTC)}

	svc := NewVerificationService(accounts, contacts, outbox, prefixCipher{}, NewOwnerLocks(), DefaultVerificationConfig())
	svc.clockNow = clock.Now
	if len(codes) > 0 {
		svc.newCode = sequenceCodes(codes...)
	}
	return verificationFixture{svc: svc, accounts: accounts, outbox: outbox, clock: clock}
}

func TestIssueCodeSealsAndSends(t *testing.T) {
	f := newVerificationFixture(models.VerificationEmail, "123456")

	account, err := f.svc.IssueCode(testCtx(), "d1", "acc1")
	if err != nil {
		t.Fatalf("IssueCode returned error: %v", err)
	}
	pc := account.PendingCode
	if pc == nil || pc.SealedCode != "sealed:123456" || !pc.Delivered || pc.TTLSeconds != 600 {
		t.Fatalf("unexpected pending code %+v", pc)
	}
	if len(f.outbox.sent) != 1 {
		t.Fatalf("expected one notification, got %d", len(f.outbox.sent))
	}
	n := f.outbox.sent[0]
	if n.Channel != models.ChannelEmail || n.To != "jane@example.com" || !strings.Contains(n.Body, "123456") {
		t.Fatalf("unexpected notification %+v", n)
	}
}

func TestIssueCodeSMSUsesPhone(t *testing.T) {
	f := newVerificationFixture(models.VerificationSMS, "654321")
	if _, err := f.svc.IssueCode(testCtx(), "d1", "acc1"); err != nil {
		t.Fatalf("IssueCode returned error: %v", err)
	}
	if n := f.outbox.sent[0]; n.Channel != models.ChannelSMS || n.To != "+447700900123" {
		t.Fatalf("unexpected notification %+v", n)
	}
}

func TestConfirmIsOneShot(t *testing.T) {
	f := newVerificationFixture(models.VerificationEmail, "123456")
	ctx := testCtx()
	if _, err := f.svc.IssueCode(ctx, "d1", "acc1"); err != nil {
		t.Fatalf("IssueCode returned error: %v", err)
	}

	f.clock.Advance(2 * time.Minute)
	confirmedAt := f.clock.Now()
	account, err := f.svc.Confirm(ctx, "d1", "acc1", "123456")
	if err != nil {
		t.Fatalf("Confirm returned error: %v", err)
	}
	if !account.Verified || account.PendingCode != nil || !account.VerificationConfirmedAt.Equal(confirmedAt) {
		t.Fatalf("unexpected verified account %+v", account)
	}

	f.clock.Advance(time.Minute)
	_, err = f.svc.Confirm(ctx, "d1", "acc1", "123456")
	var already *errs.AlreadyVerifiedError
	if !errors.As(err, &already) {
		t.Fatalf("expected AlreadyVerifiedError, got %v", err)
	}
	stored, _ := f.accounts.Get(ctx, "d1", "acc1")
	if !stored.VerificationConfirmedAt.Equal(confirmedAt) {
		t.Fatalf("second confirm changed confirmedAt to %v", stored.VerificationConfirmedAt)
	}

	if _, err := f.svc.IssueCode(ctx, "d1", "acc1"); !errors.As(err, &already) {
		t.Fatalf("IssueCode on verified account: expected AlreadyVerifiedError, got %v", err)
	}
}

func TestConfirmExpiryBoundary(t *testing.T) {
	cases := []struct {
		name    string
		elapsed time.Duration
		expired bool
	}{
		{"one second before", 599 * time.Second, false},
		{"at ttl", 600 * time.Second, true},
		{"one second after", 601 * time.Second, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newVerificationFixture(models.VerificationEmail, "123456")
			ctx := testCtx()
			if _, err := f.svc.IssueCode(ctx, "d1", "acc1"); err != nil {
				t.Fatalf("IssueCode returned error: %v", err)
			}
			f.clock.Advance(tc.elapsed)

			_, err := f.svc.Confirm(ctx, "d1", "acc1", "123456")
			var expired *errs.ExpiredError
			if tc.expired != errors.As(err, &expired) {
				t.Fatalf("elapsed %s: got err %v, want expired=%v", tc.elapsed, err, tc.expired)
			}
			if !tc.expired && err != nil {
				t.Fatalf("unexpected error %v", err)
			}
		})
	}
}

func TestConfirmInvalidFormat(t *testing.T) {
	f := newVerificationFixture(models.VerificationEmail, "123456")
	ctx := testCtx()
	f.svc.IssueCode(ctx, "d1", "acc1")

	for _, code := range []string{"", "12345", "1234567", "123456789"} {
		_, err := f.svc.Confirm(ctx, "d1", "acc1", code)
		var bad *errs.InvalidFormatError
		if !errors.As(err, &bad) {
			t.Fatalf("code %q: expected InvalidFormatError, got %v", code, err)
		}
	}
}

func TestConfirmWrongCodePreservesIssuedCode(t *testing.T) {
	f := newVerificationFixture(models.VerificationEmail, "123456")
	ctx := testCtx()
	f.svc.IssueCode(ctx, "d1", "acc1")

	_, err := f.svc.Confirm(ctx, "d1", "acc1", "000000")
	var wrong *errs.InvalidCodeError
	if !errors.As(err, &wrong) {
		t.Fatalf("expected InvalidCodeError, got %v", err)
	}
	if _, err := f.svc.Confirm(ctx, "d1", "acc1", "123456"); err != nil {
		t.Fatalf("correct code after a miss should verify, got %v", err)
	}
}

func TestConfirmWithoutIssuedCode(t *testing.T) {
	f := newVerificationFixture(models.VerificationEmail)
	_, err := f.svc.Confirm(testCtx(), "d1", "acc1", "123456")
	var verr *errs.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestResendThrottleAndReissue(t *testing.T) {
	f := newVerificationFixture(models.VerificationEmail, "111111", "222222")
	ctx := testCtx()
	f.svc.IssueCode(ctx, "d1", "acc1")

	f.clock.Advance(60 * time.Second)
	_, err := f.svc.Resend(ctx, "d1", "acc1")
	var tooSoon *errs.ResendTooSoonError
	if !errors.As(err, &tooSoon) {
		t.Fatalf("expected ResendTooSoonError, got %v", err)
	}
	if tooSoon.RetryAfter != 510*time.Second {
		t.Fatalf("expected 510s wait, got %s", tooSoon.RetryAfter)
	}

	f.clock.Advance(510 * time.Second)
	account, err := f.svc.Resend(ctx, "d1", "acc1")
	if err != nil {
		t.Fatalf("Resend at the window returned error: %v", err)
	}
	if account.PendingCode.SealedCode != "sealed:222222" || !account.PendingCode.IssuedAt.Equal(f.clock.Now()) {
		t.Fatalf("expected a fresh code, got %+v", account.PendingCode)
	}

	_, err = f.svc.Confirm(ctx, "d1", "acc1", "111111")
	var wrong *errs.InvalidCodeError
	if !errors.As(err, &wrong) {
		t.Fatalf("old code must be invalid after reissue, got %v", err)
	}
	if _, err := f.svc.Confirm(ctx, "d1", "acc1", "222222"); err != nil {
		t.Fatalf("new code should verify, got %v", err)
	}
}

func TestResendAfterFailedDeliveryIsNotThrottled(t *testing.T) {
	f := newVerificationFixture(models.VerificationEmail, "111111", "222222")
	ctx := testCtx()
	f.outbox.err = errors.New("outbox unavailable")

	_, err := f.svc.IssueCode(ctx, "d1", "acc1")
	var ext *errs.ExternalServiceError
	if !errors.As(err, &ext) || !ext.Transient {
		t.Fatalf("expected transient ExternalServiceError, got %v", err)
	}

	f.outbox.err = nil
	if _, err := f.svc.Resend(ctx, "d1", "acc1"); err != nil {
		t.Fatalf("resend after failed delivery returned error: %v", err)
	}
	if f.outbox.count() != 1 {
		t.Fatalf("expected one delivered notification, got %d", f.outbox.count())
	}
}

func TestStatusTracksWallClock(t *testing.T) {
	f := newVerificationFixture(models.VerificationEmail, "123456")
	ctx := testCtx()

	st, err := f.svc.Status(ctx, "d1", "acc1")
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if !st.CanResend || st.Verified {
		t.Fatalf("before issue: unexpected status %+v", st)
	}

	f.svc.IssueCode(ctx, "d1", "acc1")
	f.clock.Advance(100*time.Second + 500*time.Millisecond)
	st, _ = f.svc.Status(ctx, "d1", "acc1")
	if st.TimeLeftSeconds != 500 || st.Expired || st.CanResend {
		t.Fatalf("mid-window: unexpected status %+v", st)
	}

	f.clock.Advance(480 * time.Second)
	st, _ = f.svc.Status(ctx, "d1", "acc1")
	if !st.CanResend || st.Expired {
		t.Fatalf("inside resend window: unexpected status %+v", st)
	}

	f.clock.Advance(time.Minute)
	st, _ = f.svc.Status(ctx, "d1", "acc1")
	if !st.Expired || st.TimeLeftSeconds != 0 {
		t.Fatalf("after expiry: unexpected status %+v", st)
	}
}

func TestConcurrentConfirmsOnlyOneSucceeds(t *testing.T) {
	f := newVerificationFixture(models.VerificationEmail, "123456")
	ctx := testCtx()
	f.svc.IssueCode(ctx, "d1", "acc1")

	const n = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Confirm(ctx, "d1", "acc1", "123456"); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly one successful confirm, got %d", successes)
	}
}
