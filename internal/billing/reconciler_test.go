package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"membership-app/internal/domain/memberships"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
}

func newTestReconciler(ledger *fakeLedger, provider *fakeProvider) *Reconciler {
	r := NewReconciler(ledger, provider)
	r.now = fixedNow
	return r
}

func checkoutEvent() CheckoutCompleted {
	return CheckoutCompleted{
		SessionID:       "cs_1",
		SubscriptionID:  "sub_abc",
		CustomerID:      "cus_1",
		PaymentIntentID: "pi_1",
		AmountTotal:     4900,
		Currency:        "eur",
		Metadata:        map[string]string{"member_id": "1", "plan_id": "3"},
	}
}

func seedSubscription(p *fakeProvider) {
	p.subscriptions["sub_abc"] = &ProviderSubscription{
		ID:                 "sub_abc",
		Status:             "active",
		PriceID:            "price_123",
		CurrentPeriodStart: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		CurrentPeriodEnd:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCheckoutCompletedCreatesMembershipAndPayment(t *testing.T) {
	ledger := newFakeLedger()
	provider := newFakeProvider()
	seedSubscription(provider)
	r := newTestReconciler(ledger, provider)

	ev := checkoutEvent()
	ev.Metadata = map[string]string{"member_id": "1", "plan_id": "2"}

	require.NoError(t, r.Process(context.Background(), ev))

	require.Len(t, ledger.memberships, 1)
	m := ledger.memberships[0]
	assert.Equal(t, uint(1), m.MemberID)
	require.NotNil(t, m.PlanID)
	assert.Equal(t, uint(2), *m.PlanID)
	assert.Equal(t, memberships.StatusActive, m.Status)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), m.StartDate)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), m.EndDate)
	assert.Equal(t, "price_123", m.StripePriceID)
	assert.True(t, m.AutoRenew)

	require.Len(t, ledger.payments, 1)
	p := ledger.payments[0]
	assert.Equal(t, memberships.PaymentSucceeded, p.Status)
	assert.Equal(t, int64(4900), p.AmountCents)
	require.NotNil(t, p.StripeInvoiceID)
	assert.Equal(t, "pi_1", *p.StripeInvoiceID)
}

func TestCheckoutCompletedIsIdempotent(t *testing.T) {
	ledger := newFakeLedger()
	provider := newFakeProvider()
	seedSubscription(provider)
	r := newTestReconciler(ledger, provider)

	ev := checkoutEvent()
	require.NoError(t, r.Process(context.Background(), ev))
	require.NoError(t, r.Process(context.Background(), ev))

	assert.Len(t, ledger.memberships, 1)
	assert.Len(t, ledger.payments, 1)
	assert.Equal(t, memberships.StatusActive, ledger.memberships[0].Status)
}

func TestCheckoutCompletedCancelsPreviousMembership(t *testing.T) {
	ledger := newFakeLedger()
	provider := newFakeProvider()
	seedSubscription(provider)
	r := newTestReconciler(ledger, provider)

	old := uint(1)
	require.NoError(t, ledger.InsertMembership(context.Background(), &memberships.Membership{
		MemberID:             1,
		PlanID:               &old,
		StripeSubscriptionID: "sub_old",
		Status:               memberships.StatusActive,
		AutoRenew:            true,
	}))

	require.NoError(t, r.Process(context.Background(), checkoutEvent()))

	require.Len(t, ledger.memberships, 2)
	var active, cancelled int
	for _, m := range ledger.memberships {
		switch m.Status {
		case memberships.StatusActive:
			active++
		case memberships.StatusCancelled:
			cancelled++
			assert.NotNil(t, m.CancelledAt)
			assert.False(t, m.AutoRenew)
		}
	}
	assert.Equal(t, 1, active)
	assert.Equal(t, 1, cancelled)
}

func TestCheckoutCompletedMissingMetadataIsNoOp(t *testing.T) {
	for name, md := range map[string]map[string]string{
		"no member_id": {"plan_id": "2"},
		"no plan_id":   {"member_id": "1"},
		"empty":        {},
		"garbage":      {"member_id": "not-a-number", "plan_id": "2"},
	} {
		t.Run(name, func(t *testing.T) {
			ledger := newFakeLedger()
			provider := newFakeProvider()
			provider.subscriptions["sub_abc"] = &ProviderSubscription{ID: "sub_abc", Status: "active"}
			r := newTestReconciler(ledger, provider)

			ev := checkoutEvent()
			ev.Metadata = md
			require.NoError(t, r.Process(context.Background(), ev))
			assert.Empty(t, ledger.memberships)
			assert.Empty(t, ledger.payments)
		})
	}
}

func TestCheckoutCompletedFallsBackToSubscriptionMetadata(t *testing.T) {
	ledger := newFakeLedger()
	provider := newFakeProvider()
	seedSubscription(provider)
	provider.subscriptions["sub_abc"].Metadata = map[string]string{"member_id": "7", "plan_id": "4"}
	r := newTestReconciler(ledger, provider)

	ev := checkoutEvent()
	ev.Metadata = nil
	require.NoError(t, r.Process(context.Background(), ev))

	require.Len(t, ledger.memberships, 1)
	assert.Equal(t, uint(7), ledger.memberships[0].MemberID)
}

func TestCheckoutCompletedProviderFailurePropagates(t *testing.T) {
	ledger := newFakeLedger()
	provider := newFakeProvider()
	provider.getSubscriptionErr = errors.New("stripe down")
	r := newTestReconciler(ledger, provider)

	err := r.Process(context.Background(), checkoutEvent())
	require.Error(t, err)
	assert.Empty(t, ledger.memberships)
}

func TestNewSubscriptionScenario(t *testing.T) {
	// checkout for member m1, plan "premium" (id 2), period 2026-03-01 to
	// 2026-04-01 on price_123.
	ledger := newFakeLedger()
	provider := newFakeProvider()
	seedSubscription(provider)
	r := newTestReconciler(ledger, provider)

	ev := checkoutEvent()
	ev.Metadata = map[string]string{"member_id": "1", "plan_id": "2"}
	require.NoError(t, r.Process(context.Background(), ev))

	require.Len(t, ledger.memberships, 1)
	m := ledger.memberships[0]
	assert.Equal(t, uint(1), m.MemberID)
	assert.Equal(t, uint(2), *m.PlanID)
	assert.Equal(t, memberships.StatusActive, m.Status)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), m.StartDate)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), m.EndDate)
	assert.Equal(t, "price_123", m.StripePriceID)
	assert.True(t, m.AutoRenew)

	require.Len(t, ledger.payments, 1)
	assert.Equal(t, memberships.PaymentSucceeded, ledger.payments[0].Status)
}

func TestSubscriptionUpdatedRewritesMembership(t *testing.T) {
	ledger := newFakeLedger()
	r := newTestReconciler(ledger, newFakeProvider())

	require.NoError(t, ledger.InsertMembership(context.Background(), &memberships.Membership{
		MemberID:             1,
		StripeSubscriptionID: "sub_abc",
		StripePriceID:        "price_123",
		Status:               memberships.StatusActive,
		AutoRenew:            true,
	}))

	newEnd := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, r.Process(context.Background(), SubscriptionUpdated{
		SubscriptionID:   "sub_abc",
		Status:           "past_due",
		PriceID:          "price_456",
		CurrentPeriodEnd: newEnd,
		Metadata:         map[string]string{"member_id": "1"},
	}))

	m := ledger.memberships[0]
	assert.Equal(t, memberships.StatusPendingPayment, m.Status)
	assert.Equal(t, "price_456", m.StripePriceID)
	assert.Equal(t, newEnd, m.EndDate)
	assert.True(t, m.AutoRenew)
	assert.Nil(t, m.CancelledAt)
}

func TestSubscriptionUpdatedCancelAtPeriodEnd(t *testing.T) {
	ledger := newFakeLedger()
	r := newTestReconciler(ledger, newFakeProvider())

	require.NoError(t, ledger.InsertMembership(context.Background(), &memberships.Membership{
		MemberID:             1,
		StripeSubscriptionID: "sub_abc",
		Status:               memberships.StatusActive,
		AutoRenew:            true,
	}))

	require.NoError(t, r.Process(context.Background(), SubscriptionUpdated{
		SubscriptionID:    "sub_abc",
		Status:            "active",
		CancelAtPeriodEnd: true,
		Metadata:          map[string]string{"member_id": "1"},
	}))

	m := ledger.memberships[0]
	assert.Equal(t, memberships.StatusActive, m.Status)
	assert.False(t, m.AutoRenew)
	require.NotNil(t, m.CancelledAt)
	assert.Equal(t, fixedNow(), *m.CancelledAt)
}

func TestSubscriptionUpdatedWithoutMetadataIsNoOp(t *testing.T) {
	ledger := newFakeLedger()
	r := newTestReconciler(ledger, newFakeProvider())

	require.NoError(t, ledger.InsertMembership(context.Background(), &memberships.Membership{
		MemberID:             1,
		StripeSubscriptionID: "sub_abc",
		Status:               memberships.StatusActive,
	}))

	require.NoError(t, r.Process(context.Background(), SubscriptionUpdated{
		SubscriptionID: "sub_abc",
		Status:         "canceled",
	}))

	assert.Equal(t, memberships.StatusActive, ledger.memberships[0].Status)
}

func TestSubscriptionUpdatedUnknownSubscriptionAcknowledged(t *testing.T) {
	ledger := newFakeLedger()
	r := newTestReconciler(ledger, newFakeProvider())

	// Out-of-order: no local row yet. Must not error, must not create rows.
	require.NoError(t, r.Process(context.Background(), SubscriptionUpdated{
		SubscriptionID: "sub_ghost",
		Status:         "active",
		Metadata:       map[string]string{"member_id": "1"},
	}))
	assert.Empty(t, ledger.memberships)
}

func TestSubscriptionDeletedCancelsMembership(t *testing.T) {
	ledger := newFakeLedger()
	r := newTestReconciler(ledger, newFakeProvider())

	require.NoError(t, ledger.InsertMembership(context.Background(), &memberships.Membership{
		MemberID:             2,
		StripeSubscriptionID: "sub_1",
		Status:               memberships.StatusActive,
		AutoRenew:            true,
	}))
	require.NoError(t, ledger.InsertPayment(context.Background(), &memberships.Payment{
		MemberID: 2,
		Status:   memberships.PaymentSucceeded,
	}))

	require.NoError(t, r.Process(context.Background(), SubscriptionDeleted{SubscriptionID: "sub_1"}))

	m := ledger.memberships[0]
	assert.Equal(t, memberships.StatusCancelled, m.Status)
	require.NotNil(t, m.CancelledAt)
	assert.Equal(t, fixedNow(), *m.CancelledAt)
	// payment rows untouched
	require.Len(t, ledger.payments, 1)
	assert.Equal(t, memberships.PaymentSucceeded, ledger.payments[0].Status)
}

func TestInvoicePaidInsertsOnePayment(t *testing.T) {
	ledger := newFakeLedger()
	ledger.mappings = append(ledger.mappings, memberships.CustomerMapping{MemberID: 2, StripeCustomerID: "cus_2"})
	r := newTestReconciler(ledger, newFakeProvider())

	ev := InvoicePaid{
		InvoiceID:      "in_1",
		InvoiceNumber:  "INV-0042",
		CustomerID:     "cus_2",
		SubscriptionID: "sub_1",
		AmountPaid:     5900,
		Currency:       "eur",
	}
	require.NoError(t, r.Process(context.Background(), ev))
	require.NoError(t, r.Process(context.Background(), ev)) // redelivery

	require.Len(t, ledger.payments, 1)
	p := ledger.payments[0]
	assert.Equal(t, uint(2), p.MemberID)
	assert.Equal(t, int64(5900), p.AmountCents)
	assert.Equal(t, memberships.PaymentSucceeded, p.Status)
	assert.Contains(t, p.Description, "INV-0042")
}

func TestInvoicePaidUnmappedCustomerIsNoOp(t *testing.T) {
	ledger := newFakeLedger()
	r := newTestReconciler(ledger, newFakeProvider())

	require.NoError(t, r.Process(context.Background(), InvoicePaid{
		InvoiceID:  "in_1",
		CustomerID: "cus_unknown",
		AmountPaid: 100,
	}))
	assert.Empty(t, ledger.payments)
}

func TestInvoicePaymentFailedScenario(t *testing.T) {
	// failed invoice for member m2, amount_due 5900, subscription sub_1:
	// one failed payment row and sub_1 moves to pending_payment.
	ledger := newFakeLedger()
	ledger.mappings = append(ledger.mappings, memberships.CustomerMapping{MemberID: 2, StripeCustomerID: "cus_2"})
	require.NoError(t, ledger.InsertMembership(context.Background(), &memberships.Membership{
		MemberID:             2,
		StripeSubscriptionID: "sub_1",
		Status:               memberships.StatusActive,
	}))
	r := newTestReconciler(ledger, newFakeProvider())

	require.NoError(t, r.Process(context.Background(), InvoicePaymentFailed{
		InvoiceID:      "in_2",
		CustomerID:     "cus_2",
		SubscriptionID: "sub_1",
		AmountDue:      5900,
		Currency:       "eur",
	}))

	require.Len(t, ledger.payments, 1)
	p := ledger.payments[0]
	assert.Equal(t, memberships.PaymentFailed, p.Status)
	assert.Equal(t, int64(5900), p.AmountCents)
	assert.Equal(t, memberships.StatusPendingPayment, ledger.memberships[0].Status)
}

func TestInvoicePaymentFailedUnmappedCustomerIsNoOp(t *testing.T) {
	ledger := newFakeLedger()
	r := newTestReconciler(ledger, newFakeProvider())

	require.NoError(t, r.Process(context.Background(), InvoicePaymentFailed{
		InvoiceID:  "in_2",
		CustomerID: "cus_unknown",
		AmountDue:  5900,
	}))
	assert.Empty(t, ledger.payments)
	assert.Empty(t, ledger.memberships)
}

func TestLedgerFailurePropagates(t *testing.T) {
	ledger := newFakeLedger()
	ledger.failWith = errors.New("db unreachable")
	provider := newFakeProvider()
	seedSubscription(provider)
	r := newTestReconciler(ledger, provider)

	assert.Error(t, r.Process(context.Background(), checkoutEvent()))
	assert.Error(t, r.Process(context.Background(), SubscriptionDeleted{SubscriptionID: "sub_1"}))
	assert.Error(t, r.Process(context.Background(), InvoicePaid{InvoiceID: "in_1", CustomerID: "cus_1"}))
}

func TestProcessNilEvent(t *testing.T) {
	r := newTestReconciler(newFakeLedger(), newFakeProvider())
	assert.NoError(t, r.Process(context.Background(), nil))
}
