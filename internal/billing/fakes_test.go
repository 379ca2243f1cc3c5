package billing

import (
	"context"
	"fmt"
	"time"

	"membership-app/internal/domain/memberships"
)

// fakeLedger is an in-memory Ledger for reconciler tests.
type fakeLedger struct {
	memberships []memberships.Membership
	payments    []memberships.Payment
	mappings    []memberships.CustomerMapping

	nextMembershipID uint
	nextPaymentID    uint

	failWith error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{nextMembershipID: 1, nextPaymentID: 1}
}

func (f *fakeLedger) Transaction(ctx context.Context, fn func(Ledger) error) error {
	if f.failWith != nil {
		return f.failWith
	}
	return fn(f)
}

func (f *fakeLedger) MembershipExists(ctx context.Context, stripeSubID string) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	for _, m := range f.memberships {
		if m.StripeSubscriptionID == stripeSubID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLedger) InsertMembership(ctx context.Context, m *memberships.Membership) error {
	if f.failWith != nil {
		return f.failWith
	}
	m.ID = f.nextMembershipID
	f.nextMembershipID++
	f.memberships = append(f.memberships, *m)
	return nil
}

func (f *fakeLedger) CancelCurrentMemberships(ctx context.Context, memberID uint, at time.Time) (int64, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	var rows int64
	for i := range f.memberships {
		m := &f.memberships[i]
		if m.MemberID == memberID && m.Status.Current() {
			m.Status = memberships.StatusCancelled
			m.AutoRenew = false
			t := at
			m.CancelledAt = &t
			rows++
		}
	}
	return rows, nil
}

func (f *fakeLedger) ApplySubscriptionUpdate(ctx context.Context, stripeSubID string, upd MembershipUpdate) (int64, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	var rows int64
	for i := range f.memberships {
		m := &f.memberships[i]
		if m.StripeSubscriptionID == stripeSubID {
			m.Status = upd.Status
			m.StripePriceID = upd.StripePriceID
			m.EndDate = upd.EndDate
			m.AutoRenew = upd.AutoRenew
			m.CancelledAt = upd.CancelledAt
			rows++
		}
	}
	return rows, nil
}

func (f *fakeLedger) MarkMembershipCancelled(ctx context.Context, stripeSubID string, at time.Time) (int64, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	var rows int64
	for i := range f.memberships {
		m := &f.memberships[i]
		if m.StripeSubscriptionID == stripeSubID {
			m.Status = memberships.StatusCancelled
			m.AutoRenew = false
			t := at
			m.CancelledAt = &t
			rows++
		}
	}
	return rows, nil
}

func (f *fakeLedger) MarkMembershipPendingPayment(ctx context.Context, stripeSubID string) (int64, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	var rows int64
	for i := range f.memberships {
		m := &f.memberships[i]
		if m.StripeSubscriptionID == stripeSubID {
			m.Status = memberships.StatusPendingPayment
			rows++
		}
	}
	return rows, nil
}

func (f *fakeLedger) PaymentExists(ctx context.Context, stripeInvoiceID string) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	for _, p := range f.payments {
		if p.StripeInvoiceID != nil && *p.StripeInvoiceID == stripeInvoiceID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLedger) InsertPayment(ctx context.Context, p *memberships.Payment) error {
	if f.failWith != nil {
		return f.failWith
	}
	if p.StripeInvoiceID != nil {
		for _, existing := range f.payments {
			if existing.StripeInvoiceID != nil && *existing.StripeInvoiceID == *p.StripeInvoiceID {
				return nil // unique index: insert is a no-op
			}
		}
	}
	p.ID = f.nextPaymentID
	f.nextPaymentID++
	f.payments = append(f.payments, *p)
	return nil
}

func (f *fakeLedger) MemberIDForCustomer(ctx context.Context, customerID string) (uint, bool, error) {
	if f.failWith != nil {
		return 0, false, f.failWith
	}
	for _, m := range f.mappings {
		if m.StripeCustomerID == customerID {
			return m.MemberID, true, nil
		}
	}
	return 0, false, nil
}

func (f *fakeLedger) CustomerIDForMember(ctx context.Context, memberID uint) (string, bool, error) {
	if f.failWith != nil {
		return "", false, f.failWith
	}
	for _, m := range f.mappings {
		if m.MemberID == memberID {
			return m.StripeCustomerID, true, nil
		}
	}
	return "", false, nil
}

func (f *fakeLedger) SaveCustomerMapping(ctx context.Context, memberID uint, customerID string) (string, error) {
	if f.failWith != nil {
		return "", f.failWith
	}
	for _, m := range f.mappings {
		if m.MemberID == memberID {
			return m.StripeCustomerID, nil
		}
	}
	f.mappings = append(f.mappings, memberships.CustomerMapping{
		MemberID:         memberID,
		StripeCustomerID: customerID,
	})
	return customerID, nil
}

// fakeProvider is an in-memory Provider for reconciler and resolver tests.
type fakeProvider struct {
	subscriptions map[string]*ProviderSubscription

	createdCustomers int
	customerPrefix   string

	getSubscriptionErr error
	createCustomerErr  error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		subscriptions:  map[string]*ProviderSubscription{},
		customerPrefix: "cus_fake",
	}
}

func (f *fakeProvider) GetSubscription(ctx context.Context, id string) (*ProviderSubscription, error) {
	if f.getSubscriptionErr != nil {
		return nil, f.getSubscriptionErr
	}
	sub, ok := f.subscriptions[id]
	if !ok {
		return nil, fmt.Errorf("no such subscription %s", id)
	}
	return sub, nil
}

func (f *fakeProvider) CreateCustomer(ctx context.Context, email, name string, metadata map[string]string) (string, error) {
	if f.createCustomerErr != nil {
		return "", f.createCustomerErr
	}
	f.createdCustomers++
	return fmt.Sprintf("%s_%d", f.customerPrefix, f.createdCustomers), nil
}

func (f *fakeProvider) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (string, error) {
	return "https://checkout.example/session", nil
}

func (f *fakeProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	return "https://billing.example/portal", nil
}

func (f *fakeProvider) SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*ProviderSubscription, error) {
	sub, ok := f.subscriptions[subscriptionID]
	if !ok {
		return nil, fmt.Errorf("no such subscription %s", subscriptionID)
	}
	sub.CancelAtPeriodEnd = cancel
	return sub, nil
}

func (f *fakeProvider) ChangePrice(ctx context.Context, subscriptionID, priceID string) (*ProviderSubscription, error) {
	sub, ok := f.subscriptions[subscriptionID]
	if !ok {
		return nil, fmt.Errorf("no such subscription %s", subscriptionID)
	}
	sub.PriceID = priceID
	return sub, nil
}

func (f *fakeProvider) ListRecurringPrices(ctx context.Context) ([]ProviderPrice, error) {
	return nil, nil
}
