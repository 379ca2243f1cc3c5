package billing

import (
	"context"
	"time"

	"membership-app/internal/domain/memberships"
)

// MembershipUpdate carries the fields a subscription-updated event rewrites on
// the matching membership row. All fields are applied; CancelledAt == nil
// clears the cancellation timestamp.
type MembershipUpdate struct {
	Status        memberships.Status
	StripePriceID string
	EndDate       time.Time
	AutoRenew     bool
	CancelledAt   *time.Time
}

// Ledger is the persistence surface the billing core writes through. Every
// method is a single keyed read or write; the gorm implementation lives in
// ledger_gorm.go and an in-memory fake backs the tests.
type Ledger interface {
	// Transaction runs fn against a ledger whose writes commit together.
	Transaction(ctx context.Context, fn func(Ledger) error) error

	MembershipExists(ctx context.Context, stripeSubscriptionID string) (bool, error)
	InsertMembership(ctx context.Context, m *memberships.Membership) error
	// CancelCurrentMemberships transitions every active/frozen membership of
	// the member to cancelled and returns how many rows changed.
	CancelCurrentMemberships(ctx context.Context, memberID uint, at time.Time) (int64, error)
	ApplySubscriptionUpdate(ctx context.Context, stripeSubscriptionID string, upd MembershipUpdate) (int64, error)
	MarkMembershipCancelled(ctx context.Context, stripeSubscriptionID string, at time.Time) (int64, error)
	MarkMembershipPendingPayment(ctx context.Context, stripeSubscriptionID string) (int64, error)

	PaymentExists(ctx context.Context, stripeInvoiceID string) (bool, error)
	InsertPayment(ctx context.Context, p *memberships.Payment) error

	MemberIDForCustomer(ctx context.Context, stripeCustomerID string) (uint, bool, error)
	CustomerIDForMember(ctx context.Context, memberID uint) (string, bool, error)
	// SaveCustomerMapping inserts the mapping unless the member already has
	// one, then returns whichever customer id won. Safe under concurrent
	// lookup-or-create for the same member.
	SaveCustomerMapping(ctx context.Context, memberID uint, stripeCustomerID string) (string, error)
}
