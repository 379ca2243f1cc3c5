package memberships

import (
	"time"

	"membership-app/internal/domain/members"
	"membership-app/internal/domain/plans"
)

const (
	PaymentSucceeded = "succeeded"
	PaymentFailed    = "failed"
)

// Payment is one monetary transaction attempt. Rows are append-only and
// deduplicated on StripeInvoiceID so redelivered webhook events cannot
// double-book a charge.
type Payment struct {
	ID       uint `gorm:"primaryKey"`
	MemberID uint `gorm:"index"`
	Member   members.Member
	PlanID   *uint
	Plan     *plans.Plan

	// Invoice id for invoice events, payment-intent id for checkout.
	StripeInvoiceID      *string `gorm:"column:stripe_invoice_id;uniqueIndex:idx_payments_stripe_invoice_id"`
	StripeSubscriptionID *string

	AmountCents int64  `gorm:"column:amount_cents"`
	Currency    string `gorm:"type:varchar(3)"`
	Status      string
	PaymentType string `gorm:"column:payment_type"` // "subscription" | "renewal"
	Description string

	Metadata map[string]string `gorm:"serializer:json"`

	CreatedAt time.Time
}
