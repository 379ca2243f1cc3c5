package memberships

import (
	"time"

	"membership-app/internal/domain/members"
	"membership-app/internal/domain/plans"
)

// Membership mirrors one Stripe subscription for one member. At most one
// membership per member may be active or frozen at a time; starting a new
// one cancels the previous record first.
type Membership struct {
	ID       uint `gorm:"primaryKey"`
	MemberID uint `gorm:"index"`
	Member   members.Member
	PlanID   *uint
	Plan     *plans.Plan

	StripeSubscriptionID string `gorm:"column:stripe_subscription_id;uniqueIndex:idx_memberships_stripe_subscription_id"`
	StripePriceID        string `gorm:"column:stripe_price_id"`

	Status    Status `gorm:"type:varchar(20);not null"`
	StartDate time.Time
	EndDate   time.Time `gorm:"column:end_date"` // current billing-period end

	AutoRenew   bool
	CancelledAt *time.Time `gorm:"column:cancelled_at"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
