package memberships

import "time"

// CustomerMapping ties a member to their Stripe customer identity. One row
// per member, created lazily on first checkout.
type CustomerMapping struct {
	ID               uint   `gorm:"primaryKey"`
	MemberID         uint   `gorm:"uniqueIndex:idx_customer_mappings_member_id"`
	StripeCustomerID string `gorm:"column:stripe_customer_id;index"`
	CreatedAt        time.Time
}
