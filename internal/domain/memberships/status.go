package memberships

// Status is the local membership status vocabulary.
type Status string

const (
	StatusActive         Status = "active"
	StatusFrozen         Status = "frozen"
	StatusCancelled      Status = "cancelled"
	StatusExpired        Status = "expired"
	StatusPendingPayment Status = "pending_payment"
)

// MapStripeStatus translates Stripe's subscription status vocabulary into
// the local one. This is the single source of truth for that translation;
// do not re-map statuses elsewhere.
func MapStripeStatus(s string) Status {
	switch s {
	case "active", "trialing":
		return StatusActive
	case "past_due", "unpaid":
		return StatusPendingPayment
	case "canceled":
		return StatusCancelled
	case "paused":
		return StatusFrozen
	default:
		return StatusExpired
	}
}

// Current reports whether a status counts toward the one-membership-per-member
// invariant.
func (s Status) Current() bool {
	return s == StatusActive || s == StatusFrozen
}
