package memberships

import "testing"

func TestMapStripeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{in: "active", want: StatusActive},
		{in: "trialing", want: StatusActive},
		{in: "past_due", want: StatusPendingPayment},
		{in: "unpaid", want: StatusPendingPayment},
		{in: "canceled", want: StatusCancelled},
		{in: "paused", want: StatusFrozen},
		{in: "incomplete", want: StatusExpired},
		{in: "incomplete_expired", want: StatusExpired},
		{in: "", want: StatusExpired},
		{in: "something_new", want: StatusExpired},
	}

	for _, tt := range tests {
		if got := MapStripeStatus(tt.in); got != tt.want {
			t.Fatalf("MapStripeStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStatusCurrent(t *testing.T) {
	for _, s := range []Status{StatusActive, StatusFrozen} {
		if !s.Current() {
			t.Fatalf("expected status %q to be current", s)
		}
	}
	for _, s := range []Status{StatusCancelled, StatusExpired, StatusPendingPayment} {
		if s.Current() {
			t.Fatalf("expected status %q to be non-current", s)
		}
	}
}
