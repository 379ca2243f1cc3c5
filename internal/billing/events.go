package billing

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v75"
)

// Event is the decoded form of one Stripe webhook notification. Exactly one
// variant per event kind the reconciler handles; each carries only the fields
// its handler needs. Decoding happens once at the webhook boundary instead of
// ad-hoc casts inside the handlers.
type Event interface {
	billingEvent()
}

// CheckoutCompleted — a subscription-mode checkout session finished.
type CheckoutCompleted struct {
	SessionID       string
	SubscriptionID  string
	CustomerID      string
	PaymentIntentID string
	AmountTotal     int64
	Currency        string
	Metadata        map[string]string
}

// SubscriptionUpdated — the provider changed a subscription (status, price,
// period, cancel-at-period-end).
type SubscriptionUpdated struct {
	SubscriptionID    string
	Status            string // raw Stripe status, mapped by the reconciler
	PriceID           string
	CurrentPeriodEnd  time.Time
	CancelAtPeriodEnd bool
	Metadata          map[string]string
}

// SubscriptionDeleted — the subscription ended at the provider.
type SubscriptionDeleted struct {
	SubscriptionID string
}

// InvoicePaid — a recurring invoice was settled.
type InvoicePaid struct {
	InvoiceID      string
	InvoiceNumber  string
	CustomerID     string
	SubscriptionID string
	AmountPaid     int64
	Currency       string
}

// InvoicePaymentFailed — a recurring charge attempt failed.
type InvoicePaymentFailed struct {
	InvoiceID      string
	InvoiceNumber  string
	CustomerID     string
	SubscriptionID string
	AmountDue      int64
	Currency       string
}

func (CheckoutCompleted) billingEvent()    {}
func (SubscriptionUpdated) billingEvent()  {}
func (SubscriptionDeleted) billingEvent()  {}
func (InvoicePaid) billingEvent()          {}
func (InvoicePaymentFailed) billingEvent() {}

// DecodeEvent turns a verified Stripe event into its typed variant. Events the
// reconciler does not handle (including non-subscription checkouts) decode to
// (nil, nil) and should be acknowledged without further work.
func DecodeEvent(event *stripe.Event) (Event, error) {
	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		if session.Mode != stripe.CheckoutSessionModeSubscription {
			return nil, nil
		}
		out := CheckoutCompleted{
			SessionID:   session.ID,
			AmountTotal: session.AmountTotal,
			Currency:    string(session.Currency),
			Metadata:    session.Metadata,
		}
		if session.Subscription != nil {
			out.SubscriptionID = session.Subscription.ID
		}
		if session.Customer != nil {
			out.CustomerID = session.Customer.ID
		}
		if session.PaymentIntent != nil {
			out.PaymentIntentID = session.PaymentIntent.ID
		}
		return out, nil

	case "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("decode subscription: %w", err)
		}
		out := SubscriptionUpdated{
			SubscriptionID:    sub.ID,
			Status:            string(sub.Status),
			CurrentPeriodEnd:  time.Unix(sub.CurrentPeriodEnd, 0),
			CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
			Metadata:          sub.Metadata,
		}
		if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
			out.PriceID = sub.Items.Data[0].Price.ID
		}
		return out, nil

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("decode subscription: %w", err)
		}
		return SubscriptionDeleted{SubscriptionID: sub.ID}, nil

	case "invoice.paid":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("decode invoice: %w", err)
		}
		out := InvoicePaid{
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.Number,
			AmountPaid:    inv.AmountPaid,
			Currency:      string(inv.Currency),
		}
		if inv.Customer != nil {
			out.CustomerID = inv.Customer.ID
		}
		if inv.Subscription != nil {
			out.SubscriptionID = inv.Subscription.ID
		}
		return out, nil

	case "invoice.payment_failed":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("decode invoice: %w", err)
		}
		out := InvoicePaymentFailed{
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.Number,
			AmountDue:     inv.AmountDue,
			Currency:      string(inv.Currency),
		}
		if inv.Customer != nil {
			out.CustomerID = inv.Customer.ID
		}
		if inv.Subscription != nil {
			out.SubscriptionID = inv.Subscription.ID
		}
		return out, nil

	default:
		return nil, nil
	}
}
