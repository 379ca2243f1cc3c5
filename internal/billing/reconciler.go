package billing

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"membership-app/internal/domain/memberships"
)

// Reconciler applies one verified billing event to the local ledger. Every
// handler invocation is independent: all context is re-derived from the event
// payload and the ledger, never from in-process state, so Stripe's
// at-least-once (and occasionally out-of-order) delivery is safe to replay.
type Reconciler struct {
	ledger   Ledger
	provider Provider
	now      func() time.Time
}

func NewReconciler(ledger Ledger, provider Provider) *Reconciler {
	return &Reconciler{
		ledger:   ledger,
		provider: provider,
		now:      time.Now,
	}
}

// Process dispatches on the event kind. A nil error means the event was fully
// applied or deliberately ignored; a non-nil error tells the webhook endpoint
// to answer 5xx so Stripe retries.
func (r *Reconciler) Process(ctx context.Context, ev Event) error {
	switch e := ev.(type) {
	case CheckoutCompleted:
		return r.checkoutCompleted(ctx, e)
	case SubscriptionUpdated:
		return r.subscriptionUpdated(ctx, e)
	case SubscriptionDeleted:
		return r.subscriptionDeleted(ctx, e)
	case InvoicePaid:
		return r.invoicePaid(ctx, e)
	case InvoicePaymentFailed:
		return r.invoicePaymentFailed(ctx, e)
	case nil:
		return nil
	default:
		log.Printf("billing: ignoring unhandled event %T", ev)
		return nil
	}
}

func (r *Reconciler) checkoutCompleted(ctx context.Context, e CheckoutCompleted) error {
	if e.SubscriptionID == "" {
		log.Printf("billing: checkout session %s has no subscription, ignoring", e.SessionID)
		return nil
	}

	sub, err := r.provider.GetSubscription(ctx, e.SubscriptionID)
	if err != nil {
		return err
	}

	memberID := metadataID(e.Metadata, sub.Metadata, "member_id")
	planID := metadataID(e.Metadata, sub.Metadata, "plan_id")
	if memberID == 0 || planID == 0 {
		log.Printf("billing: checkout session %s missing member_id/plan_id metadata, ignoring", e.SessionID)
		return nil
	}

	return r.ledger.Transaction(ctx, func(tx Ledger) error {
		// Replayed delivery: the membership is already on the books, and
		// cancelling current memberships again would cancel it.
		exists, err := tx.MembershipExists(ctx, e.SubscriptionID)
		if err != nil {
			return err
		}
		if !exists {
			if _, err := tx.CancelCurrentMemberships(ctx, memberID, r.now()); err != nil {
				return err
			}
			pid := planID
			if err := tx.InsertMembership(ctx, &memberships.Membership{
				MemberID:             memberID,
				PlanID:               &pid,
				StripeSubscriptionID: e.SubscriptionID,
				StripePriceID:        sub.PriceID,
				Status:               memberships.StatusActive,
				StartDate:            sub.CurrentPeriodStart,
				EndDate:              sub.CurrentPeriodEnd,
				AutoRenew:            true,
			}); err != nil {
				return err
			}
		}

		if e.PaymentIntentID == "" {
			return nil
		}
		paid, err := tx.PaymentExists(ctx, e.PaymentIntentID)
		if err != nil {
			return err
		}
		if paid {
			return nil
		}
		pid := planID
		intentID := e.PaymentIntentID
		subID := e.SubscriptionID
		return tx.InsertPayment(ctx, &memberships.Payment{
			MemberID:             memberID,
			PlanID:               &pid,
			StripeInvoiceID:      &intentID,
			StripeSubscriptionID: &subID,
			AmountCents:          e.AmountTotal,
			Currency:             e.Currency,
			Status:               memberships.PaymentSucceeded,
			PaymentType:          "subscription",
			Description:          "Membership checkout",
		})
	})
}

func (r *Reconciler) subscriptionUpdated(ctx context.Context, e SubscriptionUpdated) error {
	if metadataID(e.Metadata, nil, "member_id") == 0 {
		log.Printf("billing: subscription %s update without member_id metadata, ignoring", e.SubscriptionID)
		return nil
	}

	upd := MembershipUpdate{
		Status:        memberships.MapStripeStatus(e.Status),
		StripePriceID: e.PriceID,
		EndDate:       e.CurrentPeriodEnd,
		AutoRenew:     !e.CancelAtPeriodEnd,
	}
	if e.CancelAtPeriodEnd {
		at := r.now()
		upd.CancelledAt = &at
	}

	rows, err := r.ledger.ApplySubscriptionUpdate(ctx, e.SubscriptionID, upd)
	if err != nil {
		return err
	}
	if rows == 0 {
		// Update arrived before its checkout-completed. A later redelivery or
		// the next update carries the full state again, so this is safe to
		// acknowledge.
		log.Printf("billing: update for unknown subscription %s, ignoring", e.SubscriptionID)
	}
	return nil
}

func (r *Reconciler) subscriptionDeleted(ctx context.Context, e SubscriptionDeleted) error {
	if e.SubscriptionID == "" {
		return nil
	}
	rows, err := r.ledger.MarkMembershipCancelled(ctx, e.SubscriptionID, r.now())
	if err != nil {
		return err
	}
	if rows == 0 {
		log.Printf("billing: delete for unknown subscription %s, ignoring", e.SubscriptionID)
	}
	return nil
}

func (r *Reconciler) invoicePaid(ctx context.Context, e InvoicePaid) error {
	memberID, ok, err := r.ledger.MemberIDForCustomer(ctx, e.CustomerID)
	if err != nil {
		return err
	}
	if !ok {
		log.Printf("billing: invoice %s for unmapped customer %s, ignoring", e.InvoiceID, e.CustomerID)
		return nil
	}

	paid, err := r.ledger.PaymentExists(ctx, e.InvoiceID)
	if err != nil {
		return err
	}
	if paid {
		return nil
	}

	invoiceID := e.InvoiceID
	p := memberships.Payment{
		MemberID:        memberID,
		StripeInvoiceID: &invoiceID,
		AmountCents:     e.AmountPaid,
		Currency:        e.Currency,
		Status:          memberships.PaymentSucceeded,
		PaymentType:     "renewal",
		Description:     fmt.Sprintf("Invoice %s paid", invoiceLabel(e.InvoiceNumber, e.InvoiceID)),
	}
	if e.SubscriptionID != "" {
		subID := e.SubscriptionID
		p.StripeSubscriptionID = &subID
	}
	return r.ledger.InsertPayment(ctx, &p)
}

func (r *Reconciler) invoicePaymentFailed(ctx context.Context, e InvoicePaymentFailed) error {
	memberID, ok, err := r.ledger.MemberIDForCustomer(ctx, e.CustomerID)
	if err != nil {
		return err
	}
	if !ok {
		log.Printf("billing: failed invoice %s for unmapped customer %s, ignoring", e.InvoiceID, e.CustomerID)
		return nil
	}

	recorded, err := r.ledger.PaymentExists(ctx, e.InvoiceID)
	if err != nil {
		return err
	}
	if !recorded {
		invoiceID := e.InvoiceID
		p := memberships.Payment{
			MemberID:        memberID,
			StripeInvoiceID: &invoiceID,
			AmountCents:     e.AmountDue,
			Currency:        e.Currency,
			Status:          memberships.PaymentFailed,
			PaymentType:     "renewal",
			Description:     fmt.Sprintf("Payment failed for invoice %s", invoiceLabel(e.InvoiceNumber, e.InvoiceID)),
		}
		if e.SubscriptionID != "" {
			subID := e.SubscriptionID
			p.StripeSubscriptionID = &subID
		}
		if err := r.ledger.InsertPayment(ctx, &p); err != nil {
			return err
		}
	}

	if e.SubscriptionID == "" {
		return nil
	}
	rows, err := r.ledger.MarkMembershipPendingPayment(ctx, e.SubscriptionID)
	if err != nil {
		return err
	}
	if rows == 0 {
		log.Printf("billing: failed invoice for unknown subscription %s, ignoring", e.SubscriptionID)
	}
	return nil
}

// metadataID reads a numeric id from event metadata, falling back to the
// subscription's own metadata when the event copy is missing it.
func metadataID(primary, fallback map[string]string, key string) uint {
	s := primary[key]
	if s == "" {
		s = fallback[key]
	}
	if s == "" {
		return 0
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

func invoiceLabel(number, id string) string {
	if number != "" {
		return number
	}
	return id
}
