package billing

import (
	"context"
	"fmt"
)

// CustomerResolver hands out the Stripe customer id for a member, creating
// the customer on first use.
type CustomerResolver struct {
	ledger   Ledger
	provider Provider
}

func NewCustomerResolver(ledger Ledger, provider Provider) *CustomerResolver {
	return &CustomerResolver{ledger: ledger, provider: provider}
}

// Ensure returns the member's Stripe customer id, creating and persisting one
// if none exists. Concurrent calls for the same member may both create a
// Stripe customer, but the unique mapping row decides which id the app uses
// from then on.
func (cr *CustomerResolver) Ensure(ctx context.Context, memberID uint, email, name string) (string, error) {
	id, ok, err := cr.ledger.CustomerIDForMember(ctx, memberID)
	if err != nil {
		return "", err
	}
	if ok {
		return id, nil
	}

	created, err := cr.provider.CreateCustomer(ctx, email, name, map[string]string{
		"member_id": fmt.Sprint(memberID),
	})
	if err != nil {
		return "", err
	}

	return cr.ledger.SaveCustomerMapping(ctx, memberID, created)
}
