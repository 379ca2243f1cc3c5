package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/client"
)

// ProviderSubscription is the slice of a Stripe subscription the app cares
// about.
type ProviderSubscription struct {
	ID                 string
	Status             string
	PriceID            string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAtPeriodEnd  bool
	Metadata           map[string]string
}

// ProviderPrice is one purchasable recurring price, used to sync local plans.
type ProviderPrice struct {
	PriceID     string
	ProductName string
	UnitAmount  int64
	Currency    string
	Interval    string
	Tier        string
}

// CheckoutParams describes a subscription-mode checkout session.
type CheckoutParams struct {
	CustomerID        string
	PriceID           string
	SuccessURL        string
	CancelURL         string
	ClientReferenceID string
	Metadata          map[string]string
}

// Provider is the billing SDK surface the app consumes. The Stripe
// implementation is constructed once at startup and passed in explicitly so
// handlers and the reconciler stay testable with fakes.
type Provider interface {
	GetSubscription(ctx context.Context, id string) (*ProviderSubscription, error)
	CreateCustomer(ctx context.Context, email, name string, metadata map[string]string) (string, error)
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (string, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*ProviderSubscription, error)
	ChangePrice(ctx context.Context, subscriptionID, priceID string) (*ProviderSubscription, error)
	ListRecurringPrices(ctx context.Context) ([]ProviderPrice, error)
}

// StripeProvider implements Provider over a dedicated stripe-go client.
type StripeProvider struct {
	api *client.API
}

func NewStripeProvider(secretKey string) *StripeProvider {
	return &StripeProvider{api: client.New(secretKey, nil)}
}

func fromStripeSubscription(sub *stripe.Subscription) *ProviderSubscription {
	out := &ProviderSubscription{
		ID:                 sub.ID,
		Status:             string(sub.Status),
		CurrentPeriodStart: time.Unix(sub.CurrentPeriodStart, 0),
		CurrentPeriodEnd:   time.Unix(sub.CurrentPeriodEnd, 0),
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
		Metadata:           sub.Metadata,
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		out.PriceID = sub.Items.Data[0].Price.ID
	}
	return out
}

func (p *StripeProvider) GetSubscription(ctx context.Context, id string) (*ProviderSubscription, error) {
	sub, err := p.api.Subscriptions.Get(id, &stripe.SubscriptionParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch subscription %s: %w", id, err)
	}
	return fromStripeSubscription(sub), nil
}

func (p *StripeProvider) CreateCustomer(ctx context.Context, email, name string, metadata map[string]string) (string, error) {
	params := &stripe.CustomerParams{
		Params: stripe.Params{Context: ctx},
		Email:  stripe.String(email),
	}
	if name != "" {
		params.Name = stripe.String(name)
	}
	params.Metadata = metadata
	cus, err := p.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}
	return cus.ID, nil
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, cp CheckoutParams) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Params:     stripe.Params{Context: ctx},
		SuccessURL: stripe.String(cp.SuccessURL),
		CancelURL:  stripe.String(cp.CancelURL),
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:   stripe.String(cp.CustomerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(cp.PriceID), Quantity: stripe.Int64(1)},
		},
		ClientReferenceID: stripe.String(cp.ClientReferenceID),
		Metadata:          cp.Metadata,
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: cp.Metadata,
		},
	}

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return s.URL, nil
}

func (p *StripeProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	portal, err := p.api.BillingPortalSessions.New(&stripe.BillingPortalSessionParams{
		Params:    stripe.Params{Context: ctx},
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	})
	if err != nil {
		return "", fmt.Errorf("create billing portal session: %w", err)
	}
	return portal.URL, nil
}

func (p *StripeProvider) SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*ProviderSubscription, error) {
	sub, err := p.api.Subscriptions.Update(subscriptionID, &stripe.SubscriptionParams{
		Params:            stripe.Params{Context: ctx},
		CancelAtPeriodEnd: stripe.Bool(cancel),
	})
	if err != nil {
		return nil, fmt.Errorf("update subscription %s: %w", subscriptionID, err)
	}
	return fromStripeSubscription(sub), nil
}

func (p *StripeProvider) ChangePrice(ctx context.Context, subscriptionID, priceID string) (*ProviderSubscription, error) {
	current, err := p.api.Subscriptions.Get(subscriptionID, &stripe.SubscriptionParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch subscription %s: %w", subscriptionID, err)
	}
	if current.Items == nil || len(current.Items.Data) == 0 {
		return nil, fmt.Errorf("subscription %s has no price item", subscriptionID)
	}

	sub, err := p.api.Subscriptions.Update(subscriptionID, &stripe.SubscriptionParams{
		Params: stripe.Params{Context: ctx},
		Items: []*stripe.SubscriptionItemsParams{
			{
				ID:    stripe.String(current.Items.Data[0].ID),
				Price: stripe.String(priceID),
			},
		},
		ProrationBehavior: stripe.String("create_prorations"),
	})
	if err != nil {
		return nil, fmt.Errorf("change price on subscription %s: %w", subscriptionID, err)
	}
	return fromStripeSubscription(sub), nil
}

func (p *StripeProvider) ListRecurringPrices(ctx context.Context) ([]ProviderPrice, error) {
	params := &stripe.PriceListParams{}
	params.Context = ctx
	params.Active = stripe.Bool(true)
	params.Type = stripe.String("recurring")
	params.AddExpand("data.product")

	it := p.api.Prices.List(params)

	out := []ProviderPrice{}
	for it.Next() {
		pr := it.Price()
		if !pr.Active || pr.Recurring == nil {
			continue
		}
		if pr.Product == nil || !pr.Product.Active {
			continue
		}
		if pr.Metadata["visible"] == "false" {
			continue
		}
		out = append(out, ProviderPrice{
			PriceID:     pr.ID,
			ProductName: pr.Product.Name,
			UnitAmount:  pr.UnitAmount,
			Currency:    string(pr.Currency),
			Interval:    string(pr.Recurring.Interval),
			Tier:        pr.Metadata["tier"],
		})
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("list prices: %w", err)
	}
	return out, nil
}
