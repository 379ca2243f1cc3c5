package billing

import (
	"membership-app/internal/billing"
)

// Handler groups the member-facing billing endpoints around the injected
// billing core.
type Handler struct {
	provider  billing.Provider
	customers *billing.CustomerResolver
	appURL    string
}

func NewHandler(provider billing.Provider, customers *billing.CustomerResolver, appURL string) *Handler {
	return &Handler{
		provider:  provider,
		customers: customers,
		appURL:    appURL,
	}
}
