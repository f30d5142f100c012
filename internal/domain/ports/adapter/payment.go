package adapter

import (
	"context"

	"effects-store/internal/domain/model"
)

// CallbackURLs point the buyer back at the storefront root with a query
// marker once the hosted flow finishes.
type CallbackURLs struct {
	Success string
	Failure string
	Pending string
}

// IntentRequest describes a hosted-checkout resource to create. Amount is in
// cents of the product's native currency; a gateway may convert to its own
// settlement currency internally.
type IntentRequest struct {
	AmountCents int64
	Currency    string
	Title       string
	Reference   model.Reference
	Callbacks   CallbackURLs
}

// Intent is the provider-hosted payment the browser must be redirected to.
type Intent struct {
	HostedURL string
	// OrderID is the provider-side identifier of the intent (preference id,
	// order id). Stamped on the pending purchase rows for audit.
	OrderID string
}

// Confirmation is a provider-reported payment outcome mapped into domain terms.
type Confirmation struct {
	Status    model.PurchaseStatus
	Reference model.Reference
	// PaymentID is the provider transaction id stored as the external ref.
	PaymentID string
}

// PaymentGateway is the hex port for payment providers. Both the
// redirect-preference style (Mercado Pago) and the order/capture style
// (PayPal) fit behind it; checkout and reconciliation stay provider-agnostic.
type PaymentGateway interface {
	Name() string

	// CreateIntent requests a hosted-checkout resource. The reference string
	// must round-trip through the provider unmodified.
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)

	// Confirm resolves a provider identifier (payment id or order id) to a
	// settled outcome. Must be safe to call repeatedly for the same
	// identifier: providers retry webhooks and clients double-trigger capture.
	Confirm(ctx context.Context, identifier string) (*Confirmation, error)
}
