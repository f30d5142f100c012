// File: internal/infra/adapters/payment/mercadopago.go
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"effects-store/internal/domain/model"
	"effects-store/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*MercadoPagoGateway)(nil)

// MercadoPagoGateway implements the redirect-preference checkout style: a
// preference resource yields an init_point URL, and settlement arrives later
// through an async webhook that is re-verified against /v1/payments.
type MercadoPagoGateway struct {
	accessToken string
	// Charges settle in currency at rate units per 1 unit of the product's
	// native currency.
	currency string
	rate     float64
	client   *http.Client
	baseURL  string
}

func NewMercadoPagoGateway(accessToken, currency string, rate float64) (*MercadoPagoGateway, error) {
	if accessToken == "" {
		return nil, errors.New("access token empty")
	}
	if rate <= 0 {
		return nil, errors.New("conversion rate must be positive")
	}
	return &MercadoPagoGateway{
		accessToken: accessToken,
		currency:    currency,
		rate:        rate,
		client:      &http.Client{Timeout: 15 * time.Second},
		baseURL:     "https://api.mercadopago.com",
	}, nil
}

// SetBaseURL points the gateway at a stand-in server. Tests only.
func (g *MercadoPagoGateway) SetBaseURL(u string) { g.baseURL = u }

func (g *MercadoPagoGateway) Name() string { return "mercadopago" }

// unitPrice converts native cents to the settlement currency as a 2-decimal value.
func (g *MercadoPagoGateway) unitPrice(cents int64) float64 {
	return math.Round(float64(cents)*g.rate) / 100
}

func (g *MercadoPagoGateway) do(ctx context.Context, method, path string, body any, out any) error {
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.accessToken)
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("mercadopago %s %s: http %d: %s", method, path, resp.StatusCode, detail)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// CreateIntent creates a checkout preference and returns its init_point.
func (g *MercadoPagoGateway) CreateIntent(ctx context.Context, req adapter.IntentRequest) (*adapter.Intent, error) {
	payload := map[string]any{
		"items": []map[string]any{{
			"title":       req.Title,
			"quantity":    1,
			"unit_price":  g.unitPrice(req.AmountCents),
			"currency_id": g.currency,
		}},
		"external_reference": req.Reference.Encode(),
		"back_urls": map[string]string{
			"success": req.Callbacks.Success,
			"failure": req.Callbacks.Failure,
			"pending": req.Callbacks.Pending,
		},
		"auto_return": "approved",
	}

	var out struct {
		ID        string `json:"id"`
		InitPoint string `json:"init_point"`
	}
	if err := g.do(ctx, http.MethodPost, "/checkout/preferences", payload, &out); err != nil {
		return nil, err
	}
	if out.InitPoint == "" {
		return nil, errors.New("mercadopago preference carried no init_point")
	}
	return &adapter.Intent{HostedURL: out.InitPoint, OrderID: out.ID}, nil
}

// Confirm re-fetches the payment by id. The webhook payload itself is never
// trusted for status; only this authenticated read is.
func (g *MercadoPagoGateway) Confirm(ctx context.Context, paymentID string) (*adapter.Confirmation, error) {
	var out struct {
		ID                json.Number `json:"id"`
		Status            string      `json:"status"`
		ExternalReference string      `json:"external_reference"`
	}
	if err := g.do(ctx, http.MethodGet, "/v1/payments/"+paymentID, nil, &out); err != nil {
		return nil, err
	}
	return &adapter.Confirmation{
		Status:    mapMercadoPagoStatus(out.Status),
		Reference: model.ParseReference(out.ExternalReference),
		PaymentID: out.ID.String(),
	}, nil
}

func mapMercadoPagoStatus(s string) model.PurchaseStatus {
	switch s {
	case "approved":
		return model.PurchaseStatusCompleted
	case "rejected", "cancelled":
		return model.PurchaseStatusFailed
	default:
		return model.PurchaseStatusPending
	}
}
