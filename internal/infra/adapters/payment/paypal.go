// File: internal/infra/adapters/payment/paypal.go
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"effects-store/internal/domain/model"
	"effects-store/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*PayPalGateway)(nil)

// PayPalGateway implements the order/capture checkout style: an order is
// created up front, the buyer approves it on the hosted page, and the client
// triggers capture after the redirect back.
type PayPalGateway struct {
	clientID     string
	clientSecret string
	client       *http.Client
	baseURL      string

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

func NewPayPalGateway(clientID, clientSecret string, sandbox bool) (*PayPalGateway, error) {
	if clientID == "" || clientSecret == "" {
		return nil, errors.New("paypal credentials empty")
	}
	base := "https://api-m.paypal.com"
	if sandbox {
		base = "https://api-m.sandbox.paypal.com"
	}
	return &PayPalGateway{
		clientID:     clientID,
		clientSecret: clientSecret,
		client:       &http.Client{Timeout: 15 * time.Second},
		baseURL:      base,
	}, nil
}

// SetBaseURL points the gateway at a stand-in server. Tests only.
func (g *PayPalGateway) SetBaseURL(u string) { g.baseURL = u }

func (g *PayPalGateway) Name() string { return "paypal" }

// accessToken performs (or reuses) the client-credentials exchange.
func (g *PayPalGateway) accessToken(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.token != "" && time.Now().Before(g.tokenExp) {
		return g.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(g.clientID, g.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("paypal oauth: http %d", resp.StatusCode)
	}
	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	g.token = out.AccessToken
	g.tokenExp = time.Now().Add(time.Duration(out.ExpiresIn-60) * time.Second)
	return g.token, nil
}

// apiError is the v2 error envelope; Issue surfaces codes such as
// ORDER_ALREADY_CAPTURED.
type apiError struct {
	Name    string `json:"name"`
	Details []struct {
		Issue string `json:"issue"`
	} `json:"details"`
}

func (e *apiError) hasIssue(issue string) bool {
	for _, d := range e.Details {
		if d.Issue == issue {
			return true
		}
	}
	return false
}

func (g *PayPalGateway) do(ctx context.Context, method, path string, body any, out any) (*apiError, error) {
	token, err := g.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &apiError{}
		if jsonErr := json.Unmarshal(raw, apiErr); jsonErr == nil && apiErr.Name != "" {
			return apiErr, fmt.Errorf("paypal %s %s: http %d: %s", method, path, resp.StatusCode, apiErr.Name)
		}
		return nil, fmt.Errorf("paypal %s %s: http %d: %s", method, path, resp.StatusCode, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// orderResource is the subset of the order shape shared by create, capture,
// and get responses.
type orderResource struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	PurchaseUnits []struct {
		CustomID string `json:"custom_id"`
		Payments *struct {
			Captures []struct {
				ID       string `json:"id"`
				CustomID string `json:"custom_id"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
	Links []struct {
		Rel  string `json:"rel"`
		Href string `json:"href"`
	} `json:"links"`
}

func (o *orderResource) reference() model.Reference {
	for _, u := range o.PurchaseUnits {
		if u.CustomID != "" {
			return model.ParseReference(u.CustomID)
		}
		if u.Payments != nil {
			for _, c := range u.Payments.Captures {
				if c.CustomID != "" {
					return model.ParseReference(c.CustomID)
				}
			}
		}
	}
	return nil
}

func (o *orderResource) captureID() string {
	for _, u := range o.PurchaseUnits {
		if u.Payments != nil && len(u.Payments.Captures) > 0 {
			return u.Payments.Captures[0].ID
		}
	}
	return o.ID
}

func (g *PayPalGateway) CreateIntent(ctx context.Context, req adapter.IntentRequest) (*adapter.Intent, error) {
	payload := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{{
			"reference_id": "default",
			"custom_id":    req.Reference.Encode(),
			"description":  req.Title,
			"amount": map[string]string{
				"currency_code": req.Currency,
				"value":         fmt.Sprintf("%.2f", float64(req.AmountCents)/100),
			},
		}},
		"application_context": map[string]string{
			"return_url": req.Callbacks.Success,
			"cancel_url": req.Callbacks.Failure,
		},
	}

	var out orderResource
	if _, err := g.do(ctx, http.MethodPost, "/v2/checkout/orders", payload, &out); err != nil {
		return nil, err
	}
	for _, l := range out.Links {
		if l.Rel == "approve" {
			return &adapter.Intent{HostedURL: l.Href, OrderID: out.ID}, nil
		}
	}
	return nil, errors.New("paypal order carried no approve link")
}

// Confirm captures the order. Capture is not idempotent at the provider, so
// an ORDER_ALREADY_CAPTURED rejection is recovered by reading the order's
// current state instead of failing: the client may legitimately call this
// twice after a refresh or double navigation.
func (g *PayPalGateway) Confirm(ctx context.Context, orderID string) (*adapter.Confirmation, error) {
	var out orderResource
	apiErr, err := g.do(ctx, http.MethodPost, "/v2/checkout/orders/"+orderID+"/capture", struct{}{}, &out)
	if err != nil {
		if apiErr == nil || !apiErr.hasIssue("ORDER_ALREADY_CAPTURED") {
			return nil, err
		}
		if _, err := g.do(ctx, http.MethodGet, "/v2/checkout/orders/"+orderID, nil, &out); err != nil {
			return nil, err
		}
	}

	return &adapter.Confirmation{
		Status:    mapPayPalStatus(out.Status),
		Reference: out.reference(),
		PaymentID: out.captureID(),
	}, nil
}

func mapPayPalStatus(s string) model.PurchaseStatus {
	switch s {
	case "COMPLETED":
		return model.PurchaseStatusCompleted
	case "VOIDED":
		return model.PurchaseStatusFailed
	default:
		return model.PurchaseStatusPending
	}
}
