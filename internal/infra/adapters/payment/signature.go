// File: internal/infra/adapters/payment/signature.go
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"effects-store/internal/domain"
)

// WebhookVerifier checks the x-signature header on async callback
// notifications. With no secret configured it is disabled and every
// notification passes; that is a deployment decision, not a default baked in
// here.
type WebhookVerifier struct {
	secret string
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

func (v *WebhookVerifier) Enabled() bool { return v.secret != "" }

// Verify validates HMAC-SHA256 over the notification manifest. The header
// format is "ts=<unix>,v1=<hex hmac>"; the manifest is built from the payment
// id in the query string, the x-request-id header, and the header timestamp.
func (v *WebhookVerifier) Verify(signatureHeader, requestID, dataID string) error {
	if !v.Enabled() {
		return nil
	}
	ts, sig := parseSignatureHeader(signatureHeader)
	if ts == "" || sig == "" {
		return domain.ErrBadSignature
	}

	manifest := "id:" + strings.ToLower(dataID) + ";request-id:" + requestID + ";ts:" + ts + ";"
	h := hmac.New(sha256.New, []byte(v.secret))
	h.Write([]byte(manifest))
	expected := hex.EncodeToString(h.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(sig))) {
		return domain.ErrBadSignature
	}
	return nil
}

func parseSignatureHeader(header string) (ts, v1 string) {
	for _, part := range strings.Split(header, ",") {
		k, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "ts":
			ts = val
		case "v1":
			v1 = val
		}
	}
	return ts, v1
}
