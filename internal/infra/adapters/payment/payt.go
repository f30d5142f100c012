// File: internal/infra/adapters/payment/payt.go
package payment

import (
	"strings"

	"effects-store/internal/domain/model"
)

// Payt is a legacy processor with no SDK and no signature scheme: it pushes a
// form-encoded or JSON postback at us and retries on non-200. This file only
// normalizes its vocabulary; the handler owns transport parsing.

// PaytPostback is the normalized payload of a legacy postback.
type PaytPostback struct {
	TransactionID string
	RawStatus     string
	ProductID     string
	Email         string
}

// Field-name aliases observed across Payt postback versions.
var (
	paytTxnKeys     = []string{"transaction_id", "txn_id", "transaction", "id"}
	paytStatusKeys  = []string{"status", "payment_status", "transaction_status"}
	paytProductKeys = []string{"product_id", "item_id", "item_number", "custom"}
	paytEmailKeys   = []string{"email", "buyer_email", "payer_email", "customer_email"}
)

// ParsePaytPostback resolves flexible field names to the normalized shape.
func ParsePaytPostback(fields map[string]string) PaytPostback {
	return PaytPostback{
		TransactionID: firstNonEmpty(fields, paytTxnKeys),
		RawStatus:     firstNonEmpty(fields, paytStatusKeys),
		ProductID:     firstNonEmpty(fields, paytProductKeys),
		Email:         firstNonEmpty(fields, paytEmailKeys),
	}
}

func firstNonEmpty(fields map[string]string, keys []string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(fields[k]); v != "" {
			return v
		}
	}
	return ""
}

// paytStatusTable maps the processor's vocabulary to ours.
var paytStatusTable = map[string]model.PurchaseStatus{
	"approved":   model.PurchaseStatusCompleted,
	"paid":       model.PurchaseStatusCompleted,
	"completed":  model.PurchaseStatusCompleted,
	"pending":    model.PurchaseStatusPending,
	"in_process": model.PurchaseStatusPending,
	"waiting":    model.PurchaseStatusPending,
	"rejected":   model.PurchaseStatusFailed,
	"failed":     model.PurchaseStatusFailed,
	"canceled":   model.PurchaseStatusCancelled,
	"cancelled":  model.PurchaseStatusCancelled,
	"refunded":   model.PurchaseStatusRefunded,
	"chargeback": model.PurchaseStatusRefunded,
}

// MapPaytStatus translates a raw status. Unmapped kinds fall through as the
// lowercased raw value so they are recorded rather than dropped.
func MapPaytStatus(raw string) model.PurchaseStatus {
	key := strings.ToLower(strings.TrimSpace(raw))
	if s, ok := paytStatusTable[key]; ok {
		return s
	}
	return model.ParsePurchaseStatus(key)
}
