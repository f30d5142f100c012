package model

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"   // checkout intent built; awaiting provider outcome
	PurchaseStatusCompleted PurchaseStatus = "completed" // provider approved; entitlement granted
	PurchaseStatusFailed    PurchaseStatus = "failed"    // provider rejected or cancelled mid-flow
	PurchaseStatusCancelled PurchaseStatus = "cancelled" // admin/user cancel
	PurchaseStatusRefunded  PurchaseStatus = "refunded"  // money returned after completion
)

// ParsePurchaseStatus normalizes a raw status string to a known status.
// Unknown values pass through lowercased so legacy postbacks are recorded
// rather than dropped.
func ParsePurchaseStatus(s string) PurchaseStatus {
	return PurchaseStatus(strings.ToLower(strings.TrimSpace(s)))
}

// Terminal reports whether the status ends the payment lifecycle.
func (s PurchaseStatus) Terminal() bool {
	switch s {
	case PurchaseStatusCompleted, PurchaseStatusFailed, PurchaseStatusCancelled, PurchaseStatusRefunded:
		return true
	}
	return false
}

// Purchase is the durable entitlement record. At most one row exists per
// (UserID, ProductID); the product is owned iff Status is completed.
type Purchase struct {
	ID          string // ULID
	UserID      string
	ProductID   string
	Status      PurchaseStatus
	Provider    string // "mercadopago" | "paypal" | "payt"
	ExternalRef string // provider transaction/session/order id, for audit
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewPurchaseID returns a ULID. ULIDs sort by creation time, which keeps
// reference strings built from several ids in a stable order.
func NewPurchaseID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
