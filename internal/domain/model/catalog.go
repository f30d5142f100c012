package model

import "time"

// Product is a purchasable video effect. Read-only to this service: the
// storefront's catalog tooling owns creation and editing.
type Product struct {
	ID          string
	Title       string
	PriceCents  int64  // integer cents, to avoid float errors
	Currency    string // ISO code of the native price, e.g. "ILS"
	DriveFileID string // drive-hosted asset; takes priority when set
	FileURL     string // directly-hosted asset
	FallbackURL string // offered to the client when secure streaming fails
	Active      bool
	CreatedAt   time.Time
}

// Bundle is a named group of products sold at a combined price distinct from
// the sum of parts. ProductIDs carries catalog order.
type Bundle struct {
	ID         string
	Title      string
	PriceCents int64
	Currency   string
	ProductIDs []string
	Active     bool
	CreatedAt  time.Time
}
