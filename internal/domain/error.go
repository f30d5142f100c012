package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrUnauthorized    = errors.New("missing or invalid credentials")
	ErrForbidden       = errors.New("caller lacks permission")
	ErrAlreadyOwned    = errors.New("product already purchased")
	ErrInvalidCoupon   = errors.New("coupon not found or already used")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrEmptyBundle     = errors.New("bundle has no products")
	ErrGatewayFailure  = errors.New("payment gateway request failed")
	ErrBadSignature    = errors.New("webhook signature mismatch")
	ErrOperationFailed = errors.New("datastore operation failed")
	ErrReadDatabaseRow = errors.New("failed to read database row")
)
