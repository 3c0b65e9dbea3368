package domain

import "errors"

var (
	// ErrShopNotFound is returned when no installed shop exists for a domain
	ErrShopNotFound = errors.New("shop not found")
	// ErrNoAccessToken is returned when a shop record carries no offline token
	ErrNoAccessToken = errors.New("shop has no offline access token")
	// ErrInvalidSignature is returned when a webhook HMAC does not verify
	ErrInvalidSignature = errors.New("invalid webhook signature")
)
