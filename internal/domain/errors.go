package domain

import "errors"

var (
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrMalformedRecord   = errors.New("malformed record")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrQueueUnavailable  = errors.New("queue unavailable")
	ErrEndpointDelivery  = errors.New("endpoint delivery failed")
)

var ErrInvalidWebhook = errors.New("invalid webhook url")
