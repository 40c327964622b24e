package domain

import "errors"

var (
	ErrValidation            = errors.New("validation error")
	ErrDataIntegrity         = errors.New("data integrity error")
	ErrNotFound              = errors.New("not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrConflict              = errors.New("conflict")
	ErrCampaignFull          = errors.New("campaign participant limit reached")
	ErrCampaignClosed        = errors.New("campaign closed")
	ErrIdempotencyRequired   = errors.New("idempotency key required")
	ErrIdempotencyConflict   = errors.New("idempotency key reused with different payload")
	ErrWeekLocked            = errors.New("weekly recompute already running")
	ErrUnsupportedEventType  = errors.New("unsupported event type")
	ErrUnsupportedEventClass = errors.New("unsupported event class")
)
