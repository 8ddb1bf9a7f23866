package model

import "errors"

var (
	// Record related errors
	ErrRecordNotFound   = errors.New("record not found")
	ErrRecordNotInTrash = errors.New("record is not in trash")
	ErrUnknownCategory  = errors.New("unknown category")

	// Trash dashboard errors
	ErrInvalidKey      = errors.New("invalid composite key")
	ErrInvalidAction   = errors.New("invalid action")
	ErrInvalidFilter   = errors.New("invalid category filter")
	ErrIntentNotFound  = errors.New("intent not found")
	ErrIntentExpired   = errors.New("intent expired")
	ErrActionInFlight  = errors.New("action already in flight")
	ErrNothingSelected = errors.New("nothing selected")
	ErrRefreshFailed   = errors.New("failed to load deleted items")
	ErrRefreshStale    = errors.New("refresh superseded by a newer one")
	ErrActionRejected  = errors.New("action rejected by server")

	// Media related errors
	ErrMediaNotFound = errors.New("media file not found")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
