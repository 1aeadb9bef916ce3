package services

import "errors"

var (
	// ErrStoreDisabled is returned when persistence is requested without a
	// configured SQLite database
	ErrStoreDisabled = errors.New("sqlite store is not configured")
)
