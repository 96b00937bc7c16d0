package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidCookie    = errors.New("invalid session cookie")
	ErrDomainRequired   = errors.New("domain is required")
)
