package suppression

import "errors"

// Sentinel errors for the suppression service layer.
var (
	ErrNotFound      = errors.New("suppression entry not found")
	ErrEmailRequired = errors.New("email is required")
	ErrInvalidReason = errors.New("unknown suppression reason")
	ErrOrgIDRequired = errors.New("organization id is required")
)
