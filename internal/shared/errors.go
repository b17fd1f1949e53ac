package shared

import "errors"

// Sentinel errors shared across the resident, iuran, and user modules.
// Handlers map ErrNotFound to 404 and the CSRF pair to 403.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrCSRFTokenMissing   = errors.New("csrf token missing")
	ErrCSRFTokenMismatch  = errors.New("csrf token mismatch")
)
