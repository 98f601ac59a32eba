package service

import (
	"errors"
)

// Error kinds surfaced to handlers. External-service failures wrap
// ErrExternalService so the HTTP layer can map them uniformly.
var (
	ErrDuplicateContract = errors.New("contract already registered")
	ErrContractNotFound  = errors.New("contract not found")
	ErrExternalService   = errors.New("external service failure")
	ErrValidation        = errors.New("validation failed")
)
