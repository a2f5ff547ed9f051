// Package common defines shared constants and sentinel errors used across
// the banksync layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation error")
	ErrBackendUnavailable = errors.New("backend unavailable")

	// Auth errors, distinguished by kind so presentation can choose
	// message and retry behavior.
	ErrAuthCancelled           = errors.New("authentication cancelled")
	ErrAuthProviderUnavailable = errors.New("auth provider unavailable")
	ErrAuthInvalidCredential   = errors.New("invalid credential")
	ErrAuthConfigMissing       = errors.New("auth configuration missing")

	// Transport and fallback errors.
	ErrNetwork = errors.New("network error")
	ErrUnknown = errors.New("unknown error")
)
