// Package identity defines the identity-provider surface the session store
// depends on. Implementations authenticate principals and report auth-state
// changes, including ones the application did not initiate (token expiry,
// remote sign-out).
package identity

import (
	"context"

	"github.com/bytebank/banksync/internal/models"
)

// ProviderName selects an authentication method on SignIn.
type ProviderName string

const (
	ProviderPassword  ProviderName = "password"
	ProviderAnonymous ProviderName = "anonymous"
)

// Credentials carries sign-in/sign-up input. Name is only used on sign-up.
type Credentials struct {
	Email    string
	Password string
	Name     string
}

// Provider is the external identity collaborator.
//
// Contract:
//   - SignIn authenticates via the named provider and returns the principal.
//   - SignUp creates a new principal; the new principal becomes current.
//   - SignInAnonymously creates or retrieves an anonymous principal.
//   - SignOut invalidates the current session.
//   - CurrentUser reports the current principal, nil when signed out.
//   - OnAuthStateChanged registers a listener invoked on every change of the
//     authenticated principal and returns its unsubscribe function.
//
// Errors are typed by kind via the sentinels in internal/common.
type Provider interface {
	SignIn(ctx context.Context, name ProviderName, creds *Credentials) (*models.User, error)
	SignUp(ctx context.Context, creds Credentials) error
	SignInAnonymously(ctx context.Context) (*models.User, error)
	SignOut(ctx context.Context) error
	CurrentUser(ctx context.Context) (*models.User, error)
	OnAuthStateChanged(cb func(*models.User)) func()
}
