// Package localidp is an identity.Provider backed by a docstore users
// collection. Passwords are hashed with bcrypt; sessions are HS256 tokens
// held in memory, so expiry surfaces as an external sign-out through the
// auth-state listeners.
package localidp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bytebank/banksync/internal/common"
	"github.com/bytebank/banksync/internal/docstore"
	"github.com/bytebank/banksync/internal/identity"
	"github.com/bytebank/banksync/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const usersCollection = "users"

type sessionClaims struct {
	jwt.RegisteredClaims
	UserID string
}

// Provider implements identity.Provider over a docstore.Store.
type Provider struct {
	users    docstore.Collection
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time

	mu        sync.Mutex
	token     string
	current   *models.User
	listeners map[int]func(*models.User)
	nextID    int
}

// New returns a provider storing users in store. An empty secret disables
// sign-in with ErrAuthConfigMissing rather than failing at construction, so
// a misconfigured app still starts and can show a meaningful error.
func New(store docstore.Store, secret []byte, tokenTTL time.Duration) *Provider {
	return &Provider{
		users:     store.Collection(usersCollection),
		secret:    secret,
		tokenTTL:  tokenTTL,
		now:       time.Now,
		listeners: map[int]func(*models.User){},
	}
}

// SetClock overrides the time source. Tests use it to drive token expiry.
func (p *Provider) SetClock(now func() time.Time) {
	p.now = now
}

func (p *Provider) SignIn(ctx context.Context, name identity.ProviderName, creds *identity.Credentials) (*models.User, error) {
	switch name {
	case identity.ProviderPassword:
		if creds == nil {
			return nil, fmt.Errorf("password sign-in needs credentials: %w", common.ErrAuthInvalidCredential)
		}
		return p.passwordSignIn(ctx, *creds)
	case identity.ProviderAnonymous:
		return p.SignInAnonymously(ctx)
	default:
		return nil, fmt.Errorf("provider %q not configured: %w", name, common.ErrAuthConfigMissing)
	}
}

func (p *Provider) passwordSignIn(ctx context.Context, creds identity.Credentials) (*models.User, error) {
	if len(p.secret) == 0 {
		return nil, fmt.Errorf("session secret not set: %w", common.ErrAuthConfigMissing)
	}
	if creds.Email == "" || creds.Password == "" {
		return nil, fmt.Errorf("email and password required: %w", common.ErrAuthInvalidCredential)
	}

	doc, err := p.findByEmail(ctx, creds.Email)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, common.ErrAuthInvalidCredential
	}

	hash, _ := doc.Fields["passwordHash"].(string)
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(creds.Password)) != nil {
		return nil, common.ErrAuthInvalidCredential
	}

	user := userFromDocument(*doc)
	if err := p.establish(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (p *Provider) SignUp(ctx context.Context, creds identity.Credentials) error {
	if len(p.secret) == 0 {
		return fmt.Errorf("session secret not set: %w", common.ErrAuthConfigMissing)
	}
	if creds.Email == "" || creds.Password == "" {
		return fmt.Errorf("email and password required: %w", common.ErrAuthInvalidCredential)
	}

	existing, err := p.findByEmail(ctx, creds.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("email already registered: %w", common.ErrAuthInvalidCredential)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	id, err := p.users.Add(ctx, map[string]any{
		"email":        creds.Email,
		"name":         creds.Name,
		"passwordHash": string(hash),
	})
	if err != nil {
		return fmt.Errorf("create user: %w: %w", common.ErrAuthProviderUnavailable, err)
	}

	// Like hosted auth backends, a fresh sign-up is an implicit sign-in.
	return p.establish(&models.User{ID: id, Name: creds.Name, Email: creds.Email})
}

func (p *Provider) SignInAnonymously(ctx context.Context) (*models.User, error) {
	if len(p.secret) == 0 {
		return nil, fmt.Errorf("session secret not set: %w", common.ErrAuthConfigMissing)
	}

	user := &models.User{ID: uuid.NewString(), Name: "Guest", Anonymous: true}
	if err := p.establish(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (p *Provider) SignOut(context.Context) error {
	p.mu.Lock()
	changed := p.current != nil || p.token != ""
	p.token = ""
	p.current = nil
	p.mu.Unlock()

	if changed {
		p.notify(nil)
	}
	return nil
}

// CurrentUser validates the retained session token. An expired or invalid
// token is an external sign-out: the principal is dropped and listeners are
// notified once.
func (p *Provider) CurrentUser(context.Context) (*models.User, error) {
	p.mu.Lock()
	token := p.token
	user := p.current
	p.mu.Unlock()

	if token == "" || user == nil {
		return nil, nil
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return p.secret, nil
	}, jwt.WithTimeFunc(p.now))
	if err != nil || !parsed.Valid || claims.UserID != user.ID {
		p.mu.Lock()
		stillCurrent := p.token == token
		if stillCurrent {
			p.token = ""
			p.current = nil
		}
		p.mu.Unlock()
		if stillCurrent {
			p.notify(nil)
		}
		return nil, nil
	}
	return user, nil
}

func (p *Provider) OnAuthStateChanged(cb func(*models.User)) func() {
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.listeners[id] = cb
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

// establish issues a session token for user, makes it current and notifies
// listeners.
func (p *Provider) establish(user *models.User) error {
	now := p.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.tokenTTL)),
		},
		UserID: user.ID,
	})
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return fmt.Errorf("sign session token: %w", err)
	}

	p.mu.Lock()
	p.token = signed
	p.current = user
	p.mu.Unlock()

	p.notify(user)
	return nil
}

func (p *Provider) notify(user *models.User) {
	p.mu.Lock()
	cbs := make([]func(*models.User), 0, len(p.listeners))
	for _, cb := range p.listeners {
		cbs = append(cbs, cb)
	}
	p.mu.Unlock()

	for _, cb := range cbs {
		cb(user)
	}
}

func (p *Provider) findByEmail(ctx context.Context, email string) (*docstore.Document, error) {
	docs, err := p.users.Query(ctx, docstore.Query{})
	if err != nil {
		if errors.Is(err, common.ErrBackendUnavailable) {
			return nil, fmt.Errorf("lookup user: %w: %w", common.ErrAuthProviderUnavailable, err)
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	for i := range docs {
		if e, _ := docs[i].Fields["email"].(string); e == email {
			return &docs[i], nil
		}
	}
	return nil, nil
}

func userFromDocument(d docstore.Document) *models.User {
	name, _ := d.Fields["name"].(string)
	email, _ := d.Fields["email"].(string)
	anon, _ := d.Fields["anonymous"].(bool)
	return &models.User{ID: d.ID, Name: name, Email: email, Anonymous: anon}
}
