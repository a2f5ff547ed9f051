// Package session holds the process-wide authenticated identity: who is
// signed in, whether that is known yet, and whether an auth operation is in
// flight. The store persists the identity across restarts and relays
// auth-state changes from the identity provider to its own listeners.
//
// The identity field is three-valued: unknown (hydration in progress, Known
// is false), absent (User nil, Known true) and present. Consumers must gate
// UI on Hydrated && !Loading and must never treat unknown as absent.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/bytebank/banksync/internal/identity"
	"github.com/bytebank/banksync/internal/logging"
	"github.com/bytebank/banksync/internal/models"
)

// Snapshot is an immutable view of the store state.
type Snapshot struct {
	User     *models.User
	Known    bool // false only before hydration and the first provider answer
	Loading  bool
	Hydrated bool
}

// Store is the process-wide session state. All view-models read it; only the
// store's own methods mutate it. Construct one per process and inject it.
type Store struct {
	provider identity.Provider
	path     string
	log      logging.Logger

	mu          sync.Mutex
	user        *models.User
	known       bool
	loading     bool
	hydrated    bool
	initialized bool
	unsubscribe func()
	listeners   map[int]func(Snapshot)
	nextID      int
}

// New returns an uninitialized store; call Init once at startup.
func New(provider identity.Provider, persistPath string, log logging.Logger) *Store {
	return &Store{
		provider:  provider,
		path:      persistPath,
		log:       log,
		loading:   true,
		listeners: map[int]func(Snapshot){},
	}
}

// Init runs the startup protocol exactly once per process lifetime:
// rehydrate the persisted snapshot, fetch the current identity from the
// provider, then register for live auth-state changes. Calling Init again
// without an intervening Teardown is a no-op.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return nil
	}
	s.initialized = true
	s.mu.Unlock()

	// Rehydrate first so a restart shows the last known identity before the
	// provider answers. The provider remains the source of truth below.
	seed := loadSession(s.path, s.log)
	s.mu.Lock()
	s.user = seed
	s.known = true
	s.hydrated = true
	s.mu.Unlock()
	s.notify()

	current, err := s.provider.CurrentUser(ctx)
	if err != nil {
		// Keep the rehydrated seed; the provider may be temporarily down.
		s.log.Warn(ctx, "current identity fetch failed, keeping persisted snapshot", "error", err)
		s.setLoading(false)
	} else {
		s.mu.Lock()
		s.user = current
		s.known = true
		s.loading = false
		s.mu.Unlock()
		saveSession(s.path, current, s.log)
		s.notify()
	}

	unsub := s.provider.OnAuthStateChanged(func(u *models.User) {
		s.setUser(u)
	})
	s.mu.Lock()
	s.unsubscribe = unsub
	s.mu.Unlock()

	return nil
}

// Teardown unregisters the provider listener and resets the one-time
// initialization flag so the store can be initialized again (tests, account
// switching). The current identity is left in place.
func (s *Store) Teardown() {
	s.mu.Lock()
	unsub := s.unsubscribe
	s.unsubscribe = nil
	s.initialized = false
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// SignIn authenticates via the named provider. On failure the identity is
// left unchanged and the error propagates typed by kind.
func (s *Store) SignIn(ctx context.Context, name identity.ProviderName, creds *identity.Credentials) error {
	s.setLoading(true)
	defer s.setLoading(false)

	user, err := s.provider.SignIn(ctx, name, creds)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	s.setUser(user)
	return nil
}

// SignUp creates a new principal, then fetches and adopts the resulting
// identity.
func (s *Store) SignUp(ctx context.Context, creds identity.Credentials) error {
	s.setLoading(true)
	defer s.setLoading(false)

	if err := s.provider.SignUp(ctx, creds); err != nil {
		return fmt.Errorf("sign up: %w", err)
	}
	user, err := s.provider.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("fetch identity after sign up: %w", err)
	}
	s.setUser(user)
	return nil
}

func (s *Store) SignInAnonymously(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	user, err := s.provider.SignInAnonymously(ctx)
	if err != nil {
		return fmt.Errorf("anonymous sign in: %w", err)
	}
	s.setUser(user)
	return nil
}

func (s *Store) SignOut(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	if err := s.provider.SignOut(ctx); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	s.setUser(nil)
	return nil
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{User: s.user, Known: s.known, Loading: s.loading, Hydrated: s.hydrated}
}

// OnChange registers a listener invoked with a fresh snapshot after every
// state change. Returns its unsubscribe function.
func (s *Store) OnChange(cb func(Snapshot)) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = cb
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) setUser(user *models.User) {
	s.mu.Lock()
	s.user = user
	s.known = true
	s.mu.Unlock()

	saveSession(s.path, user, s.log)
	s.notify()
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
	s.notify()
}

func (s *Store) notify() {
	s.mu.Lock()
	snap := Snapshot{User: s.user, Known: s.known, Loading: s.loading, Hydrated: s.hydrated}
	cbs := make([]func(Snapshot), 0, len(s.listeners))
	for _, cb := range s.listeners {
		cbs = append(cbs, cb)
	}
	s.mu.Unlock()

	for _, cb := range cbs {
		cb(snap)
	}
}
