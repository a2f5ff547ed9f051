package viewmodel

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/bytebank/banksync/internal/common"
	"github.com/bytebank/banksync/internal/logging"
	"github.com/bytebank/banksync/internal/models"
	"github.com/bytebank/banksync/internal/repositories/transactions"
	"github.com/bytebank/banksync/internal/session"
)

// DashboardState is what the dashboard screen renders: the identity, the
// recent movements and the derived balance.
type DashboardState struct {
	User         *models.User
	Loading      bool
	Transactions []models.Transaction
	Balance      int64
	ErrMsg       string
}

// Dashboard drives the main account screen.
type Dashboard struct {
	session *session.Store
	repo    transactions.Repository
	log     logging.Logger
	limit   int

	mu            sync.Mutex
	ctx           context.Context
	mounted       bool
	generation    int
	ownerID       string
	liveEvents    int
	cancelSub     func()
	cancelSession func()
	state         DashboardState
	listeners     map[int]func(DashboardState)
	nextID        int
}

// NewDashboard wires the dashboard to the session store and the transaction
// repository. limit bounds the recent-movements window shown on screen.
func NewDashboard(sess *session.Store, repo transactions.Repository, log logging.Logger, limit int) *Dashboard {
	return &Dashboard{
		session:   sess,
		repo:      repo,
		log:       log,
		limit:     limit,
		listeners: map[int]func(DashboardState){},
	}
}

// Mount starts the view-model: it tracks the session identity and keys the
// transaction subscription by it. ctx bounds all asynchronous work until
// Unmount.
func (d *Dashboard) Mount(ctx context.Context) {
	d.mu.Lock()
	if d.mounted {
		d.mu.Unlock()
		return
	}
	d.mounted = true
	d.ctx = ctx
	d.mu.Unlock()

	cancelSession := d.session.OnChange(d.onIdentity)
	d.mu.Lock()
	d.cancelSession = cancelSession
	d.mu.Unlock()

	d.onIdentity(d.session.Snapshot())
}

// Unmount cancels all subscriptions. Deliveries already in flight become
// no-ops through the generation guard.
func (d *Dashboard) Unmount() {
	d.mu.Lock()
	if !d.mounted {
		d.mu.Unlock()
		return
	}
	d.mounted = false
	d.generation++
	cancelSub := d.cancelSub
	cancelSession := d.cancelSession
	d.cancelSub = nil
	d.cancelSession = nil
	d.mu.Unlock()

	if cancelSub != nil {
		cancelSub()
	}
	if cancelSession != nil {
		cancelSession()
	}
}

func (d *Dashboard) State() DashboardState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// OnChange registers a render callback invoked after every state change.
func (d *Dashboard) OnChange(cb func(DashboardState)) func() {
	d.mu.Lock()
	d.nextID++
	id := d.nextID
	d.listeners[id] = cb
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.listeners, id)
		d.mu.Unlock()
	}
}

// Refresh re-runs the one-shot fetch for the current identity. The live
// subscription stays in place.
func (d *Dashboard) Refresh(ctx context.Context) error {
	d.mu.Lock()
	gen := d.generation
	owner := d.ownerID
	d.mu.Unlock()
	if owner == "" {
		return nil
	}

	txs, err := d.repo.ListRecent(ctx, owner, d.limit)
	if err != nil {
		d.fail(gen, err)
		return err
	}
	d.applyRecords(gen, owner, txs, true)
	return nil
}

// AddDemoCredit writes a small random credit. The live subscription delivers
// the authoritative copy; dedupeByID keeps it from rendering twice.
func (d *Dashboard) AddDemoCredit(ctx context.Context) error {
	return d.addDemo(ctx, models.TransactionCredit, "Demo credit")
}

// AddDemoDebit writes a small random debit.
func (d *Dashboard) AddDemoDebit(ctx context.Context) error {
	return d.addDemo(ctx, models.TransactionDebit, "Demo debit")
}

func (d *Dashboard) addDemo(ctx context.Context, kind models.TransactionType, description string) error {
	d.mu.Lock()
	owner := d.ownerID
	d.mu.Unlock()
	if owner == "" {
		return fmt.Errorf("no signed-in user: %w", common.ErrValidation)
	}

	// Between 5.00 and 55.00.
	cents := int64(rand.Intn(5000)) + 500
	_, err := d.repo.Add(ctx, &models.Transaction{
		OwnerID:     owner,
		Type:        kind,
		Amount:      cents,
		Description: description,
		Category:    "demo",
	})
	return err
}

// onIdentity reacts to session changes. A changed identity cancels the old
// subscription before any work for the new one starts, so records from the
// previous owner can never be delivered under the new identity.
func (d *Dashboard) onIdentity(snap session.Snapshot) {
	owner := ""
	if snap.User != nil {
		owner = snap.User.ID
	}

	d.mu.Lock()
	if !d.mounted {
		d.mu.Unlock()
		return
	}
	if owner == d.ownerID {
		d.state.User = snap.User
		d.mu.Unlock()
		d.notify()
		return
	}

	d.generation++
	gen := d.generation
	cancel := d.cancelSub
	d.cancelSub = nil
	d.ownerID = owner
	d.liveEvents = 0
	d.state = DashboardState{User: snap.User, Loading: owner != ""}
	ctx := d.ctx
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	d.notify()

	if owner != "" {
		d.start(ctx, gen, owner)
	}
}

// start launches the one-shot fetch and the live subscription for one
// identity generation. Both use the same filter parameters so their results
// are interchangeable.
func (d *Dashboard) start(ctx context.Context, gen int, owner string) {
	go func() {
		txs, err := d.repo.ListRecent(ctx, owner, d.limit)
		if err != nil {
			d.fail(gen, err)
			return
		}
		d.applyRecords(gen, owner, txs, false)
	}()

	cancel, err := d.repo.Subscribe(owner, d.limit, func(txs []models.Transaction) {
		d.applyLive(gen, owner, txs)
	})
	if err != nil {
		d.fail(gen, err)
		return
	}

	d.mu.Lock()
	if gen != d.generation {
		// Superseded while subscribing; this subscription must not outlive
		// its generation.
		d.mu.Unlock()
		cancel()
		return
	}
	d.cancelSub = cancel
	d.mu.Unlock()
}

// applyLive guards the delivery boundary: a panic while processing a
// delivered change is contained and logged, leaving the previous good state
// displayed.
func (d *Dashboard) applyLive(gen int, owner string, txs []models.Transaction) {
	defer func() {
		if rec := recover(); rec != nil {
			d.log.Error(context.Background(), "dashboard update failed", "panic", rec)
		}
	}()

	d.mu.Lock()
	if gen != d.generation || !d.mounted {
		d.mu.Unlock()
		return
	}
	d.liveEvents++
	d.mu.Unlock()

	d.applyRecords(gen, owner, txs, true)
}

// applyRecords installs a snapshot. live distinguishes subscription
// deliveries from one-shot results: once the subscription is established as
// the source of truth, late one-shot results are dropped.
func (d *Dashboard) applyRecords(gen int, owner string, txs []models.Transaction, live bool) {
	d.mu.Lock()
	if gen != d.generation || !d.mounted {
		d.mu.Unlock()
		return
	}
	if !live && d.liveEvents > 1 {
		d.mu.Unlock()
		return
	}
	d.state.Transactions = dedupeByID(txs, func(tx models.Transaction) string { return tx.ID })
	d.state.Loading = false
	d.state.ErrMsg = ""
	ctx := d.ctx
	d.mu.Unlock()

	d.notify()
	go d.refreshBalance(ctx, gen, owner)
}

// refreshBalance recomputes the derived balance through the repository's
// bounded window. A failure keeps the previous balance on screen.
func (d *Dashboard) refreshBalance(ctx context.Context, gen int, owner string) {
	bal, err := d.repo.GetBalance(ctx, owner)
	if err != nil {
		d.log.Error(ctx, "balance refresh failed", "owner", owner, "error", err)
		return
	}

	d.mu.Lock()
	if gen != d.generation || !d.mounted {
		d.mu.Unlock()
		return
	}
	d.state.Balance = bal
	d.mu.Unlock()
	d.notify()
}

func (d *Dashboard) fail(gen int, err error) {
	d.log.Error(context.Background(), "dashboard load failed", "error", err)

	d.mu.Lock()
	if gen != d.generation || !d.mounted {
		d.mu.Unlock()
		return
	}
	d.state.Loading = false
	d.state.ErrMsg = UserMessage(err)
	d.mu.Unlock()
	d.notify()
}

func (d *Dashboard) notify() {
	d.mu.Lock()
	state := d.state
	cbs := make([]func(DashboardState), 0, len(d.listeners))
	for _, cb := range d.listeners {
		cbs = append(cbs, cb)
	}
	d.mu.Unlock()

	for _, cb := range cbs {
		cb(state)
	}
}
