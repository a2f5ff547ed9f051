package viewmodel

import (
	"context"
	"sync"

	"github.com/bytebank/banksync/internal/logging"
	"github.com/bytebank/banksync/internal/models"
	"github.com/bytebank/banksync/internal/quotes"
	"github.com/bytebank/banksync/internal/repositories/investments"
	"github.com/bytebank/banksync/internal/session"
)

// InvestmentsState is what the investments screen renders. Positions carry
// quote enrichment when the market-data API had data for their tickers.
type InvestmentsState struct {
	User      *models.User
	Loading   bool
	Positions []models.Investment
	ErrMsg    string
}

// QuoteSource is the slice of the quote client the view-model needs.
type QuoteSource interface {
	GetQuote(ctx context.Context, ticker string) (*models.Quote, error)
	Search(ctx context.Context, query string) ([]models.Suggestion, error)
}

var _ QuoteSource = (*quotes.Client)(nil)

// Investments drives the portfolio screen: live positions from the
// repository, enriched per snapshot with quotes.
type Investments struct {
	session *session.Store
	repo    investments.Repository
	quotes  QuoteSource
	log     logging.Logger

	mu            sync.Mutex
	ctx           context.Context
	mounted       bool
	generation    int
	ownerID       string
	cancelSub     func()
	cancelSession func()
	state         InvestmentsState
	listeners     map[int]func(InvestmentsState)
	nextID        int
}

func NewInvestments(sess *session.Store, repo investments.Repository, qs QuoteSource, log logging.Logger) *Investments {
	return &Investments{
		session:   sess,
		repo:      repo,
		quotes:    qs,
		log:       log,
		listeners: map[int]func(InvestmentsState){},
	}
}

func (v *Investments) Mount(ctx context.Context) {
	v.mu.Lock()
	if v.mounted {
		v.mu.Unlock()
		return
	}
	v.mounted = true
	v.ctx = ctx
	v.mu.Unlock()

	cancelSession := v.session.OnChange(v.onIdentity)
	v.mu.Lock()
	v.cancelSession = cancelSession
	v.mu.Unlock()

	v.onIdentity(v.session.Snapshot())
}

func (v *Investments) Unmount() {
	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		return
	}
	v.mounted = false
	v.generation++
	cancelSub := v.cancelSub
	cancelSession := v.cancelSession
	v.cancelSub = nil
	v.cancelSession = nil
	v.mu.Unlock()

	if cancelSub != nil {
		cancelSub()
	}
	if cancelSession != nil {
		cancelSession()
	}
}

func (v *Investments) State() InvestmentsState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func (v *Investments) OnChange(cb func(InvestmentsState)) func() {
	v.mu.Lock()
	v.nextID++
	id := v.nextID
	v.listeners[id] = cb
	v.mu.Unlock()

	return func() {
		v.mu.Lock()
		delete(v.listeners, id)
		v.mu.Unlock()
	}
}

// Save upserts a position for the current identity. The subscription
// delivers the updated set.
func (v *Investments) Save(ctx context.Context, ticker string, quantity float64) error {
	v.mu.Lock()
	owner := v.ownerID
	v.mu.Unlock()

	_, err := v.repo.Save(ctx, owner, ticker, quantity)
	return err
}

// Remove deletes a position.
func (v *Investments) Remove(ctx context.Context, id string) error {
	return v.repo.Remove(ctx, id)
}

// SearchTickers proxies ticker search for the add-position form.
func (v *Investments) SearchTickers(ctx context.Context, query string) ([]models.Suggestion, error) {
	return v.quotes.Search(ctx, query)
}

func (v *Investments) onIdentity(snap session.Snapshot) {
	owner := ""
	if snap.User != nil {
		owner = snap.User.ID
	}

	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		return
	}
	if owner == v.ownerID {
		v.state.User = snap.User
		v.mu.Unlock()
		v.notify()
		return
	}

	v.generation++
	gen := v.generation
	cancel := v.cancelSub
	v.cancelSub = nil
	v.ownerID = owner
	v.state = InvestmentsState{User: snap.User, Loading: owner != ""}
	ctx := v.ctx
	v.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	v.notify()

	if owner != "" {
		v.start(ctx, gen, owner)
	}
}

func (v *Investments) start(ctx context.Context, gen int, owner string) {
	cancel, err := v.repo.Subscribe(owner, func(list []models.Investment) {
		v.apply(ctx, gen, list)
	})
	if err != nil {
		v.fail(gen, err)
		return
	}

	v.mu.Lock()
	if gen != v.generation {
		v.mu.Unlock()
		cancel()
		return
	}
	v.cancelSub = cancel
	v.mu.Unlock()
}

func (v *Investments) apply(ctx context.Context, gen int, list []models.Investment) {
	defer func() {
		if rec := recover(); rec != nil {
			v.log.Error(context.Background(), "investments update failed", "panic", rec)
		}
	}()

	v.mu.Lock()
	if gen != v.generation || !v.mounted {
		v.mu.Unlock()
		return
	}
	v.state.Positions = dedupeByID(list, func(inv models.Investment) string { return inv.ID })
	v.state.Loading = false
	v.state.ErrMsg = ""
	v.mu.Unlock()
	v.notify()

	go v.enrich(ctx, gen, list)
}

// enrich attaches quotes to a delivered snapshot. Missing market data is
// expected: a position without a quote renders with ticker and quantity
// only.
func (v *Investments) enrich(ctx context.Context, gen int, list []models.Investment) {
	enriched := make([]models.Investment, len(list))
	copy(enriched, list)
	for i := range enriched {
		quote, err := v.quotes.GetQuote(ctx, enriched[i].Ticker)
		if err != nil || quote == nil {
			continue
		}
		enriched[i].LongName = quote.LongName
		enriched[i].LastPrice = quote.LastPrice
		enriched[i].ChangePercent = quote.ChangePercent
		enriched[i].LogoURL = quote.LogoURL
	}

	v.mu.Lock()
	if gen != v.generation || !v.mounted {
		v.mu.Unlock()
		return
	}
	v.state.Positions = dedupeByID(enriched, func(inv models.Investment) string { return inv.ID })
	v.mu.Unlock()
	v.notify()
}

func (v *Investments) fail(gen int, err error) {
	v.log.Error(context.Background(), "investments load failed", "error", err)

	v.mu.Lock()
	if gen != v.generation || !v.mounted {
		v.mu.Unlock()
		return
	}
	v.state.Loading = false
	v.state.ErrMsg = UserMessage(err)
	v.mu.Unlock()
	v.notify()
}

func (v *Investments) notify() {
	v.mu.Lock()
	state := v.state
	cbs := make([]func(InvestmentsState), 0, len(v.listeners))
	for _, cb := range v.listeners {
		cbs = append(cbs, cb)
	}
	v.mu.Unlock()

	for _, cb := range cbs {
		cb(state)
	}
}
