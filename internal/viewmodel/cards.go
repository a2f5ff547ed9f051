package viewmodel

import (
	"context"
	"sync"

	"github.com/bytebank/banksync/internal/logging"
	"github.com/bytebank/banksync/internal/models"
	"github.com/bytebank/banksync/internal/repositories/cards"
	"github.com/bytebank/banksync/internal/session"
)

// CardsState is what the cards screen renders.
type CardsState struct {
	User    *models.User
	Loading bool
	Cards   []models.Card
	ErrMsg  string
}

// Cards drives the digital-cards screen. Same lifecycle and generation
// discipline as Dashboard.
type Cards struct {
	session *session.Store
	repo    cards.Repository
	log     logging.Logger

	mu            sync.Mutex
	ctx           context.Context
	mounted       bool
	generation    int
	ownerID       string
	cancelSub     func()
	cancelSession func()
	state         CardsState
	listeners     map[int]func(CardsState)
	nextID        int
}

func NewCards(sess *session.Store, repo cards.Repository, log logging.Logger) *Cards {
	return &Cards{
		session:   sess,
		repo:      repo,
		log:       log,
		listeners: map[int]func(CardsState){},
	}
}

func (c *Cards) Mount(ctx context.Context) {
	c.mu.Lock()
	if c.mounted {
		c.mu.Unlock()
		return
	}
	c.mounted = true
	c.ctx = ctx
	c.mu.Unlock()

	cancelSession := c.session.OnChange(c.onIdentity)
	c.mu.Lock()
	c.cancelSession = cancelSession
	c.mu.Unlock()

	c.onIdentity(c.session.Snapshot())
}

func (c *Cards) Unmount() {
	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return
	}
	c.mounted = false
	c.generation++
	cancelSub := c.cancelSub
	cancelSession := c.cancelSession
	c.cancelSub = nil
	c.cancelSession = nil
	c.mu.Unlock()

	if cancelSub != nil {
		cancelSub()
	}
	if cancelSession != nil {
		cancelSession()
	}
}

func (c *Cards) State() CardsState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Cards) OnChange(cb func(CardsState)) func() {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.listeners[id] = cb
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// AddCard issues a new card for the current identity.
func (c *Cards) AddCard(ctx context.Context, card *models.Card) error {
	c.mu.Lock()
	owner := c.ownerID
	c.mu.Unlock()

	card.OwnerID = owner
	_, err := c.repo.Add(ctx, card)
	return err
}

// SetBlocked toggles the blocked flag of a card.
func (c *Cards) SetBlocked(ctx context.Context, id string, blocked bool) error {
	return c.repo.Update(ctx, id, map[string]any{"blocked": blocked})
}

func (c *Cards) onIdentity(snap session.Snapshot) {
	owner := ""
	if snap.User != nil {
		owner = snap.User.ID
	}

	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return
	}
	if owner == c.ownerID {
		c.state.User = snap.User
		c.mu.Unlock()
		c.notify()
		return
	}

	c.generation++
	gen := c.generation
	cancel := c.cancelSub
	c.cancelSub = nil
	c.ownerID = owner
	c.state = CardsState{User: snap.User, Loading: owner != ""}
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.notify()

	if owner != "" {
		c.start(gen, owner)
	}
}

func (c *Cards) start(gen int, owner string) {
	cancel, err := c.repo.Subscribe(owner, func(list []models.Card) {
		c.apply(gen, list)
	})
	if err != nil {
		c.fail(gen, err)
		return
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		cancel()
		return
	}
	c.cancelSub = cancel
	c.mu.Unlock()
}

func (c *Cards) apply(gen int, list []models.Card) {
	defer func() {
		if rec := recover(); rec != nil {
			c.log.Error(context.Background(), "cards update failed", "panic", rec)
		}
	}()

	c.mu.Lock()
	if gen != c.generation || !c.mounted {
		c.mu.Unlock()
		return
	}
	c.state.Cards = dedupeByID(list, func(card models.Card) string { return card.ID })
	c.state.Loading = false
	c.state.ErrMsg = ""
	c.mu.Unlock()
	c.notify()
}

func (c *Cards) fail(gen int, err error) {
	c.log.Error(context.Background(), "cards load failed", "error", err)

	c.mu.Lock()
	if gen != c.generation || !c.mounted {
		c.mu.Unlock()
		return
	}
	c.state.Loading = false
	c.state.ErrMsg = UserMessage(err)
	c.mu.Unlock()
	c.notify()
}

func (c *Cards) notify() {
	c.mu.Lock()
	state := c.state
	cbs := make([]func(CardsState), 0, len(c.listeners))
	for _, cb := range c.listeners {
		cbs = append(cbs, cb)
	}
	c.mu.Unlock()

	for _, cb := range cbs {
		cb(state)
	}
}
