// Package cli implements the interactive banksync shell. Commands read
// their input through small prompt helpers and render the view-model state
// of the screen they belong to.
package cli

import (
	"bufio"
	"context"
	"os"

	"github.com/bytebank/banksync/internal/config"
	"github.com/bytebank/banksync/internal/logging"
	"github.com/bytebank/banksync/internal/session"
	"github.com/bytebank/banksync/internal/viewmodel"
)

type App struct {
	config      *config.Config
	session     *session.Store
	dashboard   *viewmodel.Dashboard
	cards       *viewmodel.Cards
	investments *viewmodel.Investments
	quotes      viewmodel.QuoteSource
	log         logging.Logger
	reader      *bufio.Reader
}

// NewApp wires the shell to its collaborators. The view-models are taken
// unmounted; Run mounts them for the lifetime of the loop.
func NewApp(cfg *config.Config, sess *session.Store, dashboard *viewmodel.Dashboard,
	cards *viewmodel.Cards, investments *viewmodel.Investments,
	quotes viewmodel.QuoteSource, log logging.Logger) *App {
	return &App{
		config:      cfg,
		session:     sess,
		dashboard:   dashboard,
		cards:       cards,
		investments: investments,
		quotes:      quotes,
		log:         log,
		reader:      bufio.NewReader(os.Stdin),
	}
}

// Run initializes the session, mounts the screens and enters the command
// loop until exit or EOF.
func (a *App) Run(ctx context.Context) error {
	if err := a.session.Init(ctx); err != nil {
		return err
	}
	defer a.session.Teardown()

	a.dashboard.Mount(ctx)
	a.cards.Mount(ctx)
	a.investments.Mount(ctx)
	defer a.dashboard.Unmount()
	defer a.cards.Unmount()
	defer a.investments.Unmount()

	a.Root(ctx)
	return nil
}

func (a *App) isLoggedIn() bool {
	return a.session.Snapshot().User != nil
}
