package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/bytebank/banksync/internal/viewmodel"
)

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%sR$ %d.%02d", sign, cents/100, cents%100)
}

// Balance prints the derived balance of the dashboard screen.
func (a *App) Balance(_ context.Context) error {
	state := a.dashboard.State()
	if state.ErrMsg != "" {
		printlnFn(state.ErrMsg)
		return nil
	}
	printlnFn("Balance:", formatCents(state.Balance))
	return nil
}

// List prints the recent movements, newest first.
func (a *App) List(_ context.Context) error {
	state := a.dashboard.State()
	if state.ErrMsg != "" {
		printlnFn(state.ErrMsg)
		return nil
	}
	if len(state.Transactions) == 0 {
		printlnFn("No movements yet")
		return nil
	}
	for _, tx := range state.Transactions {
		when := time.UnixMilli(tx.CreatedAt).Format("2006-01-02 15:04")
		printlnFn(fmt.Sprintf("%s  %-6s  %10s  %s  [%s]", when, tx.Type, formatCents(tx.Amount), tx.Description, tx.ID))
	}
	return nil
}

// Credit writes a demo credit movement.
func (a *App) Credit(ctx context.Context) error {
	if err := a.dashboard.AddDemoCredit(ctx); err != nil {
		printlnFn(viewmodel.UserMessage(err))
		return err
	}
	printlnFn("Credit added")
	return nil
}

// Debit writes a demo debit movement.
func (a *App) Debit(ctx context.Context) error {
	if err := a.dashboard.AddDemoDebit(ctx); err != nil {
		printlnFn(viewmodel.UserMessage(err))
		return err
	}
	printlnFn("Debit added")
	return nil
}
