package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bytebank/banksync/internal/viewmodel"
)

// Positions prints the portfolio, with quote enrichment where available.
func (a *App) Positions(_ context.Context) error {
	state := a.investments.State()
	if state.ErrMsg != "" {
		printlnFn(state.ErrMsg)
		return nil
	}
	if len(state.Positions) == 0 {
		printlnFn("No positions yet")
		return nil
	}
	for _, pos := range state.Positions {
		line := fmt.Sprintf("%-8s  qty %.2f", pos.Ticker, pos.Quantity)
		if pos.LastPrice > 0 {
			line += fmt.Sprintf("  @ %.2f (%+.2f%%)", pos.LastPrice, pos.ChangePercent)
		}
		if pos.LongName != "" {
			line += "  " + pos.LongName
		}
		printlnFn(line + "  [" + pos.ID + "]")
	}
	return nil
}

// Buy upserts a position from ticker and quantity arguments.
func (a *App) Buy(ctx context.Context, ticker, quantity string) error {
	qty, err := strconv.ParseFloat(quantity, 64)
	if err != nil || qty <= 0 {
		printlnFn("Quantity must be a positive number")
		return err
	}
	if err := a.investments.Save(ctx, ticker, qty); err != nil {
		printlnFn(viewmodel.UserMessage(err))
		return err
	}
	printlnFn("Position saved")
	return nil
}

// Sell removes a position by id.
func (a *App) Sell(ctx context.Context, id string) error {
	if err := a.investments.Remove(ctx, id); err != nil {
		printlnFn(viewmodel.UserMessage(err))
		return err
	}
	printlnFn("Position removed")
	return nil
}

// Quote fetches and prints a market quote for one ticker.
func (a *App) Quote(ctx context.Context, ticker string) error {
	quote, err := a.quotes.GetQuote(ctx, ticker)
	if err != nil {
		printlnFn(viewmodel.UserMessage(err))
		return err
	}
	if quote == nil {
		printlnFn("No quote for", ticker)
		return nil
	}
	printlnFn(fmt.Sprintf("%s  %.2f (%+.2f%%)  %s", quote.Ticker, quote.LastPrice, quote.ChangePercent, quote.LongName))
	return nil
}

// Search prints ticker suggestions for a text query.
func (a *App) Search(ctx context.Context, query string) error {
	sugg, err := a.quotes.Search(ctx, query)
	if err != nil {
		printlnFn(viewmodel.UserMessage(err))
		return err
	}
	if len(sugg) == 0 {
		printlnFn("No matches (queries need at least 4 characters)")
		return nil
	}
	for _, s := range sugg {
		printlnFn(fmt.Sprintf("%-8s  %s", s.ID, s.Name))
	}
	return nil
}
