package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/bytebank/banksync/internal/models"
	"github.com/bytebank/banksync/internal/viewmodel"
)

// Cards prints the cards of the signed-in user.
func (a *App) Cards(_ context.Context) error {
	state := a.cards.State()
	if state.ErrMsg != "" {
		printlnFn(state.ErrMsg)
		return nil
	}
	if len(state.Cards) == 0 {
		printlnFn("No cards yet")
		return nil
	}
	for _, card := range state.Cards {
		status := "active"
		if card.Blocked {
			status = "blocked"
		}
		printlnFn(fmt.Sprintf("%-12s  **** %s  %-6s  %-7s  [%s]", card.Alias, card.Last4, card.Kind, status, card.ID))
	}
	return nil
}

// AddCard prompts for the card fields and issues a new card.
func (a *App) AddCard(ctx context.Context) error {
	alias, err := getSimpleText(a.reader, "Card alias", os.Stdout)
	if err != nil {
		return err
	}
	last4, err := getSimpleText(a.reader, "Last four digits", os.Stdout)
	if err != nil {
		return err
	}
	brand, err := getSimpleText(a.reader, "Brand", os.Stdout)
	if err != nil {
		return err
	}
	kind, err := getSimpleText(a.reader, "Kind (credit/debit)", os.Stdout)
	if err != nil {
		return err
	}

	card := &models.Card{
		Alias: alias,
		Last4: last4,
		Brand: brand,
		Kind:  models.CardKind(strings.ToLower(kind)),
	}
	if err := a.cards.AddCard(ctx, card); err != nil {
		printlnFn(viewmodel.UserMessage(err))
		return err
	}
	printlnFn("Card added")
	return nil
}

// SetCardBlocked blocks or unblocks a card by id.
func (a *App) SetCardBlocked(ctx context.Context, id string, blocked bool) error {
	if err := a.cards.SetBlocked(ctx, id, blocked); err != nil {
		printlnFn(viewmodel.UserMessage(err))
		return err
	}
	if blocked {
		printlnFn("Card blocked")
	} else {
		printlnFn("Card unblocked")
	}
	return nil
}
