package viewmodel

import (
	"context"
	"testing"
	"time"

	"github.com/bytebank/banksync/internal/docstore/memstore"
	"github.com/bytebank/banksync/internal/models"
	"github.com/bytebank/banksync/internal/repositories/cards"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCards(t *testing.T, current *models.User) (*Cards, *fakeProvider, cards.Repository) {
	t.Helper()

	repo := cards.NewDocRepository(memstore.New(), testLogger())
	sess, provider := newTestSession(t, current)
	vm := NewCards(sess, repo, testLogger())
	vm.Mount(context.Background())
	t.Cleanup(vm.Unmount)
	return vm, provider, repo
}

func TestCards_AddAndBlock(t *testing.T) {
	vm, _, _ := setupCards(t, &models.User{ID: "alice"})
	require.Eventually(t, func() bool { return !vm.State().Loading }, time.Second, 5*time.Millisecond)

	err := vm.AddCard(context.Background(), &models.Card{
		Alias: "Groceries",
		Last4: "4242",
		Brand: "visa",
		Kind:  models.CardCredit,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(vm.State().Cards) == 1 }, time.Second, 5*time.Millisecond)
	card := vm.State().Cards[0]
	assert.Equal(t, "alice", card.OwnerID)
	assert.False(t, card.Blocked)

	require.NoError(t, vm.SetBlocked(context.Background(), card.ID, true))
	require.Eventually(t, func() bool {
		s := vm.State()
		return len(s.Cards) == 1 && s.Cards[0].Blocked
	}, time.Second, 5*time.Millisecond)
}

func TestCards_AddWithoutIdentityFailsValidation(t *testing.T) {
	vm, _, _ := setupCards(t, nil)

	err := vm.AddCard(context.Background(), &models.Card{Last4: "4242", Kind: models.CardDebit})
	require.Error(t, err)
}

func TestCards_SignOutClearsScreen(t *testing.T) {
	vm, provider, repo := setupCards(t, &models.User{ID: "alice"})
	require.Eventually(t, func() bool { return !vm.State().Loading }, time.Second, 5*time.Millisecond)

	_, err := repo.Add(context.Background(), &models.Card{OwnerID: "alice", Last4: "1111", Kind: models.CardDebit})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(vm.State().Cards) == 1 }, time.Second, 5*time.Millisecond)

	provider.fire(nil)

	require.Eventually(t, func() bool {
		s := vm.State()
		return s.User == nil && len(s.Cards) == 0 && !s.Loading
	}, time.Second, 5*time.Millisecond)
}
