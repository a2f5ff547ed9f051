package viewmodel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bytebank/banksync/internal/docstore/memstore"
	"github.com/bytebank/banksync/internal/models"
	"github.com/bytebank/banksync/internal/repositories/investments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeQuotes serves quotes from a table; unknown tickers get no result, like
// the real client under any failure.
type fakeQuotes struct {
	mu     sync.Mutex
	quotes map[string]models.Quote
	calls  int
}

func (q *fakeQuotes) GetQuote(_ context.Context, ticker string) (*models.Quote, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls++
	if quote, ok := q.quotes[ticker]; ok {
		return &quote, nil
	}
	return nil, nil
}

func (q *fakeQuotes) Search(context.Context, string) ([]models.Suggestion, error) {
	return []models.Suggestion{{ID: "PETR4", Name: "Petrobras PN"}}, nil
}

func setupInvestments(t *testing.T, current *models.User, quotes *fakeQuotes) (*Investments, *fakeProvider) {
	t.Helper()

	repo := investments.NewDocRepository(memstore.New(), testLogger())
	sess, provider := newTestSession(t, current)
	vm := NewInvestments(sess, repo, quotes, testLogger())
	vm.Mount(context.Background())
	t.Cleanup(vm.Unmount)
	return vm, provider
}

func TestInvestments_SaveAndEnrich(t *testing.T) {
	quotes := &fakeQuotes{quotes: map[string]models.Quote{
		"PETR4": {Ticker: "PETR4", LongName: "Petrobras PN", LastPrice: 38.52, ChangePercent: -1.3},
	}}
	vm, _ := setupInvestments(t, &models.User{ID: "alice"}, quotes)
	require.Eventually(t, func() bool { return !vm.State().Loading }, time.Second, 5*time.Millisecond)

	require.NoError(t, vm.Save(context.Background(), "petr4", 10))

	require.Eventually(t, func() bool {
		s := vm.State()
		return len(s.Positions) == 1 && s.Positions[0].LastPrice == 38.52
	}, time.Second, 5*time.Millisecond)

	pos := vm.State().Positions[0]
	assert.Equal(t, "PETR4", pos.Ticker)
	assert.Equal(t, 10.0, pos.Quantity)
	assert.Equal(t, "Petrobras PN", pos.LongName)
}

func TestInvestments_MissingQuoteLeavesPositionBare(t *testing.T) {
	vm, _ := setupInvestments(t, &models.User{ID: "alice"}, &fakeQuotes{})
	require.Eventually(t, func() bool { return !vm.State().Loading }, time.Second, 5*time.Millisecond)

	require.NoError(t, vm.Save(context.Background(), "XXXX11", 3))

	require.Eventually(t, func() bool { return len(vm.State().Positions) == 1 }, time.Second, 5*time.Millisecond)

	// Give enrichment a moment; it must not invent market data.
	time.Sleep(30 * time.Millisecond)
	pos := vm.State().Positions[0]
	assert.Equal(t, "XXXX11", pos.Ticker)
	assert.Zero(t, pos.LastPrice)
	assert.Empty(t, pos.LongName)
}

func TestInvestments_SaveUpserts(t *testing.T) {
	vm, _ := setupInvestments(t, &models.User{ID: "alice"}, &fakeQuotes{})
	require.Eventually(t, func() bool { return !vm.State().Loading }, time.Second, 5*time.Millisecond)

	require.NoError(t, vm.Save(context.Background(), "VALE3", 5))
	require.NoError(t, vm.Save(context.Background(), "VALE3", 8))

	require.Eventually(t, func() bool {
		s := vm.State()
		return len(s.Positions) == 1 && s.Positions[0].Quantity == 8
	}, time.Second, 5*time.Millisecond)
}

func TestInvestments_IdentityChangeDropsStaleEnrichment(t *testing.T) {
	quotes := &fakeQuotes{quotes: map[string]models.Quote{
		"PETR4": {Ticker: "PETR4", LastPrice: 38.52},
	}}
	vm, provider := setupInvestments(t, &models.User{ID: "alice"}, quotes)
	require.Eventually(t, func() bool { return !vm.State().Loading }, time.Second, 5*time.Millisecond)

	require.NoError(t, vm.Save(context.Background(), "PETR4", 1))
	require.Eventually(t, func() bool { return len(vm.State().Positions) == 1 }, time.Second, 5*time.Millisecond)

	provider.fire(&models.User{ID: "bob"})

	require.Eventually(t, func() bool {
		s := vm.State()
		return s.User != nil && s.User.ID == "bob" && !s.Loading
	}, time.Second, 5*time.Millisecond)

	// Enrichment results for alice's generation arrive after the switch and
	// must be discarded.
	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, vm.State().Positions)
}

func TestInvestments_SearchTickers(t *testing.T) {
	vm, _ := setupInvestments(t, &models.User{ID: "alice"}, &fakeQuotes{})

	sugg, err := vm.SearchTickers(context.Background(), "PETR")
	require.NoError(t, err)
	require.Len(t, sugg, 1)
	assert.Equal(t, "PETR4", sugg[0].ID)
}
