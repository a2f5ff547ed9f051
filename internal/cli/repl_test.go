package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// stubExec records every dispatched command.
type stubExec struct {
	loggedIn bool
	calls    []string
}

func (s *stubExec) record(name string) error {
	s.calls = append(s.calls, name)
	return nil
}

func (s *stubExec) isLoggedIn() bool                    { return s.loggedIn }
func (s *stubExec) Register(context.Context) error      { return s.record("register") }
func (s *stubExec) Login(context.Context) error         { return s.record("login") }
func (s *stubExec) Anonymous(context.Context) error     { return s.record("anon") }
func (s *stubExec) Logout(context.Context) error        { return s.record("logout") }
func (s *stubExec) Balance(context.Context) error       { return s.record("balance") }
func (s *stubExec) List(context.Context) error          { return s.record("list") }
func (s *stubExec) Credit(context.Context) error        { return s.record("credit") }
func (s *stubExec) Debit(context.Context) error         { return s.record("debit") }
func (s *stubExec) Cards(context.Context) error         { return s.record("cards") }
func (s *stubExec) AddCard(context.Context) error       { return s.record("addcard") }
func (s *stubExec) Positions(context.Context) error     { return s.record("positions") }
func (s *stubExec) Sell(_ context.Context, id string) error { return s.record("sell " + id) }
func (s *stubExec) Quote(_ context.Context, ticker string) error {
	return s.record("quote " + ticker)
}
func (s *stubExec) Search(_ context.Context, query string) error {
	return s.record("search " + query)
}
func (s *stubExec) Buy(_ context.Context, ticker, qty string) error {
	return s.record("buy " + ticker + " " + qty)
}
func (s *stubExec) SetCardBlocked(_ context.Context, id string, blocked bool) error {
	if blocked {
		return s.record("block " + id)
	}
	return s.record("unblock " + id)
}

func runScript(t *testing.T, exec *stubExec, script string) []string {
	t.Helper()

	var output []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		parts := make([]string, 0, len(a))
		for _, v := range a {
			if s, ok := v.(string); ok {
				parts = append(parts, s)
			}
		}
		output = append(output, strings.Join(parts, " "))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })

	scanner := bufio.NewScanner(strings.NewReader(script))
	runREPL(context.Background(), exec, func() string { return "" }, scanner)
	return output
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	exec := &stubExec{loggedIn: true}
	runScript(t, exec, "balance\nlist\ncredit\nblock card-1\nbuy PETR4 10\nquote VALE3\nexit\n")

	assert.Equal(t, []string{"balance", "list", "credit", "block card-1", "buy PETR4 10", "quote VALE3"}, exec.calls)
}

func TestRunREPL_UsageForMissingArgs(t *testing.T) {
	exec := &stubExec{loggedIn: true}
	output := runScript(t, exec, "block\nbuy PETR4\nsell\nquote\nexit\n")

	assert.Empty(t, exec.calls)
	joined := strings.Join(output, "\n")
	assert.Contains(t, joined, "Usage: block <card id>")
	assert.Contains(t, joined, "Usage: buy <ticker> <quantity>")
}

func TestRunREPL_HelpTracksAuthState(t *testing.T) {
	out := runScript(t, &stubExec{loggedIn: false}, "help\nexit\n")
	assert.Contains(t, strings.Join(out, "\n"), "register, login, anon")

	out = runScript(t, &stubExec{loggedIn: true}, "help\nexit\n")
	assert.Contains(t, strings.Join(out, "\n"), "balance")
}

func TestRunREPL_UnknownCommand(t *testing.T) {
	out := runScript(t, &stubExec{}, "frobnicate\nexit\n")
	assert.Contains(t, strings.Join(out, "\n"), "Unknown command:")
}

func TestRunREPL_ExitsOnEOF(t *testing.T) {
	exec := &stubExec{}
	runScript(t, exec, "")
	assert.Empty(t, exec.calls)
}
