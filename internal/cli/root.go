package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
)

func (a *App) getStatus() string {
	snap := a.session.Snapshot()
	if snap.User == nil {
		return ""
	}
	name := snap.User.Name
	if name == "" {
		name = snap.User.Email
	}
	if snap.User.Anonymous {
		name = "guest"
	}
	return fmt.Sprintf(" (%s)", name)
}

func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to banksync (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}
