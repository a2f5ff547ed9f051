package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface defines the command surface the loop dispatches to. The real
// App type satisfies it; tests provide a stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Anonymous(ctx context.Context) error
	Logout(ctx context.Context) error
	Balance(ctx context.Context) error
	List(ctx context.Context) error
	Credit(ctx context.Context) error
	Debit(ctx context.Context) error
	Cards(ctx context.Context) error
	AddCard(ctx context.Context) error
	SetCardBlocked(ctx context.Context, id string, blocked bool) error
	Positions(ctx context.Context) error
	Buy(ctx context.Context, ticker, quantity string) error
	Sell(ctx context.Context, id string) error
	Quote(ctx context.Context, ticker string) error
	Search(ctx context.Context, query string) error
}

// runREPL reads a line from scanner, parses the first token as the command
// and dispatches to a. The loop exits on EOF or "exit"/"quit". Handlers
// report their own errors; failures never break the loop.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("bank%s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: balance, (l)ist, credit, debit, cards, addcard, block <id>, unblock <id>, positions, buy <ticker> <qty>, sell <id>, quote <ticker>, search <text>, logout, exit")
			} else {
				printlnFn("Available commands: register, login, anon, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "anon":
			_ = a.Anonymous(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "balance":
			_ = a.Balance(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "credit":
			_ = a.Credit(ctx)

		case "debit":
			_ = a.Debit(ctx)

		case "cards":
			_ = a.Cards(ctx)

		case "addcard":
			_ = a.AddCard(ctx)

		case "block", "unblock":
			if len(args) == 0 {
				printlnFn("Usage:", cmd, "<card id>")
				continue
			}
			_ = a.SetCardBlocked(ctx, args[0], cmd == "block")

		case "positions":
			_ = a.Positions(ctx)

		case "buy":
			if len(args) < 2 {
				printlnFn("Usage: buy <ticker> <quantity>")
				continue
			}
			_ = a.Buy(ctx, args[0], args[1])

		case "sell":
			if len(args) == 0 {
				printlnFn("Usage: sell <position id>")
				continue
			}
			_ = a.Sell(ctx, args[0])

		case "quote":
			if len(args) == 0 {
				printlnFn("Usage: quote <ticker>")
				continue
			}
			_ = a.Quote(ctx, args[0])

		case "search":
			if len(args) == 0 {
				printlnFn("Usage: search <text>")
				continue
			}
			_ = a.Search(ctx, strings.Join(args, " "))

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
