package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bytebank/banksync/internal/buildinfo"
	"github.com/bytebank/banksync/internal/cli"
	"github.com/bytebank/banksync/internal/config"
	"github.com/bytebank/banksync/internal/docstore"
	"github.com/bytebank/banksync/internal/docstore/memstore"
	"github.com/bytebank/banksync/internal/docstore/pgstore"
	"github.com/bytebank/banksync/internal/identity/localidp"
	"github.com/bytebank/banksync/internal/logging"
	"github.com/bytebank/banksync/internal/quotes"
	"github.com/bytebank/banksync/internal/repositories/cards"
	"github.com/bytebank/banksync/internal/repositories/investments"
	"github.com/bytebank/banksync/internal/repositories/transactions"
	"github.com/bytebank/banksync/internal/session"
	"github.com/bytebank/banksync/internal/viewmodel"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	var store docstore.Store
	if cfg.BackendDSN != "" {
		pg, err := pgstore.New(ctx, cfg.BackendDSN, logger)
		if err != nil {
			log.Fatalf("backend: %v", err)
		}
		store = pg
	} else {
		store = memstore.New()
	}
	defer store.Close()

	if err := os.MkdirAll(filepath.Dir(cfg.SessionFile), 0o700); err != nil {
		log.Fatalf("session dir: %v", err)
	}

	provider := localidp.New(store, []byte(cfg.AuthSecret), cfg.AuthTokenTTL)
	sess := session.New(provider, cfg.SessionFile, logger)

	txRepo := transactions.NewDocRepository(store, logger)
	cardRepo := cards.NewDocRepository(store, logger)
	invRepo := investments.NewDocRepository(store, logger)
	quoteClient := quotes.NewClient(cfg.QuoteAPIBaseURL, cfg.QuoteAPIToken, logger)

	dashboard := viewmodel.NewDashboard(sess, txRepo, logger, cfg.RecentTxLimit)
	cardsVM := viewmodel.NewCards(sess, cardRepo, logger)
	investVM := viewmodel.NewInvestments(sess, invRepo, quoteClient, logger)

	app := cli.NewApp(cfg, sess, dashboard, cardsVM, investVM, quoteClient, logger)
	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
