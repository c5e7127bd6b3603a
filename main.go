package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/swapsim/config"
	"github.com/vadiminshakov/swapsim/internal/domain"
	"github.com/vadiminshakov/swapsim/internal/events"
	"github.com/vadiminshakov/swapsim/internal/services/feed"
	"github.com/vadiminshakov/swapsim/internal/services/icons"
	"github.com/vadiminshakov/swapsim/internal/services/ledger"
	"github.com/vadiminshakov/swapsim/internal/services/swap"
	"github.com/vadiminshakov/swapsim/internal/setup"
	"github.com/vadiminshakov/swapsim/internal/web"
)

const startupFetchTimeout = 30 * time.Second

func main() {
	// the terminal form owns the screen, so logs go nowhere in tui mode
	tuiMode := os.Getenv("SWAPSIM_TUI") == "1"

	logger := zap.NewNop()
	if !tuiMode {
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	conf, err := config.Get()
	if err != nil {
		logger.Fatal("failed to get configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetchCtx, cancel := context.WithTimeout(ctx, startupFetchTimeout)
	defer cancel()

	source := feed.NewHTTPSource(conf.FeedURL, logger)
	entries, err := source.Fetch(fetchCtx)
	if err != nil {
		logger.Fatal("failed to fetch price feed", zap.Error(err))
	}
	table := domain.BuildPriceTable(entries)
	logger.Info("price table built", zap.Int("currencies", len(table)))

	resolver, err := icons.Fetch(fetchCtx, conf.IconListingURL, conf.IconBaseURL, logger)
	if err != nil {
		logger.Warn("icon listing unavailable, falling back to plain names", zap.Error(err))
		resolver = icons.New(conf.IconBaseURL, nil)
	}

	balances := make(map[string]decimal.Decimal, len(table))
	for code := range table {
		balances[code] = decimal.Zero
	}
	for code, bal := range conf.Balances {
		balances[code] = bal
	}

	led := ledger.NewInMemory(balances, logger)
	broadcaster := events.NewSnapshotBroadcaster(256)
	engine := swap.New(table, led, logger, broadcaster, resolver, swap.Options{
		SettleDelay:   conf.SettleDelay,
		SettleTimeout: conf.SettleTimeout,
		DisplayDigits: conf.DisplayDigits,
	})

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("web ui listening", zap.String("addr", conf.ListenAddr))
		return web.NewServer(conf.ListenAddr, engine, broadcaster).Start(ctx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(conf.RefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				entries, err := source.Fetch(ctx)
				if err != nil {
					logger.Error("price feed refresh failed", zap.Error(err))
					continue
				}
				engine.SetTable(domain.BuildPriceTable(entries))
				logger.Debug("price table refreshed")
			}
		}
	})

	if tuiMode {
		g.Go(func() error {
			defer stop()
			return setup.RunTUI(ctx, engine)
		})
	}

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Error(err.Error())
	}
}
