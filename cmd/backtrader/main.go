// Program backtrader runs the engine in backtest or live mode against a
// single CSV-backed data feed, driving one strategy and
// serving Prometheus metrics + a health check over HTTP.
//
// Boot sequence:
//   1) config.LoadDotEnv()         – read .env if present
//   2) acct := config.LoadAccountFromEnv()
//   3) engCfg := config.LoadEngineConfig(path) if -config is set
//   4) wire broker/feed(s)/indicators/strategy/engine
//   5) start Prometheus /healthz + /metrics server on acct.Port
//   6) e.Run(ctx) until completion or SIGINT/SIGTERM
//
// Flags:
//
//	-backtest <csv>   Path to CSV (time,open,high,low,close,volume)
//	-config <path>    Optional YAML engine config (see internal/config.EngineConfig)
//	-runonce          Vectorized preload+runonce mode (default true); ANDed with the config value, so -runonce=false disables it
//	-journal <path>   Optional SQLite path for the order/trade journal ("" disables it)
//	-fast, -slow      SMA periods for the bundled crossover example strategy
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chidi150c/backtrader/internal/broker"
	"github.com/chidi150c/backtrader/internal/config"
	"github.com/chidi150c/backtrader/internal/engine"
	"github.com/chidi150c/backtrader/internal/feed"
	"github.com/chidi150c/backtrader/internal/indicator"
	"github.com/chidi150c/backtrader/internal/storage"
)

func main() {
	var csvPath, configPath, journalPath string
	var runonceFlag, preloadFlag bool
	var fastN, slowN int

	flag.StringVar(&csvPath, "backtest", "", "Path to CSV (time,open,high,low,close,volume)")
	flag.StringVar(&configPath, "config", "", "Path to YAML engine config")
	flag.StringVar(&journalPath, "journal", "", "Optional SQLite path for the order/trade journal")
	flag.BoolVar(&runonceFlag, "runonce", true, "Use vectorized preload+runonce mode")
	flag.BoolVar(&preloadFlag, "preload", true, "Preload the full feed before running")
	flag.IntVar(&fastN, "fast", 10, "Fast SMA period for the example crossover strategy")
	flag.IntVar(&slowN, "slow", 30, "Slow SMA period for the example crossover strategy")
	flag.Parse()

	if csvPath == "" {
		log.Fatal("backtrader: -backtest <csv> is required")
	}

	config.LoadDotEnv()
	acct := config.LoadAccountFromEnv()

	engCfg := config.DefaultEngineConfig()
	if configPath != "" {
		var err error
		engCfg, err = config.LoadEngineConfig(configPath)
		if err != nil {
			log.Fatalf("backtrader: load engine config: %v", err)
		}
	}
	engCfg.Runonce = engCfg.Runonce && runonceFlag
	engCfg.Preload = engCfg.Preload && preloadFlag

	var journal *storage.Journal
	if journalPath != "" {
		j, err := storage.Open(journalPath)
		if err != nil {
			log.Fatalf("backtrader: open journal: %v", err)
		}
		journal = j
		defer journal.Close()
	}

	prod, err := feed.NewCSVProducer(csvPath)
	if err != nil {
		log.Fatalf("backtrader: load CSV %q: %v", csvPath, err)
	}
	f := feed.NewFeed(acct.DataRef, prod)

	bro := broker.New(engCfg.StartCash)
	bro.SetCommission(acct.DataRef, broker.CommissionScheme{})

	fast := indicator.NewSMA(f.Line(feed.LineClose), fastN)
	slow := indicator.NewSMA(f.Line(feed.LineClose), slowN)

	strat := newSMACrossStrategy("sma-cross", bro, acct.DataRef, fast, slow)

	ec := engine.Config{
		Preload:     engCfg.Preload,
		Runonce:     engCfg.Runonce,
		Live:        engCfg.Live,
		StdStats:    engCfg.StdStats,
		CheatOnOpen: engCfg.CheatOnOpen,
		BrokerCoo:   engCfg.BrokerCoo,
	}
	e := engine.New(ec, bro)
	e.AddData(acct.DataRef, f)
	e.AddIndicator(fast)
	e.AddIndicator(slow)
	e.AddStrategy(journaling{strat, journal})

	if engCfg.Writer && engCfg.WriterCSVPath != "" {
		logger, err := newCSVLogger(engCfg.WriterCSVPath, f, fast, slow)
		if err != nil {
			log.Fatalf("backtrader: open writer CSV %q: %v", engCfg.WriterCSVPath, err)
		}
		e.AddStrategy(logger) // engine.Run calls Stop() on every strategy, closing the file
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle(acct.MetricsPath, promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", acct.Port), Handler: mux}
	go func() {
		log.Printf("backtrader: serving metrics on :%d%s", acct.Port, acct.MetricsPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("backtrader: http server: %v", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := e.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("backtrader: run: %v", err)
	}

	printReport(bro, acct.DataRef)

	shutdownCtx, c := context.WithTimeout(context.Background(), 2*time.Second)
	defer c()
	_ = srv.Shutdown(shutdownCtx)
}
