package main

import (
	"log"
	"os"
	"time"

	"github.com/chidi150c/backtrader/internal/broker"
	"github.com/chidi150c/backtrader/internal/feed"
	"github.com/chidi150c/backtrader/internal/indicator"
	"github.com/chidi150c/backtrader/internal/writer"
)

// csvLogger is a passive engine.Strategy that appends one CSV row per tick
// (close price plus the two SMA values) instead of trading — the bundled
// exercise of the optional `writer` config option named in spec §6.
type csvLogger struct {
	f    *feed.Feed
	fast *indicator.SMAIndicator
	slow *indicator.SMAIndicator
	w    *writer.CSVWriter
	file *os.File
}

func newCSVLogger(path string, f *feed.Feed, fast, slow *indicator.SMAIndicator) (*csvLogger, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := writer.NewCSVWriter(file, []string{"close"}, []string{"sma_fast", "sma_slow"})
	return &csvLogger{f: f, fast: fast, slow: slow, w: w, file: file}, nil
}

func (c *csvLogger) Next() {
	closePrice := c.f.Line(feed.LineClose).Get(0)
	if err := c.w.WriteRow([]float64{closePrice, c.fast.Value().Get(0), c.slow.Value().Get(0)}); err != nil {
		log.Printf("backtrader: csv writer: %v", err)
	}
}

func (c *csvLogger) Start() {}
func (c *csvLogger) Stop() {
	if err := c.w.Close(); err != nil {
		log.Printf("backtrader: csv writer close: %v", err)
	}
	_ = c.file.Close()
}

func (c *csvLogger) NotifyOrder(*broker.Order)                      {}
func (c *csvLogger) NotifyTrade(*broker.Trade)                      {}
func (c *csvLogger) NotifyCashValue(cash, value float64)            {}
func (c *csvLogger) NotifyData(dataRef string, n feed.Notification) {}
func (c *csvLogger) NotifyTimer(id int, when time.Time)             {}
