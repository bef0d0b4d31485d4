package main

import (
	"context"
	"log"

	"github.com/chidi150c/backtrader/internal/broker"
	"github.com/chidi150c/backtrader/internal/storage"
)

// journaling wraps a strategy so every order/trade notification is also
// persisted to an optional SQLite journal, without the strategy itself
// needing to know the journal exists.
type journaling struct {
	*smaCrossStrategy
	journal *storage.Journal
}

func (j journaling) NotifyOrder(o *broker.Order) {
	j.smaCrossStrategy.NotifyOrder(o)
	if j.journal == nil {
		return
	}
	if err := j.journal.RecordOrder(context.Background(), o); err != nil {
		logJournalErr("order", err)
	}
}

func (j journaling) NotifyTrade(t *broker.Trade) {
	j.smaCrossStrategy.NotifyTrade(t)
	if j.journal == nil {
		return
	}
	if err := j.journal.RecordTrade(context.Background(), t); err != nil {
		logJournalErr("trade", err)
	}
}

func logJournalErr(kind string, err error) {
	log.Printf("backtrader: journal %s write failed: %v", kind, err)
}
