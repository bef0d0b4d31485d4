// Package storage implements the optional SQLite-backed order/trade journal.
// It is an alternative to keeping run history only in memory: the engine's
// notification dispatch can feed it order and trade updates as they occur,
// and it can be queried after a run for a durable record independent of the
// process lifetime.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/chidi150c/backtrader/internal/broker"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	ref            TEXT PRIMARY KEY,
	owner_ref      TEXT NOT NULL,
	data_ref       TEXT NOT NULL,
	side           TEXT NOT NULL,
	type           INTEGER NOT NULL,
	size           REAL NOT NULL,
	price          REAL NOT NULL,
	status         TEXT NOT NULL,
	executed_size  REAL NOT NULL,
	executed_price REAL NOT NULL,
	commission     REAL NOT NULL,
	submitted_at   DATETIME,
	updated_at     DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_data_ref ON orders(data_ref);

CREATE TABLE IF NOT EXISTS trades (
	ref         TEXT PRIMARY KEY,
	data_ref    TEXT NOT NULL,
	size        REAL NOT NULL,
	entry_price REAL NOT NULL,
	open_at     DATETIME,
	close_at    DATETIME,
	commission  REAL NOT NULL,
	pnl         REAL NOT NULL,
	pnl_comm    REAL NOT NULL,
	status      TEXT NOT NULL,
	updated_at  DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trades_data_ref ON trades(data_ref);
`

// cachedStatus lets RecordOrder/RecordTrade skip a write when nothing the
// journal cares about has changed since the last call for that ref.
type cachedStatus struct {
	status        string
	executedSize  float64
	size          float64 // trades: signed open size; orders: unused (see executedSize)
}

// Journal is a SQLite-backed append/upsert log of every order and trade the
// engine notifies it about. Single-writer, like SQLite itself: callers are
// expected to invoke RecordOrder/RecordTrade from the engine's notification
// dispatch goroutine only.
type Journal struct {
	db *sql.DB

	mu         sync.Mutex
	orderCache map[string]cachedStatus
	tradeCache map[string]cachedStatus
}

// Open creates (or reuses) the SQLite database at path and applies the
// schema. Use ":memory:" for an ephemeral journal, e.g. in tests.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.Open: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.Open: apply schema: %w", err)
	}

	return &Journal{
		db:         db,
		orderCache: make(map[string]cachedStatus),
		tradeCache: make(map[string]cachedStatus),
	}, nil
}

// Close releases the underlying database handle.
func (j *Journal) Close() error {
	return j.db.Close()
}

// RecordOrder upserts an order's current state. A no-op if the order's
// status and executed size haven't moved since the last recorded call.
func (j *Journal) RecordOrder(ctx context.Context, o *broker.Order) error {
	if o == nil {
		return nil
	}

	cur := cachedStatus{status: o.Status.String(), executedSize: o.ExecutedSize}

	j.mu.Lock()
	if prev, ok := j.orderCache[o.Ref]; ok && prev == cur {
		j.mu.Unlock()
		return nil
	}
	j.orderCache[o.Ref] = cur
	j.mu.Unlock()

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO orders
			(ref, owner_ref, data_ref, side, type, size, price, status,
			 executed_size, executed_price, commission, submitted_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ref) DO UPDATE SET
			status         = excluded.status,
			executed_size  = excluded.executed_size,
			executed_price = excluded.executed_price,
			commission     = excluded.commission,
			updated_at     = excluded.updated_at
	`,
		o.Ref, o.OwnerRef, o.DataRef, o.Side.String(), int(o.Type), o.Size, o.Price,
		o.Status.String(), o.ExecutedSize, o.ExecutedPrice, o.Commission,
		nullableTime(o.SubmittedAt), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage.RecordOrder: %w", err)
	}
	return nil
}

// RecordTrade upserts a trade's current state. A no-op if neither status
// nor open size has moved since the last recorded call.
func (j *Journal) RecordTrade(ctx context.Context, t *broker.Trade) error {
	if t == nil {
		return nil
	}

	cur := cachedStatus{status: t.Status.String(), size: t.Size}

	j.mu.Lock()
	if prev, ok := j.tradeCache[t.Ref]; ok && prev == cur {
		j.mu.Unlock()
		return nil
	}
	j.tradeCache[t.Ref] = cur
	j.mu.Unlock()

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO trades
			(ref, data_ref, size, entry_price, open_at, close_at,
			 commission, pnl, pnl_comm, status, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ref) DO UPDATE SET
			size       = excluded.size,
			close_at   = excluded.close_at,
			commission = excluded.commission,
			pnl        = excluded.pnl,
			pnl_comm   = excluded.pnl_comm,
			status     = excluded.status,
			updated_at = excluded.updated_at
	`,
		t.Ref, t.DataRef, t.Size, t.EntryPrice, nullableTime(t.OpenAt), nullableTime(t.CloseAt),
		t.Commission, t.PnL, t.PnLComm, t.Status.String(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage.RecordTrade: %w", err)
	}
	return nil
}

// OrderCount returns the number of distinct orders recorded, for tests and
// diagnostics.
func (j *Journal) OrderCount(ctx context.Context) (int, error) {
	var n int
	err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n)
	return n, err
}

// TradeCount returns the number of distinct trades recorded.
func (j *Journal) TradeCount(ctx context.Context) (int, error) {
	var n int
	err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trades`).Scan(&n)
	return n, err
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
