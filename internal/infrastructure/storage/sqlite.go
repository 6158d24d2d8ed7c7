package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/melon/backtest_engine/internal/domain"
)

type SQLiteStore struct {
	db *sql.DB
}

// Interface checks.
var (
	_ domain.HistoryProvider = (*SQLiteStore)(nil)
	_ domain.TradeRecorder   = (*SQLiteStore)(nil)
	_ domain.TradeRepository = (*SQLiteStore)(nil)
	_ domain.BarWriter       = (*SQLiteStore)(nil)
)

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS assets (
			symbol TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS price_history (
			symbol TEXT NOT NULL,
			ts DATETIME NOT NULL,
			open REAL NOT NULL,
			high REAL NOT NULL,
			low REAL NOT NULL,
			close REAL NOT NULL,
			volume REAL NOT NULL,
			PRIMARY KEY (symbol, ts)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_price_history_symbol ON price_history(symbol);`,
		`CREATE TABLE IF NOT EXISTS trades (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT NOT NULL,
			side TEXT NOT NULL,
			entry_price REAL NOT NULL,
			size REAL NOT NULL,
			stop_loss REAL NOT NULL,
			take_profit REAL NOT NULL,
			confidence REAL NOT NULL,
			status TEXT NOT NULL,
			exit_price REAL,
			pnl REAL,
			opened_at DATETIME NOT NULL,
			closed_at DATETIME
		);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// HistoryProvider implementation

// LoadSeries loads the full ordered bar history for a symbol. An unknown
// symbol is ErrAssetNotFound; a known symbol with no rows is ErrNoHistory.
func (s *SQLiteStore) LoadSeries(ctx context.Context, symbol string) (*domain.PriceSeries, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM assets WHERE symbol = ?", symbol).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, domain.ErrAssetNotFound)
	}

	query := `SELECT ts, open, high, low, close, volume FROM price_history
			  WHERE symbol = ? ORDER BY ts ASC`
	rows, err := s.db.QueryContext(ctx, query, symbol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []domain.Bar
	for rows.Next() {
		var b domain.Bar
		if err := rows.Scan(&b.Time, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, domain.ErrNoHistory)
	}

	return domain.NewPriceSeries(symbol, bars)
}

// BarWriter implementation

func (s *SQLiteStore) EnsureAsset(ctx context.Context, symbol string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assets (symbol, created_at) VALUES (?, ?)
		 ON CONFLICT(symbol) DO NOTHING`,
		symbol, time.Now().UTC())
	return err
}

func (s *SQLiteStore) SaveBars(ctx context.Context, symbol string, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO price_history (symbol, ts, open, high, low, close, volume)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(symbol, ts) DO UPDATE SET
		 open=excluded.open, high=excluded.high, low=excluded.low,
		 close=excluded.close, volume=excluded.volume`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, symbol, b.Time.UTC(), b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ReplaceBars drops any existing history for the symbol before inserting,
// so that synthetic and real data never mix.
func (s *SQLiteStore) ReplaceBars(ctx context.Context, symbol string, bars []domain.Bar) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM price_history WHERE symbol = ?", symbol); err != nil {
		return err
	}
	return s.SaveBars(ctx, symbol, bars)
}

// ListSymbols returns all known asset symbols.
func (s *SQLiteStore) ListSymbols(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT symbol FROM assets ORDER BY symbol")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, err
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

// TradeRecorder implementation

func (s *SQLiteStore) OpenTrade(ctx context.Context, symbol string, side domain.Side, entry, size, stopLoss, takeProfit, confidence float64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO trades (symbol, side, entry_price, size, stop_loss, take_profit, confidence, status, opened_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 'OPEN', ?)`,
		symbol, side, entry, size, stopLoss, takeProfit, confidence, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) CloseTrade(ctx context.Context, id int64, exitPrice, pnl float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE trades SET status='CLOSED', exit_price=?, pnl=?, closed_at=? WHERE id=?`,
		exitPrice, pnl, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("trade %d not found", id)
	}
	return nil
}

// TradeRepository implementation

func (s *SQLiteStore) ListTrades(ctx context.Context, limit int) ([]*domain.TradeRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, symbol, side, entry_price, size, stop_loss, take_profit, confidence, status,
			  COALESCE(exit_price, 0), COALESCE(pnl, 0), opened_at, COALESCE(closed_at, opened_at)
			  FROM trades ORDER BY id DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []*domain.TradeRecord
	for rows.Next() {
		var t domain.TradeRecord
		if err := rows.Scan(&t.ID, &t.Symbol, &t.Side, &t.EntryPrice, &t.Size, &t.StopLoss,
			&t.TakeProfit, &t.Confidence, &t.Status, &t.ExitPrice, &t.PnL, &t.OpenedAt, &t.ClosedAt); err != nil {
			return nil, err
		}
		trades = append(trades, &t)
	}
	return trades, rows.Err()
}

// DeleteTrades clears all recorded trades, used before a fresh batch run.
func (s *SQLiteStore) DeleteTrades(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM trades")
	return err
}
