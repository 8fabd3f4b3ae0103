package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"OmnichainNexus/internal/logx"
)

// SQLiteRecorder persists activity history to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the API read history while the daemon writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logx.Info("RECORDER", "sqlite recorder opened: ", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS wallet_events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			event_type TEXT,
			address    TEXT,
			balance    TEXT,
			demo       INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_wallet_ts ON wallet_events(timestamp)`,

		`CREATE TABLE IF NOT EXISTS task_events (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			event_type   TEXT,
			task_id      TEXT,
			completed    INTEGER,
			total_reward TEXT,
			note         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_task_ts ON task_events(timestamp)`,

		`CREATE TABLE IF NOT EXISTS ledger_events (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp       INTEGER NOT NULL,
			event_type      TEXT,
			address         TEXT,
			amount          TEXT,
			tx_hash         TEXT,
			total_deposited TEXT,
			total_earnings  TEXT,
			claimed_amount  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_ts ON ledger_events(timestamp)`,

		`CREATE TABLE IF NOT EXISTS balance_history (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			address   TEXT,
			balance   TEXT,
			synthetic INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_balance_ts ON balance_history(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordWalletEvent(evt *WalletEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO wallet_events
		(timestamp, event_type, address, balance, demo)
		VALUES (?,?,?,?,?)`,
		r.now().Unix(), evt.EventType, evt.Address, evt.Balance.String(), evt.Demo,
	)
	return err
}

func (r *SQLiteRecorder) RecordTaskEvent(evt *TaskEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO task_events
		(timestamp, event_type, task_id, completed, total_reward, note)
		VALUES (?,?,?,?,?,?)`,
		r.now().Unix(), evt.EventType, evt.TaskID, evt.Completed, evt.TotalReward.String(), evt.Note,
	)
	return err
}

func (r *SQLiteRecorder) RecordLedgerEvent(evt *LedgerEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO ledger_events
		(timestamp, event_type, address, amount, tx_hash, total_deposited, total_earnings, claimed_amount)
		VALUES (?,?,?,?,?,?,?,?)`,
		r.now().Unix(), evt.EventType, evt.Address, evt.Amount.String(), evt.TxHash,
		evt.TotalDeposited.String(), evt.TotalEarnings.String(), evt.ClaimedAmount.String(),
	)
	return err
}

func (r *SQLiteRecorder) RecordBalance(sample *BalanceSample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO balance_history
		(timestamp, address, balance, synthetic)
		VALUES (?,?,?,?)`,
		r.now().Unix(), sample.Address, sample.Balance.String(), sample.Synthetic,
	)
	return err
}

// CountRows returns the number of rows in table. Used by the status report.
func (r *SQLiteRecorder) CountRows(table string) (int, error) {
	switch table {
	case "wallet_events", "task_events", "ledger_events", "balance_history":
	default:
		return 0, fmt.Errorf("unknown table %q", table)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	err := r.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	logx.Info("RECORDER", "closing sqlite recorder")
	return r.db.Close()
}
