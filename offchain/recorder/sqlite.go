package recorder

import (
	"database/sql"
	"fmt"
	"sync"

	"cosmossdk.io/log"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists marks to a SQLite database
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger log.Logger
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations
func NewSQLiteRecorder(dbPath string, logger log.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the API read history while marks are written
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger.With("module", "recorder")}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.logger.Info("sqlite recorder opened", "path", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS marks (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			height        INTEGER NOT NULL,
			timestamp     INTEGER NOT NULL,
			op            TEXT NOT NULL,
			phase         TEXT NOT NULL,
			senior_price  TEXT NOT NULL,
			junior_price  TEXT NOT NULL,
			senior_supply TEXT NOT NULL,
			junior_supply TEXT NOT NULL,
			eth_reserve   TEXT NOT NULL,
			eth_rate      TEXT NOT NULL,
			dai_rate      TEXT NOT NULL,
			update_count  INTEGER NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_marks_height ON marks(height)`,
		`CREATE INDEX IF NOT EXISTS idx_marks_ts ON marks(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordMark stores a mark, replacing any mark at the same height
func (r *SQLiteRecorder) RecordMark(m *Mark) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT OR REPLACE INTO marks
		(height, timestamp, op, phase, senior_price, junior_price,
		 senior_supply, junior_supply, eth_reserve, eth_rate, dai_rate, update_count)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		m.Height, m.Timestamp, m.Op, m.Phase, m.SeniorPrice, m.JuniorPrice,
		m.SeniorSupply, m.JuniorSupply, m.EthReserve, m.EthRate, m.DaiRate, m.UpdateCount,
	)
	return err
}

// History returns up to limit marks, newest first
func (r *SQLiteRecorder) History(limit int) ([]Mark, error) {
	if limit <= 0 {
		limit = 100
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT height, timestamp, op, phase, senior_price, junior_price,
		senior_supply, junior_supply, eth_reserve, eth_rate, dai_rate, update_count
		FROM marks ORDER BY height DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query marks: %w", err)
	}
	defer rows.Close()

	var marks []Mark
	for rows.Next() {
		var m Mark
		if err := rows.Scan(&m.Height, &m.Timestamp, &m.Op, &m.Phase, &m.SeniorPrice, &m.JuniorPrice,
			&m.SeniorSupply, &m.JuniorSupply, &m.EthReserve, &m.EthRate, &m.DaiRate, &m.UpdateCount); err != nil {
			return nil, fmt.Errorf("scan mark: %w", err)
		}
		marks = append(marks, m)
	}
	return marks, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
