package store

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"QuantumTrader/internal/model"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists session state to a SQLite database. Money columns are
// stored as decimal strings, never floats.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so engine-adjacent readers are not blocked by trade writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite store opened: %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			username      TEXT PRIMARY KEY,
			password_hash TEXT NOT NULL,
			balance       TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS holdings (
			username TEXT NOT NULL,
			symbol   TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			avg_cost TEXT NOT NULL,
			PRIMARY KEY (username, symbol)
		)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			seq         INTEGER PRIMARY KEY AUTOINCREMENT,
			id          TEXT NOT NULL UNIQUE,
			username    TEXT NOT NULL,
			kind        TEXT NOT NULL,
			symbol      TEXT NOT NULL,
			quantity    INTEGER NOT NULL,
			price       TEXT NOT NULL,
			executed_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tx_user ON transactions(username, seq)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) LoadUsers() (map[string]model.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT username, password_hash, balance FROM users`)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	defer rows.Close()

	users := make(map[string]model.UserRecord)
	for rows.Next() {
		var name, hash, balance string
		if err := rows.Scan(&name, &hash, &balance); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		bal, err := decimal.NewFromString(balance)
		if err != nil {
			return nil, fmt.Errorf("user %s balance %q: %w", name, balance, err)
		}
		users[name] = model.UserRecord{PasswordHash: hash, Balance: bal}
	}
	return users, rows.Err()
}

func (s *SQLiteStore) SaveUsers(users map[string]model.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save users: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM users`); err != nil {
		return fmt.Errorf("clear users: %w", err)
	}
	for name, rec := range users {
		if _, err := tx.Exec(`INSERT INTO users (username, password_hash, balance) VALUES (?,?,?)`,
			name, rec.PasswordHash, rec.Balance.String()); err != nil {
			return fmt.Errorf("insert user %s: %w", name, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadHoldings(username string) ([]model.Holding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT symbol, quantity, avg_cost FROM holdings WHERE username = ? ORDER BY symbol`, username)
	if err != nil {
		return nil, fmt.Errorf("load holdings: %w", err)
	}
	defer rows.Close()

	var out []model.Holding
	for rows.Next() {
		var h model.Holding
		var avg string
		if err := rows.Scan(&h.Symbol, &h.Quantity, &avg); err != nil {
			return nil, fmt.Errorf("scan holding: %w", err)
		}
		if h.AvgCost, err = decimal.NewFromString(avg); err != nil {
			return nil, fmt.Errorf("holding %s avg_cost %q: %w", h.Symbol, avg, err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveHoldings(username string, holdings []model.Holding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save holdings: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM holdings WHERE username = ?`, username); err != nil {
		return fmt.Errorf("clear holdings: %w", err)
	}
	for _, h := range holdings {
		if _, err := tx.Exec(`INSERT INTO holdings (username, symbol, quantity, avg_cost) VALUES (?,?,?,?)`,
			username, h.Symbol, h.Quantity, h.AvgCost.String()); err != nil {
			return fmt.Errorf("insert holding %s: %w", h.Symbol, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) AppendTransaction(username string, tx model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO transactions (id, username, kind, symbol, quantity, price, executed_at) VALUES (?,?,?,?,?,?,?)`,
		tx.ID, username, string(tx.Kind), tx.Symbol, tx.Quantity, tx.Price.String(), tx.ExecutedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LoadTransactions(username string) ([]model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT id, kind, symbol, quantity, price, executed_at FROM transactions WHERE username = ? ORDER BY seq`,
		username)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var t model.Transaction
		var kind, price string
		var at int64
		if err := rows.Scan(&t.ID, &kind, &t.Symbol, &t.Quantity, &price, &at); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if t.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("transaction %s price %q: %w", t.ID, price, err)
		}
		t.Kind = model.TradeKind(kind)
		t.ExecutedAt = time.Unix(0, at)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	log.Println("[INFO] closing sqlite store")
	return s.db.Close()
}
