package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"QuantumTrader/internal/model"

	"github.com/shopspring/decimal"
)

// CSVStore keeps session state in plain CSV files under one data directory:
// users.csv, portfolio_<user>.csv (full overwrite per trade) and
// tx_<user>.csv (append-only).
type CSVStore struct {
	dir string
}

// NewCSVStore creates the data directory if needed.
func NewCSVStore(dir string) (*CSVStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &CSVStore{dir: dir}, nil
}

func (s *CSVStore) usersPath() string { return filepath.Join(s.dir, "users.csv") }

func (s *CSVStore) portfolioPath(username string) string {
	return filepath.Join(s.dir, "portfolio_"+username+".csv")
}

func (s *CSVStore) txPath(username string) string {
	return filepath.Join(s.dir, "tx_"+username+".csv")
}

func (s *CSVStore) LoadUsers() (map[string]model.UserRecord, error) {
	rows, err := readCSV(s.usersPath())
	if err != nil {
		return nil, err
	}
	users := make(map[string]model.UserRecord)
	for _, r := range rows {
		if len(r) < 3 {
			continue
		}
		bal, err := decimal.NewFromString(r[2])
		if err != nil {
			return nil, fmt.Errorf("user %s balance %q: %w", r[0], r[2], err)
		}
		users[r[0]] = model.UserRecord{PasswordHash: r[1], Balance: bal}
	}
	return users, nil
}

func (s *CSVStore) SaveUsers(users map[string]model.UserRecord) error {
	names := make([]string, 0, len(users))
	for name := range users {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(users))
	for _, name := range names {
		rec := users[name]
		rows = append(rows, []string{name, rec.PasswordHash, rec.Balance.String()})
	}
	return writeCSV(s.usersPath(), rows)
}

func (s *CSVStore) LoadHoldings(username string) ([]model.Holding, error) {
	rows, err := readCSV(s.portfolioPath(username))
	if err != nil {
		return nil, err
	}
	var out []model.Holding
	for _, r := range rows {
		if len(r) < 3 {
			continue
		}
		qty, err := strconv.ParseInt(r[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("holding %s quantity %q: %w", r[0], r[1], err)
		}
		avg, err := decimal.NewFromString(r[2])
		if err != nil {
			return nil, fmt.Errorf("holding %s avg cost %q: %w", r[0], r[2], err)
		}
		out = append(out, model.Holding{Symbol: r[0], Quantity: qty, AvgCost: avg})
	}
	return out, nil
}

func (s *CSVStore) SaveHoldings(username string, holdings []model.Holding) error {
	rows := make([][]string, 0, len(holdings))
	for _, h := range holdings {
		rows = append(rows, []string{h.Symbol, strconv.FormatInt(h.Quantity, 10), h.AvgCost.String()})
	}
	return writeCSV(s.portfolioPath(username), rows)
}

func (s *CSVStore) AppendTransaction(username string, tx model.Transaction) error {
	f, err := os.OpenFile(s.txPath(username), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open transaction log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		tx.ID,
		string(tx.Kind),
		tx.Symbol,
		strconv.FormatInt(tx.Quantity, 10),
		tx.Price.String(),
		tx.ExecutedAt.Format(time.RFC3339Nano),
	}); err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}
	return nil
}

func (s *CSVStore) LoadTransactions(username string) ([]model.Transaction, error) {
	rows, err := readCSV(s.txPath(username))
	if err != nil {
		return nil, err
	}
	var out []model.Transaction
	for _, r := range rows {
		if len(r) < 6 {
			continue
		}
		qty, err := strconv.ParseInt(r[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("transaction %s quantity %q: %w", r[0], r[3], err)
		}
		price, err := decimal.NewFromString(r[4])
		if err != nil {
			return nil, fmt.Errorf("transaction %s price %q: %w", r[0], r[4], err)
		}
		at, err := time.Parse(time.RFC3339Nano, r[5])
		if err != nil {
			return nil, fmt.Errorf("transaction %s timestamp %q: %w", r[0], r[5], err)
		}
		out = append(out, model.Transaction{
			ID:         r[0],
			Kind:       model.TradeKind(r[1]),
			Symbol:     r[2],
			Quantity:   qty,
			Price:      price,
			ExecutedAt: at,
		})
	}
	return out, nil
}

func (s *CSVStore) Close() error { return nil }

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
