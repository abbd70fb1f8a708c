// Package store is the durable persistence boundary: a user directory,
// per-user holdings snapshots, and a per-user append-only transaction log.
// Transactions are stored in chronological (append) order; display ordering
// is the ledger's concern.
package store

import "QuantumTrader/internal/model"

// Store persists session state. SaveUsers and SaveHoldings are full
// overwrites; AppendTransaction only ever appends, never rewrites prior
// entries.
type Store interface {
	LoadUsers() (map[string]model.UserRecord, error)
	SaveUsers(users map[string]model.UserRecord) error

	LoadHoldings(username string) ([]model.Holding, error)
	SaveHoldings(username string, holdings []model.Holding) error

	AppendTransaction(username string, tx model.Transaction) error
	LoadTransactions(username string) ([]model.Transaction, error)

	Close() error
}
