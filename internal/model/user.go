package model

import "github.com/shopspring/decimal"

// Account is the cash balance of the logged-in session.
type Account struct {
	Username string
	Balance  decimal.Decimal
}

// UserRecord is one entry of the persisted user directory.
type UserRecord struct {
	PasswordHash string
	Balance      decimal.Decimal
}
