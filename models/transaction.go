package models

import "time"

type TransactionType string

const (
	TransactionWagerReserve TransactionType = "WAGER_RESERVE"
	TransactionWagerWin     TransactionType = "WAGER_WIN"
	TransactionWagerRefund  TransactionType = "WAGER_REFUND"
	TransactionPurchase     TransactionType = "PURCHASE"
	TransactionAdminAdjust  TransactionType = "ADMIN_ADJUST"
)

// Transaction is one row of the wallet log. Amount is signed: reserves
// and purchases are negative, wins and refunds positive.
type Transaction struct {
	ID          string          `json:"id" db:"id"`
	UserID      string          `json:"user_id" db:"user_id"`
	Amount      int             `json:"amount" db:"amount"`
	Type        TransactionType `json:"type" db:"type"`
	Description *string         `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}
