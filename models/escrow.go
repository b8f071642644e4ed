package models

import "time"

type EscrowStatus string

const (
	EscrowReserved EscrowStatus = "reserved"
	EscrowSettled  EscrowStatus = "settled"
	EscrowRefunded EscrowStatus = "refunded"
)

// WagerEscrow holds points taken off a user's balance while a game is
// live. For every game that has not completed or cancelled, the sum of
// reserved amounts equals wager_amount times roster size.
type WagerEscrow struct {
	ID        string       `json:"id" db:"id"`
	GameID    string       `json:"game_id" db:"game_id"`
	UserID    string       `json:"user_id" db:"user_id"`
	Amount    int          `json:"amount" db:"amount"`
	Status    EscrowStatus `json:"status" db:"status"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}
