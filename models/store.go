package models

import "time"

type StoreItem struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Cost        int       `json:"cost" db:"cost"`
	ItemType    string    `json:"item_type" db:"item_type"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Redemption records a store purchase. Fulfillment happens outside the
// core; the row only tracks whether it has been handled.
type Redemption struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	ItemID    string    `json:"item_id" db:"item_id"`
	Fulfilled bool      `json:"fulfilled" db:"fulfilled"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
