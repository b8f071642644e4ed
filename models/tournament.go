package models

import "time"

// Tournament is a single-elimination event. RegistrationOpen flips from
// true to false exactly once, when the bracket is generated.
type Tournament struct {
	ID                   string    `json:"id" db:"id"`
	Name                 string    `json:"name" db:"name"`
	Role                 string    `json:"role" db:"role"`
	MaxPlayers           int       `json:"max_players" db:"max_players"`
	RegistrationOpen     bool      `json:"registration_open" db:"registration_open"`
	CreatedBy            string    `json:"created_by" db:"created_by"`
	WinnerRegistrationID *string   `json:"winner_registration_id,omitempty" db:"winner_registration_id"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`

	Registrations []Registration `json:"registrations,omitempty" db:"-"`
	Matches       []Match        `json:"matches,omitempty" db:"-"`
}

// Registration order is significant: it is the seeding input for bracket
// generation.
type Registration struct {
	ID           string    `json:"id" db:"id"`
	TournamentID string    `json:"tournament_id" db:"tournament_id"`
	UserID       string    `json:"user_id" db:"user_id"`
	Champion     string    `json:"champion" db:"champion"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	User *User `json:"user,omitempty" db:"-"`
}
