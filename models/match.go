package models

import "time"

type MatchState string

const (
	MatchPending   MatchState = "pending"
	MatchSubmitted MatchState = "submitted"
	MatchVerified  MatchState = "verified"
)

// Match is one bracket pairing. Player references point at tournament
// registrations; Player2 is nil for a bye. Once State reaches verified
// the winner is fixed for good.
type Match struct {
	ID           string     `json:"id" db:"id"`
	TournamentID string     `json:"tournament_id" db:"tournament_id"`
	Round        int        `json:"round" db:"round"`
	Slot         int        `json:"slot" db:"slot"`
	Player1ID    *string    `json:"player1_registration_id,omitempty" db:"player1_registration_id"`
	Player2ID    *string    `json:"player2_registration_id,omitempty" db:"player2_registration_id"`
	WinnerID     *string    `json:"winner_registration_id,omitempty" db:"winner_registration_id"`
	EvidenceRef  *string    `json:"evidence_ref,omitempty" db:"evidence_ref"`
	State        MatchState `json:"state" db:"state"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`

	Player1 *Registration `json:"player1,omitempty" db:"-"`
	Player2 *Registration `json:"player2,omitempty" db:"-"`
	Winner  *Registration `json:"winner,omitempty" db:"-"`
}

func (m *Match) Verified() bool {
	return m.State == MatchVerified
}

// IsBye reports whether the match was an automatic advance with no
// opponent. Bye matches are created already verified.
func (m *Match) IsBye() bool {
	return m.Player1ID != nil && m.Player2ID == nil
}

// HasParticipant reports whether the given registration plays in this
// match.
func (m *Match) HasParticipant(registrationID string) bool {
	if m.Player1ID != nil && *m.Player1ID == registrationID {
		return true
	}
	if m.Player2ID != nil && *m.Player2ID == registrationID {
		return true
	}
	return false
}
