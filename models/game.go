package models

import "time"

type GameType string

const (
	GameTypeDuel GameType = "duel"
	GameTypeTeam GameType = "team"
)

func (t GameType) Valid() bool {
	return t == GameTypeDuel || t == GameTypeTeam
}

// MaxPerTeam returns the roster capacity of one side: 1v1 for duels,
// 5v5 for team games.
func (t GameType) MaxPerTeam() int {
	if t == GameTypeTeam {
		return 5
	}
	return 1
}

type GameStatus string

const (
	GameStatusOpen       GameStatus = "open"
	GameStatusInProgress GameStatus = "in_progress"
	GameStatusCompleted  GameStatus = "completed"
	GameStatusCancelled  GameStatus = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s GameStatus) Terminal() bool {
	return s == GameStatusCompleted || s == GameStatusCancelled
}

// Game is a wagered lobby with two teams. Status only ever moves forward:
// open -> in_progress -> completed, with cancelled reachable from the two
// non-terminal states.
type Game struct {
	ID          string     `json:"id" db:"id"`
	Type        GameType   `json:"type" db:"type"`
	WagerAmount int        `json:"wager_amount" db:"wager_amount"`
	Status      GameStatus `json:"status" db:"status"`
	CreatorID   string     `json:"creator_id" db:"creator_id"`
	WinnerTeam  *int       `json:"winner_team,omitempty" db:"winner_team"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`

	Players []GamePlayer `json:"players,omitempty" db:"-"`
}

type GamePlayer struct {
	ID       string    `json:"id" db:"id"`
	GameID   string    `json:"game_id" db:"game_id"`
	UserID   string    `json:"user_id" db:"user_id"`
	Team     int       `json:"team" db:"team"`
	JoinedAt time.Time `json:"joined_at" db:"joined_at"`

	User *User `json:"user,omitempty" db:"-"`
}
