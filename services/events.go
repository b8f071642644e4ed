package services

import (
	"github.com/riftarena/arena-system/brackets"
	"github.com/riftarena/arena-system/models"
)

// Event types pushed over the websocket hub.
const (
	EventBalanceChanged    = "BALANCE_CHANGED"
	EventGameStatusChanged = "GAME_STATUS_CHANGED"
	EventBracketAdvanced   = "BRACKET_ADVANCED"
)

// EventPublisher is the notification boundary. Implementations deliver
// events after a successful mutation; the core does not care how.
type EventPublisher interface {
	BalanceChanged(userID string, newBalance int)
	GameStatusChanged(game *models.Game)
	BracketAdvanced(tournamentID string, round int)
}

type balancePayload struct {
	UserID     string `json:"user_id"`
	NewBalance int    `json:"new_balance"`
}

type bracketPayload struct {
	TournamentID string `json:"tournament_id"`
	Round        int    `json:"round"`
}

type hubPublisher struct {
	hub *brackets.Hub
}

// NewHubPublisher adapts the websocket hub to the event boundary.
// Balance events go to the owning user's room, game events to the lobby
// feed, bracket events to the tournament room.
func NewHubPublisher(hub *brackets.Hub) EventPublisher {
	return &hubPublisher{hub: hub}
}

func (p *hubPublisher) BalanceChanged(userID string, newBalance int) {
	room := brackets.UserRoomPrefix + userID
	p.hub.BroadcastToRoom(room, brackets.Message{
		Type:    EventBalanceChanged,
		Payload: balancePayload{UserID: userID, NewBalance: newBalance},
		RoomID:  room,
	})
}

func (p *hubPublisher) GameStatusChanged(game *models.Game) {
	p.hub.BroadcastToRoom(brackets.LobbyRoom, brackets.Message{
		Type:    EventGameStatusChanged,
		Payload: game,
		RoomID:  brackets.LobbyRoom,
	})
}

func (p *hubPublisher) BracketAdvanced(tournamentID string, round int) {
	room := brackets.TournamentRoomPrefix + tournamentID
	p.hub.BroadcastToRoom(room, brackets.Message{
		Type:    EventBracketAdvanced,
		Payload: bracketPayload{TournamentID: tournamentID, Round: round},
		RoomID:  room,
	})
}
