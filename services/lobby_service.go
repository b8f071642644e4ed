package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/riftarena/arena-system/models"
	"github.com/riftarena/arena-system/repositories"
)

type CreateGameInput struct {
	Type        models.GameType `json:"type"`
	WagerAmount int             `json:"wager_amount"`
	// JoinTeam, when set, auto-joins the creator on that team right
	// after the game is created.
	JoinTeam *int `json:"join_team,omitempty"`
}

// LobbyService runs wagered games: creation, slot allocation, result
// verification with settlement, and cancellation with refunds. All
// mutations on one game are serialized by a per-game lock, so two joins
// racing for the last slot resolve to exactly one success.
type LobbyService interface {
	Create(ctx context.Context, actor Actor, input CreateGameInput) (*models.Game, error)
	Join(ctx context.Context, gameID string, actor Actor, team int) (*models.Game, error)
	Verify(ctx context.Context, gameID string, actor Actor, winnerTeam int) (*models.Game, error)
	Cancel(ctx context.Context, gameID string, actor Actor) error
	Get(ctx context.Context, gameID string) (*models.Game, error)
	ListOpen(ctx context.Context) ([]models.Game, error)
	ListAll(ctx context.Context) ([]models.Game, error)
}

type lobbyService struct {
	txRunner  repositories.TxRunner
	gameRepo  repositories.GameRepository
	ledger    WagerLedger
	publisher EventPublisher
	gameLocks *EntityLocks
}

func NewLobbyService(
	txRunner repositories.TxRunner,
	gameRepo repositories.GameRepository,
	ledger WagerLedger,
	publisher EventPublisher,
) LobbyService {
	return &lobbyService{
		txRunner:  txRunner,
		gameRepo:  gameRepo,
		ledger:    ledger,
		publisher: publisher,
		gameLocks: NewEntityLocks(),
	}
}

func (s *lobbyService) Create(ctx context.Context, actor Actor, input CreateGameInput) (*models.Game, error) {
	if !actor.CanModerate() {
		return nil, fmt.Errorf("%w: only moderators can create games", ErrForbidden)
	}
	if !input.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown game type %q", ErrValidation, input.Type)
	}
	if input.WagerAmount <= 0 {
		return nil, fmt.Errorf("%w: wager amount must be positive", ErrValidation)
	}
	if input.JoinTeam != nil && *input.JoinTeam != 1 && *input.JoinTeam != 2 {
		return nil, fmt.Errorf("%w: team must be 1 or 2", ErrValidation)
	}

	game := &models.Game{
		ID:          uuid.NewString(),
		Type:        input.Type,
		WagerAmount: input.WagerAmount,
		Status:      models.GameStatusOpen,
		CreatorID:   actor.ID,
	}
	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.gameRepo.Create(ctx, exec, game)
	})
	if err != nil {
		return nil, err
	}
	s.publisher.GameStatusChanged(game)

	if input.JoinTeam != nil {
		return s.Join(ctx, game.ID, actor, *input.JoinTeam)
	}
	game.Players = []models.GamePlayer{}
	return game, nil
}

func (s *lobbyService) Join(ctx context.Context, gameID string, actor Actor, team int) (*models.Game, error) {
	if team != 1 && team != 2 {
		return nil, fmt.Errorf("%w: team must be 1 or 2", ErrValidation)
	}

	unlock := s.gameLocks.Lock(gameID)
	defer unlock()

	var (
		game       *models.Game
		newBalance int
		filled     bool
	)
	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		game, err = s.gameRepo.GetByID(ctx, exec, gameID)
		if err != nil {
			return mapGameErr(err)
		}
		if game.Status != models.GameStatusOpen {
			return ErrGameNotJoinable
		}

		players, err := s.gameRepo.ListPlayers(ctx, exec, gameID)
		if err != nil {
			return err
		}
		teamCount := 0
		for _, p := range players {
			if p.UserID == actor.ID {
				return ErrAlreadyInGame
			}
			if p.Team == team {
				teamCount++
			}
		}
		if teamCount >= game.Type.MaxPerTeam() {
			return ErrTeamFull
		}

		newBalance, err = s.ledger.Reserve(ctx, exec, gameID, actor.ID, game.WagerAmount)
		if err != nil {
			return err
		}

		player := &models.GamePlayer{
			ID:     uuid.NewString(),
			GameID: gameID,
			UserID: actor.ID,
			Team:   team,
		}
		if err := s.gameRepo.AddPlayer(ctx, exec, player); err != nil {
			return err
		}
		game.Players = append(players, *player)

		// Both teams full: flip to in_progress in the same step.
		if len(game.Players) == 2*game.Type.MaxPerTeam() {
			if err := s.gameRepo.UpdateStatus(ctx, exec, gameID, models.GameStatusInProgress); err != nil {
				return err
			}
			game.Status = models.GameStatusInProgress
			filled = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.BalanceChanged(actor.ID, newBalance)
	if filled {
		s.publisher.GameStatusChanged(game)
	}
	return game, nil
}

func (s *lobbyService) Verify(ctx context.Context, gameID string, actor Actor, winnerTeam int) (*models.Game, error) {
	if !actor.CanModerate() {
		return nil, fmt.Errorf("%w: only moderators can verify games", ErrForbidden)
	}
	if winnerTeam != 1 && winnerTeam != 2 {
		return nil, fmt.Errorf("%w: winner team must be 1 or 2", ErrValidation)
	}

	unlock := s.gameLocks.Lock(gameID)
	defer unlock()

	var (
		game    *models.Game
		updates BalanceUpdates
	)
	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		game, err = s.gameRepo.GetByID(ctx, exec, gameID)
		if err != nil {
			return mapGameErr(err)
		}
		switch game.Status {
		case models.GameStatusCompleted:
			return fmt.Errorf("%w: game %s was already verified", ErrAlreadyProcessed, gameID)
		case models.GameStatusInProgress:
		default:
			return ErrGameNotLive
		}

		players, err := s.gameRepo.ListPlayers(ctx, exec, gameID)
		if err != nil {
			return err
		}
		winners := make([]string, 0, game.Type.MaxPerTeam())
		for _, p := range players {
			if p.Team == winnerTeam {
				winners = append(winners, p.UserID)
			}
		}

		updates, err = s.ledger.Settle(ctx, exec, gameID, winners)
		if err != nil {
			return err
		}

		if err := s.gameRepo.SetWinnerTeam(ctx, exec, gameID, winnerTeam); err != nil {
			return err
		}
		if err := s.gameRepo.UpdateStatus(ctx, exec, gameID, models.GameStatusCompleted); err != nil {
			return err
		}
		game.Players = players
		game.Status = models.GameStatusCompleted
		game.WinnerTeam = &winnerTeam
		return nil
	})
	if err != nil {
		return nil, err
	}

	for userID, balance := range updates {
		s.publisher.BalanceChanged(userID, balance)
	}
	s.publisher.GameStatusChanged(game)
	return game, nil
}

func (s *lobbyService) Cancel(ctx context.Context, gameID string, actor Actor) error {
	unlock := s.gameLocks.Lock(gameID)
	defer unlock()

	var (
		game    *models.Game
		updates BalanceUpdates
	)
	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		game, err = s.gameRepo.GetByID(ctx, exec, gameID)
		if err != nil {
			return mapGameErr(err)
		}
		if !actor.CanModerate() && game.CreatorID != actor.ID {
			return fmt.Errorf("%w: only the creator or a moderator can cancel a game", ErrForbidden)
		}
		if game.Status.Terminal() {
			return ErrGameNotCancelable
		}

		updates, err = s.ledger.Release(ctx, exec, gameID)
		if err != nil {
			return err
		}
		if err := s.gameRepo.UpdateStatus(ctx, exec, gameID, models.GameStatusCancelled); err != nil {
			return err
		}
		game.Status = models.GameStatusCancelled
		return nil
	})
	if err != nil {
		return err
	}

	for userID, balance := range updates {
		s.publisher.BalanceChanged(userID, balance)
	}
	s.publisher.GameStatusChanged(game)
	return nil
}

func (s *lobbyService) Get(ctx context.Context, gameID string) (*models.Game, error) {
	game, err := s.gameRepo.GetByID(ctx, nil, gameID)
	if err != nil {
		return nil, mapGameErr(err)
	}
	players, err := s.gameRepo.ListPlayers(ctx, nil, gameID)
	if err != nil {
		return nil, err
	}
	game.Players = players
	return game, nil
}

func (s *lobbyService) ListOpen(ctx context.Context) ([]models.Game, error) {
	open := models.GameStatusOpen
	return s.listWithPlayers(ctx, &open)
}

func (s *lobbyService) ListAll(ctx context.Context) ([]models.Game, error) {
	return s.listWithPlayers(ctx, nil)
}

func (s *lobbyService) listWithPlayers(ctx context.Context, status *models.GameStatus) ([]models.Game, error) {
	games, err := s.gameRepo.ListByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	for i := range games {
		players, err := s.gameRepo.ListPlayers(ctx, nil, games[i].ID)
		if err != nil {
			return nil, err
		}
		games[i].Players = players
	}
	return games, nil
}

func mapGameErr(err error) error {
	if errors.Is(err, repositories.ErrGameNotFound) {
		return fmt.Errorf("%w: game", ErrNotFound)
	}
	return err
}
