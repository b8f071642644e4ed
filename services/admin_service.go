package services

import (
	"context"
	"fmt"

	"github.com/riftarena/arena-system/models"
	"github.com/riftarena/arena-system/repositories"
)

// AdminService is the thin privileged surface consumed by the external
// admin UI. Every method checks the caller's role before touching any
// state; the mutations themselves are the ordinary core operations.
type AdminService interface {
	ListUsers(ctx context.Context, actor Actor) ([]models.User, error)
	PromoteUser(ctx context.Context, actor Actor, userID string, role models.UserRole) (*models.User, error)
	AdjustBalance(ctx context.Context, actor Actor, userID string, delta int, reason string) (int, error)
	DeleteUser(ctx context.Context, actor Actor, userID string) error
	ListAllGames(ctx context.Context, actor Actor) ([]models.Game, error)
	// ForceSettle verifies a game on behalf of the admin boundary.
	ForceSettle(ctx context.Context, actor Actor, gameID string, winnerTeam int) (*models.Game, error)
	// DeleteGame refunds any live escrows, then removes the game and
	// its roster.
	DeleteGame(ctx context.Context, actor Actor, gameID string) error
}

type adminService struct {
	txRunner  repositories.TxRunner
	userRepo  repositories.UserRepository
	gameRepo  repositories.GameRepository
	ledger    WagerLedger
	lobby     LobbyService
	publisher EventPublisher
}

func NewAdminService(
	txRunner repositories.TxRunner,
	userRepo repositories.UserRepository,
	gameRepo repositories.GameRepository,
	ledger WagerLedger,
	lobby LobbyService,
	publisher EventPublisher,
) AdminService {
	return &adminService{
		txRunner:  txRunner,
		userRepo:  userRepo,
		gameRepo:  gameRepo,
		ledger:    ledger,
		lobby:     lobby,
		publisher: publisher,
	}
}

func requireAdmin(actor Actor) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: admin access required", ErrForbidden)
	}
	return nil
}

func requireModerator(actor Actor) error {
	if !actor.CanModerate() {
		return fmt.Errorf("%w: moderator or admin access required", ErrForbidden)
	}
	return nil
}

func (s *adminService) ListUsers(ctx context.Context, actor Actor) ([]models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

func (s *adminService) PromoteUser(ctx context.Context, actor Actor, userID string, role models.UserRole) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: invalid role %q", ErrValidation, role)
	}

	var user *models.User
	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		user, err = s.userRepo.GetByID(ctx, exec, userID)
		if err != nil {
			return fmt.Errorf("%w: user", ErrNotFound)
		}
		if err := s.userRepo.UpdateRole(ctx, exec, userID, role); err != nil {
			return err
		}
		user.Role = role
		return nil
	})
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *adminService) AdjustBalance(ctx context.Context, actor Actor, userID string, delta int, reason string) (int, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	if reason == "" {
		reason = "manual balance adjustment"
	}
	return s.ledger.AdjustBalance(ctx, userID, delta, reason)
}

func (s *adminService) DeleteUser(ctx context.Context, actor Actor, userID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		if err == repositories.ErrUserNotFound {
			return fmt.Errorf("%w: user", ErrNotFound)
		}
		return err
	}
	return nil
}

func (s *adminService) ListAllGames(ctx context.Context, actor Actor) ([]models.Game, error) {
	if err := requireModerator(actor); err != nil {
		return nil, err
	}
	return s.lobby.ListAll(ctx)
}

func (s *adminService) ForceSettle(ctx context.Context, actor Actor, gameID string, winnerTeam int) (*models.Game, error) {
	if err := requireModerator(actor); err != nil {
		return nil, err
	}
	return s.lobby.Verify(ctx, gameID, actor, winnerTeam)
}

func (s *adminService) DeleteGame(ctx context.Context, actor Actor, gameID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	var updates BalanceUpdates
	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		game, err := s.gameRepo.GetByID(ctx, exec, gameID)
		if err != nil {
			return mapGameErr(err)
		}
		// Live wagers are returned before the game disappears.
		if !game.Status.Terminal() {
			updates, err = s.ledger.Release(ctx, exec, gameID)
			if err != nil {
				return err
			}
		}
		return s.gameRepo.Delete(ctx, exec, gameID)
	})
	if err != nil {
		return err
	}

	for userID, balance := range updates {
		s.publisher.BalanceChanged(userID, balance)
	}
	return nil
}
