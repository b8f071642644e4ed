package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/riftarena/arena-system/models"
	"github.com/riftarena/arena-system/repositories"
	"golang.org/x/sync/errgroup"
)

type CreateTournamentInput struct {
	Name       string `json:"name"`
	Role       string `json:"role"`
	MaxPlayers int    `json:"max_players"`
}

// TournamentService owns the tournament lifecycle up to bracket
// generation: opening, champion registration under the capacity limit,
// and the one-way close of registration.
type TournamentService interface {
	Create(ctx context.Context, actor Actor, input CreateTournamentInput) (*models.Tournament, error)
	Get(ctx context.Context, tournamentID string) (*models.Tournament, error)
	List(ctx context.Context) ([]models.Tournament, error)
	Register(ctx context.Context, tournamentID string, actor Actor, champion string) (*models.Registration, error)
	CloseRegistration(ctx context.Context, tournamentID string, actor Actor) error
	ListRegistrations(ctx context.Context, tournamentID string) ([]models.Registration, error)
}

type tournamentService struct {
	txRunner         repositories.TxRunner
	tournamentRepo   repositories.TournamentRepository
	registrationRepo repositories.RegistrationRepository
	matchRepo        repositories.MatchRepository
	tournamentLocks  *EntityLocks
}

func NewTournamentService(
	txRunner repositories.TxRunner,
	tournamentRepo repositories.TournamentRepository,
	registrationRepo repositories.RegistrationRepository,
	matchRepo repositories.MatchRepository,
	tournamentLocks *EntityLocks,
) TournamentService {
	return &tournamentService{
		txRunner:         txRunner,
		tournamentRepo:   tournamentRepo,
		registrationRepo: registrationRepo,
		matchRepo:        matchRepo,
		tournamentLocks:  tournamentLocks,
	}
}

func (s *tournamentService) Create(ctx context.Context, actor Actor, input CreateTournamentInput) (*models.Tournament, error) {
	if !actor.CanModerate() {
		return nil, fmt.Errorf("%w: only moderators can open tournaments", ErrForbidden)
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: tournament name is required", ErrValidation)
	}
	if input.MaxPlayers < 2 {
		return nil, fmt.Errorf("%w: max players must be at least 2", ErrValidation)
	}

	tournament := &models.Tournament{
		ID:               uuid.NewString(),
		Name:             strings.TrimSpace(input.Name),
		Role:             input.Role,
		MaxPlayers:       input.MaxPlayers,
		RegistrationOpen: true,
		CreatedBy:        actor.ID,
	}
	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		return nil, err
	}
	tournament.Registrations = []models.Registration{}
	return tournament, nil
}

// Get loads the tournament with its registrations and matches, the two
// reads running in parallel.
func (s *tournamentService) Get(ctx context.Context, tournamentID string) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, mapTournamentErr(err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		registrations, err := s.registrationRepo.ListByTournament(gctx, nil, tournamentID)
		if err != nil {
			return err
		}
		tournament.Registrations = registrations
		return nil
	})
	g.Go(func() error {
		matches, err := s.matchRepo.ListByTournament(gctx, nil, tournamentID)
		if err != nil {
			return err
		}
		tournament.Matches = matches
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context) ([]models.Tournament, error) {
	return s.tournamentRepo.List(ctx)
}

func (s *tournamentService) Register(ctx context.Context, tournamentID string, actor Actor, champion string) (*models.Registration, error) {
	if strings.TrimSpace(champion) == "" {
		return nil, fmt.Errorf("%w: champion is required", ErrValidation)
	}

	unlock := s.tournamentLocks.Lock(tournamentID)
	defer unlock()

	registration := &models.Registration{
		ID:           uuid.NewString(),
		TournamentID: tournamentID,
		UserID:       actor.ID,
		Champion:     strings.TrimSpace(champion),
	}
	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.GetByID(ctx, exec, tournamentID)
		if err != nil {
			return mapTournamentErr(err)
		}
		if !tournament.RegistrationOpen {
			return ErrRegistrationClosed
		}

		count, err := s.registrationRepo.CountByTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if count >= tournament.MaxPlayers {
			return ErrTournamentFull
		}

		exists, err := s.registrationRepo.ExistsForUser(ctx, exec, tournamentID, actor.ID)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyRegistered
		}

		return s.registrationRepo.Create(ctx, exec, registration)
	})
	if err != nil {
		return nil, err
	}
	return registration, nil
}

func (s *tournamentService) CloseRegistration(ctx context.Context, tournamentID string, actor Actor) error {
	if !actor.CanModerate() {
		return fmt.Errorf("%w: only moderators can close registration", ErrForbidden)
	}

	unlock := s.tournamentLocks.Lock(tournamentID)
	defer unlock()

	return s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := s.tournamentRepo.GetByID(ctx, exec, tournamentID); err != nil {
			return mapTournamentErr(err)
		}
		if err := s.tournamentRepo.CloseRegistration(ctx, exec, tournamentID); err != nil {
			if errors.Is(err, repositories.ErrRegistrationAlreadyDone) {
				return ErrRegistrationClosed
			}
			return err
		}
		return nil
	})
}

func (s *tournamentService) ListRegistrations(ctx context.Context, tournamentID string) ([]models.Registration, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err != nil {
		return nil, mapTournamentErr(err)
	}
	return s.registrationRepo.ListByTournament(ctx, nil, tournamentID)
}

func mapTournamentErr(err error) error {
	if errors.Is(err, repositories.ErrTournamentNotFound) {
		return fmt.Errorf("%w: tournament", ErrNotFound)
	}
	return err
}
