package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/riftarena/arena-system/brackets"
	"github.com/riftarena/arena-system/models"
	"github.com/riftarena/arena-system/repositories"
)

// AdvanceResult is what came out of pairing a completed round: either
// the matches of the next round, or the tournament champion.
type AdvanceResult struct {
	Round                  int            `json:"round"`
	Matches                []models.Match `json:"matches,omitempty"`
	ChampionRegistrationID *string        `json:"champion_registration_id,omitempty"`
}

// BracketService turns a closed registration list into elimination
// rounds. Generation is deterministic: the same registration order and
// seed always produce the same bye assignment and pairings.
type BracketService interface {
	Generate(ctx context.Context, tournamentID string, actor Actor, seed *int64) ([]models.Match, error)
	// AdvanceRound pairs winners of a fully verified round into the
	// next one. It fails with ErrRoundIncomplete while matches are
	// outstanding and with ErrAlreadyProcessed once the round has been
	// advanced.
	AdvanceRound(ctx context.Context, tournamentID string, round int) (*AdvanceResult, error)
}

type bracketService struct {
	txRunner         repositories.TxRunner
	tournamentRepo   repositories.TournamentRepository
	registrationRepo repositories.RegistrationRepository
	matchRepo        repositories.MatchRepository
	generator        brackets.Generator
	publisher        EventPublisher
	tournamentLocks  *EntityLocks
}

func NewBracketService(
	txRunner repositories.TxRunner,
	tournamentRepo repositories.TournamentRepository,
	registrationRepo repositories.RegistrationRepository,
	matchRepo repositories.MatchRepository,
	generator brackets.Generator,
	publisher EventPublisher,
	tournamentLocks *EntityLocks,
) BracketService {
	return &bracketService{
		txRunner:         txRunner,
		tournamentRepo:   tournamentRepo,
		registrationRepo: registrationRepo,
		matchRepo:        matchRepo,
		generator:        generator,
		publisher:        publisher,
		tournamentLocks:  tournamentLocks,
	}
}

func (s *bracketService) Generate(ctx context.Context, tournamentID string, actor Actor, seed *int64) ([]models.Match, error) {
	if !actor.CanModerate() {
		return nil, fmt.Errorf("%w: only moderators can generate brackets", ErrForbidden)
	}

	unlock := s.tournamentLocks.Lock(tournamentID)
	defer unlock()

	var created []models.Match
	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.GetByID(ctx, exec, tournamentID)
		if err != nil {
			return mapTournamentErr(err)
		}
		if !tournament.RegistrationOpen {
			return ErrBracketExists
		}

		registrations, err := s.registrationRepo.ListByTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}

		matches, err := s.generator.GenerateRoundOne(brackets.GenerateParams{
			TournamentID:  tournamentID,
			Registrations: registrations,
			Seed:          seed,
		})
		if err != nil {
			if errors.Is(err, brackets.ErrNotEnoughParticipants) {
				return fmt.Errorf("%w: %v", ErrValidation, err)
			}
			return err
		}

		for i := range matches {
			if err := s.matchRepo.Create(ctx, exec, &matches[i]); err != nil {
				return err
			}
		}

		// Closing registration here makes generation and the one-way
		// flip a single atomic step.
		if err := s.tournamentRepo.CloseRegistration(ctx, exec, tournamentID); err != nil {
			if errors.Is(err, repositories.ErrRegistrationAlreadyDone) {
				return ErrBracketExists
			}
			return err
		}

		created = matches
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.BracketAdvanced(tournamentID, 1)
	return created, nil
}

func (s *bracketService) AdvanceRound(ctx context.Context, tournamentID string, round int) (*AdvanceResult, error) {
	if round < 1 {
		return nil, fmt.Errorf("%w: round must be positive", ErrValidation)
	}

	unlock := s.tournamentLocks.Lock(tournamentID)
	defer unlock()

	var result *AdvanceResult
	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.GetByID(ctx, exec, tournamentID)
		if err != nil {
			return mapTournamentErr(err)
		}
		if tournament.WinnerRegistrationID != nil {
			return fmt.Errorf("%w: tournament already has a champion", ErrAlreadyProcessed)
		}

		matches, err := s.matchRepo.ListByRound(ctx, exec, tournamentID, round)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			return fmt.Errorf("%w: round %d", ErrNotFound, round)
		}

		winners := make([]string, 0, len(matches))
		for _, m := range matches {
			if !m.Verified() || m.WinnerID == nil {
				return ErrRoundIncomplete
			}
			winners = append(winners, *m.WinnerID)
		}

		if len(winners) == 1 {
			if err := s.tournamentRepo.SetWinner(ctx, exec, tournamentID, winners[0]); err != nil {
				return err
			}
			champion := winners[0]
			result = &AdvanceResult{Round: round, ChampionRegistrationID: &champion}
			return nil
		}

		next, err := s.matchRepo.ListByRound(ctx, exec, tournamentID, round+1)
		if err != nil {
			return err
		}
		if len(next) > 0 {
			return fmt.Errorf("%w: round %d was already advanced", ErrAlreadyProcessed, round)
		}

		created := s.generator.NextRound(tournamentID, round, winners, nil)
		for i := range created {
			if err := s.matchRepo.Create(ctx, exec, &created[i]); err != nil {
				return err
			}
		}
		result = &AdvanceResult{Round: round, Matches: created}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.BracketAdvanced(tournamentID, round+1)
	return result, nil
}
