package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/riftarena/arena-system/models"
	"github.com/riftarena/arena-system/repositories"
)

// MatchService is the per-match state machine shared by all bracket
// matches: pending -> submitted -> verified, with verified terminal.
type MatchService interface {
	Get(ctx context.Context, matchID string) (*models.Match, error)
	// SubmitEvidence records a result reference from one of the two
	// participants. Re-submission overwrites the evidence but never
	// moves the state past submitted.
	SubmitEvidence(ctx context.Context, matchID string, actor Actor, evidenceRef string) (*models.Match, error)
	// Verify fixes the winner. Privileged, terminal and idempotent:
	// the second call fails with ErrAlreadyProcessed. A fully verified
	// round triggers the bracket advance check.
	Verify(ctx context.Context, matchID string, actor Actor, winnerRegistrationID string) (*models.Match, error)
}

type matchService struct {
	txRunner         repositories.TxRunner
	matchRepo        repositories.MatchRepository
	registrationRepo repositories.RegistrationRepository
	bracketService   BracketService
	matchLocks       *EntityLocks
	logger           *slog.Logger
}

func NewMatchService(
	txRunner repositories.TxRunner,
	matchRepo repositories.MatchRepository,
	registrationRepo repositories.RegistrationRepository,
	bracketService BracketService,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		txRunner:         txRunner,
		matchRepo:        matchRepo,
		registrationRepo: registrationRepo,
		bracketService:   bracketService,
		matchLocks:       NewEntityLocks(),
		logger:           logger,
	}
}

func (s *matchService) Get(ctx context.Context, matchID string) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		return nil, mapMatchErr(err)
	}
	return match, nil
}

func (s *matchService) SubmitEvidence(ctx context.Context, matchID string, actor Actor, evidenceRef string) (*models.Match, error) {
	if strings.TrimSpace(evidenceRef) == "" {
		return nil, fmt.Errorf("%w: evidence reference is required", ErrValidation)
	}

	unlock := s.matchLocks.Lock(matchID)
	defer unlock()

	var match *models.Match
	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		match, err = s.matchRepo.GetByID(ctx, exec, matchID)
		if err != nil {
			return mapMatchErr(err)
		}
		if match.IsBye() {
			return ErrByeMatch
		}
		if match.Verified() {
			return ErrMatchVerified
		}

		isParticipant, err := s.actorPlaysIn(ctx, exec, match, actor)
		if err != nil {
			return err
		}
		if !isParticipant {
			return ErrNotParticipant
		}

		ref := strings.TrimSpace(evidenceRef)
		if err := s.matchRepo.UpdateEvidence(ctx, exec, matchID, ref, models.MatchSubmitted); err != nil {
			return mapMatchErr(err)
		}
		match.EvidenceRef = &ref
		match.State = models.MatchSubmitted
		return nil
	})
	if err != nil {
		return nil, err
	}
	return match, nil
}

func (s *matchService) Verify(ctx context.Context, matchID string, actor Actor, winnerRegistrationID string) (*models.Match, error) {
	if !actor.CanModerate() {
		return nil, fmt.Errorf("%w: only moderators can verify matches", ErrForbidden)
	}

	unlock := s.matchLocks.Lock(matchID)
	defer unlock()

	var match *models.Match
	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		match, err = s.matchRepo.GetByID(ctx, exec, matchID)
		if err != nil {
			return mapMatchErr(err)
		}
		if match.Verified() {
			return fmt.Errorf("%w: match %s was already verified", ErrAlreadyProcessed, matchID)
		}
		if !match.HasParticipant(winnerRegistrationID) {
			return fmt.Errorf("%w: winner must be one of the match participants", ErrValidation)
		}

		if err := s.matchRepo.SetVerified(ctx, exec, matchID, winnerRegistrationID); err != nil {
			if errors.Is(err, repositories.ErrMatchAlreadyVerified) {
				return fmt.Errorf("%w: match %s was already verified", ErrAlreadyProcessed, matchID)
			}
			return err
		}
		match.WinnerID = &winnerRegistrationID
		match.State = models.MatchVerified
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Advance is best-effort here: an incomplete round is expected,
	// anything else gets logged and retried on the next verification
	// or through the explicit advance endpoint.
	if _, err := s.bracketService.AdvanceRound(ctx, match.TournamentID, match.Round); err != nil {
		if !errors.Is(err, ErrStateConflict) && !errors.Is(err, ErrAlreadyProcessed) {
			s.logger.Error("bracket advance check failed",
				slog.String("tournament_id", match.TournamentID),
				slog.Int("round", match.Round),
				slog.Any("error", err))
		}
	}

	return match, nil
}

func (s *matchService) actorPlaysIn(ctx context.Context, exec repositories.SQLExecutor, match *models.Match, actor Actor) (bool, error) {
	for _, regID := range []*string{match.Player1ID, match.Player2ID} {
		if regID == nil {
			continue
		}
		reg, err := s.registrationRepo.GetByID(ctx, exec, *regID)
		if err != nil {
			return false, err
		}
		if reg.UserID == actor.ID {
			return true, nil
		}
	}
	return false, nil
}

func mapMatchErr(err error) error {
	if errors.Is(err, repositories.ErrMatchNotFound) {
		return fmt.Errorf("%w: match", ErrNotFound)
	}
	return err
}
