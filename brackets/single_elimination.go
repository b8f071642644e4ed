package brackets

import (
	"errors"
	"math/rand"

	"github.com/google/uuid"
	"github.com/riftarena/arena-system/models"
)

var (
	ErrNotEnoughParticipants = errors.New("not enough participants to generate a bracket (minimum 2)")
	ErrNoWinners             = errors.New("no winners to pair into the next round")
)

// GenerateParams describes one round-one generation. Registrations must
// be in arrival order; Seed, when set, shuffles that order with a fixed
// source so the same seed always reproduces the same bracket.
type GenerateParams struct {
	TournamentID  string
	Registrations []models.Registration
	Seed          *int64

	// NewID overrides match id generation, mainly for tests. Defaults
	// to uuid.NewString.
	NewID func() string
}

// Generator builds elimination rounds. Only round one (plus byes) is
// materialized eagerly; later rounds come from NextRound once every
// match of the previous round is verified.
type Generator interface {
	Name() string
	GenerateRoundOne(params GenerateParams) ([]models.Match, error)
	NextRound(tournamentID string, round int, winners []string, newID func() string) []models.Match
}

type SingleElimination struct{}

func NewSingleElimination() Generator {
	return &SingleElimination{}
}

func (g *SingleElimination) Name() string {
	return "SingleElimination"
}

// GenerateRoundOne seeds participants into the first round. With N
// participants and P the next power of two >= N, the first P-N seeds
// receive a bye: a match with only player1 set, born verified with
// player1 as winner. The remaining seeds are paired sequentially.
func (g *SingleElimination) GenerateRoundOne(params GenerateParams) ([]models.Match, error) {
	n := len(params.Registrations)
	if n < 2 {
		return nil, ErrNotEnoughParticipants
	}

	newID := params.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	seeds := make([]models.Registration, n)
	copy(seeds, params.Registrations)
	if params.Seed != nil {
		rng := rand.New(rand.NewSource(*params.Seed))
		rng.Shuffle(n, func(i, j int) {
			seeds[i], seeds[j] = seeds[j], seeds[i]
		})
	}

	byes := nextPowerOfTwo(n) - n

	matches := make([]models.Match, 0, byes+(n-byes)/2)
	slot := 0

	for i := 0; i < byes; i++ {
		regID := seeds[i].ID
		slot++
		matches = append(matches, models.Match{
			ID:           newID(),
			TournamentID: params.TournamentID,
			Round:        1,
			Slot:         slot,
			Player1ID:    &regID,
			WinnerID:     &regID,
			State:        models.MatchVerified,
		})
	}

	for i := byes; i+1 < n; i += 2 {
		p1 := seeds[i].ID
		p2 := seeds[i+1].ID
		slot++
		matches = append(matches, models.Match{
			ID:           newID(),
			TournamentID: params.TournamentID,
			Round:        1,
			Slot:         slot,
			Player1ID:    &p1,
			Player2ID:    &p2,
			State:        models.MatchPending,
		})
	}

	return matches, nil
}

// NextRound pairs winners of a completed round, in their slot order,
// into the following round. Callers handle the single-winner case (the
// champion) before asking for another round.
func (g *SingleElimination) NextRound(tournamentID string, round int, winners []string, newID func() string) []models.Match {
	if newID == nil {
		newID = uuid.NewString
	}

	matches := make([]models.Match, 0, len(winners)/2)
	slot := 0
	for i := 0; i+1 < len(winners); i += 2 {
		p1 := winners[i]
		p2 := winners[i+1]
		slot++
		matches = append(matches, models.Match{
			ID:           newID(),
			TournamentID: tournamentID,
			Round:        round + 1,
			Slot:         slot,
			Player1ID:    &p1,
			Player2ID:    &p2,
			State:        models.MatchPending,
		})
	}
	return matches
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
