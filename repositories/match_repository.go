package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/riftarena/arena-system/models"
)

var (
	ErrMatchNotFound        = errors.New("match not found")
	ErrMatchAlreadyVerified = errors.New("match is already verified")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Match, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID string) ([]models.Match, error)
	ListByRound(ctx context.Context, exec SQLExecutor, tournamentID string, round int) ([]models.Match, error)
	ListUnverifiedByRound(ctx context.Context, exec SQLExecutor, tournamentID string, round int) ([]models.Match, error)
	MaxRound(ctx context.Context, exec SQLExecutor, tournamentID string) (int, error)
	UpdateEvidence(ctx context.Context, exec SQLExecutor, id string, evidenceRef string, state models.MatchState) error
	// SetVerified fixes the winner. The guard on the current state makes
	// the second verification attempt fail with ErrMatchAlreadyVerified
	// instead of silently rewriting the result.
	SetVerified(ctx context.Context, exec SQLExecutor, id string, winnerRegistrationID string) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, tournament_id, round, slot, player1_registration_id, player2_registration_id, winner_registration_id, evidence_ref, state, created_at`

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches (id, tournament_id, round, slot, player1_registration_id, player2_registration_id, winner_registration_id, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	return executor.QueryRowContext(ctx, query,
		m.ID, m.TournamentID, m.Round, m.Slot, m.Player1ID, m.Player2ID, m.WinnerID, m.State,
	).Scan(&m.CreatedAt)
}

func scanMatch(scan func(dest ...interface{}) error) (*models.Match, error) {
	m := &models.Match{}
	err := scan(&m.ID, &m.TournamentID, &m.Round, &m.Slot,
		&m.Player1ID, &m.Player2ID, &m.WinnerID, &m.EvidenceRef, &m.State, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Match, error) {
	executor := r.getExecutor(exec)
	row := executor.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id)
	m, err := scanMatch(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID string) ([]models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1 ORDER BY round, slot`
	return r.queryMatches(ctx, exec, query, tournamentID)
}

func (r *postgresMatchRepository) ListByRound(ctx context.Context, exec SQLExecutor, tournamentID string, round int) ([]models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1 AND round = $2 ORDER BY slot`
	return r.queryMatches(ctx, exec, query, tournamentID, round)
}

func (r *postgresMatchRepository) ListUnverifiedByRound(ctx context.Context, exec SQLExecutor, tournamentID string, round int) ([]models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1 AND round = $2 AND state <> $3 ORDER BY slot`
	return r.queryMatches(ctx, exec, query, tournamentID, round, models.MatchVerified)
}

func (r *postgresMatchRepository) MaxRound(ctx context.Context, exec SQLExecutor, tournamentID string) (int, error) {
	executor := r.getExecutor(exec)
	var round sql.NullInt64
	err := executor.QueryRowContext(ctx,
		`SELECT MAX(round) FROM matches WHERE tournament_id = $1`, tournamentID).Scan(&round)
	if err != nil {
		return 0, err
	}
	if !round.Valid {
		return 0, nil
	}
	return int(round.Int64), nil
}

func (r *postgresMatchRepository) queryMatches(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]models.Match, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := []models.Match{}
	for rows.Next() {
		m, err := scanMatch(rows.Scan)
		if err != nil {
			return nil, err
		}
		matches = append(matches, *m)
	}
	return matches, rows.Err()
}

func (r *postgresMatchRepository) UpdateEvidence(ctx context.Context, exec SQLExecutor, id string, evidenceRef string, state models.MatchState) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE matches SET evidence_ref = $1, state = $2 WHERE id = $3 AND state <> $4`,
		evidenceRef, state, id, models.MatchVerified,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchAlreadyVerified)
}

func (r *postgresMatchRepository) SetVerified(ctx context.Context, exec SQLExecutor, id string, winnerRegistrationID string) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE matches SET winner_registration_id = $1, state = $2 WHERE id = $3 AND state <> $2`,
		winnerRegistrationID, models.MatchVerified, id,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchAlreadyVerified)
}
