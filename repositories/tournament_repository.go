package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/riftarena/arena-system/models"
)

var (
	ErrTournamentNotFound      = errors.New("tournament not found")
	ErrRegistrationAlreadyDone = errors.New("registration was already closed")
)

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Tournament, error)
	List(ctx context.Context) ([]models.Tournament, error)
	// CloseRegistration flips registration_open to false. It fails with
	// ErrRegistrationAlreadyDone if the flag was already false, which
	// keeps the flip one-way even under races.
	CloseRegistration(ctx context.Context, exec SQLExecutor, id string) error
	SetWinner(ctx context.Context, exec SQLExecutor, id string, registrationID string) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `id, name, role, max_players, registration_open, created_by, winner_registration_id, created_at`

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (id, name, role, max_players, registration_open, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	return r.db.QueryRowContext(ctx, query,
		t.ID, t.Name, t.Role, t.MaxPlayers, t.RegistrationOpen, t.CreatedBy,
	).Scan(&t.CreatedAt)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Tournament, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	t := &models.Tournament{}
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Role, &t.MaxPlayers, &t.RegistrationOpen,
		&t.CreatedBy, &t.WinnerRegistrationID, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context) ([]models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := []models.Tournament{}
	for rows.Next() {
		var t models.Tournament
		if err := rows.Scan(
			&t.ID, &t.Name, &t.Role, &t.MaxPlayers, &t.RegistrationOpen,
			&t.CreatedBy, &t.WinnerRegistrationID, &t.CreatedAt,
		); err != nil {
			return nil, err
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}

func (r *postgresTournamentRepository) CloseRegistration(ctx context.Context, exec SQLExecutor, id string) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE tournaments SET registration_open = FALSE WHERE id = $1 AND registration_open = TRUE`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRegistrationAlreadyDone)
}

func (r *postgresTournamentRepository) SetWinner(ctx context.Context, exec SQLExecutor, id string, registrationID string) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE tournaments SET winner_registration_id = $1 WHERE id = $2`, registrationID, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}
