package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/riftarena/arena-system/models"
)

var (
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrRegistrationConflict = errors.New("user is already registered for this tournament")
)

type RegistrationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, registration *models.Registration) error
	GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Registration, error)
	// ListByTournament returns registrations in arrival order, which is
	// the seeding order for bracket generation.
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID string) ([]models.Registration, error)
	CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID string) (int, error)
	ExistsForUser(ctx context.Context, exec SQLExecutor, tournamentID, userID string) (bool, error)
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRegistrationRepository) Create(ctx context.Context, exec SQLExecutor, reg *models.Registration) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO registrations (id, tournament_id, user_id, champion)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	return executor.QueryRowContext(ctx, query, reg.ID, reg.TournamentID, reg.UserID, reg.Champion).Scan(&reg.CreatedAt)
}

func (r *postgresRegistrationRepository) GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Registration, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, tournament_id, user_id, champion, created_at
		FROM registrations
		WHERE id = $1`

	reg := &models.Registration{}
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&reg.ID, &reg.TournamentID, &reg.UserID, &reg.Champion, &reg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (r *postgresRegistrationRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID string) ([]models.Registration, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, tournament_id, user_id, champion, created_at
		FROM registrations
		WHERE tournament_id = $1
		ORDER BY created_at, id`

	rows, err := executor.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	registrations := []models.Registration{}
	for rows.Next() {
		var reg models.Registration
		if err := rows.Scan(&reg.ID, &reg.TournamentID, &reg.UserID, &reg.Champion, &reg.CreatedAt); err != nil {
			return nil, err
		}
		registrations = append(registrations, reg)
	}
	return registrations, rows.Err()
}

func (r *postgresRegistrationRepository) CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID string) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	err := executor.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registrations WHERE tournament_id = $1`, tournamentID).Scan(&count)
	return count, err
}

func (r *postgresRegistrationRepository) ExistsForUser(ctx context.Context, exec SQLExecutor, tournamentID, userID string) (bool, error) {
	executor := r.getExecutor(exec)
	var exists bool
	err := executor.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM registrations WHERE tournament_id = $1 AND user_id = $2)`,
		tournamentID, userID).Scan(&exists)
	return exists, err
}
