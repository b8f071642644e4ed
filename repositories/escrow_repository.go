package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/riftarena/arena-system/models"
)

var ErrEscrowNotFound = errors.New("escrow not found")

type EscrowRepository interface {
	Create(ctx context.Context, exec SQLExecutor, escrow *models.WagerEscrow) error
	ListByGame(ctx context.Context, exec SQLExecutor, gameID string) ([]models.WagerEscrow, error)
	UpdateStatusByGame(ctx context.Context, exec SQLExecutor, gameID string, from, to models.EscrowStatus) (int64, error)
	DeleteByGame(ctx context.Context, exec SQLExecutor, gameID string) error
}

type postgresEscrowRepository struct {
	db *sql.DB
}

func NewPostgresEscrowRepository(db *sql.DB) EscrowRepository {
	return &postgresEscrowRepository{db: db}
}

func (r *postgresEscrowRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresEscrowRepository) Create(ctx context.Context, exec SQLExecutor, e *models.WagerEscrow) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO wager_escrows (id, game_id, user_id, amount, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	return executor.QueryRowContext(ctx, query, e.ID, e.GameID, e.UserID, e.Amount, e.Status).Scan(&e.CreatedAt)
}

func (r *postgresEscrowRepository) ListByGame(ctx context.Context, exec SQLExecutor, gameID string) ([]models.WagerEscrow, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, game_id, user_id, amount, status, created_at
		FROM wager_escrows
		WHERE game_id = $1
		ORDER BY user_id`

	rows, err := executor.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	escrows := []models.WagerEscrow{}
	for rows.Next() {
		var e models.WagerEscrow
		if err := rows.Scan(&e.ID, &e.GameID, &e.UserID, &e.Amount, &e.Status, &e.CreatedAt); err != nil {
			return nil, err
		}
		escrows = append(escrows, e)
	}
	return escrows, rows.Err()
}

// UpdateStatusByGame moves every escrow of a game from one status to
// another and reports how many rows changed, so callers can detect a
// settle/release that raced an earlier one.
func (r *postgresEscrowRepository) UpdateStatusByGame(ctx context.Context, exec SQLExecutor, gameID string, from, to models.EscrowStatus) (int64, error) {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE wager_escrows SET status = $1 WHERE game_id = $2 AND status = $3`,
		to, gameID, from,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *postgresEscrowRepository) DeleteByGame(ctx context.Context, exec SQLExecutor, gameID string) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM wager_escrows WHERE game_id = $1`, gameID)
	return err
}
