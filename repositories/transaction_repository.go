package repositories

import (
	"context"
	"database/sql"

	"github.com/riftarena/arena-system/models"
)

type TransactionRepository interface {
	Create(ctx context.Context, exec SQLExecutor, transaction *models.Transaction) error
	ListByUser(ctx context.Context, userID string) ([]models.Transaction, error)
}

type postgresTransactionRepository struct {
	db *sql.DB
}

func NewPostgresTransactionRepository(db *sql.DB) TransactionRepository {
	return &postgresTransactionRepository{db: db}
}

func (r *postgresTransactionRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTransactionRepository) Create(ctx context.Context, exec SQLExecutor, t *models.Transaction) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO transactions (id, user_id, amount, type, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	return executor.QueryRowContext(ctx, query, t.ID, t.UserID, t.Amount, t.Type, t.Description).Scan(&t.CreatedAt)
}

func (r *postgresTransactionRepository) ListByUser(ctx context.Context, userID string) ([]models.Transaction, error) {
	query := `
		SELECT id, user_id, amount, type, description, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.Type, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}
