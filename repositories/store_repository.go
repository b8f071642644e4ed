package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/riftarena/arena-system/models"
)

var ErrStoreItemNotFound = errors.New("store item not found")

type StoreRepository interface {
	CreateItem(ctx context.Context, item *models.StoreItem) error
	GetItem(ctx context.Context, exec SQLExecutor, id string) (*models.StoreItem, error)
	ListItems(ctx context.Context) ([]models.StoreItem, error)
	CreateRedemption(ctx context.Context, exec SQLExecutor, redemption *models.Redemption) error
	ListRedemptions(ctx context.Context) ([]models.Redemption, error)
}

type postgresStoreRepository struct {
	db *sql.DB
}

func NewPostgresStoreRepository(db *sql.DB) StoreRepository {
	return &postgresStoreRepository{db: db}
}

func (r *postgresStoreRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresStoreRepository) CreateItem(ctx context.Context, item *models.StoreItem) error {
	query := `
		INSERT INTO store_items (id, name, description, cost, item_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	return r.db.QueryRowContext(ctx, query,
		item.ID, item.Name, item.Description, item.Cost, item.ItemType,
	).Scan(&item.CreatedAt)
}

func (r *postgresStoreRepository) GetItem(ctx context.Context, exec SQLExecutor, id string) (*models.StoreItem, error) {
	executor := r.getExecutor(exec)
	query := `SELECT id, name, description, cost, item_type, created_at FROM store_items WHERE id = $1`

	item := &models.StoreItem{}
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.Name, &item.Description, &item.Cost, &item.ItemType, &item.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStoreItemNotFound
		}
		return nil, err
	}
	return item, nil
}

func (r *postgresStoreRepository) ListItems(ctx context.Context) ([]models.StoreItem, error) {
	query := `SELECT id, name, description, cost, item_type, created_at FROM store_items ORDER BY cost, name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.StoreItem{}
	for rows.Next() {
		var item models.StoreItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.Cost, &item.ItemType, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *postgresStoreRepository) CreateRedemption(ctx context.Context, exec SQLExecutor, redemption *models.Redemption) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO redemptions (id, user_id, item_id, fulfilled)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	return executor.QueryRowContext(ctx, query,
		redemption.ID, redemption.UserID, redemption.ItemID, redemption.Fulfilled,
	).Scan(&redemption.CreatedAt)
}

func (r *postgresStoreRepository) ListRedemptions(ctx context.Context) ([]models.Redemption, error) {
	query := `SELECT id, user_id, item_id, fulfilled, created_at FROM redemptions ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	redemptions := []models.Redemption{}
	for rows.Next() {
		var red models.Redemption
		if err := rows.Scan(&red.ID, &red.UserID, &red.ItemID, &red.Fulfilled, &red.CreatedAt); err != nil {
			return nil, err
		}
		redemptions = append(redemptions, red)
	}
	return redemptions, rows.Err()
}
