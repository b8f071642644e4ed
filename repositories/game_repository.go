package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/riftarena/arena-system/models"
)

var ErrGameNotFound = errors.New("game not found")

type GameRepository interface {
	Create(ctx context.Context, exec SQLExecutor, game *models.Game) error
	GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Game, error)
	ListByStatus(ctx context.Context, status *models.GameStatus) ([]models.Game, error)
	ListOpenBefore(ctx context.Context, cutoff sql.NullTime) ([]models.Game, error)
	ListPlayers(ctx context.Context, exec SQLExecutor, gameID string) ([]models.GamePlayer, error)
	AddPlayer(ctx context.Context, exec SQLExecutor, player *models.GamePlayer) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id string, status models.GameStatus) error
	SetWinnerTeam(ctx context.Context, exec SQLExecutor, id string, team int) error
	Delete(ctx context.Context, exec SQLExecutor, id string) error
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

func (r *postgresGameRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const gameColumns = `id, type, wager_amount, status, creator_id, winner_team, created_at`

func (r *postgresGameRepository) Create(ctx context.Context, exec SQLExecutor, g *models.Game) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO games (id, type, wager_amount, status, creator_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	return executor.QueryRowContext(ctx, query,
		g.ID, g.Type, g.WagerAmount, g.Status, g.CreatorID,
	).Scan(&g.CreatedAt)
}

func (r *postgresGameRepository) GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Game, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`

	g := &models.Game{}
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&g.ID, &g.Type, &g.WagerAmount, &g.Status, &g.CreatorID, &g.WinnerTeam, &g.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	return g, nil
}

func (r *postgresGameRepository) ListByStatus(ctx context.Context, status *models.GameStatus) ([]models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games`
	args := []interface{}{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	return r.queryGames(ctx, query, args...)
}

func (r *postgresGameRepository) ListOpenBefore(ctx context.Context, cutoff sql.NullTime) ([]models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE status = $1`
	args := []interface{}{models.GameStatusOpen}
	if cutoff.Valid {
		query += ` AND created_at < $2`
		args = append(args, cutoff.Time)
	}
	return r.queryGames(ctx, query, args...)
}

func (r *postgresGameRepository) queryGames(ctx context.Context, query string, args ...interface{}) ([]models.Game, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	games := []models.Game{}
	for rows.Next() {
		var g models.Game
		if err := rows.Scan(&g.ID, &g.Type, &g.WagerAmount, &g.Status, &g.CreatorID, &g.WinnerTeam, &g.CreatedAt); err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

func (r *postgresGameRepository) ListPlayers(ctx context.Context, exec SQLExecutor, gameID string) ([]models.GamePlayer, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, game_id, user_id, team, joined_at
		FROM game_players
		WHERE game_id = $1
		ORDER BY joined_at, id`

	rows, err := executor.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := []models.GamePlayer{}
	for rows.Next() {
		var p models.GamePlayer
		if err := rows.Scan(&p.ID, &p.GameID, &p.UserID, &p.Team, &p.JoinedAt); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (r *postgresGameRepository) AddPlayer(ctx context.Context, exec SQLExecutor, p *models.GamePlayer) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO game_players (id, game_id, user_id, team)
		VALUES ($1, $2, $3, $4)
		RETURNING joined_at`

	return executor.QueryRowContext(ctx, query, p.ID, p.GameID, p.UserID, p.Team).Scan(&p.JoinedAt)
}

func (r *postgresGameRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id string, status models.GameStatus) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE games SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) SetWinnerTeam(ctx context.Context, exec SQLExecutor, id string, team int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE games SET winner_team = $1 WHERE id = $2`, team, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) Delete(ctx context.Context, exec SQLExecutor, id string) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx, `DELETE FROM game_players WHERE game_id = $1`, id); err != nil {
		return err
	}
	result, err := executor.ExecContext(ctx, `DELETE FROM games WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGameNotFound)
}
