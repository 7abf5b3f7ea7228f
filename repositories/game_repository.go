package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/playverse/playverse-backend/models"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrGameInUse    = errors.New("game cannot be deleted as it is in use") // Для ошибки FK при удалении
)

type GameRepository interface {
	Create(ctx context.Context, game *models.Game) error
	GetByID(ctx context.Context, id int) (*models.Game, error)
	GetAll(ctx context.Context) ([]models.Game, error)
	Exists(ctx context.Context, id int) (bool, error)
	Delete(ctx context.Context, id int) error
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

func (r *postgresGameRepository) Create(ctx context.Context, game *models.Game) error {
	query := `
		INSERT INTO games (game_name, description, cover_key, owner_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		game.GameName, game.Description, game.CoverKey, game.OwnerID,
	).Scan(&game.ID, &game.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}
	return nil
}

func (r *postgresGameRepository) GetByID(ctx context.Context, id int) (*models.Game, error) {
	query := `SELECT id, game_name, description, cover_key, owner_id, created_at FROM games WHERE id = $1`

	var g models.Game
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&g.ID, &g.GameName, &g.Description, &g.CoverKey, &g.OwnerID, &g.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *postgresGameRepository) GetAll(ctx context.Context) ([]models.Game, error) {
	query := `SELECT id, game_name, description, cover_key, owner_id, created_at FROM games ORDER BY game_name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	games := make([]models.Game, 0)
	for rows.Next() {
		var g models.Game
		if scanErr := rows.Scan(&g.ID, &g.GameName, &g.Description, &g.CoverKey, &g.OwnerID, &g.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		games = append(games, g)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return games, nil
}

func (r *postgresGameRepository) Exists(ctx context.Context, id int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM games WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *postgresGameRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM games WHERE id = $1`, id)
	if err != nil {
		// ON DELETE RESTRICT со стороны tournaments
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrGameInUse
		}
		return err
	}
	return checkAffectedRows(result, ErrGameNotFound)
}
