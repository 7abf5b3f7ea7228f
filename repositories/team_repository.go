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
	ErrTeamNotFound       = errors.New("team not found")
	ErrTeamOwnerConflict  = errors.New("user already owns a team")
	ErrTeamMemberConflict = errors.New("user is already a member of this team")
	ErrTeamMemberInvalid  = errors.New("team member user invalid")
	ErrTeamFull           = errors.New("team member limit reached")
)

type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	FindByOwner(ctx context.Context, ownerID int) (*models.Team, error)
	ListMemberIDs(ctx context.Context, teamID int) ([]int, error)
	AddMember(ctx context.Context, teamID, userID int) error
	Delete(ctx context.Context, id int) error
	DetachUser(ctx context.Context, exec SQLExecutor, userID int) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) Create(ctx context.Context, team *models.Team) error {
	query := `
		INSERT INTO teams (name, owner_id, member_limit)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, team.Name, team.OwnerID, team.MemberLimit).
		Scan(&team.ID, &team.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "teams_owner_id_key" {
				return ErrTeamOwnerConflict
			}
		}
		return fmt.Errorf("failed to create team: %w", err)
	}

	// Владелец сразу становится первым участником.
	return r.AddMember(ctx, team.ID, team.OwnerID)
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `SELECT id, name, owner_id, member_limit, created_at FROM teams WHERE id = $1`
	return r.findOne(ctx, query, id)
}

func (r *postgresTeamRepository) FindByOwner(ctx context.Context, ownerID int) (*models.Team, error) {
	query := `SELECT id, name, owner_id, member_limit, created_at FROM teams WHERE owner_id = $1`
	return r.findOne(ctx, query, ownerID)
}

func (r *postgresTeamRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.Team, error) {
	t := &models.Team{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&t.ID, &t.Name, &t.OwnerID, &t.MemberLimit, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}
	return t, nil
}

func (r *postgresTeamRepository) ListMemberIDs(ctx context.Context, teamID int) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM team_members WHERE team_id = $1 ORDER BY joined_at ASC`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, scanErr
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// AddMember вставляет участника атомарно с проверкой лимита: условие по
// count выполняется в том же запросе, что и вставка, поэтому две
// конкурентные вставки не могут обе пройти через заполненный лимит.
func (r *postgresTeamRepository) AddMember(ctx context.Context, teamID, userID int) error {
	query := `
		INSERT INTO team_members (team_id, user_id)
		SELECT $1, $2
		WHERE (SELECT COUNT(*) FROM team_members WHERE team_id = $1) <
		      (SELECT member_limit FROM teams WHERE id = $1)`

	result, err := r.db.ExecContext(ctx, query, teamID, userID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				return ErrTeamMemberConflict
			case "23503": // foreign_key_violation
				return ErrTeamMemberInvalid
			}
		}
		return fmt.Errorf("failed to add team member: %w", err)
	}
	return checkAffectedRows(result, ErrTeamFull)
}

func (r *postgresTeamRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

// DetachUser удаляет команду пользователя вместе с участниками и его членство
// в чужих командах. Вызывается из каскада удаления аккаунта.
func (r *postgresTeamRepository) DetachUser(ctx context.Context, exec SQLExecutor, userID int) error {
	executor := SQLExecutor(r.db)
	if exec != nil {
		executor = exec
	}

	statements := []string{
		`DELETE FROM team_members WHERE team_id IN (SELECT id FROM teams WHERE owner_id = $1)`,
		`DELETE FROM team_members WHERE user_id = $1`,
		`DELETE FROM teams WHERE owner_id = $1`,
	}
	for _, stmt := range statements {
		if _, err := executor.ExecContext(ctx, stmt, userID); err != nil {
			return fmt.Errorf("failed to detach user from teams: %w", err)
		}
	}
	return nil
}
