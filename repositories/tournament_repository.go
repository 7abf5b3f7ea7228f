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
	ErrTournamentNotFound         = errors.New("tournament not found")
	ErrTournamentTitleConflict    = errors.New("tournament title already exists")
	ErrTournamentInvalidGame      = errors.New("invalid game reference")
	ErrTournamentInvalidOwner     = errors.New("invalid owner reference")
	ErrTournamentPlayerConflict   = errors.New("user is already registered for this tournament")
	ErrTournamentTeamConflict     = errors.New("team owner is already registered for this tournament")
	ErrTournamentCapacityReached  = errors.New("tournament player limit reached")
	ErrTournamentResultUserInvalid = errors.New("result references an unknown user")
)

type ListTournamentsFilter struct {
	GameID    *int
	OwnerID   *int
	TeamBased *bool
	Limit     int
	Offset    int
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	GetByIDAndOwner(ctx context.Context, id, ownerID int) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	UpdateDetails(ctx context.Context, id int, title, description string) error
	UpdateBannerKey(ctx context.Context, id int, bannerKey *string) error
	UpdateResult(ctx context.Context, id int, result models.TournamentResult) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error

	// AddPlayer атомарно добавляет игрока: проверка лимита и вставка — один
	// запрос, дубликат отсекается уникальным индексом.
	AddPlayer(ctx context.Context, tournamentID, userID, playerLimit int) error
	AddTeamSnapshot(ctx context.Context, exec SQLExecutor, snapshot *models.TournamentTeam) error
	ListPlayers(ctx context.Context, tournamentID int) ([]models.User, error)
	ListTeams(ctx context.Context, tournamentID int) ([]models.TournamentTeam, error)
	DeleteRegistrations(ctx context.Context, exec SQLExecutor, tournamentID int) error
	ListIDsByOwner(ctx context.Context, exec SQLExecutor, ownerID int) ([]int, error)
	DetachUser(ctx context.Context, exec SQLExecutor, userID int) error
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

const tournamentColumns = `
	id, title, description, owner_id, game_id,
	registration_start, registration_end, matches_start, matches_end,
	player_limit, team_based, banner_key,
	first_place_id, second_place_id, third_place_id, created_at`

const selectTournament = `SELECT` + tournamentColumns + ` FROM tournaments`

func scanTournament(row interface{ Scan(dest ...interface{}) error }, t *models.Tournament) error {
	var result models.TournamentResult
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.OwnerID, &t.GameID,
		&t.Schedule.Registration.Start, &t.Schedule.Registration.End,
		&t.Schedule.Matches.Start, &t.Schedule.Matches.End,
		&t.PlayerLimit, &t.TeamBased, &t.BannerKey,
		&result.First, &result.Second, &result.Third, &t.CreatedAt,
	)
	if err != nil {
		return err
	}
	if result.First != nil || result.Second != nil || result.Third != nil {
		t.Result = &result
	}
	return nil
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (
			title, description, owner_id, game_id,
			registration_start, registration_end, matches_start, matches_end,
			player_limit, team_based, banner_key
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		t.Title, t.Description, t.OwnerID, t.GameID,
		t.Schedule.Registration.Start, t.Schedule.Registration.End,
		t.Schedule.Matches.Start, t.Schedule.Matches.End,
		t.PlayerLimit, t.TeamBased, t.BannerKey,
	).Scan(&t.ID, &t.CreatedAt)

	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := selectTournament + ` WHERE id = $1`

	t := &models.Tournament{}
	err := scanTournament(r.db.QueryRowContext(ctx, query, id), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) GetByIDAndOwner(ctx context.Context, id, ownerID int) (*models.Tournament, error) {
	query := selectTournament + ` WHERE id = $1 AND owner_id = $2`

	t := &models.Tournament{}
	err := scanTournament(r.db.QueryRowContext(ctx, query, id, ownerID), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := selectTournament + ` WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.GameID != nil {
		query += fmt.Sprintf(" AND game_id = $%d", argID)
		args = append(args, *filter.GameID)
		argID++
	}
	if filter.OwnerID != nil {
		query += fmt.Sprintf(" AND owner_id = $%d", argID)
		args = append(args, *filter.OwnerID)
		argID++
	}
	if filter.TeamBased != nil {
		query += fmt.Sprintf(" AND team_based = $%d", argID)
		args = append(args, *filter.TeamBased)
		argID++
	}

	query += " ORDER BY registration_start DESC, created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := scanTournament(rows, &t); scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) UpdateDetails(ctx context.Context, id int, title, description string) error {
	query := `UPDATE tournaments SET title = $1, description = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, title, description, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateBannerKey(ctx context.Context, id int, bannerKey *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE tournaments SET banner_key = $1 WHERE id = $2`, bannerKey, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament banner key: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateResult(ctx context.Context, id int, res models.TournamentResult) error {
	query := `
		UPDATE tournaments SET
			first_place_id = $1,
			second_place_id = $2,
			third_place_id = $3
		WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, res.First, res.Second, res.Third, id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrTournamentResultUserInvalid
		}
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) AddPlayer(ctx context.Context, tournamentID, userID, playerLimit int) error {
	// Условие по count и вставка выполняются в одном операторе, поэтому две
	// конкурентные регистрации не могут обе пройти через границу лимита.
	query := `
		INSERT INTO tournament_players (tournament_id, user_id)
		SELECT $1, $2
		WHERE (SELECT COUNT(*) FROM tournament_players WHERE tournament_id = $1) < $3`

	result, err := r.db.ExecContext(ctx, query, tournamentID, userID, playerLimit)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				return ErrTournamentPlayerConflict
			case "23503": // foreign_key_violation
				return ErrTournamentNotFound
			}
		}
		return fmt.Errorf("failed to add tournament player: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentCapacityReached)
}

func (r *postgresTournamentRepository) AddTeamSnapshot(ctx context.Context, exec SQLExecutor, snapshot *models.TournamentTeam) error {
	executor := r.getExecutor(exec)

	query := `
		INSERT INTO tournament_teams (tournament_id, name, owner_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		snapshot.TournamentID, snapshot.Name, snapshot.OwnerID,
	).Scan(&snapshot.ID, &snapshot.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				return ErrTournamentTeamConflict
			case "23503":
				return ErrTournamentNotFound
			}
		}
		return fmt.Errorf("failed to add tournament team: %w", err)
	}

	for _, memberID := range snapshot.MemberIDs {
		_, err = executor.ExecContext(ctx,
			`INSERT INTO tournament_team_members (tournament_team_id, user_id) VALUES ($1, $2)`,
			snapshot.ID, memberID,
		)
		if err != nil {
			return fmt.Errorf("failed to add tournament team member: %w", err)
		}
	}
	return nil
}

func (r *postgresTournamentRepository) ListPlayers(ctx context.Context, tournamentID int) ([]models.User, error) {
	query := `
		SELECT u.id, u.user_name, u.full_name, u.avatar_key
		FROM tournament_players tp
		JOIN users u ON u.id = tp.user_id
		WHERE tp.tournament_id = $1
		ORDER BY tp.joined_at ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournament players: %w", err)
	}
	defer rows.Close()

	players := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if scanErr := rows.Scan(&u.ID, &u.UserName, &u.FullName, &u.AvatarKey); scanErr != nil {
			return nil, scanErr
		}
		players = append(players, u)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return players, nil
}

func (r *postgresTournamentRepository) ListTeams(ctx context.Context, tournamentID int) ([]models.TournamentTeam, error) {
	query := `
		SELECT id, tournament_id, name, owner_id, created_at
		FROM tournament_teams
		WHERE tournament_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournament teams: %w", err)
	}
	defer rows.Close()

	teams := make([]models.TournamentTeam, 0)
	for rows.Next() {
		var t models.TournamentTeam
		if scanErr := rows.Scan(&t.ID, &t.TournamentID, &t.Name, &t.OwnerID, &t.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		teams = append(teams, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	for i := range teams {
		memberRows, err := r.db.QueryContext(ctx,
			`SELECT user_id FROM tournament_team_members WHERE tournament_team_id = $1`, teams[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list tournament team members: %w", err)
		}
		for memberRows.Next() {
			var id int
			if scanErr := memberRows.Scan(&id); scanErr != nil {
				memberRows.Close()
				return nil, scanErr
			}
			teams[i].MemberIDs = append(teams[i].MemberIDs, id)
		}
		if err = memberRows.Err(); err != nil {
			memberRows.Close()
			return nil, err
		}
		memberRows.Close()
	}
	return teams, nil
}

// DeleteRegistrations снимает все регистрации турнира: игроков, снимки команд
// и их участников. Выполняется перед удалением самого турнира.
func (r *postgresTournamentRepository) DeleteRegistrations(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)

	statements := []string{
		`DELETE FROM tournament_players WHERE tournament_id = $1`,
		`DELETE FROM tournament_team_members WHERE tournament_team_id IN
			(SELECT id FROM tournament_teams WHERE tournament_id = $1)`,
		`DELETE FROM tournament_teams WHERE tournament_id = $1`,
	}
	for _, stmt := range statements {
		if _, err := executor.ExecContext(ctx, stmt, tournamentID); err != nil {
			return fmt.Errorf("failed to delete tournament registrations: %w", err)
		}
	}
	return nil
}

// ListIDsByOwner возвращает id турниров пользователя. Каскад удаления
// аккаунта сносит каждый из них вместе с регистрациями.
func (r *postgresTournamentRepository) ListIDsByOwner(ctx context.Context, exec SQLExecutor, ownerID int) ([]int, error) {
	executor := r.getExecutor(exec)

	rows, err := executor.QueryContext(ctx,
		`SELECT id FROM tournaments WHERE owner_id = $1`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments by owner: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan tournament id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DetachUser убирает следы пользователя в чужих турнирах: регистрации,
// командные заявки и призовые места.
func (r *postgresTournamentRepository) DetachUser(ctx context.Context, exec SQLExecutor, userID int) error {
	executor := r.getExecutor(exec)

	statements := []string{
		`DELETE FROM tournament_players WHERE user_id = $1`,
		`DELETE FROM tournament_team_members WHERE user_id = $1`,
		`DELETE FROM tournament_team_members WHERE tournament_team_id IN
			(SELECT id FROM tournament_teams WHERE owner_id = $1)`,
		`DELETE FROM tournament_teams WHERE owner_id = $1`,
		`UPDATE tournaments SET first_place_id = NULL WHERE first_place_id = $1`,
		`UPDATE tournaments SET second_place_id = NULL WHERE second_place_id = $1`,
		`UPDATE tournaments SET third_place_id = NULL WHERE third_place_id = $1`,
	}
	for _, stmt := range statements {
		if _, err := executor.ExecContext(ctx, stmt, userID); err != nil {
			return fmt.Errorf("failed to detach user from tournaments: %w", err)
		}
	}
	return nil
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "tournaments_title_key" {
				return ErrTournamentTitleConflict
			}
		case "23503":
			switch pqErr.Constraint {
			case "tournaments_game_id_fkey":
				return ErrTournamentInvalidGame
			case "tournaments_owner_id_fkey":
				return ErrTournamentInvalidOwner
			}
		}
	}
	return err
}
