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
	ErrRelationSubjectInvalid = errors.New("relation subject user invalid")
)

// RelationRepository хранит связи (subject, kind, object). Уникальный индекс
// по тройке — гарантия инварианта "не более одной строки на пару" независимо
// от проверок на уровне приложения.
type RelationRepository interface {
	// DeleteByKey удаляет связь и сообщает, существовала ли она.
	DeleteByKey(ctx context.Context, subjectID int, kind models.RelationKind, objectID int) (bool, error)
	// InsertIfAbsent вставляет связь через ON CONFLICT DO NOTHING. Возвращает
	// false, если строка уже существовала (в том числе вставленная
	// конкурентным вызовом) — связь в любом случае активна.
	InsertIfAbsent(ctx context.Context, subjectID int, kind models.RelationKind, objectID int) (bool, error)
	Exists(ctx context.Context, subjectID int, kind models.RelationKind, objectID int) (bool, error)
	CountByObject(ctx context.Context, kind models.RelationKind, objectID int) (int, error)
	DeleteAllBySubject(ctx context.Context, exec SQLExecutor, subjectID int) error
	DeleteAllByObject(ctx context.Context, exec SQLExecutor, kind models.RelationKind, objectID int) error
}

type postgresRelationRepository struct {
	db *sql.DB
}

func NewPostgresRelationRepository(db *sql.DB) RelationRepository {
	return &postgresRelationRepository{db: db}
}

func (r *postgresRelationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRelationRepository) DeleteByKey(ctx context.Context, subjectID int, kind models.RelationKind, objectID int) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM relations WHERE subject_id = $1 AND kind = $2 AND object_id = $3`,
		subjectID, kind, objectID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete relation: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return rowsAffected > 0, nil
}

func (r *postgresRelationRepository) InsertIfAbsent(ctx context.Context, subjectID int, kind models.RelationKind, objectID int) (bool, error) {
	query := `
		INSERT INTO relations (subject_id, kind, object_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (subject_id, kind, object_id) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query, subjectID, kind, objectID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			if pqErr.Constraint == "relations_subject_id_fkey" {
				return false, ErrRelationSubjectInvalid
			}
		}
		return false, fmt.Errorf("failed to insert relation: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return rowsAffected > 0, nil
}

func (r *postgresRelationRepository) Exists(ctx context.Context, subjectID int, kind models.RelationKind, objectID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM relations WHERE subject_id = $1 AND kind = $2 AND object_id = $3)`,
		subjectID, kind, objectID,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *postgresRelationRepository) CountByObject(ctx context.Context, kind models.RelationKind, objectID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM relations WHERE kind = $1 AND object_id = $2`,
		kind, objectID,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresRelationRepository) DeleteAllBySubject(ctx context.Context, exec SQLExecutor, subjectID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM relations WHERE subject_id = $1`, subjectID)
	if err != nil {
		return fmt.Errorf("failed to delete relations by subject: %w", err)
	}
	return nil
}

func (r *postgresRelationRepository) DeleteAllByObject(ctx context.Context, exec SQLExecutor, kind models.RelationKind, objectID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM relations WHERE kind = $1 AND object_id = $2`, kind, objectID)
	if err != nil {
		return fmt.Errorf("failed to delete relations by object: %w", err)
	}
	return nil
}
