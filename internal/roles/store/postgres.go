package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"civitas/internal/roles/models"
	id "civitas/pkg/domain"
	"civitas/pkg/platform/sentinel"
	"civitas/pkg/platform/tx"
)

const pqUniqueViolation = "23505"

// Postgres persists role assignments in the role_assignments table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// querier lets store methods run inside an ambient transaction when one is
// present in the context.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) q(ctx context.Context) querier {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

func (s *Postgres) Create(ctx context.Context, a *models.Assignment) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO role_assignments (id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4)
	`, uuid.UUID(a.ID), uuid.UUID(a.UserID), string(a.Role), a.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert role assignment: %w", err)
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, userID id.UserID, role models.Role) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		DELETE FROM role_assignments WHERE user_id = $1 AND role = $2
	`, uuid.UUID(userID), string(role))
	if err != nil {
		return fmt.Errorf("delete role assignment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete role assignment: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Has(ctx context.Context, userID id.UserID, role models.Role) (bool, error) {
	var exists bool
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM role_assignments WHERE user_id = $1 AND role = $2
		)
	`, uuid.UUID(userID), string(role)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query role assignment: %w", err)
	}
	return exists, nil
}

func (s *Postgres) ListByUser(ctx context.Context, userID id.UserID) ([]*models.Assignment, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT id, user_id, role, created_at
		FROM role_assignments
		WHERE user_id = $1
		ORDER BY created_at
	`, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list role assignments: %w", err)
	}
	defer rows.Close()

	var out []*models.Assignment
	for rows.Next() {
		var (
			a       models.Assignment
			assignID uuid.UUID
			userUUID uuid.UUID
			role     string
		)
		if err := rows.Scan(&assignID, &userUUID, &role, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan role assignment: %w", err)
		}
		a.ID = assignID
		a.UserID = id.UserID(userUUID)
		a.Role = models.Role(role)
		out = append(out, &a)
	}
	return out, rows.Err()
}
