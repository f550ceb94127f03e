package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"civitas/internal/identity/models"
	id "civitas/pkg/domain"
	"civitas/pkg/platform/sentinel"
	"civitas/pkg/platform/tx"
)

const pqUniqueViolation = "23505"

// Postgres persists profiles in the profiles table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) q(ctx context.Context) querier {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

func (s *Postgres) Create(ctx context.Context, p *models.Profile) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO profiles (id, user_id, full_name, date_of_birth, national_id,
		                      phone, constituency, verification_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, uuid.UUID(p.ID), uuid.UUID(p.UserID), p.FullName, p.DateOfBirth,
		nullable(p.NationalID), nullable(p.Phone), nullable(p.Constituency),
		string(p.VerificationStatus), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, profileID id.ProfileID) (*models.Profile, error) {
	row := s.q(ctx).QueryRowContext(ctx, selectProfile+` WHERE id = $1`, uuid.UUID(profileID))
	return scanProfile(row)
}

func (s *Postgres) FindByUserID(ctx context.Context, userID id.UserID) (*models.Profile, error) {
	row := s.q(ctx).QueryRowContext(ctx, selectProfile+` WHERE user_id = $1`, uuid.UUID(userID))
	return scanProfile(row)
}

// Execute locks the row (FOR UPDATE), validates, mutates, and writes back in
// one transaction so verification transitions cannot race.
func (s *Postgres) Execute(ctx context.Context, profileID id.ProfileID, validate func(*models.Profile) error, mutate func(*models.Profile)) (*models.Profile, error) {
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin profile tx: %w", err)
	}
	defer func() { _ = dbtx.Rollback() }()

	row := dbtx.QueryRowContext(ctx, selectProfile+` WHERE id = $1 FOR UPDATE`, uuid.UUID(profileID))
	p, err := scanProfile(row)
	if err != nil {
		return nil, err
	}
	if err := validate(p); err != nil {
		return nil, err
	}
	mutate(p)

	_, err = dbtx.ExecContext(ctx, `
		UPDATE profiles SET verification_status = $2, updated_at = $3 WHERE id = $1
	`, uuid.UUID(p.ID), string(p.VerificationStatus), p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if err := dbtx.Commit(); err != nil {
		return nil, fmt.Errorf("commit profile tx: %w", err)
	}
	return p, nil
}

const selectProfile = `
	SELECT id, user_id, full_name, date_of_birth, national_id, phone,
	       constituency, verification_status, created_at, updated_at
	FROM profiles`

func scanProfile(row *sql.Row) (*models.Profile, error) {
	var (
		p          models.Profile
		profileID  uuid.UUID
		userID     uuid.UUID
		nationalID sql.NullString
		phone      sql.NullString
		constit    sql.NullString
		status     string
	)
	err := row.Scan(&profileID, &userID, &p.FullName, &p.DateOfBirth, &nationalID,
		&phone, &constit, &status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	p.ID = id.ProfileID(profileID)
	p.UserID = id.UserID(userID)
	p.NationalID = nationalID.String
	p.Phone = phone.String
	p.Constituency = constit.String
	p.VerificationStatus = models.VerificationStatus(status)
	return &p, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
