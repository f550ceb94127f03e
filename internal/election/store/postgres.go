package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"civitas/internal/election/models"
	id "civitas/pkg/domain"
	"civitas/pkg/platform/sentinel"
	"civitas/pkg/platform/tx"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// Postgres persists elections, candidates, and parties.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

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

func (s *Postgres) CreateElection(ctx context.Context, e *models.Election) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO elections (id, name, constituency, description, start_at, end_at, cancelled_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.UUID(e.ID), e.Name, nullable(e.Constituency), nullable(e.Description),
		e.StartAt, e.EndAt, e.CancelledAt, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert election: %w", err)
	}
	return nil
}

func (s *Postgres) FindElection(ctx context.Context, electionID id.ElectionID) (*models.Election, error) {
	row := s.q(ctx).QueryRowContext(ctx, selectElection+` WHERE id = $1`, uuid.UUID(electionID))
	return scanElection(rowScanner{row})
}

func (s *Postgres) ListElections(ctx context.Context, constituency string) ([]*models.Election, error) {
	query := selectElection
	args := []any{}
	if constituency != "" {
		query += ` WHERE LOWER(constituency) = LOWER($1)`
		args = append(args, constituency)
	}
	query += ` ORDER BY start_at`

	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list elections: %w", err)
	}
	defer rows.Close()

	var out []*models.Election
	for rows.Next() {
		e, err := scanElection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ExecuteElection locks the row (FOR UPDATE), validates, mutates, and writes
// the cancellation timestamp back in one transaction.
func (s *Postgres) ExecuteElection(ctx context.Context, electionID id.ElectionID, validate func(*models.Election) error, mutate func(*models.Election)) (*models.Election, error) {
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin election tx: %w", err)
	}
	defer func() { _ = dbtx.Rollback() }()

	row := dbtx.QueryRowContext(ctx, selectElection+` WHERE id = $1 FOR UPDATE`, uuid.UUID(electionID))
	e, err := scanElection(rowScanner{row})
	if err != nil {
		return nil, err
	}
	if err := validate(e); err != nil {
		return nil, err
	}
	mutate(e)

	_, err = dbtx.ExecContext(ctx, `
		UPDATE elections SET cancelled_at = $2 WHERE id = $1
	`, uuid.UUID(e.ID), e.CancelledAt)
	if err != nil {
		return nil, fmt.Errorf("update election: %w", err)
	}
	if err := dbtx.Commit(); err != nil {
		return nil, fmt.Errorf("commit election tx: %w", err)
	}
	return e, nil
}

func (s *Postgres) CreateCandidate(ctx context.Context, c *models.Candidate) error {
	var partyID any
	if c.PartyID != nil {
		partyID = uuid.UUID(*c.PartyID)
	}
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO candidates (id, election_id, party_id, full_name, bio, photo_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.UUID(c.ID), uuid.UUID(c.ElectionID), partyID, c.FullName,
		nullable(c.Bio), nullable(c.PhotoURL), c.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case pqForeignKeyViolation:
				return sentinel.ErrNotFound
			case pqUniqueViolation:
				return sentinel.ErrConflict
			}
		}
		return fmt.Errorf("insert candidate: %w", err)
	}
	return nil
}

func (s *Postgres) FindCandidate(ctx context.Context, candidateID id.CandidateID) (*models.Candidate, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, election_id, party_id, full_name, bio, photo_url, created_at
		FROM candidates WHERE id = $1
	`, uuid.UUID(candidateID))
	return scanCandidate(rowScanner{row})
}

func (s *Postgres) ListCandidates(ctx context.Context, electionID id.ElectionID) ([]*models.Candidate, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT id, election_id, party_id, full_name, bio, photo_url, created_at
		FROM candidates WHERE election_id = $1 ORDER BY created_at
	`, uuid.UUID(electionID))
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var out []*models.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Postgres) CreateParty(ctx context.Context, p *models.Party) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO parties (id, name, abbreviation, symbol_url, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.UUID(p.ID), p.Name, nullable(p.Abbreviation), nullable(p.SymbolURL), p.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert party: %w", err)
	}
	return nil
}

func (s *Postgres) FindParty(ctx context.Context, partyID id.PartyID) (*models.Party, error) {
	var (
		p       models.Party
		pid     uuid.UUID
		abbrev  sql.NullString
		symbol  sql.NullString
	)
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, name, abbreviation, symbol_url, created_at FROM parties WHERE id = $1
	`, uuid.UUID(partyID)).Scan(&pid, &p.Name, &abbrev, &symbol, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan party: %w", err)
	}
	p.ID = id.PartyID(pid)
	p.Abbreviation = abbrev.String
	p.SymbolURL = symbol.String
	return &p, nil
}

func (s *Postgres) ListParties(ctx context.Context) ([]*models.Party, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT id, name, abbreviation, symbol_url, created_at FROM parties ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list parties: %w", err)
	}
	defer rows.Close()

	var out []*models.Party
	for rows.Next() {
		var (
			p      models.Party
			pid    uuid.UUID
			abbrev sql.NullString
			symbol sql.NullString
		)
		if err := rows.Scan(&pid, &p.Name, &abbrev, &symbol, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan party: %w", err)
		}
		p.ID = id.PartyID(pid)
		p.Abbreviation = abbrev.String
		p.SymbolURL = symbol.String
		out = append(out, &p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

// rowScanner adapts *sql.Row to the shared scanner interface and converts
// ErrNoRows to the store sentinel.
type rowScanner struct {
	row *sql.Row
}

func (r rowScanner) Scan(dest ...any) error {
	return r.row.Scan(dest...)
}

func scanElection(sc scanner) (*models.Election, error) {
	var (
		e       models.Election
		eid     uuid.UUID
		constit sql.NullString
		desc    sql.NullString
	)
	err := sc.Scan(&eid, &e.Name, &constit, &desc, &e.StartAt, &e.EndAt, &e.CancelledAt, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan election: %w", err)
	}
	e.ID = id.ElectionID(eid)
	e.Constituency = constit.String
	e.Description = desc.String
	return &e, nil
}

func scanCandidate(sc scanner) (*models.Candidate, error) {
	var (
		c     models.Candidate
		cid   uuid.UUID
		eid   uuid.UUID
		pid   uuid.NullUUID
		bio   sql.NullString
		photo sql.NullString
	)
	err := sc.Scan(&cid, &eid, &pid, &c.FullName, &bio, &photo, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan candidate: %w", err)
	}
	c.ID = id.CandidateID(cid)
	c.ElectionID = id.ElectionID(eid)
	if pid.Valid {
		partyID := id.PartyID(pid.UUID)
		c.PartyID = &partyID
	}
	c.Bio = bio.String
	c.PhotoURL = photo.String
	return &c, nil
}

const selectElection = `
	SELECT id, name, constituency, description, start_at, end_at, cancelled_at, created_at
	FROM elections`

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
