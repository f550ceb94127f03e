// Package postgres owns the relational schema for the durable stores.
package postgres

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open connects to postgres and verifies the connection.
func Open(url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return db, nil
}

// CreateSchema creates all tables needed by the service.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL UNIQUE,
    full_name TEXT NOT NULL,
    date_of_birth DATE NOT NULL,
    national_id TEXT,
    phone TEXT,
    constituency TEXT,
    verification_status TEXT NOT NULL DEFAULT 'pending'
        CHECK (verification_status IN ('pending', 'verified', 'rejected')),
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS role_assignments (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL,
    role TEXT NOT NULL CHECK (role IN ('admin', 'election_official', 'voter')),
    created_at TIMESTAMPTZ NOT NULL,
    UNIQUE (user_id, role)
);

CREATE INDEX IF NOT EXISTS idx_role_assignments_user_id ON role_assignments(user_id);

CREATE TABLE IF NOT EXISTS parties (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    abbreviation TEXT,
    symbol_url TEXT,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS elections (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL,
    constituency TEXT,
    description TEXT,
    start_at TIMESTAMPTZ NOT NULL,
    end_at TIMESTAMPTZ NOT NULL,
    cancelled_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL,
    CHECK (end_at > start_at)
);

CREATE TABLE IF NOT EXISTS candidates (
    id UUID PRIMARY KEY,
    election_id UUID NOT NULL REFERENCES elections(id),
    party_id UUID REFERENCES parties(id),
    full_name TEXT NOT NULL,
    bio TEXT,
    photo_url TEXT,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_candidates_election_id ON candidates(election_id);

-- Identity-linked, choice-free. A row here is the sole authoritative fact of
-- "this voter has voted in this election". The UNIQUE constraint is the
-- database-level double-vote guard.
CREATE TABLE IF NOT EXISTS voter_log (
    id UUID PRIMARY KEY,
    election_id UUID NOT NULL REFERENCES elections(id),
    voter_id UUID NOT NULL,
    voted_at TIMESTAMPTZ NOT NULL,
    UNIQUE (election_id, voter_id)
);

-- Append-only. Votes are never updated or deleted. The voter_id column exists
-- only so the owning voter's receipt can be recomputed; no read path joins it
-- to candidate choice.
CREATE TABLE IF NOT EXISTS votes (
    id UUID PRIMARY KEY,
    election_id UUID NOT NULL REFERENCES elections(id),
    candidate_id UUID NOT NULL REFERENCES candidates(id),
    voter_id UUID NOT NULL,
    vote_hash TEXT NOT NULL,
    nonce TEXT NOT NULL,
    cast_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_votes_election_candidate ON votes(election_id, candidate_id);
`
