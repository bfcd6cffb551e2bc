package testutil

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Schema mirrors the columns of the platform tables the health score engine
// touches. The real tables carry more columns; only these are read or written.
const Schema = `
	CREATE TABLE IF NOT EXISTS organizations (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_activity_at TIMESTAMPTZ,
		health_score INTEGER,
		CONSTRAINT organizations_health_score_range CHECK (health_score BETWEEN 0 AND 100)
	);

	CREATE TABLE IF NOT EXISTS profiles (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		organization_id UUID REFERENCES organizations(id) ON DELETE SET NULL,
		role TEXT NOT NULL DEFAULT 'user',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		last_login TIMESTAMPTZ
	);

	CREATE INDEX IF NOT EXISTS idx_profiles_org_login ON profiles(organization_id, last_login);

	CREATE TABLE IF NOT EXISTS support_tickets (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
		status TEXT NOT NULL DEFAULT 'open',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_support_tickets_org_created ON support_tickets(organization_id, created_at);
`

// TruncateAll empties every table in Schema
func TruncateAll(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, `TRUNCATE support_tickets, profiles, organizations CASCADE`); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	return nil
}
