package sqlite

import (
	"context"
	"database/sql"
)

// schema holds one row per document. It runs on open and on every
// EnsureLayout call, so every statement must be idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS documents (
    domain TEXT NOT NULL,
    key TEXT NOT NULL,
    body BLOB NOT NULL,
    updated_at INTEGER NOT NULL,
    PRIMARY KEY (domain, key)
);

CREATE INDEX IF NOT EXISTS idx_documents_domain ON documents(domain);
`

// runMigrations executes the schema setup.
func runMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
