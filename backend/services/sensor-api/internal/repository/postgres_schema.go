package repository

// PostgresSchema returns idempotent DDL for the readings and users tables.
func PostgresSchema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS readings (
			id           UUID PRIMARY KEY,
			equipment_id TEXT NOT NULL,
			recorded_at  TIMESTAMPTZ NOT NULL,
			value        DOUBLE PRECISION NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id            UUID PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
}
