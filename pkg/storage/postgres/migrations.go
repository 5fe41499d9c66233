package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns all CRM migrations
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users table",
			SQL: `
				CREATE TABLE IF NOT EXISTS users (
					id BIGSERIAL PRIMARY KEY,
					username VARCHAR(150) NOT NULL UNIQUE,
					email VARCHAR(255) NOT NULL UNIQUE,
					full_name VARCHAR(255) NOT NULL DEFAULT '',
					team VARCHAR(20) NOT NULL CHECK (team IN ('management', 'sales', 'support')),
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_users_team ON users(team);
				CREATE INDEX idx_users_is_active ON users(is_active);
			`,
		},
		{
			Version:     2,
			Description: "Create api_tokens table",
			SQL: `
				CREATE TABLE IF NOT EXISTS api_tokens (
					id BIGSERIAL PRIMARY KEY,
					user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					name VARCHAR(255) NOT NULL,
					token_hash VARCHAR(64) NOT NULL UNIQUE,
					token_prefix VARCHAR(16) NOT NULL,
					expires_at TIMESTAMP,
					last_used_at TIMESTAMP,
					revoked_at TIMESTAMP,
					created_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_api_tokens_user_id ON api_tokens(user_id);
				CREATE INDEX idx_api_tokens_token_hash ON api_tokens(token_hash);
				CREATE INDEX idx_api_tokens_expires_at ON api_tokens(expires_at);
			`,
		},
		{
			Version:     3,
			Description: "Create clients table",
			SQL: `
				CREATE TABLE IF NOT EXISTS clients (
					id BIGSERIAL PRIMARY KEY,
					first_name VARCHAR(100) NOT NULL,
					last_name VARCHAR(100) NOT NULL,
					email VARCHAR(255) NOT NULL,
					phone VARCHAR(40) NOT NULL DEFAULT '',
					mobile VARCHAR(40) NOT NULL DEFAULT '',
					company_name VARCHAR(255) NOT NULL DEFAULT '',
					status BOOLEAN NOT NULL DEFAULT FALSE,
					sales_contact_id BIGINT REFERENCES users(id) ON DELETE SET NULL,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
					CHECK (status = FALSE OR sales_contact_id IS NOT NULL)
				);

				CREATE INDEX idx_clients_sales_contact_id ON clients(sales_contact_id);
				CREATE INDEX idx_clients_status ON clients(status);
				CREATE INDEX idx_clients_company_name ON clients(company_name);
			`,
		},
		{
			Version:     4,
			Description: "Create contracts table",
			SQL: `
				CREATE TABLE IF NOT EXISTS contracts (
					id BIGSERIAL PRIMARY KEY,
					client_id BIGINT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
					sales_contact_id BIGINT NOT NULL REFERENCES users(id),
					status BOOLEAN NOT NULL DEFAULT FALSE,
					amount NUMERIC(12, 2) NOT NULL CHECK (amount > 0),
					payment_due TIMESTAMP NOT NULL,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_contracts_client_id ON contracts(client_id);
				CREATE INDEX idx_contracts_sales_contact_id ON contracts(sales_contact_id);
				CREATE INDEX idx_contracts_status ON contracts(status);
				CREATE INDEX idx_contracts_payment_due ON contracts(payment_due);
			`,
		},
		{
			Version:     5,
			Description: "Create events table",
			SQL: `
				CREATE TABLE IF NOT EXISTS events (
					id BIGSERIAL PRIMARY KEY,
					contract_id BIGINT NOT NULL UNIQUE REFERENCES contracts(id) ON DELETE CASCADE,
					name VARCHAR(255) NOT NULL,
					location VARCHAR(255) NOT NULL DEFAULT '',
					support_contact_id BIGINT REFERENCES users(id) ON DELETE SET NULL,
					event_status BOOLEAN NOT NULL DEFAULT FALSE,
					attendees INT NOT NULL CHECK (attendees > 0),
					event_date TIMESTAMP NOT NULL,
					notes TEXT NOT NULL DEFAULT '',
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_events_support_contact_id ON events(support_contact_id);
				CREATE INDEX idx_events_event_status ON events(event_status);
				CREATE INDEX idx_events_event_date ON events(event_date);
			`,
		},
	}
}

// RunMigrations executes all pending migrations
func RunMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS crm_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT version FROM crm_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}

	appliedVersions := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		appliedVersions[version] = true
	}
	rows.Close()

	for _, migration := range GetMigrations() {
		if appliedVersions[migration.Version] {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO crm_migrations (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
