package db

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema statements applied at startup, in order. Each is idempotent.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id          BIGSERIAL PRIMARY KEY,
		tg_id       BIGINT NOT NULL UNIQUE,
		role        TEXT NOT NULL DEFAULT 'user',
		trial_until TIMESTAMPTZ,
		referrer_id BIGINT REFERENCES users(id),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS vpn_types (
		id          BIGSERIAL PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS vpn_countries (
		id   BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS vpn_servers (
		id         BIGSERIAL PRIMARY KEY,
		name       TEXT NOT NULL,
		price      BIGINT NOT NULL CHECK (price > 0),
		max_conn   INT NOT NULL CHECK (max_conn > 0),
		now_conn   INT NOT NULL DEFAULT 0 CHECK (now_conn >= 0),
		server_ip  TEXT NOT NULL,
		api_url    TEXT NOT NULL,
		api_token  TEXT NOT NULL DEFAULT '',
		is_active  BOOLEAN NOT NULL DEFAULT TRUE,
		type_id    BIGINT NOT NULL REFERENCES vpn_types(id),
		country_id BIGINT NOT NULL REFERENCES vpn_countries(id)
	)`,
	`CREATE TABLE IF NOT EXISTS vpn_credentials (
		id              BIGSERIAL PRIMARY KEY,
		user_id         BIGINT NOT NULL REFERENCES users(id),
		server_id       BIGINT NOT NULL REFERENCES vpn_servers(id),
		provider        TEXT NOT NULL,
		provider_key_id TEXT NOT NULL,
		access_url      TEXT NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		expires_at      TIMESTAMPTZ NOT NULL,
		is_active       BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS vpn_subscriptions (
		id            BIGSERIAL PRIMARY KEY,
		user_id       BIGINT NOT NULL REFERENCES users(id),
		credential_id BIGINT NOT NULL UNIQUE REFERENCES vpn_credentials(id),
		started_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		expires_at    TIMESTAMPTZ NOT NULL,
		status        TEXT NOT NULL DEFAULT 'active'
	)`,
	`CREATE TABLE IF NOT EXISTS referral_earnings (
		id          BIGSERIAL PRIMARY KEY,
		referrer_id BIGINT NOT NULL REFERENCES users(id),
		referred_id BIGINT NOT NULL REFERENCES users(id),
		amount      BIGINT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS processed_payments (
		payload       TEXT PRIMARY KEY,
		kind          TEXT NOT NULL,
		user_id       BIGINT NOT NULL REFERENCES users(id),
		credential_id BIGINT NOT NULL REFERENCES vpn_credentials(id),
		access_url    TEXT NOT NULL,
		expires_at    TIMESTAMPTZ NOT NULL,
		processed_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS lifecycle_logs (
		id            UUID PRIMARY KEY,
		credential_id BIGINT,
		action        TEXT NOT NULL,
		status        TEXT NOT NULL,
		message       TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_vpn_credentials_expiry
		ON vpn_credentials (expires_at) WHERE is_active`,
	`CREATE INDEX IF NOT EXISTS idx_vpn_credentials_user
		ON vpn_credentials (user_id)`,
}

// Migrate applies the schema. Safe to run on every startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration %d: %w", i+1, err)
		}
	}
	log.Printf("[db] Schema up to date (%d statements)", len(migrations))
	return nil
}
