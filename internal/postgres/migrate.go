package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is idempotent; Migrate runs it on every startup.
const schema = `
CREATE TABLE IF NOT EXISTS players (
	id             UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	email          TEXT NOT NULL UNIQUE,
	name           TEXT NOT NULL,
	password_hash  TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS groups (
	id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	name        TEXT NOT NULL,
	owner_id    UUID NOT NULL REFERENCES players(id),
	max_buyin   NUMERIC(12,2),
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS group_members (
	group_id   UUID NOT NULL REFERENCES groups(id),
	player_id  UUID NOT NULL REFERENCES players(id),
	role       TEXT NOT NULL DEFAULT 'member',
	joined_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (group_id, player_id)
);

CREATE TABLE IF NOT EXISTS games (
	id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	group_id      UUID NOT NULL REFERENCES groups(id),
	name          TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'active',
	created_by    UUID NOT NULL REFERENCES players(id),
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at  TIMESTAMPTZ,
	settled_at    TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS game_transactions (
	id           UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	game_id      UUID NOT NULL REFERENCES games(id),
	player_id    UUID NOT NULL REFERENCES players(id),
	kind         TEXT NOT NULL CHECK (kind IN ('buyin', 'cashout')),
	amount       NUMERIC(12,2) NOT NULL CHECK (amount >= 0),
	recorded_by  UUID NOT NULL REFERENCES players(id),
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_game_transactions_game ON game_transactions(game_id);

CREATE TABLE IF NOT EXISTS settlements (
	id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	game_id       UUID NOT NULL REFERENCES games(id),
	payer_id      UUID NOT NULL REFERENCES players(id),
	payee_id      UUID NOT NULL REFERENCES players(id),
	amount        NUMERIC(12,2) NOT NULL CHECK (amount > 0),
	status        TEXT NOT NULL DEFAULT 'pending',
	confirmed_by  UUID REFERENCES players(id),
	confirmed_at  TIMESTAMPTZ,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_settlements_game ON settlements(game_id);

CREATE TABLE IF NOT EXISTS audit_log (
	id           UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	actor_id     UUID REFERENCES players(id),
	action       TEXT NOT NULL,
	entity_type  TEXT NOT NULL,
	entity_id    UUID NOT NULL,
	detail       JSONB,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate creates the application tables if they do not exist yet. River's
// own tables are handled separately by rivermigrate in main.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
