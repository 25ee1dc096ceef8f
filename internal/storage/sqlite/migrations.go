package sqlite

import "database/sql"

// schema sets up the database. It runs on startup to ensure tables exist.
// Amounts are INTEGER minor units; auction times are Unix nanoseconds so the
// bid tie-break survives a round trip.
const schema = `
CREATE TABLE IF NOT EXISTS groups (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    contribution_amount INTEGER NOT NULL,
    total_members INTEGER NOT NULL,
    duration_cycles INTEGER NOT NULL,
    current_cycle INTEGER NOT NULL,
    status TEXT NOT NULL,
    created_by TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS group_members (
    group_id TEXT NOT NULL,
    member TEXT NOT NULL,
    position INTEGER NOT NULL,
    PRIMARY KEY (group_id, member),
    FOREIGN KEY (group_id) REFERENCES groups(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS auctions (
    group_id TEXT NOT NULL,
    cycle INTEGER NOT NULL,
    status TEXT NOT NULL,
    opened_at INTEGER NOT NULL,
    end_time INTEGER NOT NULL,
    extensions INTEGER NOT NULL DEFAULT 0,
    winner TEXT,
    winning_bid INTEGER,
    discount INTEGER,
    settled_at INTEGER,
    PRIMARY KEY (group_id, cycle),
    FOREIGN KEY (group_id) REFERENCES groups(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS bids (
    group_id TEXT NOT NULL,
    cycle INTEGER NOT NULL,
    member TEXT NOT NULL,
    amount INTEGER NOT NULL,
    submitted_at INTEGER NOT NULL,
    seq INTEGER NOT NULL,
    PRIMARY KEY (group_id, cycle, member),
    FOREIGN KEY (group_id, cycle) REFERENCES auctions(group_id, cycle) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS ledger_entries (
    group_id TEXT NOT NULL,
    cycle INTEGER NOT NULL,
    member TEXT NOT NULL,
    position INTEGER NOT NULL,
    contributed INTEGER NOT NULL,
    payout_received INTEGER NOT NULL,
    discount_received INTEGER NOT NULL,
    discount_forgone INTEGER NOT NULL,
    PRIMARY KEY (group_id, cycle, member),
    FOREIGN KEY (group_id) REFERENCES groups(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    address TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_group_members_member ON group_members(member);
CREATE INDEX IF NOT EXISTS idx_bids_group_cycle ON bids(group_id, cycle);
CREATE INDEX IF NOT EXISTS idx_ledger_entries_group_id ON ledger_entries(group_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
