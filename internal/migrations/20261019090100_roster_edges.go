package migrations

import "github.com/jmoiron/sqlx"

func init() {
	m.register(&migration{
		version: "20261019090100",
		name:    "roster_edges",
		up:      mig_20261019090100_roster_edges_up,
		down:    mig_20261019090100_roster_edges_down,
	})
}

func mig_20261019090100_roster_edges_up(tx *sqlx.Tx) error {
	_, err := tx.Exec(`
        CREATE TABLE IF NOT EXISTS roster_edges (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            user_id UUID NOT NULL REFERENCES users(id),
            admin_id UUID NOT NULL REFERENCES users(id),
            added_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
            UNIQUE(user_id, admin_id)
        );
    `)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
        CREATE INDEX IF NOT EXISTS idx_roster_edges_admin_id ON roster_edges(admin_id);
    `)
	return err
}

func mig_20261019090100_roster_edges_down(tx *sqlx.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS roster_edges;`)
	return err
}
