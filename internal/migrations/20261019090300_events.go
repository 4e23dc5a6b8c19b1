package migrations

import "github.com/jmoiron/sqlx"

func init() {
	m.register(&migration{
		version: "20261019090300",
		name:    "events",
		up:      mig_20261019090300_events_up,
		down:    mig_20261019090300_events_down,
	})
}

func mig_20261019090300_events_up(tx *sqlx.Tx) error {
	_, err := tx.Exec(`
        CREATE TABLE IF NOT EXISTS events (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            title VARCHAR(255) NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            date TIMESTAMP WITH TIME ZONE NOT NULL,
            time VARCHAR(5) NOT NULL DEFAULT '',
            reminder BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
        );

        CREATE INDEX IF NOT EXISTS idx_events_user_date ON events(user_id, date);
    `)
	return err
}

func mig_20261019090300_events_down(tx *sqlx.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS events;`)
	return err
}
