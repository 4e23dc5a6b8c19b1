package migrations

import "github.com/jmoiron/sqlx"

func init() {
	m.register(&migration{
		version: "20261019090400",
		name:    "notifications",
		up:      mig_20261019090400_notifications_up,
		down:    mig_20261019090400_notifications_down,
	})
}

func mig_20261019090400_notifications_up(tx *sqlx.Tx) error {
	_, err := tx.Exec(`
        CREATE TABLE IF NOT EXISTS notifications (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            kind VARCHAR(32) NOT NULL
                CHECK (kind IN ('task_assigned', 'task_overdue')),
            task_id UUID REFERENCES tasks(id) ON DELETE SET NULL,
            message TEXT NOT NULL,
            is_read BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
        );

        CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications(user_id, created_at DESC);
        CREATE INDEX IF NOT EXISTS idx_notifications_user_unread ON notifications(user_id) WHERE NOT is_read;
    `)
	return err
}

func mig_20261019090400_notifications_down(tx *sqlx.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS notifications;`)
	return err
}
