package migrations

import "github.com/jmoiron/sqlx"

func init() {
	m.register(&migration{
		version: "20261019090200",
		name:    "tasks",
		up:      mig_20261019090200_tasks_up,
		down:    mig_20261019090200_tasks_down,
	})
}

func mig_20261019090200_tasks_up(tx *sqlx.Tx) error {
	_, err := tx.Exec(`
        CREATE TABLE IF NOT EXISTS tasks (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            title VARCHAR(255) NOT NULL,
            description TEXT NOT NULL,
            assigned_to UUID REFERENCES users(id),
            created_by UUID NOT NULL REFERENCES users(id),
            due_date TIMESTAMP WITH TIME ZONE NOT NULL,
            status VARCHAR(20) NOT NULL DEFAULT 'pending'
                CHECK (status IN ('pending', 'inProgress', 'completed', 'overdue')),
            priority VARCHAR(20) NOT NULL DEFAULT 'medium'
                CHECK (priority IN ('low', 'medium', 'high', 'urgent')),
            category VARCHAR(20) NOT NULL DEFAULT 'other'
                CHECK (category IN ('development', 'design', 'testing', 'documentation', 'other')),
            tags TEXT[] NOT NULL DEFAULT '{}',
            estimated_hours DOUBLE PRECISION CHECK (estimated_hours >= 0),
            dependencies UUID[] NOT NULL DEFAULT '{}',
            attachments JSONB NOT NULL DEFAULT '[]',
            comments JSONB NOT NULL DEFAULT '[]',
            created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
        );
    `)
	if err != nil {
		return err
	}

	// The sweep predicate is (scope column, status = 'pending', due_date < now).
	_, err = tx.Exec(`
        CREATE INDEX IF NOT EXISTS idx_tasks_created_by_status_due ON tasks(created_by, status, due_date);
        CREATE INDEX IF NOT EXISTS idx_tasks_assigned_to_status_due ON tasks(assigned_to, status, due_date);
        CREATE INDEX IF NOT EXISTS idx_tasks_created_at ON tasks(created_at);
    `)
	return err
}

func mig_20261019090200_tasks_down(tx *sqlx.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS tasks;`)
	return err
}
