package migrations

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"text/template"
	"time"

	"github.com/jmoiron/sqlx"
)

//go:embed template.txt
var migrationTemplate string

var migrationName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

type direction string

const (
	up   direction = "up"
	down direction = "down"
)

// migration is one registered schema change. name is the file suffix, e.g. "tasks".
type migration struct {
	version string
	name    string
	up      func(*sqlx.Tx) error
	down    func(*sqlx.Tx) error
}

// Migrator applies the registered migrations and records them in metadata.schema_migrations.
type Migrator struct {
	db       *sqlx.DB
	versions []string
	registry map[string]*migration
	applied  map[string]time.Time
}

var m = newRegistry()

func newRegistry() *Migrator {
	return &Migrator{
		registry: map[string]*migration{},
		applied:  map[string]time.Time{},
	}
}

// MigrationState is one line of `migrate status`
type MigrationState struct {
	Version   string
	Name      string
	AppliedAt *time.Time
}

func (s MigrationState) Applied() bool {
	return s.AppliedAt != nil
}

func (s MigrationState) String() string {
	if s.AppliedAt == nil {
		return fmt.Sprintf("%s_%s pending", s.Version, s.Name)
	}
	return fmt.Sprintf("%s_%s applied at %s", s.Version, s.Name, s.AppliedAt.Format(time.RFC3339))
}

// NewMigrator loads the applied versions from metadata.schema_migrations.
func NewMigrator(db *sqlx.DB) (*Migrator, error) {
	if _, err := db.Exec(`CREATE SCHEMA IF NOT EXISTS metadata`); err != nil {
		return nil, fmt.Errorf("failed to create metadata schema: %w", err)
	}

	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS metadata.schema_migrations (
            version VARCHAR(255) PRIMARY KEY,
            applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
        )`)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var rows []struct {
		Version   string    `db:"version"`
		AppliedAt time.Time `db:"applied_at"`
	}
	if err := db.Select(&rows, `SELECT version, applied_at FROM metadata.schema_migrations`); err != nil {
		return nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}

	m.db = db
	m.applied = make(map[string]time.Time, len(rows))
	for _, r := range rows {
		if _, known := m.registry[r.Version]; !known {
			slog.Warn("Applied migration is not registered in this build", slog.String("version", r.Version))
		}
		m.applied[r.Version] = r.AppliedAt
	}

	return m, nil
}

// register keeps versions sorted so migrations apply in timestamp order.
func (m *Migrator) register(mg *migration) {
	if _, dup := m.registry[mg.version]; dup {
		panic(fmt.Sprintf("migration %s registered twice", mg.version))
	}
	i := sort.SearchStrings(m.versions, mg.version)
	m.versions = slices.Insert(m.versions, i, mg.version)
	m.registry[mg.version] = mg
}

// Status lists every registered migration, oldest first.
func (m *Migrator) Status() []MigrationState {
	out := make([]MigrationState, 0, len(m.versions))
	for _, v := range m.versions {
		st := MigrationState{Version: v, Name: m.registry[v].name}
		if at, ok := m.applied[v]; ok {
			st.AppliedAt = &at
		}
		out = append(out, st)
	}
	return out
}

// Pending lists the versions still to run, oldest first.
func (m *Migrator) Pending() []string {
	var out []string
	for _, v := range m.versions {
		if _, ok := m.applied[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}

// revertible lists the applied versions newest first.
func (m *Migrator) revertible() []string {
	var out []string
	for i := len(m.versions) - 1; i >= 0; i-- {
		if _, ok := m.applied[m.versions[i]]; ok {
			out = append(out, m.versions[i])
		}
	}
	return out
}

// Up applies pending migrations; step > 0 limits how many.
func (m *Migrator) Up(ctx context.Context, step int) error {
	return m.run(ctx, up, limit(m.Pending(), step))
}

// Down reverts applied migrations newest first; step > 0 limits how many.
func (m *Migrator) Down(ctx context.Context, step int) error {
	return m.run(ctx, down, limit(m.revertible(), step))
}

func limit(versions []string, step int) []string {
	if step > 0 && step < len(versions) {
		return versions[:step]
	}
	return versions
}

// run executes versions in one transaction, so a failure leaves the schema untouched.
func (m *Migrator) run(ctx context.Context, dir direction, versions []string) error {
	if len(versions) == 0 {
		slog.Info("Schema is up to date", slog.String("direction", string(dir)))
		return nil
	}

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration transaction: %w", err)
	}
	defer tx.Rollback()

	for _, v := range versions {
		mg := m.registry[v]
		l := slog.With(slog.String("version", v), slog.String("name", mg.name), slog.String("direction", string(dir)))

		l.Info("Running migration...")
		if err := apply(tx, dir, mg); err != nil {
			l.Error("Migration failed", slog.Any("error", err))
			return fmt.Errorf("migration %s_%s %s: %w", v, mg.name, dir, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migrations: %w", err)
	}

	now := time.Now().UTC()
	for _, v := range versions {
		if dir == up {
			m.applied[v] = now
		} else {
			delete(m.applied, v)
		}
	}
	slog.Info("Finished migrations", slog.String("direction", string(dir)), slog.Int("count", len(versions)))
	return nil
}

func apply(tx *sqlx.Tx, dir direction, mg *migration) error {
	if dir == up {
		if err := mg.up(tx); err != nil {
			return err
		}
		_, err := tx.Exec(`INSERT INTO metadata.schema_migrations (version) VALUES ($1)`, mg.version)
		return err
	}

	if err := mg.down(tx); err != nil {
		return err
	}
	_, err := tx.Exec(`DELETE FROM metadata.schema_migrations WHERE version = $1`, mg.version)
	return err
}

// CreateMigration writes an empty migration named name into dir and returns its path.
func CreateMigration(dir, name string) (string, error) {
	if !migrationName.MatchString(name) {
		return "", fmt.Errorf("migration name %q must be lower snake case", name)
	}

	in := struct {
		Version string
		Name    string
	}{
		Version: time.Now().UTC().Format("20060102150405"),
		Name:    name,
	}

	var out bytes.Buffer
	t := template.Must(template.New("migration").Parse(migrationTemplate))
	if err := t.Execute(&out, in); err != nil {
		return "", fmt.Errorf("failed to render migration: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.go", in.Version, in.Name))
	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write migration: %w", err)
	}
	return path, nil
}
