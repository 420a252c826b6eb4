package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"slices"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var schemaFS embed.FS

// schemaFile matches "0001_phase_runs.up.sql" style names.
var schemaFile = regexp.MustCompile(`^(\d+)_([a-z0-9_]+)\.(up|down)\.sql$`)

// step is one schema version with its forward and rollback SQL.
type step struct {
	version  int
	name     string
	forward  string
	rollback string
}

func (s step) String() string {
	return fmt.Sprintf("%04d_%s", s.version, s.name)
}

// readSteps loads every embedded schema file and pairs forward with rollback
// SQL. The result is ordered by version.
func readSteps() ([]step, error) {
	files, err := fs.Glob(schemaFS, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("listing schema files: %w", err)
	}

	byVersion := map[int]*step{}
	for _, file := range files {
		base := path.Base(file)
		version, name, dir, err := splitSchemaFile(base)
		if err != nil {
			return nil, fmt.Errorf("schema file %q: %w", base, err)
		}

		body, err := fs.ReadFile(schemaFS, file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", base, err)
		}

		s, ok := byVersion[version]
		if !ok {
			s = &step{version: version, name: name}
			byVersion[version] = s
		}
		if s.name != name {
			return nil, fmt.Errorf("version %04d is named both %q and %q", version, s.name, name)
		}

		slot := &s.forward
		if dir == "down" {
			slot = &s.rollback
		}
		if *slot != "" {
			return nil, fmt.Errorf("version %04d has two %s files", version, dir)
		}
		*slot = string(body)
	}

	steps := make([]step, 0, len(byVersion))
	for _, s := range byVersion {
		switch {
		case s.forward == "":
			return nil, fmt.Errorf("version %04d is missing its up file", s.version)
		case s.rollback == "":
			return nil, fmt.Errorf("version %04d is missing its down file", s.version)
		}
		steps = append(steps, *s)
	}

	slices.SortFunc(steps, func(a, b step) int { return a.version - b.version })
	return steps, nil
}

// splitSchemaFile returns the version, name and direction encoded in a
// schema file name.
func splitSchemaFile(base string) (version int, name, dir string, err error) {
	m := schemaFile.FindStringSubmatch(base)
	if m == nil {
		return 0, "", "", errors.New("want NNNN_name.up.sql or NNNN_name.down.sql")
	}

	version, err = strconv.Atoi(m[1])
	if err != nil {
		return 0, "", "", fmt.Errorf("version %q: %w", m[1], err)
	}
	if version == 0 {
		return 0, "", "", errors.New("version starts at 1")
	}

	return version, m[2], m[3], nil
}

// migrator applies schema steps against one connection and records applied
// versions in schema_version.
type migrator struct {
	conn  *sql.DB
	steps []step
}

func newMigrator(ctx context.Context, conn *sql.DB) (*migrator, error) {
	steps, err := readSteps()
	if err != nil {
		return nil, err
	}

	const ddl = `CREATE TABLE IF NOT EXISTS schema_version (
		version    INTEGER PRIMARY KEY,
		name       TEXT    NOT NULL,
		applied_at INTEGER NOT NULL
	)`
	if _, err := conn.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("creating schema_version: %w", err)
	}

	return &migrator{conn: conn, steps: steps}, nil
}

func (m *migrator) applied(ctx context.Context) (map[int]struct{}, error) {
	rows, err := m.conn.QueryContext(ctx, `SELECT version FROM schema_version`)
	if err != nil {
		return nil, fmt.Errorf("reading schema_version: %w", err)
	}
	defer func() { _ = rows.Close() }()

	done := map[int]struct{}{}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		done[v] = struct{}{}
	}
	return done, rows.Err()
}

// exec runs body and the bookkeeping statement in a single transaction.
func (m *migrator) exec(ctx context.Context, body, record string, args ...any) error {
	tx, err := m.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, body); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, record, args...); err != nil {
		return err
	}
	return tx.Commit()
}

// up applies every step not yet recorded.
func (m *migrator) up(ctx context.Context) error {
	done, err := m.applied(ctx)
	if err != nil {
		return err
	}

	for _, s := range m.steps {
		if _, ok := done[s.version]; ok {
			continue
		}
		log.Debug().Stringer("step", s).Msg("applying schema step")
		err := m.exec(ctx, s.forward,
			`INSERT INTO schema_version (version, name, applied_at) VALUES (?, ?, ?)`,
			s.version, s.name, time.Now().UnixNano())
		if err != nil {
			return fmt.Errorf("apply %s: %w", s, err)
		}
	}
	return nil
}

// down rolls back the newest n applied steps.
func (m *migrator) down(ctx context.Context, n int) error {
	if n < 1 {
		return fmt.Errorf("rollback count must be at least 1, got %d", n)
	}

	done, err := m.applied(ctx)
	if err != nil {
		return err
	}

	var pending []step
	for _, s := range slices.Backward(m.steps) {
		if _, ok := done[s.version]; ok {
			pending = append(pending, s)
		}
	}
	if n > len(pending) {
		return fmt.Errorf("cannot roll back %d steps, only %d applied", n, len(pending))
	}

	for _, s := range pending[:n] {
		log.Info().Stringer("step", s).Msg("rolling back schema step")
		err := m.exec(ctx, s.rollback, `DELETE FROM schema_version WHERE version = ?`, s.version)
		if err != nil {
			return fmt.Errorf("roll back %s: %w", s, err)
		}
	}
	return nil
}

// Rollback reverts the newest n schema steps applied to conn.
func Rollback(ctx context.Context, conn *sql.DB, n int) error {
	m, err := newMigrator(ctx, conn)
	if err != nil {
		return err
	}
	return m.down(ctx, n)
}

func migrate(ctx context.Context, conn *sql.DB) error {
	m, err := newMigrator(ctx, conn)
	if err != nil {
		return err
	}
	return m.up(ctx)
}
