// Package persistence manages the service's own Postgres schema: ordered
// SQL-file migrations tracked in a version table.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

const versionTable = "public.aswap_schema_migrations"

// Migrator applies SQL migration files in lexical order. File naming follows
// the golang-migrate convention: {version}_{name}.up.sql / .down.sql.
type Migrator struct {
	db  *sql.DB
	dir string
	log zerolog.Logger
}

func NewMigrator(db *sql.DB, dir string, log zerolog.Logger) *Migrator {
	return &Migrator{db: db, dir: dir, log: log}
}

// Up applies every pending up-migration, each in its own transaction.
func (m *Migrator) Up(ctx context.Context) error {
	if err := m.ensureVersionTable(ctx); err != nil {
		return fmt.Errorf("ensure version table: %w", err)
	}

	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return fmt.Errorf("read applied versions: %w", err)
	}

	files, err := m.listFiles(".up.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}

	for _, f := range files {
		version := versionOf(f)
		if applied[version] {
			continue
		}
		if err := m.apply(ctx, f, version); err != nil {
			return err
		}
		m.log.Info().Str("file", f).Msg("applied migration")
	}
	return nil
}

func (m *Migrator) apply(ctx context.Context, file, version string) error {
	content, err := os.ReadFile(filepath.Join(m.dir, file))
	if err != nil {
		return fmt.Errorf("read migration %s: %w", file, err)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for %s: %w", file, err)
	}
	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		tx.Rollback()
		return fmt.Errorf("exec migration %s: %w", file, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO `+versionTable+` (version, filename) VALUES ($1, $2)`,
		version, file,
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("record migration %s: %w", file, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", file, err)
	}
	return nil
}

// Down rolls back the most recently applied migration, if any.
func (m *Migrator) Down(ctx context.Context) error {
	if err := m.ensureVersionTable(ctx); err != nil {
		return err
	}

	var version, filename string
	err := m.db.QueryRowContext(ctx,
		`SELECT version, filename FROM `+versionTable+` ORDER BY version DESC LIMIT 1`,
	).Scan(&version, &filename)
	if errors.Is(err, sql.ErrNoRows) {
		m.log.Info().Msg("no migrations to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read latest migration: %w", err)
	}

	downFile := strings.Replace(filename, ".up.sql", ".down.sql", 1)
	content, err := os.ReadFile(filepath.Join(m.dir, downFile))
	if err != nil {
		return fmt.Errorf("read down migration %s: %w", downFile, err)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		tx.Rollback()
		return fmt.Errorf("exec down migration %s: %w", downFile, err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM `+versionTable+` WHERE version = $1`, version,
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("remove migration record %s: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	m.log.Info().Str("file", downFile).Msg("rolled back migration")
	return nil
}

func (m *Migrator) ensureVersionTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS `+versionTable+` (
			version    TEXT PRIMARY KEY,
			filename   TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

func (m *Migrator) appliedVersions(ctx context.Context) (map[string]bool, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT version FROM `+versionTable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func (m *Migrator) listFiles(suffix string) ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// versionOf returns the numeric prefix of a migration filename,
// e.g. "000001_pool_core.up.sql" -> "000001".
func versionOf(filename string) string {
	version, _, _ := strings.Cut(filename, "_")
	return version
}
