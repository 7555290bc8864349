package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"slices"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes incompatibly; older
// databases are rejected rather than migrated.
const schemaVersion = 1

// ErrSchemaMismatch reports a database whose version or structure does not
// match schema.sql.
var ErrSchemaMismatch = errors.New("schema version mismatch")

var requiredTables = []string{"shows", "episodes", "season_signatures"}

// episodeKey must be covered by a unique index on episodes; InsertEpisode
// treats a conflict on it as an existing row.
var episodeKey = []string{"show_id", "season", "episode"}

func (s *Store) initSchema(ctx context.Context) error {
	version, found, err := s.readSchemaVersion(ctx)
	if err != nil {
		return err
	}
	if !found {
		if err := s.createSchema(ctx); err != nil {
			return err
		}
	} else if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to rebuild it)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return s.verifyStructure(ctx)
}

func (s *Store) readSchemaVersion(ctx context.Context) (int, bool, error) {
	var tables int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = 'schema_version'",
	).Scan(&tables); err != nil {
		return 0, false, fmt.Errorf("check schema_version table: %w", err)
	}
	if tables == 0 {
		return 0, false, nil
	}

	var version int
	err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, true, nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// verifyStructure checks the required tables and the unique episode key.
func (s *Store) verifyStructure(ctx context.Context) error {
	for _, table := range requiredTables {
		var count int
		if err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&count); err != nil {
			return fmt.Errorf("check table %s: %w", table, err)
		}
		if count == 0 {
			return fmt.Errorf("%w: table %s is missing", ErrSchemaMismatch, table)
		}
	}

	ok, err := s.hasUniqueIndex(ctx, "episodes", episodeKey)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: episodes lacks a unique index on %v", ErrSchemaMismatch, episodeKey)
	}
	return nil
}

func (s *Store) hasUniqueIndex(ctx context.Context, table string, columns []string) (bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM pragma_index_list(?) WHERE "unique" = 1`, table)
	if err != nil {
		return false, fmt.Errorf("list indexes on %s: %w", table, err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return false, fmt.Errorf("scan index name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return false, fmt.Errorf("list indexes on %s: %w", table, err)
	}
	if err := rows.Close(); err != nil {
		return false, fmt.Errorf("list indexes on %s: %w", table, err)
	}

	for _, name := range names {
		indexed, err := s.indexColumns(ctx, name)
		if err != nil {
			return false, err
		}
		if slices.Equal(indexed, columns) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) indexColumns(ctx context.Context, index string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name FROM pragma_index_info(?) ORDER BY seqno", index)
	if err != nil {
		return nil, fmt.Errorf("inspect index %s: %w", index, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var column sql.NullString
		if err := rows.Scan(&column); err != nil {
			return nil, fmt.Errorf("scan index column: %w", err)
		}
		columns = append(columns, column.String)
	}
	return columns, rows.Err()
}
