package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const showColumns = `id, imdb_id, title, year, genres, total_seasons, imdb_rating, imdb_votes,
	poster, view_count, last_full_refresh, last_updated, created_at`

func scanShow(scanner rowScanner) (*Show, error) {
	var (
		show        Show
		year        sql.NullString
		genres      sql.NullString
		rating      sql.NullFloat64
		votes       sql.NullInt64
		poster      sql.NullString
		fullRefresh sql.NullString
		updatedRaw  sql.NullString
		createdRaw  sql.NullString
	)
	if err := scanner.Scan(
		&show.ID,
		&show.IMDbID,
		&show.Title,
		&year,
		&genres,
		&show.TotalSeasons,
		&rating,
		&votes,
		&poster,
		&show.ViewCount,
		&fullRefresh,
		&updatedRaw,
		&createdRaw,
	); err != nil {
		return nil, err
	}
	show.Year = year.String
	show.Genres = genres.String
	show.Rating = floatPtr(rating)
	show.Votes = intPtr(votes)
	show.Poster = poster.String
	show.LastFullRefresh = timePtr(fullRefresh)
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		show.LastUpdated = updated
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		show.CreatedAt = created
	}
	return &show, nil
}

// ShowByIMDbID fetches a show by external id. It returns nil when absent.
func (s *Store) ShowByIMDbID(ctx context.Context, imdbID string) (*Show, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+showColumns+` FROM shows WHERE imdb_id = ?`, imdbID)
	show, err := scanShow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("show by imdb id: %w", err)
	}
	return show, nil
}

// ShowByID fetches a show by internal id. It returns nil when absent.
func (s *Store) ShowByID(ctx context.Context, id int64) (*Show, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+showColumns+` FROM shows WHERE id = ?`, id)
	show, err := scanShow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("show by id: %w", err)
	}
	return show, nil
}

// InsertShow stores a new show and assigns its ID.
func (s *Store) InsertShow(ctx context.Context, show *Show) error {
	if show == nil {
		return errors.New("show is nil")
	}
	show.IMDbID = strings.TrimSpace(show.IMDbID)
	if show.IMDbID == "" {
		return errors.New("show imdb id is required")
	}
	now := s.timestamp()
	if show.CreatedAt.IsZero() {
		show.CreatedAt = now
	}
	if show.LastUpdated.IsZero() {
		show.LastUpdated = now
	}
	res, err := s.execWithRetry(ctx, `INSERT INTO shows (
			imdb_id, title, year, genres, total_seasons, imdb_rating, imdb_votes,
			poster, view_count, last_full_refresh, last_updated, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		show.IMDbID,
		show.Title,
		nullableString(show.Year),
		nullableString(show.Genres),
		show.TotalSeasons,
		nullableFloat(show.Rating),
		nullableInt(show.Votes),
		nullableString(show.Poster),
		show.ViewCount,
		nullableTime(show.LastFullRefresh),
		formatTime(show.LastUpdated),
		formatTime(show.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert show: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("show id: %w", err)
	}
	show.ID = id
	return nil
}

// UpdateShow persists every mutable show field.
func (s *Store) UpdateShow(ctx context.Context, show *Show) error {
	if show == nil {
		return errors.New("show is nil")
	}
	if show.LastUpdated.IsZero() {
		show.LastUpdated = s.timestamp()
	}
	res, err := s.execWithRetry(ctx, `UPDATE shows SET
			title = ?, year = ?, genres = ?, total_seasons = ?, imdb_rating = ?,
			imdb_votes = ?, poster = ?, view_count = ?, last_full_refresh = ?, last_updated = ?
		WHERE id = ?`,
		show.Title,
		nullableString(show.Year),
		nullableString(show.Genres),
		show.TotalSeasons,
		nullableFloat(show.Rating),
		nullableInt(show.Votes),
		nullableString(show.Poster),
		show.ViewCount,
		nullableTime(show.LastFullRefresh),
		formatTime(show.LastUpdated),
		show.ID,
	)
	if err != nil {
		return fmt.Errorf("update show: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update show %d: %w", show.ID, sql.ErrNoRows)
	}
	return nil
}

// TouchShow bumps last_updated without rewriting other fields.
func (s *Store) TouchShow(ctx context.Context, id int64) error {
	if _, err := s.execWithRetry(ctx, `UPDATE shows SET last_updated = ? WHERE id = ?`, formatTime(s.timestamp()), id); err != nil {
		return fmt.Errorf("touch show: %w", err)
	}
	return nil
}

// IncrementViews adds one to the show's view counter.
func (s *Store) IncrementViews(ctx context.Context, id int64) error {
	if _, err := s.execWithRetry(ctx, `UPDATE shows SET view_count = view_count + 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}

// ListShows returns every stored show ordered by internal id.
func (s *Store) ListShows(ctx context.Context) ([]*Show, error) {
	return s.queryShows(ctx, `SELECT `+showColumns+` FROM shows ORDER BY id`)
}

// PopularShows returns the most viewed shows that have been viewed at least once.
func (s *Store) PopularShows(ctx context.Context, limit int) ([]*Show, error) {
	if limit <= 0 {
		limit = 12
	}
	return s.queryShows(ctx, `SELECT `+showColumns+` FROM shows WHERE view_count > 0 ORDER BY view_count DESC, id LIMIT ?`, limit)
}

// DeleteShow removes a show together with its episodes and signatures.
// It reports whether a row was removed.
func (s *Store) DeleteShow(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM shows WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete show: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete show rows: %w", err)
	}
	return n > 0, nil
}

func (s *Store) queryShows(ctx context.Context, query string, args ...any) ([]*Show, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query shows: %w", err)
	}
	defer rows.Close()

	var shows []*Show
	for rows.Next() {
		show, err := scanShow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan show: %w", err)
		}
		shows = append(shows, show)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shows: %w", err)
	}
	return shows, nil
}
