package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const episodeColumns = `id, show_id, season, episode, title, rating, votes, imdb_id,
	air_date, last_checked, missing, absent, provisional`

func scanEpisode(scanner rowScanner) (*Episode, error) {
	var (
		ep          Episode
		title       sql.NullString
		rating      sql.NullFloat64
		votes       sql.NullInt64
		imdbID      sql.NullString
		airDate     sql.NullString
		lastChecked sql.NullString
		missing     sql.NullInt64
		absent      sql.NullInt64
		provisional sql.NullInt64
	)
	if err := scanner.Scan(
		&ep.ID,
		&ep.ShowID,
		&ep.Season,
		&ep.Number,
		&title,
		&rating,
		&votes,
		&imdbID,
		&airDate,
		&lastChecked,
		&missing,
		&absent,
		&provisional,
	); err != nil {
		return nil, err
	}
	ep.Title = title.String
	ep.Rating = floatPtr(rating)
	ep.Votes = intPtr(votes)
	ep.IMDbID = imdbID.String
	ep.AirDate = datePtr(airDate)
	ep.LastChecked = timePtr(lastChecked)
	ep.Missing = missing.Int64 != 0
	ep.Absent = absent.Int64 != 0
	ep.Provisional = provisional.Int64 != 0
	return &ep, nil
}

// EpisodesForShow returns every episode ordered by season and number.
func (s *Store) EpisodesForShow(ctx context.Context, showID int64) ([]*Episode, error) {
	return s.queryEpisodes(ctx, `SELECT `+episodeColumns+` FROM episodes WHERE show_id = ? ORDER BY season, episode`, showID)
}

// EpisodesBySeason returns one season's episodes ordered by number.
func (s *Store) EpisodesBySeason(ctx context.Context, showID int64, season int) ([]*Episode, error) {
	return s.queryEpisodes(ctx, `SELECT `+episodeColumns+` FROM episodes WHERE show_id = ? AND season = ? ORDER BY episode`, showID, season)
}

// UnratedEpisodes returns episodes with no rating, optionally restricted to
// the given seasons.
func (s *Store) UnratedEpisodes(ctx context.Context, showID int64, seasons ...int) ([]*Episode, error) {
	query := `SELECT ` + episodeColumns + ` FROM episodes WHERE show_id = ? AND rating IS NULL`
	args := []any{showID}
	if len(seasons) > 0 {
		query += ` AND season IN (` + makePlaceholders(len(seasons)) + `)`
		for _, season := range seasons {
			args = append(args, season)
		}
	}
	query += ` ORDER BY season, episode`
	return s.queryEpisodes(ctx, query, args...)
}

// InsertEpisode stores a new episode unless one already exists for the same
// (show, season, episode). It reports whether a row was created and assigns
// ep.ID only in that case.
func (s *Store) InsertEpisode(ctx context.Context, ep *Episode) (bool, error) {
	if ep == nil {
		return false, errors.New("episode is nil")
	}
	if ep.ShowID == 0 || ep.Season <= 0 || ep.Number <= 0 {
		return false, fmt.Errorf("episode key incomplete: show=%d season=%d episode=%d", ep.ShowID, ep.Season, ep.Number)
	}
	res, err := s.execWithRetry(ctx, `INSERT INTO episodes (
			show_id, season, episode, title, rating, votes, imdb_id,
			air_date, last_checked, missing, absent, provisional
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (show_id, season, episode) DO NOTHING`,
		ep.ShowID,
		ep.Season,
		ep.Number,
		nullableString(ep.Title),
		nullableFloat(ep.Rating),
		nullableInt(ep.Votes),
		nullableString(ep.IMDbID),
		nullableDate(ep.AirDate),
		nullableTime(ep.LastChecked),
		boolToInt(ep.Missing),
		boolToInt(ep.Absent),
		boolToInt(ep.Provisional),
	)
	if err != nil {
		return false, fmt.Errorf("insert episode: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert episode rows: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("episode id: %w", err)
	}
	ep.ID = id
	return true, nil
}

// UpdateEpisode persists every mutable field of an existing episode.
func (s *Store) UpdateEpisode(ctx context.Context, ep *Episode) error {
	if ep == nil {
		return errors.New("episode is nil")
	}
	_, err := s.execWithRetry(ctx, `UPDATE episodes SET
			title = ?, rating = ?, votes = ?, imdb_id = ?, air_date = ?,
			last_checked = ?, missing = ?, absent = ?, provisional = ?
		WHERE id = ?`,
		nullableString(ep.Title),
		nullableFloat(ep.Rating),
		nullableInt(ep.Votes),
		nullableString(ep.IMDbID),
		nullableDate(ep.AirDate),
		nullableTime(ep.LastChecked),
		boolToInt(ep.Missing),
		boolToInt(ep.Absent),
		boolToInt(ep.Provisional),
		ep.ID,
	)
	if err != nil {
		return fmt.Errorf("update episode: %w", err)
	}
	return nil
}

// HasMissing reports whether any episode in the season is flagged missing.
func (s *Store) HasMissing(ctx context.Context, showID int64, season int) (bool, error) {
	ctx = ensureContext(ctx)
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM episodes WHERE show_id = ? AND season = ? AND missing = 1`,
		showID, season,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count missing episodes: %w", err)
	}
	return count > 0, nil
}

func (s *Store) queryEpisodes(ctx context.Context, query string, args ...any) ([]*Episode, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query episodes: %w", err)
	}
	defer rows.Close()

	var episodes []*Episode
	for rows.Next() {
		ep, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		episodes = append(episodes, ep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate episodes: %w", err)
	}
	return episodes, nil
}
