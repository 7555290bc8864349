package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Signature returns the stored season signature. The boolean is false when
// none has been computed yet.
func (s *Store) Signature(ctx context.Context, showID int64, season int) (string, bool, error) {
	ctx = ensureContext(ctx)
	var signature string
	err := s.db.QueryRowContext(ctx,
		`SELECT signature FROM season_signatures WHERE show_id = ? AND season = ?`,
		showID, season,
	).Scan(&signature)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("season signature: %w", err)
	}
	return signature, true, nil
}

// PutSignature records the signature for a season, replacing any previous value.
func (s *Store) PutSignature(ctx context.Context, showID int64, season int, signature string) error {
	_, err := s.execWithRetry(ctx, `INSERT INTO season_signatures (show_id, season, signature, computed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (show_id, season) DO UPDATE SET
			signature = excluded.signature,
			computed_at = excluded.computed_at`,
		showID, season, signature, formatTime(s.timestamp()),
	)
	if err != nil {
		return fmt.Errorf("put season signature: %w", err)
	}
	return nil
}

// Signatures lists every stored signature for a show ordered by season.
func (s *Store) Signatures(ctx context.Context, showID int64) ([]SeasonSignature, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT show_id, season, signature, computed_at FROM season_signatures WHERE show_id = ? ORDER BY season`,
		showID,
	)
	if err != nil {
		return nil, fmt.Errorf("query signatures: %w", err)
	}
	defer rows.Close()

	var out []SeasonSignature
	for rows.Next() {
		var (
			sig        SeasonSignature
			computedAt string
		)
		if err := rows.Scan(&sig.ShowID, &sig.Season, &sig.Signature, &computedAt); err != nil {
			return nil, fmt.Errorf("scan signature: %w", err)
		}
		if ts, err := parseTimeString(computedAt); err == nil {
			sig.ComputedAt = ts
		}
		out = append(out, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signatures: %w", err)
	}
	return out, nil
}
