package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// LogSleep persists one sleep record.
func (s *Store) LogSleep(ctx context.Context, entry *SleepLog) (*SleepLog, error) {
	if entry.Hours <= 0 || entry.Hours > 24 {
		return nil, fmt.Errorf("sleep hours must be within (0, 24], got %v", entry.Hours)
	}
	loggedAt := entry.LoggedAt
	if loggedAt.IsZero() {
		loggedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sleep_log (user_id, hours, quality, notes, logged_at) VALUES (?, ?, ?, ?, ?)`,
		entry.UserID, entry.Hours, entry.Quality, entry.Notes, loggedAt.Unix())
	if err != nil {
		return nil, fmt.Errorf("log sleep: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("log sleep id: %w", err)
	}
	stored := *entry
	stored.ID = id
	stored.LoggedAt = loggedAt
	return &stored, nil
}

// LogVitals persists one measurement.
func (s *Store) LogVitals(ctx context.Context, entry *VitalsEntry) (*VitalsEntry, error) {
	if entry.Kind == "" {
		return nil, fmt.Errorf("vitals kind must not be empty")
	}
	loggedAt := entry.LoggedAt
	if loggedAt.IsZero() {
		loggedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO vitals (user_id, kind, value, unit, logged_at) VALUES (?, ?, ?, ?, ?)`,
		entry.UserID, entry.Kind, entry.Value, entry.Unit, loggedAt.Unix())
	if err != nil {
		return nil, fmt.Errorf("log vitals: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("log vitals id: %w", err)
	}
	stored := *entry
	stored.ID = id
	stored.LoggedAt = loggedAt
	return &stored, nil
}

// RecordUsage appends one billable-call record.
func (s *Store) RecordUsage(ctx context.Context, record *UsageRecord) error {
	recordedAt := record.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO usage_record (user_id, tier, operation, model, tokens_in, tokens_out, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.UserID, record.Tier, record.Operation, record.Model,
		record.TokensIn, record.TokensOut, recordedAt.Unix())
	if err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

// ListUsage returns the user's usage records, newest first.
func (s *Store) ListUsage(ctx context.Context, userID string, limit int) ([]*UsageRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, tier, operation, model, tokens_in, tokens_out, recorded_at
		 FROM usage_record WHERE user_id = ? ORDER BY id DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list usage: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*UsageRecord
	for rows.Next() {
		var rec UsageRecord
		var recordedUnix int64
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Tier, &rec.Operation, &rec.Model,
			&rec.TokensIn, &rec.TokensOut, &recordedUnix); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		rec.RecordedAt = time.Unix(recordedUnix, 0).UTC()
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// SaveUserKey upserts the user's encrypted provider API key.
func (s *Store) SaveUserKey(ctx context.Context, userID, encryptedKey string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_key (user_id, encrypted_key, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET encrypted_key = excluded.encrypted_key, updated_at = excluded.updated_at`,
		userID, encryptedKey, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save user key: %w", err)
	}
	return nil
}

// UserKey returns the user's encrypted provider API key, or "" when unset.
func (s *Store) UserKey(ctx context.Context, userID string) (string, error) {
	var key string
	err := s.db.QueryRowContext(ctx,
		`SELECT encrypted_key FROM user_key WHERE user_id = ?`, userID).Scan(&key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("load user key: %w", err)
	}
	return key, nil
}
