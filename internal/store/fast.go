package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ActiveFast returns the user's open fast, or nil when none exists.
// At most one fast per user is open at a time; handlers enforce this with
// query-then-write, so the newest open row wins if history ever disagrees.
func (s *Store) ActiveFast(ctx context.Context, userID string) (*Fast, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, start_at, end_at, duration_minutes, status
		 FROM fast WHERE user_id = ? AND status = ? ORDER BY id DESC LIMIT 1`,
		userID, FastStatusOpen)
	fast, err := scanFast(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return fast, err
}

// StartFast opens a new fast beginning at startAt.
func (s *Store) StartFast(ctx context.Context, userID string, startAt time.Time) (*Fast, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO fast (user_id, start_at, status) VALUES (?, ?, ?)`,
		userID, startAt.Unix(), FastStatusOpen)
	if err != nil {
		return nil, fmt.Errorf("start fast: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("start fast id: %w", err)
	}
	return &Fast{ID: id, UserID: userID, StartAt: startAt, Status: FastStatusOpen}, nil
}

// CloseFast rewrites an existing fast record in place, setting its window and
// duration and marking it closed. The record keeps its identity; ending a fast
// never creates a duplicate row.
func (s *Store) CloseFast(ctx context.Context, id int64, startAt, endAt time.Time, durationMinutes int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE fast SET start_at = ?, end_at = ?, duration_minutes = ?, status = ? WHERE id = ?`,
		startAt.Unix(), endAt.Unix(), durationMinutes, FastStatusClosed, id)
	if err != nil {
		return fmt.Errorf("close fast: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("close fast: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("fast %d not found", id)
	}
	return nil
}

// InsertClosedFast records a complete interval in one step, for users who
// report a finished fast with both endpoints.
func (s *Store) InsertClosedFast(ctx context.Context, userID string, startAt, endAt time.Time, durationMinutes int64) (*Fast, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO fast (user_id, start_at, end_at, duration_minutes, status) VALUES (?, ?, ?, ?, ?)`,
		userID, startAt.Unix(), endAt.Unix(), durationMinutes, FastStatusClosed)
	if err != nil {
		return nil, fmt.Errorf("insert closed fast: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert closed fast id: %w", err)
	}
	end := endAt
	return &Fast{
		ID: id, UserID: userID, StartAt: startAt, EndAt: &end,
		DurationMinutes: durationMinutes, Status: FastStatusClosed,
	}, nil
}

// CancelFast marks the given fast canceled without recording a duration.
func (s *Store) CancelFast(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE fast SET status = ? WHERE id = ?`, FastStatusCanceled, id)
	if err != nil {
		return fmt.Errorf("cancel fast: %w", err)
	}
	return nil
}

// GetFast loads one fast by id.
func (s *Store) GetFast(ctx context.Context, id int64) (*Fast, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, start_at, end_at, duration_minutes, status FROM fast WHERE id = ?`, id)
	return scanFast(row)
}

// CountFasts reports how many fast rows exist for the user, any status.
func (s *Store) CountFasts(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM fast WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

func scanFast(row *sql.Row) (*Fast, error) {
	var fast Fast
	var startUnix int64
	var endUnix sql.NullInt64
	if err := row.Scan(&fast.ID, &fast.UserID, &startUnix, &endUnix, &fast.DurationMinutes, &fast.Status); err != nil {
		return nil, err
	}
	fast.StartAt = time.Unix(startUnix, 0).UTC()
	if endUnix.Valid {
		end := time.Unix(endUnix.Int64, 0).UTC()
		fast.EndAt = &end
	}
	return &fast, nil
}
