package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// LogMeal persists one meal. Items are stored as a JSON array.
func (s *Store) LogMeal(ctx context.Context, meal *Meal) (*Meal, error) {
	if len(meal.Items) == 0 {
		return nil, fmt.Errorf("meal must contain at least one item")
	}
	items, err := json.Marshal(meal.Items)
	if err != nil {
		return nil, fmt.Errorf("encode meal items: %w", err)
	}
	loggedAt := meal.LoggedAt
	if loggedAt.IsZero() {
		loggedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO meal (user_id, label, items, notes, logged_at) VALUES (?, ?, ?, ?, ?)`,
		meal.UserID, meal.Label, string(items), meal.Notes, loggedAt.Unix())
	if err != nil {
		return nil, fmt.Errorf("log meal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("log meal id: %w", err)
	}
	stored := *meal
	stored.ID = id
	stored.LoggedAt = loggedAt
	return &stored, nil
}

// ListMeals returns the user's most recent meals, newest first.
func (s *Store) ListMeals(ctx context.Context, userID string, limit int) ([]*Meal, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, label, items, notes, logged_at
		 FROM meal WHERE user_id = ? ORDER BY logged_at DESC, id DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var meals []*Meal
	for rows.Next() {
		var meal Meal
		var items string
		var loggedUnix int64
		if err := rows.Scan(&meal.ID, &meal.UserID, &meal.Label, &items, &meal.Notes, &loggedUnix); err != nil {
			return nil, fmt.Errorf("scan meal: %w", err)
		}
		if err := json.Unmarshal([]byte(items), &meal.Items); err != nil {
			return nil, fmt.Errorf("decode meal items: %w", err)
		}
		meal.LoggedAt = time.Unix(loggedUnix, 0).UTC()
		meals = append(meals, &meal)
	}
	return meals, rows.Err()
}
