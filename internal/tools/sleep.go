package tools

import (
	"context"
	"fmt"
	"time"

	"vita/internal/store"
	"vita/internal/toolregistry"
)

func handleSleepLog(ctx context.Context, args map[string]any, tc *toolregistry.Context) (map[string]any, error) {
	hours, ok := floatArg(args, "hours")
	if !ok {
		return nil, fmt.Errorf("hours must be a number")
	}
	entry, err := tc.Store.LogSleep(ctx, &store.SleepLog{
		UserID:   tc.UserID,
		Hours:    hours,
		Quality:  stringArg(args, "quality"),
		Notes:    stringArg(args, "notes"),
		LoggedAt: tc.RefTime().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"sleep_id":  entry.ID,
		"hours":     entry.Hours,
		"quality":   entry.Quality,
		"logged_at": entry.LoggedAt.Format(time.RFC3339),
	}, nil
}
