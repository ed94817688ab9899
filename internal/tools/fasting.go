package tools

import (
	"context"
	"fmt"
	"time"

	"vita/internal/parser"
	"vita/internal/store"
	"vita/internal/toolregistry"
)

// Fasting actions accepted by fasting_manage.
const (
	ActionStart  = "start"
	ActionEnd    = "end"
	ActionStatus = "status"
	ActionCancel = "cancel"
)

func validFastingAction(action string) bool {
	switch action {
	case ActionStart, ActionEnd, ActionStatus, ActionCancel:
		return true
	}
	return false
}

// handleFastingManage drives the user's single fasting interval. Ending a
// fast rewrites the open record in place; it never leaves a duplicate row.
func handleFastingManage(ctx context.Context, args map[string]any, tc *toolregistry.Context) (map[string]any, error) {
	action := stringArg(args, "action")
	ref := tc.RefTime().UTC()

	active, err := tc.Store.ActiveFast(ctx, tc.UserID)
	if err != nil {
		return nil, fmt.Errorf("load active fast: %w", err)
	}

	switch action {
	case ActionStart:
		return fastingStart(ctx, args, tc, active, ref)
	case ActionEnd:
		return fastingEnd(ctx, args, tc, active, ref)
	case ActionStatus:
		return fastingStatus(active, ref), nil
	case ActionCancel:
		return fastingCancel(ctx, tc, active)
	default:
		return nil, fmt.Errorf("unsupported fasting action %q", action)
	}
}

func fastingStart(ctx context.Context, args map[string]any, tc *toolregistry.Context, active *store.Fast, ref time.Time) (map[string]any, error) {
	if active != nil {
		return map[string]any{
			"action":   ActionStart,
			"started":  false,
			"fast_id":  active.ID,
			"start_at": active.StartAt.Format(time.RFC3339),
			"message":  "a fast is already in progress",
		}, nil
	}
	startAt := ref
	if clock := stringArg(args, "start_time"); clock != "" {
		resolved, err := anchorClock(ref, clock)
		if err != nil {
			return nil, err
		}
		startAt = resolved
	}
	fast, err := tc.Store.StartFast(ctx, tc.UserID, startAt)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"action":   ActionStart,
		"started":  true,
		"fast_id":  fast.ID,
		"start_at": fast.StartAt.Format(time.RFC3339),
	}, nil
}

func fastingEnd(ctx context.Context, args map[string]any, tc *toolregistry.Context, active *store.Fast, ref time.Time) (map[string]any, error) {
	startClock := stringArg(args, "start_time")
	endClock := stringArg(args, "end_time")

	// A complete reported window ("last meal 8pm, first meal 10am") carries
	// its own duration; the clock pair is projected across midnight.
	if startClock != "" && endClock != "" {
		minutes, ok := parser.WindowMinutes(startClock, endClock)
		if !ok {
			return nil, fmt.Errorf("invalid fasting window %s to %s", startClock, endClock)
		}
		endAt, err := anchorClock(ref, endClock)
		if err != nil {
			return nil, err
		}
		startAt := endAt.Add(-time.Duration(minutes) * time.Minute)

		if active != nil {
			if err := tc.Store.CloseFast(ctx, active.ID, startAt, endAt, int64(minutes)); err != nil {
				return nil, err
			}
			return fastingEnded(active.ID, startAt, endAt, minutes), nil
		}
		fast, err := tc.Store.InsertClosedFast(ctx, tc.UserID, startAt, endAt, int64(minutes))
		if err != nil {
			return nil, err
		}
		return fastingEnded(fast.ID, startAt, endAt, minutes), nil
	}

	if active == nil {
		return nil, fmt.Errorf("no active fast to end")
	}
	endAt := ref
	if endClock != "" {
		resolved, err := anchorClock(ref, endClock)
		if err != nil {
			return nil, err
		}
		endAt = resolved
	}
	minutes := int(endAt.Sub(active.StartAt) / time.Minute)
	if minutes <= 0 {
		return nil, fmt.Errorf("fast end %s is not after its start %s", endAt.Format(time.RFC3339), active.StartAt.Format(time.RFC3339))
	}
	if err := tc.Store.CloseFast(ctx, active.ID, active.StartAt, endAt, int64(minutes)); err != nil {
		return nil, err
	}
	return fastingEnded(active.ID, active.StartAt, endAt, minutes), nil
}

func fastingEnded(id int64, startAt, endAt time.Time, minutes int) map[string]any {
	return map[string]any{
		"action":           ActionEnd,
		"fast_id":          id,
		"start_at":         startAt.Format(time.RFC3339),
		"end_at":           endAt.Format(time.RFC3339),
		"duration_minutes": minutes,
	}
}

func fastingStatus(active *store.Fast, ref time.Time) map[string]any {
	if active == nil {
		return map[string]any{"action": ActionStatus, "active": false}
	}
	elapsed := int(ref.Sub(active.StartAt) / time.Minute)
	if elapsed < 0 {
		elapsed = 0
	}
	return map[string]any{
		"action":          ActionStatus,
		"active":          true,
		"fast_id":         active.ID,
		"start_at":        active.StartAt.Format(time.RFC3339),
		"elapsed_minutes": elapsed,
	}
}

func fastingCancel(ctx context.Context, tc *toolregistry.Context, active *store.Fast) (map[string]any, error) {
	if active == nil {
		return map[string]any{"action": ActionCancel, "canceled": false, "message": "no active fast"}, nil
	}
	if err := tc.Store.CancelFast(ctx, active.ID); err != nil {
		return nil, err
	}
	return map[string]any{"action": ActionCancel, "canceled": true, "fast_id": active.ID}, nil
}

// anchorClock resolves an "HH:MM" clock reading to the most recent wall-clock
// moment at or before ref with that reading. Users report times that already
// happened, so a reading later than ref's means yesterday.
func anchorClock(ref time.Time, clock string) (time.Time, error) {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid clock time %q: expected HH:MM", clock)
	}
	resolved := time.Date(ref.Year(), ref.Month(), ref.Day(), parsed.Hour(), parsed.Minute(), 0, 0, ref.Location())
	if resolved.After(ref) {
		resolved = resolved.AddDate(0, 0, -1)
	}
	return resolved, nil
}
