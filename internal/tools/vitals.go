package tools

import (
	"context"
	"fmt"
	"time"

	"vita/internal/store"
	"vita/internal/toolregistry"
)

func handleVitalsLog(ctx context.Context, args map[string]any, tc *toolregistry.Context) (map[string]any, error) {
	value, ok := floatArg(args, "value")
	if !ok {
		return nil, fmt.Errorf("value must be a number")
	}
	entry, err := tc.Store.LogVitals(ctx, &store.VitalsEntry{
		UserID:   tc.UserID,
		Kind:     stringArg(args, "kind"),
		Value:    value,
		Unit:     stringArg(args, "unit"),
		LoggedAt: tc.RefTime().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"vitals_id": entry.ID,
		"kind":      entry.Kind,
		"value":     entry.Value,
		"unit":      entry.Unit,
		"logged_at": entry.LoggedAt.Format(time.RFC3339),
	}, nil
}
