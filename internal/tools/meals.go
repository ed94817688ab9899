package tools

import (
	"context"
	"fmt"
	"time"

	"vita/internal/store"
	"vita/internal/toolregistry"
)

func handleMealLog(ctx context.Context, args map[string]any, tc *toolregistry.Context) (map[string]any, error) {
	items := stringListArg(args, "items")
	if len(items) == 0 {
		return nil, fmt.Errorf("no recognizable meal items")
	}
	label := stringArg(args, "meal_label")
	if label == "" {
		label = "Meal"
	}
	meal, err := tc.Store.LogMeal(ctx, &store.Meal{
		UserID:   tc.UserID,
		Label:    label,
		Items:    items,
		Notes:    stringArg(args, "notes"),
		LoggedAt: tc.RefTime().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"meal_id":    meal.ID,
		"meal_label": meal.Label,
		"items":      meal.Items,
		"logged_at":  meal.LoggedAt.Format(time.RFC3339),
	}, nil
}

func handleMealList(ctx context.Context, args map[string]any, tc *toolregistry.Context) (map[string]any, error) {
	limit := 0
	if v, ok := floatArg(args, "limit"); ok && v > 0 {
		limit = int(v)
	}
	meals, err := tc.Store.ListMeals(ctx, tc.UserID, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]map[string]any, 0, len(meals))
	for _, meal := range meals {
		entries = append(entries, map[string]any{
			"meal_id":    meal.ID,
			"meal_label": meal.Label,
			"items":      meal.Items,
			"notes":      meal.Notes,
			"logged_at":  meal.LoggedAt.Format(time.RFC3339),
		})
	}
	return map[string]any{"meals": entries, "count": len(entries)}, nil
}
