package store

import (
	"context"
	"testing"
	"time"

	"vita/internal/logging"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", logging.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestFastLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	active, err := s.ActiveFast(ctx, "u1")
	if err != nil {
		t.Fatalf("active fast: %v", err)
	}
	if active != nil {
		t.Fatalf("expected no active fast, got %+v", active)
	}

	start := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	fast, err := s.StartFast(ctx, "u1", start)
	if err != nil {
		t.Fatalf("start fast: %v", err)
	}

	active, err = s.ActiveFast(ctx, "u1")
	if err != nil {
		t.Fatalf("active fast: %v", err)
	}
	if active == nil || active.ID != fast.ID {
		t.Fatalf("expected active fast %d, got %+v", fast.ID, active)
	}

	end := start.Add(14 * time.Hour)
	if err := s.CloseFast(ctx, fast.ID, start, end, 840); err != nil {
		t.Fatalf("close fast: %v", err)
	}

	closed, err := s.GetFast(ctx, fast.ID)
	if err != nil {
		t.Fatalf("get fast: %v", err)
	}
	if closed.Status != FastStatusClosed || closed.DurationMinutes != 840 {
		t.Fatalf("unexpected closed fast: %+v", closed)
	}
	if n, _ := s.CountFasts(ctx, "u1"); n != 1 {
		t.Fatalf("close must rewrite the same row, found %d rows", n)
	}

	active, err = s.ActiveFast(ctx, "u1")
	if err != nil {
		t.Fatalf("active fast: %v", err)
	}
	if active != nil {
		t.Fatalf("closed fast still reported active: %+v", active)
	}
}

func TestCloseFastUnknownID(t *testing.T) {
	s := newTestStore(t)
	err := s.CloseFast(context.Background(), 999, time.Now(), time.Now(), 0)
	if err == nil {
		t.Fatalf("expected error closing unknown fast")
	}
}

func TestMealRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.LogMeal(ctx, &Meal{UserID: "u1", Label: "Lunch"}); err == nil {
		t.Fatalf("expected error for empty items")
	}

	meal, err := s.LogMeal(ctx, &Meal{
		UserID: "u1",
		Label:  "Lunch",
		Items:  []string{"banana", "whole wheat bagel"},
		Notes:  "logged from chat",
	})
	if err != nil {
		t.Fatalf("log meal: %v", err)
	}
	if meal.ID == 0 {
		t.Fatalf("expected assigned id")
	}

	meals, err := s.ListMeals(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("list meals: %v", err)
	}
	if len(meals) != 1 {
		t.Fatalf("expected 1 meal, got %d", len(meals))
	}
	if len(meals[0].Items) != 2 || meals[0].Items[0] != "banana" {
		t.Fatalf("unexpected items: %v", meals[0].Items)
	}
}

func TestSleepAndVitalsValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.LogSleep(ctx, &SleepLog{UserID: "u1", Hours: 0}); err == nil {
		t.Fatalf("expected error for zero hours")
	}
	if _, err := s.LogSleep(ctx, &SleepLog{UserID: "u1", Hours: 7.5, Quality: "good"}); err != nil {
		t.Fatalf("log sleep: %v", err)
	}

	if _, err := s.LogVitals(ctx, &VitalsEntry{UserID: "u1", Value: 72}); err == nil {
		t.Fatalf("expected error for empty kind")
	}
	if _, err := s.LogVitals(ctx, &VitalsEntry{UserID: "u1", Kind: "weight", Value: 80.5, Unit: "kg"}); err != nil {
		t.Fatalf("log vitals: %v", err)
	}
}

func TestUsageRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.RecordUsage(ctx, &UsageRecord{
		UserID: "u1", Tier: "reasoning", Operation: "chat_response",
		Model: "gpt-4o", TokensIn: 120, TokensOut: 300,
	})
	if err != nil {
		t.Fatalf("record usage: %v", err)
	}

	records, err := s.ListUsage(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("list usage: %v", err)
	}
	if len(records) != 1 || records[0].Operation != "chat_response" || records[0].TokensOut != 300 {
		t.Fatalf("unexpected usage records: %+v", records)
	}
}

func TestUserKeyUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	key, err := s.UserKey(ctx, "u1")
	if err != nil {
		t.Fatalf("user key: %v", err)
	}
	if key != "" {
		t.Fatalf("expected empty key, got %q", key)
	}

	if err := s.SaveUserKey(ctx, "u1", "enc-1"); err != nil {
		t.Fatalf("save key: %v", err)
	}
	if err := s.SaveUserKey(ctx, "u1", "enc-2"); err != nil {
		t.Fatalf("save key again: %v", err)
	}
	key, err = s.UserKey(ctx, "u1")
	if err != nil {
		t.Fatalf("user key: %v", err)
	}
	if key != "enc-2" {
		t.Fatalf("expected upserted key enc-2, got %q", key)
	}
}
