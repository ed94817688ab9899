package heuristics

import (
	"strings"
	"testing"
)

func TestLooksLikeFoodLogging(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"I had a banana and whole wheat bagel, is that okay for lunch?", true},
		{"i just ate two eggs", true},
		{"I drank a protein shake after the gym", true},
		{"Lunch: chicken salad with olive oil", true},
		{"dinner - salmon and rice", true},
		{"I've had three coffees today", true},
		{"Can I have a banana for lunch?", false},
		{"what should I eat tonight?", false},
		{"how do I start a fast?", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := LooksLikeFoodLogging(tc.text); got != tc.want {
			t.Fatalf("%q: got %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestLooksLikeFoodPlanningQuestion(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"Can I have a banana for lunch?", true},
		{"should I eat before my workout?", true},
		{"is it okay to eat rice at night?", true},
		{"thinking about having pizza tonight", true},
		// Past-tense consumption dominates planning phrasing.
		{"I had a banana and whole wheat bagel, is that okay for lunch?", false},
		{"I ate pizza, should I feel bad?", false},
		{"I slept 8 hours", false},
	}
	for _, tc := range cases {
		if got := LooksLikeFoodPlanningQuestion(tc.text); got != tc.want {
			t.Fatalf("%q: got %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestLooksLikeFoodFollowupAnswer(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"banana and whole wheat bagel with cream cheese", true},
		{"chicken salad, rice, two eggs", true},
		{"oatmeal", true},
		{"yes", false},
		{"no", false},
		{"Yes.", false},
		{"okay", false},
		{"what did I eat?", false},
		{"I had a banana", false}, // full sentence, not a bare answer
		{"something ambiguous entirely", false}, // short but no food token
		{"tell me about magnesium", false},
		{"", false},
		{"one two three four five six seven eight nine ten eleven twelve thirteen", false},
	}
	for _, tc := range cases {
		if got := LooksLikeFoodFollowupAnswer(tc.text); got != tc.want {
			t.Fatalf("%q: got %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestMinimalFoodPayloadFromMessage(t *testing.T) {
	payload, ok := MinimalFoodPayloadFromMessage("I had a banana and whole wheat bagel, is that okay for lunch?", false)
	if !ok {
		t.Fatalf("expected payload")
	}
	if payload.MealLabel != "Lunch" {
		t.Fatalf("unexpected label %q", payload.MealLabel)
	}
	if len(payload.Items) != 2 || payload.Items[0] != "banana" || payload.Items[1] != "whole wheat bagel" {
		t.Fatalf("unexpected items %v", payload.Items)
	}
	if payload.Notes != "" {
		t.Fatalf("unexpected notes %q", payload.Notes)
	}
}

func TestMinimalFoodPayloadMealPrefix(t *testing.T) {
	payload, ok := MinimalFoodPayloadFromMessage("Breakfast: oatmeal with blueberries and walnuts", false)
	if !ok {
		t.Fatalf("expected payload")
	}
	if payload.MealLabel != "Breakfast" {
		t.Fatalf("unexpected label %q", payload.MealLabel)
	}
	if len(payload.Items) != 3 {
		t.Fatalf("unexpected items %v", payload.Items)
	}
}

func TestMinimalFoodPayloadDefaultsAndLowConfidence(t *testing.T) {
	payload, ok := MinimalFoodPayloadFromMessage("banana and whole wheat bagel with cream cheese", true)
	if !ok {
		t.Fatalf("expected payload")
	}
	if payload.MealLabel != "Meal" {
		t.Fatalf("expected default label, got %q", payload.MealLabel)
	}
	if len(payload.Items) != 3 {
		t.Fatalf("unexpected items %v", payload.Items)
	}
	if !strings.Contains(payload.Notes, LowConfidenceNote) {
		t.Fatalf("expected low-confidence marker in notes, got %q", payload.Notes)
	}
}

func TestMinimalFoodPayloadEmpty(t *testing.T) {
	if _, ok := MinimalFoodPayloadFromMessage("", false); ok {
		t.Fatalf("expected failure for empty text")
	}
	if _, ok := MinimalFoodPayloadFromMessage("   !!!   ", false); ok {
		t.Fatalf("expected failure for contentless text")
	}
}
