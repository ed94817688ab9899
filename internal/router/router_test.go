package router

import (
	"context"
	"testing"

	"vita/internal/llm"
	"vita/internal/specialist"
	"vita/internal/telemetry"
)

func newTestClassifier(mock *llm.Mock) *Classifier {
	return NewClassifier(mock, telemetry.NopSink(), nil)
}

func TestClassifyHeuristics(t *testing.T) {
	mock := &llm.Mock{}
	classifier := newTestClassifier(mock)

	cases := []struct {
		text string
		want Intent
	}{
		{"I had a banana and whole wheat bagel, is that okay for lunch?", IntentLogFood},
		{"Lunch: chicken salad", IntentLogFood},
		{"I had dinner at 7pm", IntentLogFood},
		{"I'm starting my fast now", IntentLogFasting},
		{"last meal was at 8pm, first meal at 10am", IntentLogFasting},
		{"how long have I been fasting?", IntentLogFasting},
		{"I slept 7.5 hours last night", IntentLogSleep},
		{"my weight is 82 kg this morning", IntentLogVitals},
		{"blood pressure 120/80 today", IntentLogVitals},
		{"Can I have a banana for lunch?", IntentAskNutrition},
		{"make me a meal plan for the week", IntentAskPlan},
		{"", IntentGeneralChat},
	}
	for _, tc := range cases {
		got := classifier.Classify(context.Background(), tc.text)
		if got.Intent != tc.want {
			t.Fatalf("%q: got %s, want %s", tc.text, got.Intent, tc.want)
		}
		if got.Source != SourceHeuristic {
			t.Fatalf("%q: expected heuristic source, got %s", tc.text, got.Source)
		}
		if got.Specialist != SpecialistFor(tc.want) {
			t.Fatalf("%q: got specialist %s", tc.text, got.Specialist)
		}
	}
	if len(mock.Requests) != 0 {
		t.Fatalf("heuristic paths must not call the model, saw %d requests", len(mock.Requests))
	}
}

func TestClassifyFoodFollowupAnswer(t *testing.T) {
	mock := &llm.Mock{}
	classifier := newTestClassifier(mock)

	// Bare item lists answer a "what did you eat?" prompt and log as food
	// without a model call.
	for _, text := range []string{
		"banana and whole wheat bagel with cream cheese",
		"oatmeal",
		"chicken salad, rice, two eggs",
	} {
		got := classifier.Classify(context.Background(), text)
		if got.Intent != IntentLogFood || got.Source != SourceHeuristic {
			t.Fatalf("%q: got %+v", text, got)
		}
	}
	if len(mock.Requests) != 0 {
		t.Fatalf("follow-up answers must not call the model, saw %d requests", len(mock.Requests))
	}

	// A bare measurement reply keeps its own route; the parsers run first.
	if got := classifier.Classify(context.Background(), "resting heart rate 58 bpm"); got.Intent != IntentLogVitals {
		t.Fatalf("measurement reply routed to %s", got.Intent)
	}
}

func TestClassifyModelFallback(t *testing.T) {
	mock := &llm.Mock{Replies: []string{`{"category": "ask_nutrition"}`}}
	classifier := newTestClassifier(mock)

	got := classifier.Classify(context.Background(), "tell me about magnesium")
	if got.Intent != IntentAskNutrition || got.Source != SourceModel {
		t.Fatalf("unexpected result %+v", got)
	}
	if len(mock.Requests) != 1 {
		t.Fatalf("expected one model call, got %d", len(mock.Requests))
	}
	if mock.Requests[0].Model != "mock-utility" {
		t.Fatalf("fallback must use the utility model, got %s", mock.Requests[0].Model)
	}
}

func TestClassifyModelFallbackCached(t *testing.T) {
	mock := &llm.Mock{Replies: []string{`{"category": "general_chat"}`}}
	classifier := newTestClassifier(mock)

	first := classifier.Classify(context.Background(), "hey how are you doing")
	second := classifier.Classify(context.Background(), "Hey   how are you doing")
	if first.Source != SourceModel || second.Source != SourceCache {
		t.Fatalf("sources: first %s, second %s", first.Source, second.Source)
	}
	if second.Intent != first.Intent {
		t.Fatalf("cache returned different intent")
	}
	if len(mock.Requests) != 1 {
		t.Fatalf("cached verdict must not call the model again, saw %d", len(mock.Requests))
	}
}

func TestClassifyModelRepairedJSON(t *testing.T) {
	mock := &llm.Mock{Replies: []string{`{"category": "ask_plan"`}}
	classifier := newTestClassifier(mock)

	got := classifier.Classify(context.Background(), "something ambiguous entirely")
	if got.Intent != IntentAskPlan {
		t.Fatalf("expected repaired verdict, got %+v", got)
	}
}

func TestClassifyModelErrorDefaultsToGeneralChat(t *testing.T) {
	mock := &llm.Mock{ChatErr: context.DeadlineExceeded}
	classifier := newTestClassifier(mock)

	scope := telemetry.NewScope("u1")
	ctx := telemetry.WithScope(context.Background(), scope)
	got := classifier.Classify(ctx, "completely unclassifiable message here")
	if got.Intent != IntentGeneralChat {
		t.Fatalf("expected general_chat on error, got %s", got.Intent)
	}
	snap := scope.Snapshot()
	if len(snap.Failures) != 1 || snap.Failures[0].Operation != "intent_classify" {
		t.Fatalf("expected one intent_classify failure, got %+v", snap.Failures)
	}
}

func TestClassifyModelUnknownCategory(t *testing.T) {
	mock := &llm.Mock{Replies: []string{`{"category": "weather_report"}`}}
	classifier := newTestClassifier(mock)

	got := classifier.Classify(context.Background(), "what is the meaning of it all")
	if got.Intent != IntentGeneralChat {
		t.Fatalf("expected general_chat for unknown category, got %s", got.Intent)
	}
}

func TestSpecialistFor(t *testing.T) {
	if got := SpecialistFor(IntentLogSleep); got != specialist.SleepExpert {
		t.Fatalf("log_sleep routed to %s", got)
	}
	if got := SpecialistFor(Intent("bogus")); got != specialist.Orchestrator {
		t.Fatalf("unknown intent routed to %s", got)
	}
}
