// Package router decides what a turn is about and which specialist should
// answer it. Deterministic heuristics and parsers run first; only messages
// they abstain on pay for a utility-tier model call, and those verdicts are
// cached so repeated phrasings stay cheap.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/kaptinlin/jsonrepair"
	"go.opentelemetry.io/otel"

	"vita/internal/heuristics"
	"vita/internal/llm"
	"vita/internal/logging"
	"vita/internal/parser"
	"vita/internal/specialist"
	"vita/internal/telemetry"
)

// Intent is the routed meaning of one user message.
type Intent string

const (
	IntentLogFood      Intent = "log_food"
	IntentAskNutrition Intent = "ask_nutrition"
	IntentLogSleep     Intent = "log_sleep"
	IntentLogFasting   Intent = "log_fasting"
	IntentLogVitals    Intent = "log_vitals"
	IntentAskPlan      Intent = "ask_plan"
	IntentGeneralChat  Intent = "general_chat"
)

// Routing sources, recorded so dashboards can track how often the model
// fallback fires.
const (
	SourceHeuristic = "heuristic"
	SourceCache     = "cache"
	SourceModel     = "model"
)

// Result is a classification verdict plus the specialist it routes to.
type Result struct {
	Intent     Intent
	Specialist string
	Source     string
}

var specialistByIntent = map[Intent]string{
	IntentLogFood:      specialist.Nutritionist,
	IntentAskNutrition: specialist.Nutritionist,
	IntentLogFasting:   specialist.Nutritionist,
	IntentLogSleep:     specialist.SleepExpert,
	IntentLogVitals:    specialist.FitnessCoach,
	IntentAskPlan:      specialist.FitnessCoach,
	IntentGeneralChat:  specialist.Orchestrator,
}

// SpecialistFor maps an intent to the persona that handles it. Unknown
// intents fall back to the orchestrator.
func SpecialistFor(intent Intent) string {
	if id, ok := specialistByIntent[intent]; ok {
		return id
	}
	return specialist.Orchestrator
}

var validIntents = map[Intent]bool{
	IntentLogFood:      true,
	IntentAskNutrition: true,
	IntentLogSleep:     true,
	IntentLogFasting:   true,
	IntentLogVitals:    true,
	IntentAskPlan:      true,
	IntentGeneralChat:  true,
}

var planRe = regexp.MustCompile(`(?i)\b((meal|workout|training|fitness|weekly) plan|plan (my|a|the) (meals?|week|workouts?|training)|routine for)\b`)

const classifyCacheSize = 512

// Classifier routes messages to intents.
type Classifier struct {
	provider llm.Provider
	cache    *lru.Cache[string, Intent]
	usage    telemetry.UsageSink
	logger   logging.Logger
}

// NewClassifier builds a classifier over the given provider. The usage sink
// receives one record per model fallback call.
func NewClassifier(provider llm.Provider, usage telemetry.UsageSink, logger logging.Logger) *Classifier {
	cache, _ := lru.New[string, Intent](classifyCacheSize)
	if usage == nil {
		usage = telemetry.NopSink()
	}
	return &Classifier{
		provider: provider,
		cache:    cache,
		usage:    usage,
		logger:   logging.OrNop(logger),
	}
}

// Classify decides the intent of text. Heuristic order matters: consumption
// statements win before the fasting parser sees the message (a dinner report
// mentions "dinner", which the fasting parser reads as a last-meal marker),
// and logging signals win over planning phrasing.
func (c *Classifier) Classify(ctx context.Context, text string) Result {
	if intent, ok := c.classifyHeuristic(text); ok {
		return Result{Intent: intent, Specialist: SpecialistFor(intent), Source: SourceHeuristic}
	}

	key := cacheKey(text)
	if intent, ok := c.cache.Get(key); ok {
		return Result{Intent: intent, Specialist: SpecialistFor(intent), Source: SourceCache}
	}

	intent := c.classifyModel(ctx, text)
	c.cache.Add(key, intent)
	return Result{Intent: intent, Specialist: SpecialistFor(intent), Source: SourceModel}
}

func (c *Classifier) classifyHeuristic(text string) (Intent, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return IntentGeneralChat, true
	}

	if heuristics.LooksLikeFoodLogging(trimmed) {
		return IntentLogFood, true
	}
	if fast := parser.ParseFastingWindow(trimmed); fast.Confident {
		return IntentLogFasting, true
	}
	if sleep := parser.ParseSleepDuration(trimmed); sleep.Confident {
		return IntentLogSleep, true
	}
	if len(parser.ParseVitals(trimmed)) > 0 {
		return IntentLogVitals, true
	}
	// Short, food-dense replies ("banana and whole wheat bagel") answer a
	// "what did you eat?" style prompt. Checked after the measurement
	// parsers so a bare reading keeps its own route; the extracted payload
	// is marked low confidence downstream.
	if heuristics.LooksLikeFoodFollowupAnswer(trimmed) {
		return IntentLogFood, true
	}
	if heuristics.LooksLikeFoodPlanningQuestion(trimmed) {
		return IntentAskNutrition, true
	}
	if planRe.MatchString(trimmed) {
		return IntentAskPlan, true
	}
	return "", false
}

const classifySystemPrompt = `You classify a single health-coaching chat message into exactly one category:
log_food, ask_nutrition, log_sleep, log_fasting, log_vitals, ask_plan, general_chat.
Respond with only a JSON object: {"category": "<one category>"}.`

func (c *Classifier) classifyModel(ctx context.Context, text string) Intent {
	scope := telemetry.ScopeFrom(ctx)

	ctx, span := otel.Tracer("vita").Start(ctx, telemetry.SpanClassify)
	defer span.End()

	result, err := c.provider.Chat(ctx, llm.ChatRequest{
		Model:       c.provider.UtilityModel(),
		System:      classifySystemPrompt,
		Messages:    []llm.Message{{Role: "user", Content: text}},
		Temperature: 0,
		MaxTokens:   32,
	})
	if err != nil {
		scope.RecordFailure("intent_classify", err)
		c.logger.Warn("intent classification failed, defaulting to general chat: %v", err)
		return IntentGeneralChat
	}

	scope.RecordCall(telemetry.TierUtility, result.TokensIn, result.TokensOut)
	c.usage.Record(userIDFrom(scope), telemetry.TierUtility, "intent_classify", result.Model, result.TokensIn, result.TokensOut)

	intent, err := parseCategory(result.Content)
	if err != nil {
		scope.RecordFailure("intent_classify", err)
		c.logger.Warn("unparseable classification %q: %v", result.Content, err)
		return IntentGeneralChat
	}
	return intent
}

// parseCategory reads the model's verdict, repairing truncated or loosely
// quoted JSON before giving up.
func parseCategory(content string) (Intent, error) {
	raw := strings.TrimSpace(content)
	if idx := strings.Index(raw, "{"); idx > 0 {
		raw = raw[idx:]
	}

	var verdict struct {
		Category string `json:"category"`
	}
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(raw)
		if repairErr != nil {
			return "", fmt.Errorf("parse category: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), &verdict); err != nil {
			return "", fmt.Errorf("parse repaired category: %w", err)
		}
	}

	intent := Intent(strings.ToLower(strings.TrimSpace(verdict.Category)))
	if !validIntents[intent] {
		return "", fmt.Errorf("unknown category %q", verdict.Category)
	}
	return intent, nil
}

func cacheKey(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

func userIDFrom(scope *telemetry.Scope) string {
	if scope == nil {
		return ""
	}
	return scope.UserID
}
