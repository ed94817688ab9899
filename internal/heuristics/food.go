// Package heuristics holds cheap, pure message-shape predicates. Each one is
// deliberately conservative: a false positive here writes bad data or asks a
// pointless question, so anything ambiguous abstains and lets the model-backed
// classifier decide.
package heuristics

import (
	"regexp"
	"strings"
)

var (
	consumptionRe = regexp.MustCompile(`(?i)\b(i\s+(just\s+)?(had|ate|drank|finished|grabbed)|i've\s+(had|eaten)|we\s+(had|ate))\b`)
	mealPrefixRe  = regexp.MustCompile(`(?i)^\s*(breakfast|lunch|dinner|snack|brunch)\s*[:\-]`)
	forMealRe     = regexp.MustCompile(`(?i)\bfor\s+(breakfast|lunch|dinner|brunch|a snack)\b`)
	planningRe    = regexp.MustCompile(`(?i)\b(can|could|should|shall|may)\s+i\s+(have|eat|drink|get|order)\b`)
	planningAltRe = regexp.MustCompile(`(?i)\b(is it (ok|okay|fine|healthy) (to|if i) (eat|have|drink)|what should i (eat|have|drink)|thinking (about|of) (having|eating|getting))\b`)
	questionLeadRe = regexp.MustCompile(`(?i)^\s*(what|why|how|when|where|who|which|is|are|do|does|did|can|could|should|would|will|may)\b`)
	verbRe         = regexp.MustCompile(`(?i)\b(is|are|was|were|had|have|has|ate|eat|drank|drink|will|would|should|could|can|do|does|did|went|going|want|need|feel|felt)\b`)

	affirmations = map[string]bool{
		"yes": true, "no": true, "yeah": true, "yep": true, "nope": true,
		"nah": true, "ok": true, "okay": true, "sure": true, "maybe": true,
		"thanks": true, "thank you": true,
	}

	// foodWordRe is a coarse lexicon of common food tokens. A follow-up
	// answer must contain at least one, so arbitrary short phrases never
	// auto-log as meals.
	foodWordRe = regexp.MustCompile(`(?i)\b(banana|apple|orange|berr(y|ies)|blueberr(y|ies)|bagel|toast|bread|croissant|oatmeal|granola|cereal|egg|eggs|omelette?|chicken|turkey|beef|steak|pork|bacon|salmon|tuna|fish|shrimp|tofu|beans|lentils|salad|rice|pasta|noodles|quinoa|potato(es)?|fries|soup|sandwich|wrap|burger|pizza|taco|burrito|sushi|yogurt|cheese|milk|butter|coffee|tea|juice|smoothie|shake|protein|nuts|almonds|walnuts|peanut|avocado|hummus|veggies|vegetables|broccoli|spinach|carrots?|cookie|cake|chocolate|snack)\b`)
)

// LooksLikeFoodLogging reports whether text reads as an already-consumed meal:
// past-tense or declarative consumption statements, including meal-label lines
// ("Lunch: chicken salad").
func LooksLikeFoodLogging(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	return consumptionRe.MatchString(trimmed) || mealPrefixRe.MatchString(trimmed)
}

// LooksLikeFoodPlanningQuestion reports whether text asks about food not yet
// eaten ("Can I have a banana for lunch?"). Past-tense consumption dominates:
// once the sentence is framed as already consumed, it is a log even when it
// also asks "is that okay?".
func LooksLikeFoodPlanningQuestion(text string) bool {
	if LooksLikeFoodLogging(text) {
		return false
	}
	return planningRe.MatchString(text) || planningAltRe.MatchString(text)
}

// LooksLikeFoodFollowupAnswer reports whether text is a short, food-item-dense
// reply to a question like "what did you eat?". Bare affirmations and
// negations ("yes", "no") answer a different kind of prompt and return false,
// as does anything with fresh sentence structure or question phrasing. The
// reply must name at least one recognizable food token; a false positive here
// writes a meal row, so short phrases without one abstain.
func LooksLikeFoodFollowupAnswer(text string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(strings.TrimRight(strings.TrimSpace(text), ".!")))
	if trimmed == "" || affirmations[trimmed] {
		return false
	}
	if strings.ContainsAny(trimmed, "?") {
		return false
	}
	words := strings.Fields(trimmed)
	if len(words) == 0 || len(words) > 12 {
		return false
	}
	if questionLeadRe.MatchString(trimmed) || verbRe.MatchString(trimmed) {
		return false
	}
	return foodWordRe.MatchString(trimmed)
}

// FoodPayload is a minimal loggable meal record extracted from chat text.
type FoodPayload struct {
	MealLabel string
	Items     []string
	Notes     string
}

// LowConfidenceNote is appended to payloads extracted without a confident
// heuristic match so unreviewed entries stay visible downstream.
const LowConfidenceNote = "auto-logged from chat (low confidence)"

var (
	itemSplitRe   = regexp.MustCompile(`(?i)\s*(?:,|\band\b|\bwith\b|\bplus\b)\s*`)
	leadStripRe   = regexp.MustCompile(`(?i)^\s*(i\s+(just\s+)?(had|ate|drank|finished|grabbed)|i've\s+(had|eaten)|we\s+(had|ate))\s+`)
	trailingAskRe = regexp.MustCompile(`(?i)[,.]?\s*(is|was) that (ok|okay|fine|healthy|alright|too much)\s*\??\s*$`)
	fillerRe      = regexp.MustCompile(`(?i)^(a|an|the|some|my)\s+`)
)

// MinimalFoodPayloadFromMessage extracts a best-effort loggable record from
// text. The second return is false when no items could be recognized. When
// lowConfidence is set, a human-readable marker is appended to Notes.
func MinimalFoodPayloadFromMessage(text string, lowConfidence bool) (FoodPayload, bool) {
	payload := FoodPayload{MealLabel: "Meal"}
	working := strings.TrimSpace(text)
	if working == "" {
		return payload, false
	}

	if m := mealPrefixRe.FindStringSubmatch(working); m != nil {
		payload.MealLabel = titleCase(m[1])
		working = strings.TrimSpace(working[len(m[0]):])
	} else if m := forMealRe.FindStringSubmatch(working); m != nil {
		label := strings.TrimPrefix(strings.ToLower(m[1]), "a ")
		payload.MealLabel = titleCase(label)
		working = strings.TrimSpace(forMealRe.ReplaceAllString(working, ""))
	}

	working = trailingAskRe.ReplaceAllString(working, "")
	working = leadStripRe.ReplaceAllString(working, "")
	working = strings.TrimRight(strings.TrimSpace(working), ".!?")

	var items []string
	for _, part := range itemSplitRe.Split(working, -1) {
		item := strings.TrimSpace(fillerRe.ReplaceAllString(strings.TrimSpace(part), ""))
		if item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return payload, false
	}
	payload.Items = items

	if lowConfidence {
		if payload.Notes != "" {
			payload.Notes += "; "
		}
		payload.Notes += LowConfidenceNote
	}
	return payload, true
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
