// Package orchestrator runs one conversational turn end to end: classify the
// message, commit any structured data through the tool registry, then stream
// the specialist's reply. Data commits happen before generation so the model
// talks about what was actually stored, never the other way around.
package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	vitaerrors "vita/internal/errors"
	"vita/internal/heuristics"
	"vita/internal/llm"
	"vita/internal/logging"
	"vita/internal/parser"
	"vita/internal/router"
	"vita/internal/specialist"
	"vita/internal/store"
	"vita/internal/telemetry"
	"vita/internal/toolregistry"
)

// TurnRequest is one user message plus its conversational setting.
type TurnRequest struct {
	UserID    string
	Message   string
	Image     []byte
	ImageMime string
	History   []llm.Message
}

// Orchestrator wires the turn pipeline together.
type Orchestrator struct {
	provider    llm.Provider
	registry    *toolregistry.Registry
	specialists *specialist.Set
	classifier  *router.Classifier
	store       *store.Store
	usage       telemetry.UsageSink
	metrics     *telemetry.Metrics
	logger      logging.Logger
}

// New builds an orchestrator. metrics may be nil in tests.
func New(provider llm.Provider, registry *toolregistry.Registry, specialists *specialist.Set,
	classifier *router.Classifier, st *store.Store, usage telemetry.UsageSink,
	metrics *telemetry.Metrics, logger logging.Logger) *Orchestrator {
	if usage == nil {
		usage = telemetry.NopSink()
	}
	return &Orchestrator{
		provider:    provider,
		registry:    registry,
		specialists: specialists,
		classifier:  classifier,
		store:       st,
		usage:       usage,
		metrics:     metrics,
		logger:      logging.OrNop(logger),
	}
}

// ProcessTurn runs one turn. Events arrive on the returned channel, which is
// closed after the terminal event. Canceling ctx stops the turn early.
func (o *Orchestrator) ProcessTurn(ctx context.Context, req TurnRequest) <-chan Event {
	events := make(chan Event, 16)
	go func() {
		defer close(events)
		o.runTurn(ctx, req, events)
	}()
	return events
}

func (o *Orchestrator) runTurn(ctx context.Context, req TurnRequest, events chan<- Event) {
	scope := telemetry.NewScope(req.UserID)
	ctx = telemetry.WithScope(ctx, scope)

	ctx, span := otel.Tracer("vita").Start(ctx, telemetry.SpanTurn)
	span.SetAttributes(attribute.String(telemetry.AttrUserID, req.UserID))
	defer span.End()

	// The channel is buffered, so a canceled context must be checked first
	// or a send could still slip through.
	emit := func(event Event) bool {
		if ctx.Err() != nil {
			return false
		}
		select {
		case events <- event:
			return true
		case <-ctx.Done():
			return false
		}
	}

	route := o.classifier.Classify(ctx, req.Message)
	scope.SetRouting(string(route.Intent), route.Specialist)
	span.SetAttributes(
		attribute.String(telemetry.AttrIntent, string(route.Intent)),
		attribute.String(telemetry.AttrSpecialist, route.Specialist),
	)
	o.logger.Debug("turn %s routed: user=%s intent=%s specialist=%s source=%s",
		scope.TurnID, req.UserID, route.Intent, route.Specialist, route.Source)

	defer func() {
		if o.metrics != nil {
			o.metrics.ObserveTurn(scope.Snapshot(), route.Source)
		}
	}()

	var contextNotes []string

	if len(req.Image) > 0 {
		if note, ok := o.analyzeImage(ctx, req, scope, emit); ok {
			contextNotes = append(contextNotes, note)
		} else if ctx.Err() != nil {
			return
		}
	}

	if note, fatal := o.runToolPhase(ctx, req, route, scope, emit); fatal {
		return
	} else if note != "" {
		contextNotes = append(contextNotes, note)
	}

	persona := o.specialists.GetOrDefault(route.Specialist)
	if !o.generate(ctx, req, persona, contextNotes, scope, emit) {
		return
	}

	emit(Event{Type: EventDone})
}

// analyzeImage describes an attached image on the vision model. Failure
// degrades the turn instead of ending it: the reply just proceeds without
// the image.
func (o *Orchestrator) analyzeImage(ctx context.Context, req TurnRequest, scope *telemetry.Scope, emit func(Event) bool) (string, bool) {
	if !emit(Event{Type: EventStatus, Text: "Looking at your photo..."}) {
		return "", false
	}

	ctx, span := otel.Tracer("vita").Start(ctx, telemetry.SpanVision)
	defer span.End()

	result, err := o.provider.ChatWithVision(ctx, llm.VisionRequest{
		Prompt:    "Describe the health-relevant content of this image: foods and rough portions, or any visible measurement readout.",
		ImageData: req.Image,
		ImageMime: req.ImageMime,
		Model:     o.provider.VisionModel(),
	})
	if err != nil {
		scope.RecordFailure("image_analysis", err)
		o.logger.Warn("image analysis failed for user %s: %v", req.UserID, err)
		emit(Event{Type: EventStatus, Text: "I couldn't analyze the photo, so I'll go by your message alone."})
		return "", false
	}

	scope.RecordCall(telemetry.TierReasoning, result.TokensIn, result.TokensOut)
	o.usage.Record(req.UserID, telemetry.TierReasoning, "image_analysis", result.Model, result.TokensIn, result.TokensOut)
	return "Attached image analysis: " + result.Content, true
}

// runToolPhase commits structured data for logging intents. A tool failure is
// not fatal; the turn continues with a clarification note so the specialist
// can ask for what was missing.
func (o *Orchestrator) runToolPhase(ctx context.Context, req TurnRequest, route router.Result, scope *telemetry.Scope, emit func(Event) bool) (string, bool) {
	calls := o.toolCallsFor(route.Intent, req.Message)
	if len(calls) == 0 {
		// A food-logging turn with nothing extractable must not read as
		// saved; tell the specialist to ask instead.
		if route.Intent == router.IntentLogFood {
			return "The message looked like a meal report but no food items could be extracted. Nothing was recorded; ask the user what they ate.", false
		}
		return "", false
	}

	tc := &toolregistry.Context{
		Store:        o.store,
		UserID:       req.UserID,
		SpecialistID: route.Specialist,
	}

	var notes []string
	for _, call := range calls {
		if !emit(Event{Type: EventStatus, Text: call.status}) {
			return "", true
		}
		callCtx, span := otel.Tracer("vita").Start(ctx, telemetry.SpanTool)
		span.SetAttributes(attribute.String(telemetry.AttrToolName, call.tool))
		result, err := o.registry.Execute(callCtx, call.tool, call.args, tc)
		span.End()
		if err != nil {
			scope.RecordFailure("tool_execute", err)
			o.logger.Warn("tool %s failed for user %s: %v", call.tool, req.UserID, err)
			notes = append(notes, fmt.Sprintf(
				"Attempted to record data via %s but it failed (%v). Ask the user for the missing detail instead of pretending it was saved.",
				call.tool, err))
			continue
		}
		notes = append(notes, fmt.Sprintf("Recorded via %s: %v. Acknowledge this naturally.", call.tool, result))
	}
	return strings.Join(notes, "\n"), false
}

type toolCall struct {
	tool   string
	args   map[string]any
	status string
}

// toolCallsFor translates a logging intent into concrete registry calls using
// the deterministic parsers. Ask-style intents produce no calls.
func (o *Orchestrator) toolCallsFor(intent router.Intent, message string) []toolCall {
	switch intent {
	case router.IntentLogFood:
		// A bare item list routed here by the follow-up detector lacks the
		// explicit consumption phrasing, so its payload is marked low
		// confidence.
		lowConfidence := !heuristics.LooksLikeFoodLogging(message)
		payload, ok := heuristics.MinimalFoodPayloadFromMessage(message, lowConfidence)
		if !ok {
			return nil
		}
		args := map[string]any{"meal_label": payload.MealLabel, "items": payload.Items}
		if payload.Notes != "" {
			args["notes"] = payload.Notes
		}
		return []toolCall{{tool: "meal_log", args: args, status: "Logging your meal..."}}

	case router.IntentLogFasting:
		parse := parser.ParseFastingWindow(message)
		if parse.Action == parser.FastingUnknown {
			return nil
		}
		args := map[string]any{"action": string(parse.Action)}
		if parse.FastStart != "" {
			args["start_time"] = parse.FastStart
		}
		if parse.FastEnd != "" {
			args["end_time"] = parse.FastEnd
		}
		return []toolCall{{tool: "fasting_manage", args: args, status: "Updating your fast..."}}

	case router.IntentLogSleep:
		parse := parser.ParseSleepDuration(message)
		if !parse.Confident {
			return nil
		}
		return []toolCall{{
			tool:   "sleep_log",
			args:   map[string]any{"hours": parse.Hours},
			status: "Logging your sleep...",
		}}

	case router.IntentLogVitals:
		var calls []toolCall
		for _, entry := range parser.ParseVitals(message) {
			calls = append(calls, toolCall{
				tool:   "vitals_log",
				args:   map[string]any{"kind": entry.Kind, "value": entry.Value, "unit": entry.Unit},
				status: "Logging your " + strings.ReplaceAll(entry.Kind, "_", " ") + "...",
			})
		}
		return calls
	}
	return nil
}

// generate streams the specialist's reply. Returns false when the turn ended
// without reaching the done event (fatal error or cancellation).
func (o *Orchestrator) generate(ctx context.Context, req TurnRequest, persona specialist.Specialist, contextNotes []string, scope *telemetry.Scope, emit func(Event) bool) bool {
	system := persona.SystemPrompt
	if len(contextNotes) > 0 {
		system += "\n\nTurn context:\n" + strings.Join(contextNotes, "\n")
	}

	messages := append(append([]llm.Message{}, req.History...), llm.Message{Role: "user", Content: req.Message})

	ctx, span := otel.Tracer("vita").Start(ctx, telemetry.SpanGenerate)
	span.SetAttributes(attribute.String(telemetry.AttrTier, telemetry.TierReasoning))
	defer span.End()

	streaming := true
	result, err := o.provider.ChatStream(ctx, llm.ChatRequest{
		Model:    o.provider.ReasoningModel(),
		System:   system,
		Messages: messages,
	}, func(chunk llm.StreamChunk) {
		if chunk.Done || chunk.Delta == "" {
			return
		}
		scope.RecordFirstToken()
		if !emit(Event{Type: EventContent, Text: chunk.Delta}) {
			streaming = false
		}
	})
	if !streaming || ctx.Err() != nil {
		return false
	}
	if err != nil {
		scope.RecordFailure("chat_response", err)
		if vitaerrors.IsAuthError(err) {
			o.logger.Error("provider auth failure for user %s: %v", req.UserID, err)
			emit(Event{Type: EventError, Text: "Your model provider rejected the configured credentials. Please update your API key."})
			return false
		}
		o.logger.Error("reply generation failed for user %s: %v", req.UserID, err)
		emit(Event{Type: EventError, Text: "I hit a problem generating a reply. Please try again."})
		return false
	}

	scope.RecordCall(telemetry.TierReasoning, result.TokensIn, result.TokensOut)
	o.usage.Record(req.UserID, telemetry.TierReasoning, "chat_response", result.Model, result.TokensIn, result.TokensOut)
	return true
}
