// Package telemetry attributes every model call and failure within one
// logical turn without threading counters through each call site. A Scope is
// attached to the request context; concurrent turns never share one.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Usage tiers classify a model call by cost/capability class.
const (
	TierUtility   = "utility"
	TierReasoning = "reasoning"
	TierDeep      = "deep"
)

const maxFailures = 10

// TierStats accumulates call and token counts for one tier.
type TierStats struct {
	Calls     int
	TokensIn  int
	TokensOut int
}

// Failure is one caught error attributed to an operation.
type Failure struct {
	Operation string
	Message   string
}

// Scope is the mutable per-turn accumulator. Created at turn start, read at
// turn end. All methods are safe on a nil receiver so instrumented code never
// needs to check whether a scope is attached.
type Scope struct {
	mu sync.Mutex

	TurnID       string
	UserID       string
	SpecialistID string
	Intent       string

	tiers             map[string]*TierStats
	failures          []Failure
	droppedFailures   int
	startedAt         time.Time
	firstTokenLatency time.Duration
	firstTokenSeen    bool
}

// NewScope starts a scope for one turn.
func NewScope(userID string) *Scope {
	return &Scope{
		TurnID:    uuid.NewString(),
		UserID:    userID,
		tiers:     make(map[string]*TierStats),
		startedAt: time.Now(),
	}
}

// SetRouting records the classification outcome for the turn.
func (s *Scope) SetRouting(intent, specialistID string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Intent = intent
	s.SpecialistID = specialistID
}

// RecordCall accumulates one model call under a tier.
func (s *Scope) RecordCall(tier string, tokensIn, tokensOut int) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := s.tiers[tier]
	if stats == nil {
		stats = &TierStats{}
		s.tiers[tier] = stats
	}
	stats.Calls++
	stats.TokensIn += tokensIn
	stats.TokensOut += tokensOut
}

// RecordFirstToken captures first-chunk latency. Only the first call counts.
func (s *Scope) RecordFirstToken() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.firstTokenSeen {
		return
	}
	s.firstTokenSeen = true
	s.firstTokenLatency = time.Since(s.startedAt)
}

// RecordFailure appends a caught failure. The list is bounded; overflow is
// counted rather than stored.
func (s *Scope) RecordFailure(operation string, err error) {
	if s == nil || err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.failures) >= maxFailures {
		s.droppedFailures++
		return
	}
	s.failures = append(s.failures, Failure{Operation: operation, Message: err.Error()})
}

// Snapshot is the immutable view read at turn end.
type Snapshot struct {
	TurnID            string
	UserID            string
	SpecialistID      string
	Intent            string
	Tiers             map[string]TierStats
	Failures          []Failure
	DroppedFailures   int
	FirstTokenLatency time.Duration
	FirstTokenSeen    bool
}

// Snapshot copies the scope's current state.
func (s *Scope) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		TurnID:            s.TurnID,
		UserID:            s.UserID,
		SpecialistID:      s.SpecialistID,
		Intent:            s.Intent,
		Tiers:             make(map[string]TierStats, len(s.tiers)),
		Failures:          append([]Failure(nil), s.failures...),
		DroppedFailures:   s.droppedFailures,
		FirstTokenLatency: s.firstTokenLatency,
		FirstTokenSeen:    s.firstTokenSeen,
	}
	for tier, stats := range s.tiers {
		snap.Tiers[tier] = *stats
	}
	return snap
}

type scopeKey struct{}

// WithScope attaches a scope to the request context.
func WithScope(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// ScopeFrom returns the scope attached to ctx, or nil. Callers may use the
// result directly; all Scope methods tolerate nil.
func ScopeFrom(ctx context.Context) *Scope {
	scope, _ := ctx.Value(scopeKey{}).(*Scope)
	return scope
}
