package telemetry

import (
	"context"
	"time"

	"vita/internal/logging"
	"vita/internal/store"
)

// UsageSink receives one record per billable model call. Implementations are
// fire-and-forget: recording failures must never fail the user-facing turn.
type UsageSink interface {
	Record(userID, tier, operation, model string, tokensIn, tokensOut int)
}

type storeSink struct {
	store  *store.Store
	logger logging.Logger
}

// NewStoreSink persists usage records asynchronously to the health store.
func NewStoreSink(st *store.Store, logger logging.Logger) UsageSink {
	return &storeSink{store: st, logger: logging.OrNop(logger)}
}

func (s *storeSink) Record(userID, tier, operation, model string, tokensIn, tokensOut int) {
	record := &store.UsageRecord{
		UserID:    userID,
		Tier:      tier,
		Operation: operation,
		Model:     model,
		TokensIn:  tokensIn,
		TokensOut: tokensOut,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.store.RecordUsage(ctx, record); err != nil {
			s.logger.Warn("usage record dropped for user %s op %s: %v", userID, operation, err)
		}
	}()
}

type nopSink struct{}

func (nopSink) Record(string, string, string, string, int, int) {}

// NopSink discards all usage records; for tests.
func NopSink() UsageSink {
	return nopSink{}
}
