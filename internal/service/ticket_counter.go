package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/open311-service/internal/config"
	"github.com/spec-kit/open311-service/internal/domain"
	"github.com/spec-kit/open311-service/internal/observability"
	"github.com/spec-kit/open311-service/internal/repository"
	apperrors "github.com/spec-kit/open311-service/pkg/util"
)

// TicketCounter allocates collision-free ticket numbers scoped to
// (jurisdiction, service, year) and formats them into human-readable codes.
type TicketCounter struct {
	counters repository.CounterRepository
	cfg      config.TicketConfig
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewTicketCounter constructs the counter service.
func NewTicketCounter(counters repository.CounterRepository, cfg config.TicketConfig, metrics *observability.Metrics, logger *zap.Logger) *TicketCounter {
	return &TicketCounter{
		counters: counters,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
	}
}

// Generate allocates the next sequence for the scope key and returns the
// formatted ticket code. Sequence allocation is a single atomic
// upsert-and-increment in storage; transient failures are retried with
// exponential backoff up to the configured attempt bound.
func (t *TicketCounter) Generate(ctx context.Context, jurisdictionCode, serviceCode string, year int) (string, *domain.Counter, error) {
	jurisdictionCode = strings.ToUpper(strings.TrimSpace(jurisdictionCode))
	serviceCode = strings.ToUpper(strings.TrimSpace(serviceCode))
	if jurisdictionCode == "" || serviceCode == "" {
		return "", nil, apperrors.NewValidationError("jurisdiction and service codes are required", map[string]any{
			"jurisdiction": jurisdictionCode,
			"service":      serviceCode,
		})
	}
	if year <= 0 {
		year = time.Now().Year()
	}

	attempts := t.cfg.AllocateRetries
	if attempts < 1 {
		attempts = 1
	}
	backoff := t.cfg.RetryBackoff()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		counter, err := t.counters.NextSequence(ctx, jurisdictionCode, serviceCode, year)
		if err == nil {
			t.metrics.RecordTicketAllocation(jurisdictionCode, serviceCode)
			return t.FormatCode(jurisdictionCode, serviceCode, year, counter.Sequence), counter, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		t.logger.Warn("ticket allocation attempt failed",
			zap.String("jurisdiction", jurisdictionCode),
			zap.String("service", serviceCode),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt < attempts {
			select {
			case <-ctx.Done():
				return "", nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	return "", nil, apperrors.NewUnavailable("ticket allocation failed", lastErr)
}

// FormatCode renders prefix + jurisdiction + service + 2-digit year +
// zero-padded sequence + suffix, with no separators.
func (t *TicketCounter) FormatCode(jurisdictionCode, serviceCode string, year int, sequence int64) string {
	pad := t.cfg.SequencePad
	if pad <= 0 {
		pad = 4
	}
	return fmt.Sprintf("%s%s%s%02d%0*d%s",
		t.cfg.Prefix, jurisdictionCode, serviceCode, year%100, pad, sequence, t.cfg.Suffix)
}
