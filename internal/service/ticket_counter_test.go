package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/open311-service/internal/config"
	"github.com/spec-kit/open311-service/internal/domain"
	"github.com/spec-kit/open311-service/internal/observability"
	"github.com/spec-kit/open311-service/internal/repository"
	apperrors "github.com/spec-kit/open311-service/pkg/util"
)

type memCounterRepo struct {
	mu       sync.Mutex
	counters map[string]int64
	calls    int
	failures int
}

func newMemCounterRepo() *memCounterRepo {
	return &memCounterRepo{counters: make(map[string]int64)}
}

func (r *memCounterRepo) NextSequence(ctx context.Context, jurisdiction, service string, year int) (*domain.Counter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.failures > 0 {
		r.failures--
		return nil, errors.New("connection reset")
	}
	key := fmt.Sprintf("%s|%s|%d", jurisdiction, service, year)
	r.counters[key]++
	return &domain.Counter{
		Jurisdiction: jurisdiction,
		Service:      service,
		Year:         year,
		Sequence:     r.counters[key],
		UpdatedAt:    time.Now(),
	}, nil
}

var _ repository.CounterRepository = (*memCounterRepo)(nil)

func newTestCounter(repo repository.CounterRepository, cfg config.TicketConfig) *TicketCounter {
	return NewTicketCounter(repo, cfg, observability.NewMetrics(), zap.NewNop())
}

func TestGenerateSequencesAreUniqueUnderConcurrency(t *testing.T) {
	repo := newMemCounterRepo()
	counter := newTestCounter(repo, config.TicketConfig{SequencePad: 4, AllocateRetries: 3, RetryBackoffMS: 1})

	const workers = 50
	var wg sync.WaitGroup
	codes := make(chan string, workers)
	sequences := make(chan int64, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, c, err := counter.Generate(context.Background(), "IL", "LK", 2017)
			if err != nil {
				t.Errorf("generate failed: %v", err)
				return
			}
			codes <- code
			sequences <- c.Sequence
		}()
	}
	wg.Wait()
	close(codes)
	close(sequences)

	seenCodes := make(map[string]bool)
	for code := range codes {
		if seenCodes[code] {
			t.Fatalf("duplicate code allocated: %s", code)
		}
		seenCodes[code] = true
	}

	seenSeqs := make(map[int64]bool)
	for seq := range sequences {
		seenSeqs[seq] = true
	}
	for i := int64(1); i <= workers; i++ {
		if !seenSeqs[i] {
			t.Fatalf("sequence %d never allocated", i)
		}
	}
}

func TestGenerateScopesAreIndependent(t *testing.T) {
	repo := newMemCounterRepo()
	counter := newTestCounter(repo, config.TicketConfig{SequencePad: 4})

	ctx := context.Background()
	if _, c, err := counter.Generate(ctx, "IL", "LK", 2017); err != nil || c.Sequence != 1 {
		t.Fatalf("first allocation: seq=%v err=%v", c, err)
	}
	if _, c, err := counter.Generate(ctx, "IL", "LK", 2018); err != nil || c.Sequence != 1 {
		t.Fatalf("new year must restart sequence: seq=%v err=%v", c, err)
	}
	if _, c, err := counter.Generate(ctx, "IL", "RD", 2017); err != nil || c.Sequence != 1 {
		t.Fatalf("new service must restart sequence: seq=%v err=%v", c, err)
	}
	if _, c, err := counter.Generate(ctx, "IL", "LK", 2017); err != nil || c.Sequence != 2 {
		t.Fatalf("same scope must continue sequence: seq=%v err=%v", c, err)
	}
}

func TestFormatCode(t *testing.T) {
	counter := newTestCounter(newMemCounterRepo(), config.TicketConfig{SequencePad: 4})

	cases := []struct {
		jurisdiction string
		service      string
		year         int
		sequence     int64
		want         string
	}{
		{"AB", "", 2017, 1, "AB170001"},
		{"AB", "", 2017, 10, "AB170010"},
		{"AB", "", 2017, 100, "AB170100"},
		{"AB", "", 2017, 1000, "AB171000"},
		{"IL", "LK", 2017, 5, "ILLK170005"},
		{"IL", "LK", 2026, 12345, "ILLK2612345"},
	}
	for _, tc := range cases {
		got := counter.FormatCode(tc.jurisdiction, tc.service, tc.year, tc.sequence)
		if got != tc.want {
			t.Fatalf("FormatCode(%s,%s,%d,%d) = %q, want %q",
				tc.jurisdiction, tc.service, tc.year, tc.sequence, got, tc.want)
		}
	}
}

func TestFormatCodeAppliesPrefixAndSuffix(t *testing.T) {
	counter := newTestCounter(newMemCounterRepo(), config.TicketConfig{
		Prefix: "SR", Suffix: "X", SequencePad: 3,
	})
	got := counter.FormatCode("IL", "LK", 2017, 7)
	if got != "SRILLK17007X" {
		t.Fatalf("unexpected code %q", got)
	}
}

func TestGenerateNormalizesScopeCodes(t *testing.T) {
	repo := newMemCounterRepo()
	counter := newTestCounter(repo, config.TicketConfig{SequencePad: 4})

	code, c, err := counter.Generate(context.Background(), " il ", "lk", 2017)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if c.Jurisdiction != "IL" || c.Service != "LK" {
		t.Fatalf("expected uppercased scope, got %+v", c)
	}
	if code != "ILLK170001" {
		t.Fatalf("unexpected code %q", code)
	}
}

func TestGenerateRejectsBlankScope(t *testing.T) {
	counter := newTestCounter(newMemCounterRepo(), config.TicketConfig{})

	_, _, err := counter.Generate(context.Background(), "", "LK", 2017)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if apperrors.ToDomainError(err).HTTPStatus != 400 {
		t.Fatalf("expected 400, got %d", apperrors.ToDomainError(err).HTTPStatus)
	}
}

func TestGenerateDefaultsYear(t *testing.T) {
	repo := newMemCounterRepo()
	counter := newTestCounter(repo, config.TicketConfig{SequencePad: 4})

	_, c, err := counter.Generate(context.Background(), "IL", "LK", 0)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if c.Year != time.Now().Year() {
		t.Fatalf("expected current year, got %d", c.Year)
	}
}

func TestGenerateRetriesTransientFailures(t *testing.T) {
	repo := newMemCounterRepo()
	repo.failures = 2
	counter := newTestCounter(repo, config.TicketConfig{SequencePad: 4, AllocateRetries: 3, RetryBackoffMS: 1})

	_, c, err := counter.Generate(context.Background(), "IL", "LK", 2017)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if c.Sequence != 1 {
		t.Fatalf("expected sequence 1, got %d", c.Sequence)
	}
	if repo.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", repo.calls)
	}
}

func TestGenerateExhaustedRetriesReturnsUnavailable(t *testing.T) {
	repo := newMemCounterRepo()
	repo.failures = 10
	counter := newTestCounter(repo, config.TicketConfig{AllocateRetries: 2, RetryBackoffMS: 1})

	_, _, err := counter.Generate(context.Background(), "IL", "LK", 2017)
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	domainErr := apperrors.ToDomainError(err)
	if domainErr.HTTPStatus != 503 || domainErr.Code != "TRANSIENT_STORAGE" {
		t.Fatalf("expected 503 TRANSIENT_STORAGE, got %d %s", domainErr.HTTPStatus, domainErr.Code)
	}
	if repo.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", repo.calls)
	}
}
