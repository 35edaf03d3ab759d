package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ErrReferenceNotLoaded is returned by Service operations before any
// reference table has been published.
var ErrReferenceNotLoaded = errors.New("reference data not loaded")

// ErrTooManyCodes is returned when a bulk request exceeds the configured limit.
var ErrTooManyCodes = errors.New("too many codes in bulk request")

// Loader produces a freshly built reference table.
type Loader func(ctx context.Context) (*ReferenceTable, error)

// Observer receives notifications about validations and reloads.
// Implementations must be safe for concurrent use.
type Observer interface {
	ObserveValidation(r ValidationResult)
	ObserveReload(table *ReferenceTable, err error, took time.Duration)
}

// ServiceConfig holds the tunables the Service passes on to engines and the
// bulk limiter.
type ServiceConfig struct {
	LengthPolicy      LengthPolicy
	Concurrency       int
	MaxBulkCodes      int
	MaxConcurrentBulk int
	BulkMaxWait       time.Duration
}

// Service owns the currently published Engine and swaps it atomically when
// the reference data is reloaded. Readers never observe a partially built
// table: an Engine is published only after its table is complete.
type Service struct {
	cfg      ServiceConfig
	loader   Loader
	limiter  *BulkLimiter
	observer Observer

	engine atomic.Pointer[Engine]

	reloadMu sync.Mutex // serialises Reload

	statusMu   sync.RWMutex
	lastErr    error
	lastReload time.Time
	reloads    int
}

// NewService creates a Service. loader may be nil if tables are only ever
// published directly.
func NewService(loader Loader, cfg ServiceConfig) *Service {
	return &Service{
		cfg:     cfg,
		loader:  loader,
		limiter: NewBulkLimiter(cfg.MaxConcurrentBulk, cfg.BulkMaxWait),
	}
}

// SetObserver installs an observer. Call before the Service is shared.
func (s *Service) SetObserver(o Observer) {
	s.observer = o
}

// Publish builds an engine over table and makes it current.
func (s *Service) Publish(table *ReferenceTable) error {
	eng, err := NewEngine(table,
		WithLengthPolicy(s.cfg.LengthPolicy),
		WithConcurrency(s.cfg.Concurrency),
	)
	if err != nil {
		return err
	}
	s.engine.Store(eng)
	return nil
}

// Reload runs the loader and publishes the result. If loading fails the
// previously published engine stays in service and the error is returned.
func (s *Service) Reload(ctx context.Context) error {
	if s.loader == nil {
		return errors.New("no reference loader configured")
	}

	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	start := time.Now()
	table, err := s.loader(ctx)
	if err == nil {
		err = s.Publish(table)
	}
	took := time.Since(start)

	s.statusMu.Lock()
	s.lastErr = err
	s.lastReload = time.Now()
	if err == nil {
		s.reloads++
	}
	s.statusMu.Unlock()

	if s.observer != nil {
		s.observer.ObserveReload(table, err, took)
	}

	if err != nil {
		slog.Error("reference reload failed", "error", err, "duration_ms", took.Milliseconds())
		return fmt.Errorf("reload reference data: %w", err)
	}

	slog.Info("reference data published",
		"source", table.Source(),
		"codes", table.Len(),
		"lengths", table.ValidLengths(),
		"duration_ms", took.Milliseconds(),
	)
	return nil
}

// Engine returns the current engine.
func (s *Service) Engine() (*Engine, error) {
	eng := s.engine.Load()
	if eng == nil {
		return nil, ErrReferenceNotLoaded
	}
	return eng, nil
}

// Validate checks one code against the current reference data.
func (s *Service) Validate(code string) (ValidationResult, error) {
	eng, err := s.Engine()
	if err != nil {
		return ValidationResult{}, err
	}
	r := eng.Validate(code)
	s.observe(r)
	return r, nil
}

// ValidateMany checks codes in order against one consistent snapshot of the
// reference data, even if a reload happens mid-call.
func (s *Service) ValidateMany(ctx context.Context, codes []string) ([]ValidationResult, error) {
	eng, err := s.Engine()
	if err != nil {
		return nil, err
	}
	results, err := eng.ValidateManyContext(ctx, codes)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		s.observe(r)
	}
	return results, nil
}

// BulkReport is the outcome of a bulk validation.
type BulkReport struct {
	ID       string             `json:"id"`
	Total    int                `json:"total"`
	Valid    int                `json:"valid"`
	Invalid  int                `json:"invalid"`
	Duration time.Duration      `json:"duration_ns"`
	Results  []ValidationResult `json:"results"`
}

// ValidateBulk is ValidateMany behind the bulk limiter, returning counts
// alongside the results.
func (s *Service) ValidateBulk(ctx context.Context, codes []string) (*BulkReport, error) {
	var report *BulkReport
	err := s.ValidateBulkFunc(ctx, codes, func(r *BulkReport) error {
		report = r
		return nil
	})
	return report, err
}

// ValidateBulkFunc is ValidateBulk that calls fn with the report while the
// bulk slot is still held, so WaitForBulk also covers whatever fn does with
// it (rendering, writing an export).
func (s *Service) ValidateBulkFunc(ctx context.Context, codes []string, fn func(*BulkReport) error) error {
	if s.cfg.MaxBulkCodes > 0 && len(codes) > s.cfg.MaxBulkCodes {
		return fmt.Errorf("%w: %d given, limit %d", ErrTooManyCodes, len(codes), s.cfg.MaxBulkCodes)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return err
	}
	defer s.limiter.Release()

	start := time.Now()
	results, err := s.ValidateMany(ctx, codes)
	if err != nil {
		return err
	}

	report := NewBulkReport(results)
	report.Duration = time.Since(start)
	return fn(report)
}

// NewBulkReport wraps results with a fresh ID and valid/invalid counts.
func NewBulkReport(results []ValidationResult) *BulkReport {
	report := &BulkReport{
		ID:      uuid.NewString(),
		Total:   len(results),
		Results: results,
	}
	for _, r := range results {
		if r.IsValid {
			report.Valid++
		} else {
			report.Invalid++
		}
	}
	return report
}

// BulkStatus reports bulk limiter usage.
func (s *Service) BulkStatus() BulkLimiterStatus {
	return s.limiter.Status()
}

// WaitForBulk blocks until in-flight bulk validations finish or ctx is done.
func (s *Service) WaitForBulk(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// ReferenceStatus describes the currently published reference data.
type ReferenceStatus struct {
	Loaded       bool      `json:"loaded"`
	Source       string    `json:"source,omitempty"`
	Codes        int       `json:"codes"`
	ValidLengths []int     `json:"valid_lengths"`
	LoadedAt     time.Time `json:"loaded_at,omitempty"`
	LengthPolicy string    `json:"length_policy"`
	Reloads      int       `json:"reloads"`
	LastReload   time.Time `json:"last_reload,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
}

// Status returns a snapshot of the reference data and reload history.
func (s *Service) Status() ReferenceStatus {
	st := ReferenceStatus{
		LengthPolicy: s.cfg.LengthPolicy.String(),
		ValidLengths: []int{},
	}

	if eng := s.engine.Load(); eng != nil {
		t := eng.Table()
		st.Loaded = true
		st.Source = t.Source()
		st.Codes = t.Len()
		st.ValidLengths = t.ValidLengths()
		st.LoadedAt = t.LoadedAt()
	}

	s.statusMu.RLock()
	st.Reloads = s.reloads
	st.LastReload = s.lastReload
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	s.statusMu.RUnlock()

	return st
}

func (s *Service) observe(r ValidationResult) {
	if s.observer != nil {
		s.observer.ObserveValidation(r)
	}
}
