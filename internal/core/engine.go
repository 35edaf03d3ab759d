package core

// engine.go implements the validation algorithm.
//
// Each Validate call runs four checks in order:
//  1. Format: non-empty, ASCII digits only
//  2. Length: compared against the reference table's known lengths
//  3. Existence: exact lookup in the reference table
//  4. Hierarchy: lookup of every even-length prefix shorter than the code
//
// A format failure stops the pipeline. Existence decides IsValid; hierarchy is
// informational. The engine holds no mutable state, so one Engine can serve
// any number of goroutines.

import (
	"context"
	"errors"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ErrNoReferenceTable is returned when an engine is built without a table.
var ErrNoReferenceTable = errors.New("reference table not constructed")

// LengthPolicy controls how a code length unknown to the reference data is treated.
type LengthPolicy int

const (
	// LengthAdvisory records the mismatch in the format message and sets
	// LengthValid=false, but existence stays authoritative for IsValid.
	LengthAdvisory LengthPolicy = iota

	// LengthStrict turns a length mismatch into a format failure.
	LengthStrict
)

// String returns the policy name used in configuration.
func (p LengthPolicy) String() string {
	if p == LengthStrict {
		return "strict"
	}
	return "advisory"
}

// ParseLengthPolicy converts "advisory" or "strict" to a LengthPolicy.
func ParseLengthPolicy(s string) (LengthPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "advisory":
		return LengthAdvisory, nil
	case "strict":
		return LengthStrict, nil
	default:
		return LengthAdvisory, errors.New("length policy must be advisory or strict")
	}
}

// sequentialThreshold is the batch size below which ValidateMany does not fan out.
const sequentialThreshold = 64

// Engine validates codes against one ReferenceTable.
type Engine struct {
	table       *ReferenceTable
	policy      LengthPolicy
	concurrency int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLengthPolicy selects the length policy. The default is LengthAdvisory.
func WithLengthPolicy(p LengthPolicy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithConcurrency bounds the number of goroutines ValidateMany uses.
// Values <= 0 mean runtime.NumCPU().
func WithConcurrency(n int) Option {
	return func(e *Engine) { e.concurrency = n }
}

// NewEngine binds an engine to table.
func NewEngine(table *ReferenceTable, opts ...Option) (*Engine, error) {
	if table == nil {
		return nil, ErrNoReferenceTable
	}
	e := &Engine{table: table}
	for _, opt := range opts {
		opt(e)
	}
	if e.concurrency <= 0 {
		e.concurrency = runtime.NumCPU()
	}
	return e, nil
}

// Table returns the reference table the engine reads from.
func (e *Engine) Table() *ReferenceTable {
	return e.table
}

// Policy returns the engine's length policy.
func (e *Engine) Policy() LengthPolicy {
	return e.policy
}

// Validate checks a single code. It never fails: malformed and unknown codes
// are reported in the result.
func (e *Engine) Validate(raw string) ValidationResult {
	code := strings.TrimSpace(raw)

	result := ValidationResult{
		Code:      code,
		Hierarchy: []ParentCheck{},
		Messages:  make([]string, 0, 2),
	}

	ok, lengthOK, msg := e.checkFormat(code)
	result.FormatValid = ok
	result.LengthValid = lengthOK
	result.FormatMessage = msg
	result.Messages = append(result.Messages, msg)

	if !ok {
		return result
	}

	if desc, found := e.table.Lookup(code); found {
		result.Exists = true
		result.IsValid = true
		result.Description = desc
		result.Messages = append(result.Messages, MsgExists)
	} else {
		result.Messages = append(result.Messages, MsgNotFound)
	}

	if len(code) > 2 {
		result.Hierarchy = e.checkHierarchy(code)
	}

	return result
}

// checkFormat returns (formatValid, lengthValid, message).
func (e *Engine) checkFormat(code string) (bool, bool, string) {
	if code == "" {
		return false, false, MsgEmpty
	}
	if !IsDigits(code) {
		return false, false, MsgNotDigits
	}

	lengths := e.table.lengths
	if len(lengths) == 0 || e.table.hasLength(len(code)) {
		return true, true, MsgFormatValid
	}

	if e.policy == LengthStrict {
		return false, false, strictLengthMessage(lengths)
	}
	return true, false, advisoryLengthMessage(len(code), lengths)
}

// checkHierarchy looks up every even-length proper prefix of code.
func (e *Engine) checkHierarchy(code string) []ParentCheck {
	parents := make([]ParentCheck, 0, (len(code)-1)/2)
	for i := 2; i < len(code); i += 2 {
		prefix := code[:i]
		desc, found := e.table.Lookup(prefix)
		parents = append(parents, ParentCheck{
			ParentCode:  prefix,
			Exists:      found,
			Description: desc,
		})
	}
	return parents
}

// ValidateMany validates each code independently. The result slice has the
// same length and order as codes; duplicates are validated twice.
func (e *Engine) ValidateMany(codes []string) []ValidationResult {
	results, _ := e.ValidateManyContext(context.Background(), codes)
	return results
}

// ValidateManyContext is ValidateMany with cancellation. Large batches are
// split across up to the configured number of goroutines. On cancellation
// the context error is returned along with a partially filled slice.
func (e *Engine) ValidateManyContext(ctx context.Context, codes []string) ([]ValidationResult, error) {
	results := make([]ValidationResult, len(codes))

	if len(codes) <= sequentialThreshold || e.concurrency == 1 {
		for i, c := range codes {
			if i%sequentialThreshold == 0 {
				if err := ctx.Err(); err != nil {
					return results, err
				}
			}
			results[i] = e.Validate(c)
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	chunk := (len(codes) + e.concurrency - 1) / e.concurrency
	for start := 0; start < len(codes); start += chunk {
		end := min(start+chunk, len(codes))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = e.Validate(codes[i])
			}
			return nil
		})
	}

	return results, g.Wait()
}
