// Package warehouse is the record store for rooms, clients, entries and lots.
//
// Each mutating call is one read-modify-write cycle: load the collections,
// validate, mutate in memory, recompute the affected rooms and commit every
// touched collection in a single batch. Validation always happens before the
// commit, so a failed call leaves storage as it was.
//
// Calls are serialised within one process. Two processes sharing the same
// database file are not coordinated; the last commit wins.
package warehouse

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pbaille/coldstore/internal/capacity"
	"github.com/pbaille/coldstore/internal/domain"
	"github.com/pbaille/coldstore/internal/store"
)

// DuplicatePolicy decides what happens when an advisory-unique value repeats
type DuplicatePolicy string

const (
	// DuplicateWarn writes the record and returns a warning
	DuplicateWarn DuplicatePolicy = "warn"
	// DuplicateReject fails with a ValidationError
	DuplicateReject DuplicatePolicy = "reject"
)

// ParseDuplicatePolicy validates a policy name
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(s) {
	case DuplicateWarn, DuplicateReject:
		return DuplicatePolicy(s), nil
	}
	return "", fmt.Errorf("unknown duplicate policy %q (want %q or %q)", s, DuplicateWarn, DuplicateReject)
}

// Warnings are non-fatal notices attached to a successful mutation
type Warnings []string

// Options configures a Service
type Options struct {
	Rule         capacity.Rule
	WeightPerBag decimal.Decimal
	Duplicates   DuplicatePolicy
	Logger       *zap.Logger
	// NewID generates record ids; uuid.NewString when nil
	NewID func() string
}

// Service implements the record store on top of a store.Store
type Service struct {
	mu         sync.Mutex
	st         *store.Store
	engine     *capacity.Engine
	duplicates DuplicatePolicy
	log        *zap.Logger
	newID      func() string
}

// New creates a Service
func New(st *store.Store, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Duplicates == "" {
		opts.Duplicates = DuplicateWarn
	}
	return &Service{
		st:         st,
		engine:     capacity.NewEngine(opts.Rule, opts.WeightPerBag),
		duplicates: opts.Duplicates,
		log:        opts.Logger,
		newID:      opts.NewID,
	}
}

// Rule returns the canonical capacity rule
func (s *Service) Rule() capacity.Rule { return s.engine.Rule() }

// duplicate applies the policy to a detected duplicate
func (s *Service) duplicate(warnings *Warnings, field, msg string) error {
	if s.duplicates == DuplicateReject {
		return domain.Invalid(field, "%s", msg)
	}
	s.log.Warn("duplicate value accepted", zap.String("field", field), zap.String("detail", msg))
	*warnings = append(*warnings, msg)
	return nil
}

// ClearAll resets all four collections. It refuses to run unless confirmed.
func (s *Service) ClearAll(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return domain.Invalid("confirm", "clearing all data is irreversible and must be confirmed")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.st.Reset(ctx); err != nil {
		return err
	}
	s.log.Warn("all data cleared")
	return nil
}

func clean(v string) string { return strings.TrimSpace(v) }
