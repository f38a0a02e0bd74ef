package footage

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"storyreel/internal/logging"
	"storyreel/internal/scenario"
)

// ErrEmptyCandidatePool is returned when a segment has no candidates and no
// earlier segment had any either.
var ErrEmptyCandidatePool = errors.New("empty candidate pool")

// Tier records which selection rule produced an allocation.
type Tier int

const (
	TierFresh Tier = iota + 1
	TierExtend
	TierForced
)

func (t Tier) String() string {
	switch t {
	case TierFresh:
		return "fresh"
	case TierExtend:
		return "extend"
	case TierForced:
		return "forced"
	default:
		return "unknown"
	}
}

// MarshalText renders the tier name in JSON and YAML output.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses a tier name.
func (t *Tier) UnmarshalText(b []byte) error {
	switch string(b) {
	case "fresh":
		*t = TierFresh
	case "extend":
		*t = TierExtend
	case "forced":
		*t = TierForced
	default:
		return fmt.Errorf("unknown tier %q", string(b))
	}
	return nil
}

// Segment is a timeline interval that needs one clip.
type Segment struct {
	Start float64
	End   float64
	Pool  scenario.Pool
}

// Duration returns End minus Start.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Allocation is the clip chosen for one segment.
type Allocation struct {
	Index     int                `json:"index"`
	Candidate scenario.Candidate `json:"candidate"`
	Tier      Tier               `json:"tier"`
	Start     float64            `json:"start"`
	End       float64            `json:"end"`
}

// Allocator assigns clips to segments against a shared Registry.
type Allocator struct {
	registry *Registry
	rng      *rand.Rand
	logger   *slog.Logger
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithRand sets the source used to shuffle fresh candidates. The source is
// only touched under the registry lock, so it may be shared by allocators
// bound to the same Registry but not by allocators on different ones.
func WithRand(r *rand.Rand) Option {
	return func(a *Allocator) {
		if r != nil {
			a.rng = r
		}
	}
}

// WithSeed makes fresh picks reproducible.
func WithSeed(seed int64) Option {
	return WithRand(rand.New(rand.NewSource(seed)))
}

// WithLogger sets the decision logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Allocator) {
		a.logger = logger
	}
}

// NewAllocator returns an allocator bound to reg. Without WithRand or
// WithSeed fresh picks are randomly seeded.
func NewAllocator(reg *Registry, opts ...Option) *Allocator {
	if reg == nil {
		reg = NewRegistry()
	}
	a := &Allocator{registry: reg}
	for _, opt := range opts {
		opt(a)
	}
	if a.rng == nil {
		a.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	a.logger = logging.NewComponentLogger(a.logger, "allocator")
	return a
}

// Registry returns the registry the allocator commits to.
func (a *Allocator) Registry() *Registry {
	return a.registry
}

// Allocate assigns exactly one clip per segment, in order. Every segment is
// checked for a positive duration before any clip is committed.
func (a *Allocator) Allocate(segments []Segment) ([]Allocation, error) {
	for i, seg := range segments {
		if seg.End <= seg.Start {
			return nil, fmt.Errorf("segment %d (%.2f-%.2f): %w", i, seg.Start, seg.End, scenario.ErrNonPositiveDuration)
		}
	}

	out := make([]Allocation, 0, len(segments))
	var lastPool scenario.Pool
	for i, seg := range segments {
		pool := seg.Pool
		if len(pool) == 0 {
			if len(lastPool) == 0 {
				return nil, fmt.Errorf("segment %d (%.2f-%.2f): %w", i, seg.Start, seg.End, ErrEmptyCandidatePool)
			}
			pool = lastPool
			a.logger.Debug("segment pool empty; using previous pool",
				logging.Int("segment", i),
				logging.Int("pool_size", len(pool)),
			)
		} else {
			lastPool = pool
		}

		alloc := a.choose(i, seg, pool)
		out = append(out, alloc)
	}
	return out, nil
}

func (a *Allocator) choose(index int, seg Segment, pool scenario.Pool) Allocation {
	a.registry.mu.Lock()
	defer a.registry.mu.Unlock()

	var (
		chosen scenario.Candidate
		tier   Tier
		reason string
	)
	if c, ok := a.freshLocked(pool); ok {
		chosen, tier, reason = c, TierFresh, "unused candidate in pool"
	} else if c, ok := a.registry.inViewLocked(seg.Start); ok {
		chosen, tier, reason = c, TierExtend, "clip still in view at segment start"
	} else {
		chosen, tier, reason = pool[0], TierForced, "pool exhausted and no clip in view"
	}
	recorded := a.registry.recordLocked(chosen, seg.End)

	attrs := logging.DecisionAttrs("footage_tier", tier.String(), reason)
	attrs = append(attrs,
		logging.Int("segment", index),
		logging.String("footage_id", chosen.ID),
		logging.Seconds("start", seg.Start),
		logging.Seconds("end", seg.End),
		logging.Seconds("recorded_end", recorded),
	)
	a.logger.Debug("footage allocated", logging.Args(attrs...)...)

	return Allocation{Index: index, Candidate: chosen, Tier: tier, Start: seg.Start, End: seg.End}
}

func (a *Allocator) freshLocked(pool scenario.Pool) (scenario.Candidate, bool) {
	order := a.rng.Perm(len(pool))
	for _, idx := range order {
		c := pool[idx]
		if _, used := a.registry.entries[c.ID]; !used {
			return c, true
		}
	}
	return scenario.Candidate{}, false
}

// TierCounts tallies allocations by tier.
func TierCounts(allocs []Allocation) map[Tier]int {
	counts := make(map[Tier]int, 3)
	for _, a := range allocs {
		counts[a.Tier]++
	}
	return counts
}
