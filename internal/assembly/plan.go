package assembly

import (
	"fmt"
	"log/slog"

	"storyreel/internal/alignment"
	"storyreel/internal/footage"
	"storyreel/internal/scenario"
	"storyreel/internal/timeline"
)

// PlanOptions controls BuildPlan.
type PlanOptions struct {
	Seed        int64
	Granularity timeline.Granularity
	Logger      *slog.Logger
}

// Plan is an allocated and composed timeline that has not been rendered.
type Plan struct {
	Segments    []footage.Segment    `json:"-" yaml:"-"`
	Allocations []footage.Allocation `json:"allocations" yaml:"allocations"`
	Skipped     []int                `json:"skipped_blocks,omitempty" yaml:"skipped_blocks,omitempty"`
	Placements  []timeline.Placement `json:"placements" yaml:"placements"`
	TierCounts  map[footage.Tier]int `json:"tier_counts" yaml:"tier_counts"`
	Duration    float64              `json:"duration" yaml:"duration"`
}

// BuildPlan derives footage segments from aligned blocks (or caption lines),
// allocates clips with a fresh registry and composes the render timeline.
func BuildPlan(blocks []scenario.TextBlock, lines []scenario.CaptionLine, opts PlanOptions) (*Plan, error) {
	plan := &Plan{}
	switch opts.Granularity {
	case timeline.GranularityLine:
		segments, err := timeline.LineSegments(lines, blocks)
		if err != nil {
			return nil, fmt.Errorf("line segments: %w", err)
		}
		if len(segments) == 0 {
			return nil, fmt.Errorf("line segments: %w", timeline.ErrNoAlignedBlocks)
		}
		plan.Segments = segments
		plan.Skipped = alignment.UnalignedBlocks(blocks)
	default:
		segments, skipped, err := timeline.BlockSegments(blocks)
		if err != nil {
			return nil, fmt.Errorf("block segments: %w", err)
		}
		plan.Segments = segments
		plan.Skipped = skipped
	}

	allocator := footage.NewAllocator(footage.NewRegistry(),
		footage.WithSeed(opts.Seed),
		footage.WithLogger(opts.Logger),
	)
	allocs, err := allocator.Allocate(plan.Segments)
	if err != nil {
		return nil, fmt.Errorf("allocate footage: %w", err)
	}
	plan.Allocations = allocs
	plan.TierCounts = footage.TierCounts(allocs)

	placements, err := timeline.Compose(lines, timeline.FootagePlacements(allocs))
	if err != nil {
		return nil, fmt.Errorf("compose timeline: %w", err)
	}
	plan.Placements = placements
	plan.Duration = timeline.Duration(placements)
	return plan, nil
}
