package timeline

import (
	"errors"
	"fmt"

	"storyreel/internal/footage"
	"storyreel/internal/scenario"
)

// ErrNoAlignedBlocks is returned when no block received any words.
var ErrNoAlignedBlocks = errors.New("no aligned text blocks")

// Granularity selects the unit footage segments follow.
type Granularity string

const (
	GranularityBlock Granularity = "block"
	GranularityLine  Granularity = "line"
)

// ParseGranularity maps a configuration value to a Granularity.
func ParseGranularity(value string) (Granularity, error) {
	switch Granularity(value) {
	case "", GranularityBlock:
		return GranularityBlock, nil
	case GranularityLine:
		return GranularityLine, nil
	default:
		return "", fmt.Errorf("unknown footage granularity %q", value)
	}
}

// BlockSegments derives one footage segment per aligned block. The first
// segment starts at 0 and each segment ends where the next aligned block
// starts; the last ends at its own block end. Blocks without words are
// skipped and returned so the caller can report them.
func BlockSegments(blocks []scenario.TextBlock) ([]footage.Segment, []int, error) {
	var (
		aligned []int
		skipped []int
	)
	for i, b := range blocks {
		if b.Aligned() {
			aligned = append(aligned, i)
		} else {
			skipped = append(skipped, i)
		}
	}
	if len(aligned) == 0 {
		return nil, skipped, ErrNoAlignedBlocks
	}

	segments := make([]footage.Segment, 0, len(aligned))
	start := 0.0
	for k, bi := range aligned {
		var end float64
		if k+1 < len(aligned) {
			end, _ = blocks[aligned[k+1]].Start()
		} else {
			end, _ = blocks[bi].End()
		}
		end = scenario.RoundTimestamp(end)
		segments = append(segments, footage.Segment{Start: start, End: end, Pool: blocks[bi].Candidates})
		start = end
	}
	return segments, skipped, nil
}

// LineSegments derives one footage segment per caption line using the same
// bridging rule as BlockSegments. Each line takes the pool of the aligned
// block it starts in.
func LineSegments(lines []scenario.CaptionLine, blocks []scenario.TextBlock) ([]footage.Segment, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	segments := make([]footage.Segment, 0, len(lines))
	start := 0.0
	for i, line := range lines {
		end := line.End
		if i+1 < len(lines) {
			end = lines[i+1].Start
		}
		end = scenario.RoundTimestamp(end)
		segments = append(segments, footage.Segment{Start: start, End: end, Pool: poolAt(blocks, line.Start)})
		start = end
	}
	return segments, nil
}

// poolAt returns the candidates of the last aligned block starting at or
// before t, or of the first aligned block when t precedes them all.
func poolAt(blocks []scenario.TextBlock, t float64) scenario.Pool {
	var (
		found scenario.Pool
		first scenario.Pool
		seen  bool
	)
	for _, b := range blocks {
		start, err := b.Start()
		if err != nil {
			continue
		}
		if !seen {
			first, seen = b.Candidates, true
		}
		if start <= t {
			found = b.Candidates
		}
	}
	if found == nil {
		return first
	}
	return found
}
