package timeline

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"storyreel/internal/footage"
	"storyreel/internal/scenario"
)

// ErrTimelineGap is returned when footage placements are not contiguous.
var ErrTimelineGap = errors.New("footage timeline gap")

// contiguity tolerance for values already rounded to centiseconds
const epsilon = 0.005

// Kind tags a placement payload.
type Kind string

const (
	KindCaption Kind = "caption"
	KindFootage Kind = "footage"
)

// FootageClip is the footage payload of a placement. Offset is the position
// inside the source clip where playback starts, so consecutive placements of
// the same clip continue rather than restart.
type FootageClip struct {
	ID     string       `json:"id" yaml:"id"`
	URL    string       `json:"url,omitempty" yaml:"url,omitempty"`
	Offset float64      `json:"offset" yaml:"offset"`
	Tier   footage.Tier `json:"tier" yaml:"tier"`
	Path   string       `json:"path,omitempty" yaml:"path,omitempty"`
}

// Placement is one render instruction. Exactly one of Caption and Footage is
// set, matching Kind.
type Placement struct {
	Kind     Kind                  `json:"kind" yaml:"kind"`
	Start    float64               `json:"start" yaml:"start"`
	Duration float64               `json:"duration" yaml:"duration"`
	Caption  *scenario.CaptionLine `json:"caption,omitempty" yaml:"caption,omitempty"`
	Footage  *FootageClip          `json:"footage,omitempty" yaml:"footage,omitempty"`
}

// End returns Start plus Duration.
func (p Placement) End() float64 {
	return round(p.Start + p.Duration)
}

func round(v float64) float64 {
	return math.Round(v*100) / 100
}

// FootagePlacements converts allocations into footage placements.
func FootagePlacements(allocs []footage.Allocation) []Placement {
	out := make([]Placement, 0, len(allocs))
	for i, a := range allocs {
		clip := &FootageClip{ID: a.Candidate.ID, URL: a.Candidate.URL, Tier: a.Tier}
		if i > 0 {
			prev := out[i-1]
			if prev.Footage.ID == clip.ID {
				clip.Offset = round(prev.Footage.Offset + prev.Duration)
			}
		}
		out = append(out, Placement{
			Kind:     KindFootage,
			Start:    round(a.Start),
			Duration: round(a.End - a.Start),
			Footage:  clip,
		})
	}
	return out
}

// Compose merges caption lines and footage placements into one ordered list.
// Footage must start at 0 and be contiguous. Any placement whose rounded
// duration is not positive aborts composition.
func Compose(lines []scenario.CaptionLine, clips []Placement) ([]Placement, error) {
	out := make([]Placement, 0, len(lines)+len(clips))

	expected := 0.0
	for i, clip := range clips {
		if clip.Kind != KindFootage || clip.Footage == nil {
			return nil, fmt.Errorf("placement %d: expected footage payload", i)
		}
		clip.Start = round(clip.Start)
		clip.Duration = round(clip.Duration)
		if clip.Duration <= 0 {
			return nil, fmt.Errorf("footage %d (%s) at %.2f: duration %.2f: %w", i, clip.Footage.ID, clip.Start, clip.Duration, scenario.ErrNonPositiveDuration)
		}
		if math.Abs(clip.Start-expected) > epsilon {
			return nil, fmt.Errorf("footage %d (%s) starts at %.2f, expected %.2f: %w", i, clip.Footage.ID, clip.Start, expected, ErrTimelineGap)
		}
		expected = clip.End()
		out = append(out, clip)
	}

	for i := range lines {
		line := &lines[i]
		duration := round(line.End - line.Start)
		if duration <= 0 {
			return nil, fmt.Errorf("caption %d (%q) at %.2f: duration %.2f: %w", i, line.Text, line.Start, duration, scenario.ErrNonPositiveDuration)
		}
		out = append(out, Placement{Kind: KindCaption, Start: round(line.Start), Duration: duration, Caption: line})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].Kind == KindFootage && out[j].Kind != KindFootage
	})
	return out, nil
}

// Footage returns the footage placements of a composed timeline in order.
func Footage(placements []Placement) []Placement {
	var out []Placement
	for _, p := range placements {
		if p.Kind == KindFootage {
			out = append(out, p)
		}
	}
	return out
}

// Captions returns the caption lines of a composed timeline in order.
func Captions(placements []Placement) []scenario.CaptionLine {
	var out []scenario.CaptionLine
	for _, p := range placements {
		if p.Kind == KindCaption && p.Caption != nil {
			out = append(out, *p.Caption)
		}
	}
	return out
}

// Duration returns the furthest end among placements.
func Duration(placements []Placement) float64 {
	var end float64
	for _, p := range placements {
		if e := p.End(); e > end {
			end = e
		}
	}
	return end
}
