package captions

import (
	"fmt"
	"strings"

	"storyreel/internal/scenario"
	"storyreel/internal/textutil"
)

// FlushPolicy selects when the segmenter closes a line.
type FlushPolicy string

const (
	// FlushStrict closes the current line before a word that would break a
	// limit, so multi-word lines never exceed MaxChars, MaxDuration or MaxGap.
	FlushStrict FlushPolicy = "strict"
	// FlushInclusive appends the word first and closes the line once it has
	// crossed a limit. Duration is the sum of spoken word durations. The word
	// that crossed the limit stays in the closed line.
	FlushInclusive FlushPolicy = "inclusive"
)

// Limits bound a caption line.
type Limits struct {
	MaxChars    int
	MaxDuration float64
	MaxGap      float64
	Policy      FlushPolicy
}

// Preset names accepted by LimitsForPreset.
const (
	PresetStandard = "standard"
	PresetDense    = "dense"
)

// LimitsForPreset returns the named limits. Both presets use FlushStrict,
// which closes a line before the word that would overflow it; set Policy to
// FlushInclusive to keep that word in the closed line instead.
func LimitsForPreset(name string) (Limits, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PresetStandard:
		return Limits{MaxChars: 80, MaxDuration: 3.0, MaxGap: 1.5, Policy: FlushStrict}, nil
	case PresetDense:
		return Limits{MaxChars: 60, MaxDuration: 1.5, MaxGap: 1.5, Policy: FlushStrict}, nil
	default:
		return Limits{}, fmt.Errorf("unknown caption preset %q", name)
	}
}

// ParsePolicy maps a configuration value to a FlushPolicy.
func ParsePolicy(value string) (FlushPolicy, error) {
	switch FlushPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", FlushStrict:
		return FlushStrict, nil
	case FlushInclusive:
		return FlushInclusive, nil
	default:
		return "", fmt.Errorf("unknown flush policy %q", value)
	}
}

// Validate rejects limits that would make every word its own line.
func (l Limits) Validate() error {
	if l.MaxChars <= 0 {
		return fmt.Errorf("max_chars must be positive")
	}
	if l.MaxDuration <= 0 {
		return fmt.Errorf("max_duration must be positive")
	}
	if l.MaxGap < 0 {
		return fmt.Errorf("max_gap must not be negative")
	}
	if _, err := ParsePolicy(string(l.Policy)); err != nil {
		return err
	}
	return nil
}

// Segment partitions words into caption lines. Empty input yields no lines.
func Segment(words []scenario.Word, limits Limits) []scenario.CaptionLine {
	if len(words) == 0 {
		return nil
	}
	if limits.Policy == FlushInclusive {
		return segmentInclusive(words, limits)
	}
	return segmentStrict(words, limits)
}

func segmentStrict(words []scenario.Word, limits Limits) []scenario.CaptionLine {
	var (
		lines   []scenario.CaptionLine
		current []scenario.Word
		chars   int
	)
	for _, w := range words {
		if len(current) > 0 {
			prev := current[len(current)-1]
			withWord := chars + 1 + textutil.RuneLen(w.Word)
			if w.Start-prev.End > limits.MaxGap ||
				withWord > limits.MaxChars ||
				w.End-current[0].Start > limits.MaxDuration {
				lines = append(lines, scenario.NewCaptionLine(current))
				current = current[:0]
				chars = 0
			}
		}
		if len(current) > 0 {
			chars++
		}
		chars += textutil.RuneLen(w.Word)
		current = append(current, w)
	}
	if len(current) > 0 {
		lines = append(lines, scenario.NewCaptionLine(current))
	}
	return lines
}

func segmentInclusive(words []scenario.Word, limits Limits) []scenario.CaptionLine {
	var (
		lines    []scenario.CaptionLine
		current  []scenario.Word
		chars    int
		duration float64
	)
	for i, w := range words {
		if len(current) > 0 {
			chars++
		}
		chars += textutil.RuneLen(w.Word)
		duration += w.Duration()
		current = append(current, w)

		gap := 0.0
		if i > 0 {
			gap = w.Start - words[i-1].End
		}
		if duration > limits.MaxDuration || chars > limits.MaxChars || gap > limits.MaxGap {
			lines = append(lines, scenario.NewCaptionLine(current))
			current = current[:0]
			chars = 0
			duration = 0
		}
	}
	if len(current) > 0 {
		lines = append(lines, scenario.NewCaptionLine(current))
	}
	return lines
}
