package whisperx

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"storyreel/internal/scenario"
)

// Word is a single word from WhisperX output. Start and End are nil when
// WhisperX could not align the token.
type Word struct {
	Word  string   `json:"word"`
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
}

// Segment represents a transcribed segment from WhisperX JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Words []Word  `json:"words"`
}

type whisperXPayload struct {
	Segments []Segment `json:"segments"`
}

// LoadSegments loads segments from a WhisperX JSON file.
func LoadSegments(jsonPath string) ([]Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var payload whisperXPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}
	return payload.Segments, nil
}

// FlattenWords converts segments into a word stream. An unaligned word
// starts where the previous word ended (or at its segment start) and ends at
// the next aligned start in the same segment (or at its segment end).
func FlattenWords(segments []Segment) []scenario.Word {
	var out []scenario.Word
	prevEnd := 0.0
	for _, seg := range segments {
		for i, w := range seg.Words {
			text := strings.TrimSpace(w.Word)
			if text == "" {
				continue
			}
			start := seg.Start
			if prevEnd > start {
				start = prevEnd
			}
			if w.Start != nil {
				start = *w.Start
			}
			end := nextAlignedStart(seg, i)
			if w.End != nil {
				end = *w.End
			}
			if len(out) > 0 && start < out[len(out)-1].Start {
				start = out[len(out)-1].Start
			}
			if end < start {
				end = start
			}
			word := scenario.Word{
				Word:  text,
				Start: scenario.RoundTimestamp(start),
				End:   scenario.RoundTimestamp(end),
			}
			out = append(out, word)
			prevEnd = word.End
		}
	}
	return out
}

func nextAlignedStart(seg Segment, i int) float64 {
	for _, w := range seg.Words[i+1:] {
		if w.Start != nil {
			return *w.Start
		}
	}
	return seg.End
}
