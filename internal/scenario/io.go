package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"storyreel/internal/fileutil"
)

// UnmarshalJSON quantizes timestamps to two decimals so stored streams match
// what the transcription layer produced.
func (w *Word) UnmarshalJSON(data []byte) error {
	var raw struct {
		Word  string  `json:"word"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	w.Word = raw.Word
	w.Start = RoundTimestamp(raw.Start)
	w.End = RoundTimestamp(raw.End)
	return nil
}

// LoadWords reads a Word Stream JSON array.
func LoadWords(path string) ([]Word, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read words: %w", err)
	}
	var words []Word
	if err := json.Unmarshal(data, &words); err != nil {
		return nil, fmt.Errorf("parse words %s: %w", path, err)
	}
	if err := ValidateWords(words); err != nil {
		return nil, fmt.Errorf("words %s: %w", path, err)
	}
	return words, nil
}

// SaveWords writes a Word Stream JSON array atomically.
func SaveWords(path string, words []Word) error {
	if words == nil {
		words = []Word{}
	}
	return writeJSON(path, words)
}

// Load reads a persisted scenario.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var sc Scenario
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if strings.TrimSpace(sc.FullScript) == "" && len(sc.Blocks) == 0 {
		return nil, fmt.Errorf("scenario %s: no script text", path)
	}
	return &sc, nil
}

// Save writes the scenario atomically.
func (s *Scenario) Save(path string) error {
	return writeJSON(path, s)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
