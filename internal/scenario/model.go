package scenario

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrEmptyBlock is returned when timing is requested from a block that
	// has no aligned words.
	ErrEmptyBlock = errors.New("text block has no aligned words")
	// ErrNonPositiveDuration marks a timeline span whose duration computes
	// to zero or less. It signals upstream misalignment and is never clamped.
	ErrNonPositiveDuration = errors.New("non-positive duration")
)

// Word is a single transcribed word with timestamps in seconds.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the spoken length of the word.
func (w Word) Duration() float64 {
	return w.End - w.Start
}

// CaptionLine is a renderable caption spanning one or more consecutive words.
type CaptionLine struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Words []Word  `json:"words"`
}

// NewCaptionLine builds a line from a non-empty run of words.
func NewCaptionLine(words []Word) CaptionLine {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.Word
	}
	owned := make([]Word, len(words))
	copy(owned, words)
	return CaptionLine{
		Text:  strings.Join(parts, " "),
		Start: words[0].Start,
		End:   words[len(words)-1].End,
		Words: owned,
	}
}

// Candidate is one stock footage option.
type Candidate struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Pool is an ordered set of footage candidates. Order is the search order,
// so the first candidate is deterministic.
type Pool []Candidate

// Contains reports whether id is present in the pool.
func (p Pool) Contains(id string) bool {
	for _, c := range p {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Add appends a candidate unless its id is already present. It returns true
// when the candidate was added.
func (p *Pool) Add(c Candidate) bool {
	if strings.TrimSpace(c.ID) == "" || p.Contains(c.ID) {
		return false
	}
	*p = append(*p, c)
	return true
}

// TextBlock is a script-level unit of narration with its search keywords.
// PoolBorrowed marks Candidates copied from another block after the block's
// own search came back empty.
type TextBlock struct {
	Text         string   `json:"text"`
	Keywords     []string `json:"keywords"`
	Words        []Word   `json:"words"`
	Candidates   Pool     `json:"candidates,omitempty"`
	PoolBorrowed bool     `json:"pool_borrowed,omitempty"`
}

// Start returns the first aligned word's start.
func (b TextBlock) Start() (float64, error) {
	if len(b.Words) == 0 {
		return 0, ErrEmptyBlock
	}
	return b.Words[0].Start, nil
}

// End returns the last aligned word's end.
func (b TextBlock) End() (float64, error) {
	if len(b.Words) == 0 {
		return 0, ErrEmptyBlock
	}
	return b.Words[len(b.Words)-1].End, nil
}

// Duration returns End minus Start.
func (b TextBlock) Duration() (float64, error) {
	start, err := b.Start()
	if err != nil {
		return 0, err
	}
	end, _ := b.End()
	return end - start, nil
}

// Aligned reports whether the block received any words from the aligner.
func (b TextBlock) Aligned() bool {
	return len(b.Words) > 0
}

// Scenario is the full state of one video assembly.
type Scenario struct {
	Theme         string        `json:"theme,omitempty"`
	FullScript    string        `json:"full_script"`
	Blocks        []TextBlock   `json:"text_blocks"`
	Words         []Word        `json:"words,omitempty"`
	Lines         []CaptionLine `json:"lines,omitempty"`
	NarrationPath string        `json:"narration_path,omitempty"`
}

// RoundTimestamp quantizes seconds to two decimals.
func RoundTimestamp(seconds float64) float64 {
	return math.Round(seconds*100) / 100
}

// ValidateWords checks the Word Stream invariants: start <= end for every
// word and non-decreasing start times.
func ValidateWords(words []Word) error {
	for i, w := range words {
		if w.Start > w.End {
			return fmt.Errorf("word %d (%q): start %.2f after end %.2f", i, w.Word, w.Start, w.End)
		}
		if i > 0 && w.Start < words[i-1].Start {
			return fmt.Errorf("word %d (%q): start %.2f precedes previous start %.2f", i, w.Word, w.Start, words[i-1].Start)
		}
	}
	return nil
}

// NarrationEnd returns the end of the last word, or 0 for an empty stream.
func NarrationEnd(words []Word) float64 {
	if len(words) == 0 {
		return 0
	}
	return words[len(words)-1].End
}
