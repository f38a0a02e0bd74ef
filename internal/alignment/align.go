package alignment

import (
	"storyreel/internal/scenario"
	"storyreel/internal/textutil"
)

// Miss records a script token with no matching transcribed word.
type Miss struct {
	Block  int    `json:"block"`
	Token  string `json:"token"`
	Cursor int    `json:"cursor"`
}

// Report summarizes one alignment pass.
type Report struct {
	Misses  []Miss `json:"misses,omitempty"`
	Matched int    `json:"matched"`
	Tokens  int    `json:"tokens"`
}

// MissRate is the share of tokens that were not matched.
func (r Report) MissRate() float64 {
	if r.Tokens == 0 {
		return 0
	}
	return float64(len(r.Misses)) / float64(r.Tokens)
}

// UnalignedBlocks lists blocks that received no words.
func UnalignedBlocks(blocks []scenario.TextBlock) []int {
	var out []int
	for i, b := range blocks {
		if !b.Aligned() {
			out = append(out, i)
		}
	}
	return out
}

type options struct {
	maxLookahead int
}

// Option tunes Align.
type Option func(*options)

// WithMaxLookahead bounds how many words past the cursor are scanned for a
// token. Zero scans to the end of the stream.
func WithMaxLookahead(n int) Option {
	return func(o *options) {
		if n < 0 {
			n = 0
		}
		o.maxLookahead = n
	}
}

// Align fills blocks[i].Words in place. Any words already attached to a block
// are replaced.
func Align(blocks []scenario.TextBlock, words []scenario.Word, opts ...Option) Report {
	cfg := options{}
	for _, opt := range opts {
		opt(&cfg)
	}

	keys := make([]string, len(words))
	for i, w := range words {
		keys[i] = textutil.NormalizeWord(w.Word)
	}

	var report Report
	cursor := 0
	for bi := range blocks {
		blocks[bi].Words = nil
		for _, token := range textutil.Words(blocks[bi].Text) {
			key := textutil.NormalizeWord(token)
			if key == "" {
				continue
			}
			report.Tokens++
			limit := len(words)
			if cfg.maxLookahead > 0 && cursor+cfg.maxLookahead < limit {
				limit = cursor + cfg.maxLookahead
			}
			match := -1
			for i := cursor; i < limit; i++ {
				if keys[i] == key {
					match = i
					break
				}
			}
			if match < 0 {
				report.Misses = append(report.Misses, Miss{Block: bi, Token: token, Cursor: cursor})
				continue
			}
			blocks[bi].Words = append(blocks[bi].Words, words[match])
			cursor = match + 1
			report.Matched++
		}
	}
	return report
}
