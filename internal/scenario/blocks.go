package scenario

import (
	"strings"
	"unicode"
)

// SplitBlocks cuts a script into text blocks, one per sentence. Paragraph
// breaks always end a block. Sentences shorter than minWords words are merged
// into the following sentence so a block carries enough narration to hold a
// clip on screen.
func SplitBlocks(script string, minWords int) []TextBlock {
	var sentences []string
	for _, paragraph := range splitParagraphs(script) {
		sentences = append(sentences, mergeShort(splitSentences(paragraph), minWords)...)
	}
	blocks := make([]TextBlock, 0, len(sentences))
	for _, s := range sentences {
		blocks = append(blocks, TextBlock{Text: s, Keywords: []string{}})
	}
	return blocks
}

func splitParagraphs(script string) []string {
	script = strings.ReplaceAll(script, "\r\n", "\n")
	var out []string
	for _, chunk := range strings.Split(script, "\n\n") {
		chunk = strings.Join(strings.Fields(chunk), " ")
		if chunk != "" {
			out = append(out, chunk)
		}
	}
	return out
}

func splitSentences(paragraph string) []string {
	runes := []rune(paragraph)
	var out []string
	start := 0
	for i := 0; i < len(runes); i++ {
		if !isSentenceEnd(runes[i]) {
			continue
		}
		// absorb closing quotes and repeated terminators
		j := i + 1
		for j < len(runes) && (isSentenceEnd(runes[j]) || isClosing(runes[j])) {
			j++
		}
		if j < len(runes) && !unicode.IsSpace(runes[j]) {
			i = j - 1
			continue
		}
		if s := strings.TrimSpace(string(runes[start:j])); s != "" {
			out = append(out, s)
		}
		start = j
		i = j - 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

func mergeShort(sentences []string, minWords int) []string {
	if minWords <= 1 {
		return sentences
	}
	var out []string
	pending := ""
	for _, s := range sentences {
		if pending != "" {
			s = pending + " " + s
			pending = ""
		}
		if len(strings.Fields(s)) < minWords {
			pending = s
			continue
		}
		out = append(out, s)
	}
	if pending != "" {
		if len(out) == 0 {
			out = append(out, pending)
		} else {
			out[len(out)-1] += " " + pending
		}
	}
	return out
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '…':
		return true
	}
	return false
}

func isClosing(r rune) bool {
	switch r {
	case '"', '\'', '»', '”', ')', '’':
		return true
	}
	return false
}
