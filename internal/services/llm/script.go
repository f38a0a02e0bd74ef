package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ScriptRequest describes the narration script to write.
type ScriptRequest struct {
	Theme      string
	Paragraphs int
	Language   string
}

func (r ScriptRequest) userPrompt() string {
	paragraphs := r.Paragraphs
	if paragraphs <= 0 {
		paragraphs = 1
	}
	return fmt.Sprintf("Subject: %s\nNumber of paragraphs: %d\n[LANGUAGE]: %s", strings.TrimSpace(r.Theme), paragraphs, strings.TrimSpace(r.Language))
}

// WriteScript generates the narration script for a theme.
func (c *Client) WriteScript(ctx context.Context, req ScriptRequest) (string, error) {
	if strings.TrimSpace(req.Theme) == "" {
		return "", errors.New("llm script: theme required")
	}
	content, err := c.Complete(ctx, c.cfg.Model, ScriptSystemPrompt, req.userPrompt())
	if err != nil {
		return "", err
	}
	script := cleanScript(content)
	if script == "" {
		return "", errors.New("llm script: model returned no script text")
	}
	return script, nil
}

// Keywords returns up to limit English search keywords for a text block.
func (c *Client) Keywords(ctx context.Context, text string, limit int) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("llm keywords: text required")
	}
	if limit <= 0 {
		limit = 1
	}
	content, err := c.Complete(ctx, c.cfg.KeywordModel, KeywordSystemPrompt, text)
	if err != nil {
		return nil, err
	}
	keywords := ParseKeywords(content, limit)
	if len(keywords) == 0 {
		return nil, fmt.Errorf("llm keywords: no keywords in response %s", summarizePayloadSnippet(content))
	}
	return keywords, nil
}

// ParseKeywords splits a model reply into distinct keywords. Lines, commas
// and semicolons separate entries; list markers and quotes are dropped.
func ParseKeywords(content string, limit int) []string {
	fields := strings.FieldsFunc(content, func(r rune) bool {
		return r == '\n' || r == ',' || r == ';'
	})
	seen := make(map[string]struct{}, len(fields))
	var out []string
	for _, field := range fields {
		kw := strings.TrimFunc(field, func(r rune) bool {
			return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsDigit(r)
		})
		kw = strings.ToLower(strings.Join(strings.Fields(kw), " "))
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// cleanScript drops code fences and narrator labels a model may add despite
// the prompt, and collapses runs of blank lines to paragraph breaks.
func cleanScript(content string) string {
	content = stripCodeFenceBlock(content)
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	var (
		paragraphs []string
		current    []string
	)
	flush := func() {
		if len(current) > 0 {
			paragraphs = append(paragraphs, strings.Join(current, " "))
			current = nil
		}
	}
	for _, line := range lines {
		line = strings.TrimSpace(stripSpeakerLabel(line))
		if line == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return strings.Join(paragraphs, "\n\n")
}

func stripSpeakerLabel(line string) string {
	trimmed := strings.TrimSpace(line)
	lower := strings.ToLower(trimmed)
	for _, label := range []string{"voiceover:", "narrator:", "диктор:"} {
		if strings.HasPrefix(lower, label) {
			return trimmed[len(label):]
		}
	}
	return line
}
