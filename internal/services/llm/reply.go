package llm

import "strings"

const snippetLimit = 160

// stripCodeFenceBlock returns the body of a reply wrapped in a markdown
// code fence, with any language tag removed. Unfenced replies are trimmed.
func stripCodeFenceBlock(content string) string {
	body, ok := strings.CutPrefix(strings.TrimSpace(content), "```")
	if !ok {
		return strings.TrimSpace(content)
	}
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.Contains(body[:nl], " ") {
		body = body[nl+1:]
	}
	if end := strings.LastIndex(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// summarizePayloadSnippet flattens a reply to one line for error messages.
func summarizePayloadSnippet(content string) string {
	flat := strings.Join(strings.Fields(content), " ")
	if flat == "" {
		return "<empty>"
	}
	if runes := []rune(flat); len(runes) > snippetLimit {
		return string(runes[:snippetLimit]) + "..."
	}
	return flat
}
