// Package llm provides an OpenAI-compatible chat client used to write
// narration scripts and to extract stock footage keywords.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.WriteScript: generate a narration script for a theme.
// Client.Keywords: English single-noun search terms for one text block.
// Client.Complete: raw text completion for other prompts.
// Client.HealthCheck: one keyword request to confirm key, endpoint and model.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty completions and
// network timeouts with exponential backoff (base 1s, max 10s, up to 5
// attempts by default). Context cancellation aborts retries immediately.
package llm
