// Package config loads, normalizes, and validates storyreel configuration.
//
// Configuration lives in TOML (by default ~/.config/storyreel/config.toml).
// Secrets may come from the environment or a .env file: OPENAI_API_KEY,
// PEXELS_API_KEY and HF_TOKEN. Load applies defaults, expands ~ in paths and
// validates ranges; RequireCredentials is checked only by commands that call
// external services.
package config
