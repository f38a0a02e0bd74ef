package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. Credentials are checked
// separately by RequireCredentials so offline commands work without keys.
func (c *Config) Validate() error {
	if err := c.validateSpeech(); err != nil {
		return err
	}
	if err := c.validateStock(); err != nil {
		return err
	}
	if err := c.validateCaptions(); err != nil {
		return err
	}
	if err := c.validateFootage(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if c.Alignment.MaxLookahead < 0 {
		return errors.New("alignment.max_lookahead must be >= 0")
	}
	if c.Script.Paragraphs <= 0 {
		return errors.New("script.paragraphs must be positive")
	}
	return nil
}

// RequireCredentials reports missing API keys needed by a full assembly.
func (c *Config) RequireCredentials() error {
	var missing []string
	if c.LLM.APIKey == "" {
		missing = append(missing, "llm.api_key (OPENAI_API_KEY)")
	}
	if c.Speech.APIKey == "" {
		missing = append(missing, "speech.api_key (OPENAI_API_KEY)")
	}
	if c.Stock.APIKey == "" {
		missing = append(missing, "stock.api_key (PEXELS_API_KEY)")
	}
	if len(missing) == 0 {
		return nil
	}
	path, err := DefaultConfigPath()
	if err != nil {
		path = "~/.config/storyreel/config.toml"
	}
	return fmt.Errorf("missing credentials: %s. Set them in .env or edit %s (create with 'storyreel config init')", strings.Join(missing, ", "), path)
}

func (c *Config) validateSpeech() error {
	switch c.Speech.Provider {
	case "openai", "whisperx":
	default:
		return fmt.Errorf("speech.provider: unsupported value %q (want openai or whisperx)", c.Speech.Provider)
	}
	if c.Speech.Speed < 0.25 || c.Speech.Speed > 4.0 {
		return errors.New("speech.speed must be between 0.25 and 4.0")
	}
	return nil
}

func (c *Config) validateStock() error {
	switch c.Stock.Orientation {
	case "", "portrait", "landscape", "square":
	default:
		return fmt.Errorf("stock.orientation: unsupported value %q", c.Stock.Orientation)
	}
	if c.Stock.PerPage > 80 {
		return errors.New("stock.per_page must be <= 80")
	}
	if c.Stock.MinDurationPadding < 0 {
		return errors.New("stock.min_duration_padding must be >= 0")
	}
	return nil
}

func (c *Config) validateCaptions() error {
	switch c.Captions.Preset {
	case "standard", "dense":
	default:
		return fmt.Errorf("captions.preset: unsupported value %q (want standard or dense)", c.Captions.Preset)
	}
	switch c.Captions.Policy {
	case "strict", "inclusive":
	default:
		return fmt.Errorf("captions.policy: unsupported value %q (want strict or inclusive)", c.Captions.Policy)
	}
	if c.Captions.MaxChars < 0 || c.Captions.MaxDuration < 0 || c.Captions.MaxGap < 0 {
		return errors.New("captions limits must be >= 0 (0 uses the preset)")
	}
	return nil
}

func (c *Config) validateFootage() error {
	switch c.Footage.Granularity {
	case "block", "line":
	default:
		return fmt.Errorf("footage.granularity: unsupported value %q (want block or line)", c.Footage.Granularity)
	}
	if err := ensurePositiveMap(map[string]int{
		"footage.fetch_concurrency": c.Footage.FetchConcurrency,
		"footage.download_attempts": c.Footage.DownloadAttempts,
		"footage.download_timeout":  c.Footage.DownloadTimeout,
	}); err != nil {
		return err
	}
	if c.Footage.CacheMaxGiB < 0 || c.Footage.CacheMinFreeGiB < 0 {
		return errors.New("footage cache limits must be >= 0")
	}
	return nil
}

func (c *Config) validateRender() error {
	if err := ensurePositiveMap(map[string]int{
		"render.width":  c.Render.Width,
		"render.height": c.Render.Height,
		"render.fps":    c.Render.FPS,
	}); err != nil {
		return err
	}
	if c.Render.Width%2 != 0 || c.Render.Height%2 != 0 {
		return errors.New("render.width and render.height must be even")
	}
	if c.Render.MusicVolume < 0 || c.Render.MusicVolume > 1 {
		return errors.New("render.music_volume must be between 0 and 1")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
