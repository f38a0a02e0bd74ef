package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeSpeech()
	if err := c.normalizeWhisperX(); err != nil {
		return err
	}
	c.normalizeStock()
	c.normalizeCaptions()
	if err := c.normalizeRender(); err != nil {
		return err
	}
	c.Footage.Granularity = strings.ToLower(strings.TrimSpace(c.Footage.Granularity))
	if c.Footage.Granularity == "" {
		c.Footage.Granularity = defaultGranularity
	}
	c.Script.Language = strings.TrimSpace(c.Script.Language)
	if c.Script.Language == "" {
		c.Script.Language = defaultScriptLanguage
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir()
	}
	fields := []struct {
		name  string
		value *string
		def   string
	}{
		{"paths.output_dir", &c.Paths.OutputDir, defaultOutputDir},
		{"paths.cache_dir", &c.Paths.CacheDir, defaultCacheDir()},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
		{"paths.state_dir", &c.Paths.StateDir, defaultStateDir},
	}
	for _, f := range fields {
		if strings.TrimSpace(*f.value) == "" {
			*f.value = f.def
		}
		if *f.value, err = expandPath(strings.TrimSpace(*f.value)); err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
	}
	return nil
}

func lookupFirst(keys ...string) string {
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = lookupFirst("STORYREEL_LLM_API_KEY", "OPENAI_API_KEY", "OPENROUTER_API_KEY")
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.KeywordModel = strings.TrimSpace(c.LLM.KeywordModel)
	if c.LLM.KeywordModel == "" {
		c.LLM.KeywordModel = c.LLM.Model
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeSpeech() {
	c.Speech.Provider = strings.ToLower(strings.TrimSpace(c.Speech.Provider))
	if c.Speech.Provider == "" {
		c.Speech.Provider = defaultSpeechProvider
	}
	c.Speech.APIKey = strings.TrimSpace(c.Speech.APIKey)
	if c.Speech.APIKey == "" {
		c.Speech.APIKey = lookupFirst("OPENAI_API_KEY")
	}
	c.Speech.BaseURL = strings.TrimSpace(c.Speech.BaseURL)
	if c.Speech.Voice = strings.TrimSpace(c.Speech.Voice); c.Speech.Voice == "" {
		c.Speech.Voice = defaultVoice
	}
	if c.Speech.TTSModel = strings.TrimSpace(c.Speech.TTSModel); c.Speech.TTSModel == "" {
		c.Speech.TTSModel = defaultTTSModel
	}
	if c.Speech.TranscriptionModel = strings.TrimSpace(c.Speech.TranscriptionModel); c.Speech.TranscriptionModel == "" {
		c.Speech.TranscriptionModel = defaultTranscriptionModel
	}
	if c.Speech.Speed == 0 {
		c.Speech.Speed = defaultSpeechSpeed
	}
	if c.Speech.Language = strings.TrimSpace(c.Speech.Language); c.Speech.Language == "" {
		c.Speech.Language = c.Script.Language
	}
	if c.Speech.TimeoutSeconds <= 0 {
		c.Speech.TimeoutSeconds = defaultSpeechTimeoutSeconds
	}
}

func (c *Config) normalizeWhisperX() error {
	c.WhisperX.Model = strings.TrimSpace(c.WhisperX.Model)
	if c.WhisperX.Model == "" {
		c.WhisperX.Model = defaultWhisperXModel
	}
	c.WhisperX.HFToken = strings.TrimSpace(c.WhisperX.HFToken)
	if c.WhisperX.HFToken == "" {
		c.WhisperX.HFToken = lookupFirst("HUGGING_FACE_HUB_TOKEN", "HF_TOKEN")
	}
	if strings.TrimSpace(c.WhisperX.CacheDir) == "" {
		c.WhisperX.CacheDir = c.Paths.CacheDir + "/whisperx"
	}
	var err error
	if c.WhisperX.CacheDir, err = expandPath(c.WhisperX.CacheDir); err != nil {
		return fmt.Errorf("whisperx.cache_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStock() {
	c.Stock.APIKey = strings.TrimSpace(c.Stock.APIKey)
	if c.Stock.APIKey == "" {
		c.Stock.APIKey = lookupFirst("PEXELS_API_KEY")
	}
	c.Stock.BaseURL = strings.TrimSpace(c.Stock.BaseURL)
	if c.Stock.BaseURL == "" {
		c.Stock.BaseURL = defaultStockBaseURL
	}
	c.Stock.Orientation = strings.ToLower(strings.TrimSpace(c.Stock.Orientation))
	if c.Stock.PerPage <= 0 {
		c.Stock.PerPage = defaultStockPerPage
	}
	if c.Stock.MaxAttempts <= 0 {
		c.Stock.MaxAttempts = 1
	}
	if c.Stock.DefaultBlockDuration <= 0 {
		c.Stock.DefaultBlockDuration = 5
	}
}

func (c *Config) normalizeCaptions() {
	c.Captions.Preset = strings.ToLower(strings.TrimSpace(c.Captions.Preset))
	if c.Captions.Preset == "" {
		c.Captions.Preset = defaultCaptionPreset
	}
	c.Captions.Policy = strings.ToLower(strings.TrimSpace(c.Captions.Policy))
	if c.Captions.Policy == "" {
		c.Captions.Policy = defaultCaptionPolicy
	}
	if strings.TrimSpace(c.Captions.Font) == "" {
		c.Captions.Font = defaultCaptionFont
	}
	if c.Captions.FontSize <= 0 {
		c.Captions.FontSize = defaultCaptionFontSize
	}
}

func (c *Config) normalizeRender() error {
	if strings.TrimSpace(c.Render.FFmpegBinary) == "" {
		c.Render.FFmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(c.Render.FFprobeBinary) == "" {
		c.Render.FFprobeBinary = "ffprobe"
	}
	if strings.TrimSpace(c.Render.MusicDir) != "" {
		var err error
		if c.Render.MusicDir, err = expandPath(c.Render.MusicDir); err != nil {
			return fmt.Errorf("render.music_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
