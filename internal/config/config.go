package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	CacheDir  string `toml:"cache_dir"`
	LogDir    string `toml:"log_dir"`
	StateDir  string `toml:"state_dir"`
}

// LLM contains chat-completion settings for script and keyword generation.
type LLM struct {
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	KeywordModel   string  `toml:"keyword_model"`
	Temperature    float64 `toml:"temperature"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// Script controls script generation and block splitting.
type Script struct {
	Language      string `toml:"language"`
	Paragraphs    int    `toml:"paragraphs"`
	MinBlockWords int    `toml:"min_block_words"`
	Keywords      int    `toml:"keywords"`
}

// Speech contains narration and transcription settings.
type Speech struct {
	Provider           string  `toml:"provider"`
	APIKey             string  `toml:"api_key"`
	BaseURL            string  `toml:"base_url"`
	TTSModel           string  `toml:"tts_model"`
	Voice              string  `toml:"voice"`
	Speed              float64 `toml:"speed"`
	TranscriptionModel string  `toml:"transcription_model"`
	Language           string  `toml:"language"`
	TimeoutSeconds     int     `toml:"timeout_seconds"`
}

// WhisperX contains settings for the local transcription backend.
type WhisperX struct {
	Model       string `toml:"model"`
	CUDAEnabled bool   `toml:"cuda_enabled"`
	HFToken     string `toml:"hf_token"`
	CacheDir    string `toml:"cache_dir"`
}

// Stock contains stock footage search settings.
type Stock struct {
	APIKey               string  `toml:"api_key"`
	BaseURL              string  `toml:"base_url"`
	PerPage              int     `toml:"per_page"`
	Orientation          string  `toml:"orientation"`
	MinDurationPadding   float64 `toml:"min_duration_padding"`
	DefaultBlockDuration float64 `toml:"default_block_duration"`
	MaxAttempts          int     `toml:"max_attempts"`
	RetryWaitSeconds     int     `toml:"retry_wait_seconds"`
	TimeoutSeconds       int     `toml:"timeout_seconds"`
}

// Captions contains caption segmentation and styling. Zero limits fall back
// to the preset.
type Captions struct {
	Preset      string  `toml:"preset"`
	MaxChars    int     `toml:"max_chars"`
	MaxDuration float64 `toml:"max_duration"`
	MaxGap      float64 `toml:"max_gap"`
	Policy      string  `toml:"policy"`
	Font        string  `toml:"font"`
	FontSize    int     `toml:"font_size"`
	TextColor   string  `toml:"text_color"`
	Highlight   string  `toml:"highlight_color"`
}

// Alignment tunes the script-to-transcript aligner.
type Alignment struct {
	MaxLookahead int `toml:"max_lookahead"`
}

// Footage controls allocation and the clip cache.
type Footage struct {
	Granularity          string `toml:"granularity"`
	Seed                 int64  `toml:"seed"`
	FetchConcurrency     int    `toml:"fetch_concurrency"`
	CacheMaxGiB          int    `toml:"cache_max_gib"`
	CacheMinFreeGiB      int    `toml:"cache_min_free_gib"`
	DownloadAttempts     int    `toml:"download_attempts"`
	DownloadRetrySeconds int    `toml:"download_retry_seconds"`
	DownloadTimeout      int    `toml:"download_timeout"`
}

// Render contains encoder settings for the final video.
type Render struct {
	FFmpegBinary  string  `toml:"ffmpeg_binary"`
	FFprobeBinary string  `toml:"ffprobe_binary"`
	Width         int     `toml:"width"`
	Height        int     `toml:"height"`
	FPS           int     `toml:"fps"`
	VideoCodec    string  `toml:"video_codec"`
	AudioCodec    string  `toml:"audio_codec"`
	Preset        string  `toml:"preset"`
	CRF           int     `toml:"crf"`
	MusicDir      string  `toml:"music_dir"`
	MusicVolume   float64 `toml:"music_volume"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for storyreel.
//
// Configuration sections by subsystem:
//   - Paths: output, cache, log and state directories
//   - LLM: script writing and keyword extraction
//   - Script: language, length and block splitting
//   - Speech: narration voice and transcription
//   - WhisperX: local transcription backend
//   - Stock: stock footage search
//   - Captions: line limits and styling
//   - Alignment: aligner scan bounds
//   - Footage: allocation granularity, randomness and clip cache
//   - Render: ffmpeg output settings and background music
//   - Logging: log format, level, and retention
type Config struct {
	Paths     Paths     `toml:"paths"`
	LLM       LLM       `toml:"llm"`
	Script    Script    `toml:"script"`
	Speech    Speech    `toml:"speech"`
	WhisperX  WhisperX  `toml:"whisperx"`
	Stock     Stock     `toml:"stock"`
	Captions  Captions  `toml:"captions"`
	Alignment Alignment `toml:"alignment"`
	Footage   Footage   `toml:"footage"`
	Render    Render    `toml:"render"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/storyreel/config.toml")
}

// Load locates, parses, and validates a configuration file. A .env file in
// the working directory is read first so secrets can live outside the TOML.
// The returned config has all path fields expanded.
func Load(path string) (*Config, string, bool, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, "", false, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("storyreel.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories an assembly run writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.CacheDir, c.Paths.LogDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// StorePath returns the run ledger database location.
func (c *Config) StorePath() string {
	return filepath.Join(c.Paths.StateDir, "storyreel.db")
}

// FootageCacheDir returns the directory holding downloaded and trimmed clips.
func (c *Config) FootageCacheDir() string {
	return filepath.Join(c.Paths.CacheDir, "footage")
}

// LockDir returns the directory holding per-video lock files.
func (c *Config) LockDir() string {
	return filepath.Join(c.Paths.StateDir, "locks")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "storyreel")
	}
	return "~/.cache/storyreel"
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
