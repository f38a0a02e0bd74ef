package config

const (
	defaultOutputDir            = "./output"
	defaultLogDir               = "~/.local/share/storyreel/logs"
	defaultStateDir             = "~/.local/share/storyreel"
	defaultLogRetentionDays     = 30
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLLMBaseURL           = "https://api.openai.com/v1/chat/completions"
	defaultLLMModel             = "gpt-4o"
	defaultKeywordModel         = "gpt-4o-mini"
	defaultLLMTimeoutSeconds    = 60
	defaultScriptLanguage       = "ru"
	defaultSpeechProvider       = "openai"
	defaultTTSModel             = "tts-1"
	defaultVoice                = "shimmer"
	defaultSpeechSpeed          = 1.1
	defaultTranscriptionModel   = "whisper-1"
	defaultSpeechTimeoutSeconds = 300
	defaultWhisperXModel        = "large-v3-turbo"
	defaultStockBaseURL         = "https://api.pexels.com/videos/search"
	defaultStockPerPage         = 50
	defaultStockOrientation     = "portrait"
	defaultCaptionPreset        = "dense"
	defaultCaptionPolicy        = "strict"
	defaultCaptionFont          = "DejaVu Sans"
	defaultCaptionFontSize      = 70
	defaultGranularity          = "block"
	defaultFetchConcurrency     = 4
	defaultCacheMaxGiB          = 20
	defaultCacheMinFreeGiB      = 5
	defaultRenderWidth          = 1080
	defaultRenderHeight         = 1920
	defaultRenderFPS            = 24
	defaultMusicVolume          = 0.08
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			CacheDir:  defaultCacheDir(),
			LogDir:    defaultLogDir,
			StateDir:  defaultStateDir,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			KeywordModel:   defaultKeywordModel,
			Temperature:    0.1,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Script: Script{
			Language:      defaultScriptLanguage,
			Paragraphs:    1,
			MinBlockWords: 4,
			Keywords:      1,
		},
		Speech: Speech{
			Provider:           defaultSpeechProvider,
			TTSModel:           defaultTTSModel,
			Voice:              defaultVoice,
			Speed:              defaultSpeechSpeed,
			TranscriptionModel: defaultTranscriptionModel,
			Language:           defaultScriptLanguage,
			TimeoutSeconds:     defaultSpeechTimeoutSeconds,
		},
		WhisperX: WhisperX{
			Model: defaultWhisperXModel,
		},
		Stock: Stock{
			BaseURL:              defaultStockBaseURL,
			PerPage:              defaultStockPerPage,
			Orientation:          defaultStockOrientation,
			MinDurationPadding:   0.5,
			DefaultBlockDuration: 5,
			MaxAttempts:          5,
			RetryWaitSeconds:     10,
			TimeoutSeconds:       30,
		},
		Captions: Captions{
			Preset:    defaultCaptionPreset,
			Policy:    defaultCaptionPolicy,
			Font:      defaultCaptionFont,
			FontSize:  defaultCaptionFontSize,
			TextColor: "FFFFFF",
			Highlight: "0000FF",
		},
		Footage: Footage{
			Granularity:          defaultGranularity,
			FetchConcurrency:     defaultFetchConcurrency,
			CacheMaxGiB:          defaultCacheMaxGiB,
			CacheMinFreeGiB:      defaultCacheMinFreeGiB,
			DownloadAttempts:     5,
			DownloadRetrySeconds: 2,
			DownloadTimeout:      120,
		},
		Render: Render{
			FFmpegBinary:  "ffmpeg",
			FFprobeBinary: "ffprobe",
			Width:         defaultRenderWidth,
			Height:        defaultRenderHeight,
			FPS:           defaultRenderFPS,
			VideoCodec:    "libx264",
			AudioCodec:    "aac",
			Preset:        "medium",
			CRF:           20,
			MusicVolume:   defaultMusicVolume,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
