package assembly

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"storyreel/internal/config"
	"storyreel/internal/footagecache"
	"storyreel/internal/media/ffmpeg"
	"storyreel/internal/media/ffprobe"
	"storyreel/internal/scenario"
	"storyreel/internal/services/llm"
	"storyreel/internal/services/pexels"
	"storyreel/internal/services/speech"
	"storyreel/internal/services/whisperx"
)

// ScriptWriter produces the narration script for a theme.
type ScriptWriter interface {
	WriteScript(ctx context.Context, req llm.ScriptRequest) (string, error)
}

// KeywordExtractor returns stock search keywords for a block of text.
type KeywordExtractor interface {
	Keywords(ctx context.Context, text string, limit int) ([]string, error)
}

// Narrator renders text to an audio file.
type Narrator interface {
	Synthesize(ctx context.Context, text, dest string) error
}

// Transcriber turns narration audio into a word stream.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) ([]scenario.Word, error)
}

// FootageSearcher builds a candidate pool from keywords.
type FootageSearcher interface {
	Candidates(ctx context.Context, keywords []string, minDuration float64, logger *slog.Logger) (scenario.Pool, error)
}

// Fetcher materializes a trimmed clip and returns its path.
type Fetcher interface {
	Fetch(ctx context.Context, req footagecache.Request) (string, error)
}

// Renderer encodes the final composition.
type Renderer interface {
	Render(ctx context.Context, job ffmpeg.RenderJob) error
}

// DurationProber measures media files.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Services bundles the collaborators an Assembler calls out to.
type Services struct {
	Script      ScriptWriter
	Keywords    KeywordExtractor
	Narrator    Narrator
	Transcriber Transcriber
	Search      FootageSearcher
	Fetcher     Fetcher
	Renderer    Renderer
	Prober      DurationProber
}

func (s Services) missing() []string {
	var out []string
	check := func(name string, ok bool) {
		if !ok {
			out = append(out, name)
		}
	}
	check("script", s.Script != nil)
	check("keywords", s.Keywords != nil)
	check("narrator", s.Narrator != nil)
	check("transcriber", s.Transcriber != nil)
	check("search", s.Search != nil)
	check("fetcher", s.Fetcher != nil)
	check("renderer", s.Renderer != nil)
	check("prober", s.Prober != nil)
	return out
}

// NewLLMClient builds the script and keyword client from configuration.
func NewLLMClient(cfg *config.Config, opts ...llm.Option) *llm.Client {
	return llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		KeywordModel:   cfg.LLM.KeywordModel,
		Temperature:    cfg.LLM.Temperature,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	}, opts...)
}

// NewServices wires the production clients from configuration.
func NewServices(cfg *config.Config, logger *slog.Logger) Services {
	llmClient := NewLLMClient(cfg)
	speechClient := speech.NewClient(speech.Config{
		APIKey:             cfg.Speech.APIKey,
		BaseURL:            cfg.Speech.BaseURL,
		TTSModel:           cfg.Speech.TTSModel,
		Voice:              cfg.Speech.Voice,
		Speed:              cfg.Speech.Speed,
		TranscriptionModel: cfg.Speech.TranscriptionModel,
		Language:           cfg.Speech.Language,
		Timeout:            time.Duration(cfg.Speech.TimeoutSeconds) * time.Second,
	})
	var transcriber Transcriber = speechClient
	if strings.EqualFold(cfg.Speech.Provider, "whisperx") {
		transcriber = whisperx.NewService(whisperx.Config{
			Model:       cfg.WhisperX.Model,
			CUDAEnabled: cfg.WhisperX.CUDAEnabled,
			HFToken:     cfg.WhisperX.HFToken,
			Language:    cfg.Speech.Language,
		}, cfg.Render.FFmpegBinary)
	}
	search := pexels.NewClient(pexels.Config{
		APIKey:      cfg.Stock.APIKey,
		BaseURL:     cfg.Stock.BaseURL,
		PerPage:     cfg.Stock.PerPage,
		Orientation: cfg.Stock.Orientation,
		MaxAttempts: cfg.Stock.MaxAttempts,
		RetryWait:   time.Duration(cfg.Stock.RetryWaitSeconds) * time.Second,
		Timeout:     time.Duration(cfg.Stock.TimeoutSeconds) * time.Second,
	})
	encoder := ffmpeg.NewEncoder(cfg.Render)
	return Services{
		Script:      llmClient,
		Keywords:    llmClient,
		Narrator:    speechClient,
		Transcriber: transcriber,
		Search:      search,
		Fetcher:     footagecache.NewManager(cfg, encoder, logger),
		Renderer:    encoder,
		Prober:      ffprobe.NewProber(cfg.Render.FFprobeBinary),
	}
}
