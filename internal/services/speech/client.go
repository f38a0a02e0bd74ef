package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"storyreel/internal/fileutil"
	"storyreel/internal/scenario"
)

const defaultTimeout = 5 * time.Minute

// Config captures the settings for narration and transcription.
type Config struct {
	APIKey             string
	BaseURL            string
	TTSModel           string
	Voice              string
	Speed              float64
	TranscriptionModel string
	Language           string
	Timeout            time.Duration
	MaxRetries         int
}

// Client talks to the OpenAI audio endpoints.
type Client struct {
	cfg    Config
	client openai.Client
}

// NewClient builds a client. Extra request options are appended after the
// ones derived from cfg.
func NewClient(cfg Config, opts ...option.RequestOption) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	clientOpts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(base))
	}
	if cfg.MaxRetries > 0 {
		clientOpts = append(clientOpts, option.WithMaxRetries(cfg.MaxRetries))
	}
	clientOpts = append(clientOpts, opts...)
	return &Client{cfg: cfg, client: openai.NewClient(clientOpts...)}
}

// Synthesize renders text to an mp3 file at dest.
func (c *Client) Synthesize(ctx context.Context, text, dest string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New("speech synthesize: text required")
	}
	params := openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(c.cfg.TTSModel),
		Voice:          openai.AudioSpeechNewParamsVoice(c.cfg.Voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	}
	if c.cfg.Speed > 0 {
		params.Speed = openai.Float(c.cfg.Speed)
	}
	resp, err := c.client.Audio.Speech.New(ctx, params)
	if err != nil {
		return fmt.Errorf("speech synthesize: %w", err)
	}
	defer resp.Body.Close()

	n, err := fileutil.StreamToFileAtomic(dest, resp.Body)
	if err != nil {
		return fmt.Errorf("speech synthesize: write %s: %w", dest, err)
	}
	if n == 0 {
		_ = os.Remove(dest)
		return errors.New("speech synthesize: empty audio response")
	}
	return nil
}

type verboseTranscription struct {
	Text     string          `json:"text"`
	Language string          `json:"language"`
	Duration float64         `json:"duration"`
	Words    []scenario.Word `json:"words"`
}

// Transcribe returns the word stream for the audio file at path.
func (c *Client) Transcribe(ctx context.Context, path string) ([]scenario.Word, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("speech transcribe: %w", err)
	}
	defer f.Close()

	params := openai.AudioTranscriptionNewParams{
		File:                   openai.File(f, filepath.Base(path), "audio/mpeg"),
		Model:                  openai.AudioModel(c.cfg.TranscriptionModel),
		ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"word"},
	}
	if lang := strings.TrimSpace(c.cfg.Language); lang != "" {
		params.Language = openai.String(lang)
	}

	var body verboseTranscription
	if _, err := c.client.Audio.Transcriptions.New(ctx, params, option.WithResponseBodyInto(&body)); err != nil {
		return nil, fmt.Errorf("speech transcribe: %w", err)
	}
	if len(body.Words) == 0 && strings.TrimSpace(body.Text) != "" {
		return nil, errors.New("speech transcribe: response has text but no word timestamps")
	}
	if err := scenario.ValidateWords(body.Words); err != nil {
		return nil, fmt.Errorf("speech transcribe: %w", err)
	}
	return body.Words, nil
}
