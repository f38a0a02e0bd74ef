package whisperx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"storyreel/internal/scenario"
)

// Service provides WhisperX transcription capabilities.
type Service struct {
	cfg           Config
	ffmpegBinary  string
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config, ffmpegBinary string) *Service {
	if ffmpegBinary == "" {
		ffmpegBinary = FFmpegCommand
	}
	return &Service{
		cfg:          cfg,
		ffmpegBinary: ffmpegBinary,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	if s.cfg.Model != "" {
		return s.cfg.Model
	}
	return DefaultModel
}

// run executes a command, using the custom runner if set.
func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Transcribe returns the word stream for the narration at audioPath.
func (s *Service) Transcribe(ctx context.Context, audioPath string) ([]scenario.Word, error) {
	if strings.TrimSpace(audioPath) == "" {
		return nil, errors.New("whisperx: audio path required")
	}
	workDir := s.cfg.WorkDir
	if workDir == "" {
		workDir = filepath.Join(filepath.Dir(audioPath), "whisperx")
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("whisperx: ensure work dir: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	wavPath := filepath.Join(workDir, base+".wav")
	if err := s.run(ctx, s.ffmpegBinary, buildExtractArgs(audioPath, wavPath)...); err != nil {
		return nil, fmt.Errorf("whisperx: extract audio: %w", err)
	}
	if err := s.run(ctx, UVXCommand, s.buildArgs(wavPath, workDir)...); err != nil {
		return nil, fmt.Errorf("whisperx: %w", err)
	}

	segments, err := LoadSegments(filepath.Join(workDir, base+".json"))
	if err != nil {
		return nil, fmt.Errorf("whisperx: %w", err)
	}
	words := FlattenWords(segments)
	if err := scenario.ValidateWords(words); err != nil {
		return nil, fmt.Errorf("whisperx: %w", err)
	}
	return words, nil
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (s *Service) buildArgs(source, outputDir string) []string {
	args := make([]string, 0, 32)

	if s.cfg.CUDAEnabled {
		args = append(args,
			"--index-url", CUDAIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	args = append(args,
		"whisperx",
		source,
		"--model", s.Model(),
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--segment_resolution", SegmentResolution,
	)

	vadMethod := s.cfg.VADMethod
	if vadMethod == "" {
		vadMethod = VADMethodSilero
	}
	args = append(args, "--vad_method", vadMethod)
	if vadMethod == VADMethodPyannote && s.cfg.HFToken != "" {
		args = append(args, "--hf_token", s.cfg.HFToken)
	}

	if lang := strings.ToLower(strings.TrimSpace(s.cfg.Language)); len(lang) == 2 {
		args = append(args, "--language", lang)
	}

	if s.cfg.CUDAEnabled {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}
	return args
}
