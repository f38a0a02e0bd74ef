package assembly

import (
	"bytes"
	"fmt"

	"storyreel/internal/captions"
	"storyreel/internal/config"
	"storyreel/internal/fileutil"
	"storyreel/internal/scenario"
)

// CaptionLimits resolves the configured preset, then applies any explicit
// overrides and the flush policy.
func CaptionLimits(cfg config.Captions) (captions.Limits, error) {
	limits, err := captions.LimitsForPreset(cfg.Preset)
	if err != nil {
		return captions.Limits{}, err
	}
	if cfg.MaxChars > 0 {
		limits.MaxChars = cfg.MaxChars
	}
	if cfg.MaxDuration > 0 {
		limits.MaxDuration = cfg.MaxDuration
	}
	if cfg.MaxGap > 0 {
		limits.MaxGap = cfg.MaxGap
	}
	policy, err := captions.ParsePolicy(cfg.Policy)
	if err != nil {
		return captions.Limits{}, err
	}
	limits.Policy = policy
	if err := limits.Validate(); err != nil {
		return captions.Limits{}, fmt.Errorf("caption limits: %w", err)
	}
	return limits, nil
}

// CaptionStyle derives the ASS style from the caption and render settings.
func CaptionStyle(cfg *config.Config) captions.Style {
	style := captions.DefaultStyle()
	if cfg.Captions.Font != "" {
		style.Font = cfg.Captions.Font
	}
	if cfg.Captions.FontSize > 0 {
		style.FontSize = cfg.Captions.FontSize
	}
	if cfg.Captions.TextColor != "" {
		style.TextColor = cfg.Captions.TextColor
	}
	if cfg.Captions.Highlight != "" {
		style.Highlight = cfg.Captions.Highlight
	}
	if cfg.Render.Width > 0 && cfg.Render.Height > 0 {
		style.Width = cfg.Render.Width
		style.Height = cfg.Render.Height
		style.MarginV = cfg.Render.Height / 4
	}
	return style
}

// WriteCaptionFiles writes lines as SRT and ASS. Empty paths are skipped.
func WriteCaptionFiles(lines []scenario.CaptionLine, style captions.Style, srtPath, assPath string) error {
	if srtPath != "" {
		var buf bytes.Buffer
		if err := captions.WriteSRT(&buf, lines); err != nil {
			return fmt.Errorf("encode srt: %w", err)
		}
		if err := fileutil.WriteFileAtomic(srtPath, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write srt: %w", err)
		}
	}
	if assPath != "" {
		var buf bytes.Buffer
		if err := captions.WriteASS(&buf, lines, style); err != nil {
			return fmt.Errorf("encode ass: %w", err)
		}
		if err := fileutil.WriteFileAtomic(assPath, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write ass: %w", err)
		}
	}
	return nil
}
