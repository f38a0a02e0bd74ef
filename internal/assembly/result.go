package assembly

import (
	"storyreel/internal/alignment"
	"storyreel/internal/footage"
)

// Result summarizes one assembly attempt, including the non-fatal
// diagnostics the run produced.
type Result struct {
	RunID         string               `json:"run_id"`
	VideoID       string               `json:"video_id"`
	Theme         string               `json:"theme"`
	Seed          int64                `json:"seed"`
	OutputPath    string               `json:"output_path,omitempty"`
	WorkspaceDir  string               `json:"workspace_dir"`
	Duration      float64              `json:"duration"`
	Blocks        int                  `json:"blocks"`
	Lines         int                  `json:"lines"`
	Misses        []alignment.Miss     `json:"misses,omitempty"`
	MissRate      float64              `json:"miss_rate"`
	SkippedBlocks []int                `json:"skipped_blocks,omitempty"`
	TierCounts    map[footage.Tier]int `json:"tier_counts,omitempty"`
	Music         string               `json:"music,omitempty"`
	Reused        []string             `json:"reused,omitempty"`
	FailedStage   string               `json:"failed_stage,omitempty"`
}
