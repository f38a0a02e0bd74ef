package assembly

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"storyreel/internal/alignment"
	"storyreel/internal/captions"
	"storyreel/internal/fileutil"
	"storyreel/internal/footage"
	"storyreel/internal/footagecache"
	"storyreel/internal/logging"
	"storyreel/internal/media/ffmpeg"
	"storyreel/internal/scenario"
	"storyreel/internal/services"
	"storyreel/internal/services/llm"
	"storyreel/internal/services/pexels"
	"storyreel/internal/store"
	"storyreel/internal/timeline"
)

func (a *Assembler) saveScenario(state *runState, stageName string) error {
	if err := state.sc.Save(state.ws.ScenarioPath()); err != nil {
		return services.Wrap(services.ErrTransient, stageName, "save scenario", "", err)
	}
	return nil
}

func (a *Assembler) stageScript(ctx context.Context, state *runState) error {
	logger := logging.WithContext(ctx, a.logger)
	path := state.ws.ScenarioPath()
	if fileutil.Exists(path) {
		sc, err := scenario.Load(path)
		if err != nil {
			return services.Wrap(services.ErrValidation, "script", "load scenario", path, err)
		}
		state.sc = sc
		state.result.Reused = append(state.result.Reused, "script")
		logger.Info("reusing stored script",
			logging.String(logging.FieldEventType, "artifact_reused"),
			logging.String("path", path),
		)
	} else {
		text, err := a.svc.Script.WriteScript(ctx, llm.ScriptRequest{
			Theme:      state.result.Theme,
			Paragraphs: a.cfg.Script.Paragraphs,
			Language:   a.cfg.Script.Language,
		})
		if err != nil {
			return services.Wrap(services.ErrTransient, "script", "write script", "", err)
		}
		state.sc = &scenario.Scenario{Theme: state.result.Theme, FullScript: text}
	}
	if len(state.sc.Blocks) == 0 {
		state.sc.Blocks = scenario.SplitBlocks(state.sc.FullScript, a.cfg.Script.MinBlockWords)
	}
	if len(state.sc.Blocks) == 0 {
		return services.Wrap(services.ErrValidation, "script", "split blocks", "script has no sentences", nil)
	}
	state.result.Blocks = len(state.sc.Blocks)
	logger.Info("script ready",
		logging.String(logging.FieldEventType, "script_ready"),
		logging.Int("blocks", len(state.sc.Blocks)),
		logging.Int("characters", len([]rune(state.sc.FullScript))),
	)
	return a.saveScenario(state, "script")
}

func (a *Assembler) stageKeywords(ctx context.Context, state *runState) error {
	generated := 0
	for i := range state.sc.Blocks {
		block := &state.sc.Blocks[i]
		if len(block.Keywords) > 0 {
			continue
		}
		keywords, err := a.svc.Keywords.Keywords(ctx, block.Text, a.cfg.Script.Keywords)
		if err != nil {
			return services.Wrap(services.ErrTransient, "keywords", "extract", fmt.Sprintf("block %d", i), err)
		}
		block.Keywords = keywords
		generated++
	}
	if generated == 0 {
		state.result.Reused = append(state.result.Reused, "keywords")
	}
	return a.saveScenario(state, "keywords")
}

func (a *Assembler) stageNarration(ctx context.Context, state *runState) error {
	logger := logging.WithContext(ctx, a.logger)
	path := state.ws.NarrationPath()
	if fileutil.Exists(path) {
		state.result.Reused = append(state.result.Reused, "narration")
		logger.Info("reusing stored narration",
			logging.String(logging.FieldEventType, "artifact_reused"),
			logging.String("path", path),
		)
	} else if err := a.svc.Narrator.Synthesize(ctx, state.sc.FullScript, path); err != nil {
		return services.Wrap(services.ErrTransient, "narration", "synthesize", "", err)
	}
	duration, err := a.svc.Prober.Duration(ctx, path)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "narration", "probe", path, err)
	}
	state.narrationDuration = duration
	state.sc.NarrationPath = path
	logger.Info("narration ready",
		logging.String(logging.FieldEventType, "narration_ready"),
		logging.Seconds("narration_seconds", duration),
	)
	return a.saveScenario(state, "narration")
}

func (a *Assembler) stageTranscription(ctx context.Context, state *runState) error {
	logger := logging.WithContext(ctx, a.logger)
	path := state.ws.WordsPath()
	var words []scenario.Word
	if fileutil.Exists(path) {
		loaded, err := scenario.LoadWords(path)
		if err != nil {
			return services.Wrap(services.ErrValidation, "transcription", "load words", path, err)
		}
		words = loaded
		state.result.Reused = append(state.result.Reused, "transcription")
	} else {
		transcribed, err := a.svc.Transcriber.Transcribe(ctx, state.sc.NarrationPath)
		if err != nil {
			return services.Wrap(services.ErrExternalTool, "transcription", "transcribe", "", err)
		}
		if err := scenario.ValidateWords(transcribed); err != nil {
			return services.Wrap(services.ErrValidation, "transcription", "validate words", "", err)
		}
		if err := scenario.SaveWords(path, transcribed); err != nil {
			return services.Wrap(services.ErrTransient, "transcription", "save words", "", err)
		}
		words = transcribed
	}
	if len(words) == 0 {
		return services.Wrap(services.ErrValidation, "transcription", "words", "transcript is empty", nil)
	}
	state.sc.Words = words
	logger.Info("transcript ready",
		logging.String(logging.FieldEventType, "transcript_ready"),
		logging.Int("words", len(words)),
		logging.Seconds("narration_end", scenario.NarrationEnd(words)),
	)
	return nil
}

func (a *Assembler) stageAlignment(ctx context.Context, state *runState) error {
	logger := logging.WithContext(ctx, a.logger)
	report := alignment.Align(state.sc.Blocks, state.sc.Words,
		alignment.WithMaxLookahead(a.cfg.Alignment.MaxLookahead))
	state.result.Misses = report.Misses
	state.result.MissRate = report.MissRate()

	records := make([]store.MissRecord, 0, len(report.Misses))
	for _, m := range report.Misses {
		records = append(records, store.MissRecord{Block: m.Block, Token: m.Token, Cursor: m.Cursor})
	}
	if err := a.store.RecordMisses(ctx, state.result.RunID, records); err != nil {
		return fmt.Errorf("record alignment misses: %w", err)
	}

	if len(report.Misses) > 0 {
		logging.WarnWithContext(logger, "script tokens missing from transcript", "alignment_misses",
			logging.Int("misses", len(report.Misses)),
			logging.Int("tokens", report.Tokens),
			logging.Float64("miss_rate", report.MissRate()),
			logging.String("first_miss", report.Misses[0].Token),
			logging.String(logging.FieldImpact, "affected blocks may be shorter than their text"),
			logging.String(logging.FieldErrorHint, "compare words.json with the script in scenario.json"),
		)
	}
	if unaligned := alignment.UnalignedBlocks(state.sc.Blocks); len(unaligned) > 0 {
		logging.WarnWithContext(logger, "blocks received no words", "blocks_unaligned",
			logging.Any("blocks", unaligned),
			logging.String(logging.FieldImpact, "blocks are skipped on the footage timeline"),
		)
	}
	logger.Info("alignment complete",
		logging.String(logging.FieldEventType, "alignment_complete"),
		logging.Int("matched", report.Matched),
		logging.Int("tokens", report.Tokens),
	)
	return a.saveScenario(state, "alignment")
}

func (a *Assembler) stageCaptions(ctx context.Context, state *runState) error {
	limits, err := CaptionLimits(a.cfg.Captions)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "captions", "limits", "", err)
	}
	lines := captions.Segment(state.sc.Words, limits)
	state.sc.Lines = lines
	state.result.Lines = len(lines)
	if err := WriteCaptionFiles(lines, CaptionStyle(a.cfg), state.ws.SRTPath(), state.ws.ASSPath()); err != nil {
		return services.Wrap(services.ErrTransient, "captions", "write", "", err)
	}
	logging.WithContext(ctx, a.logger).Info("captions written",
		logging.String(logging.FieldEventType, "captions_written"),
		logging.Int("lines", len(lines)),
		logging.String("ass", state.ws.ASSPath()),
	)
	return a.saveScenario(state, "captions")
}

func (a *Assembler) stageSearch(ctx context.Context, state *runState) error {
	logger := logging.WithContext(ctx, a.logger)
	searched := 0
	for i := range state.sc.Blocks {
		block := &state.sc.Blocks[i]
		if len(block.Candidates) > 0 && !block.PoolBorrowed {
			continue
		}
		minDuration := pexels.MinDuration(*block, a.cfg.Stock.DefaultBlockDuration, a.cfg.Stock.MinDurationPadding)
		pool, err := a.svc.Search.Candidates(ctx, block.Keywords, minDuration, logger)
		if err != nil {
			return services.Wrap(services.ErrTransient, "search", "candidates", fmt.Sprintf("block %d", i), err)
		}
		block.Candidates, block.PoolBorrowed = pool, false
		searched++
		logger.Debug("candidate pool built",
			logging.Int("block", i),
			logging.Int("candidates", len(pool)),
			logging.Seconds("min_duration", minDuration),
		)
	}
	if searched == 0 {
		state.result.Reused = append(state.result.Reused, "search")
	}
	for _, i := range borrowPools(state.sc.Blocks) {
		logging.WarnWithContext(logger, "no footage found for block", "pool_borrowed",
			logging.Int("block", i),
			logging.String("keywords", strings.Join(state.sc.Blocks[i].Keywords, ", ")),
			logging.String(logging.FieldImpact, "block reuses a neighbouring block's footage"),
		)
	}
	return a.saveScenario(state, "search")
}

// borrowPools gives every block with an empty pool the pool of the previous
// block, or of the first non-empty block when no earlier one has candidates.
// Borrowed blocks are flagged so the next run searches them again. It
// returns the indices that borrowed.
func borrowPools(blocks []scenario.TextBlock) []int {
	var (
		borrowed []int
		last     scenario.Pool
	)
	for i := range blocks {
		if len(blocks[i].Candidates) > 0 {
			last = blocks[i].Candidates
			continue
		}
		if last != nil {
			blocks[i].Candidates = append(scenario.Pool(nil), last...)
			blocks[i].PoolBorrowed = true
			borrowed = append(borrowed, i)
		}
	}
	var first scenario.Pool
	for _, b := range blocks {
		if len(b.Candidates) > 0 {
			first = b.Candidates
			break
		}
	}
	if first == nil {
		return borrowed
	}
	for i := range blocks {
		if len(blocks[i].Candidates) > 0 {
			break
		}
		blocks[i].Candidates = append(scenario.Pool(nil), first...)
		blocks[i].PoolBorrowed = true
		borrowed = append(borrowed, i)
	}
	return borrowed
}

func (a *Assembler) stagePlan(ctx context.Context, state *runState) error {
	logger := logging.WithContext(ctx, a.logger)
	plan, err := BuildPlan(state.sc.Blocks, state.sc.Lines, PlanOptions{
		Seed:        state.seed,
		Granularity: a.granularity(),
		Logger:      logger,
	})
	if err != nil {
		return services.Wrap(services.ErrValidation, "plan", "build", "", err)
	}
	state.plan = plan
	state.result.SkippedBlocks = plan.Skipped
	state.result.TierCounts = plan.TierCounts

	records := make([]store.AllocationRecord, 0, len(plan.Allocations))
	for _, alloc := range plan.Allocations {
		records = append(records, store.AllocationRecord{
			Index:  alloc.Index,
			ClipID: alloc.Candidate.ID,
			URL:    alloc.Candidate.URL,
			Tier:   alloc.Tier.String(),
			Start:  alloc.Start,
			End:    alloc.End,
		})
	}
	if err := a.store.RecordAllocations(ctx, state.result.RunID, records); err != nil {
		return fmt.Errorf("record allocations: %w", err)
	}
	logger.Info("footage planned",
		logging.String(logging.FieldEventType, "plan_complete"),
		logging.Int("segments", len(plan.Segments)),
		logging.Int("fresh", plan.TierCounts[footage.TierFresh]),
		logging.Int("extended", plan.TierCounts[footage.TierExtend]),
		logging.Int("forced", plan.TierCounts[footage.TierForced]),
		logging.Seconds("timeline_seconds", plan.Duration),
	)
	return writeTimeline(state.ws.TimelinePath(), plan.Placements)
}

func writeTimeline(path string, placements []timeline.Placement) error {
	data, err := json.MarshalIndent(placements, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrValidation, "plan", "encode timeline", "", err)
	}
	if err := fileutil.WriteFileAtomic(path, append(data, '\n'), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "plan", "write timeline", "", err)
	}
	return nil
}

func (a *Assembler) stageFetch(ctx context.Context, state *runState) error {
	logger := logging.WithContext(ctx, a.logger)
	clips := timeline.Footage(state.plan.Placements)
	limit := a.cfg.Footage.FetchConcurrency
	if limit <= 0 {
		limit = 1
	}
	progress := newFetchProgress(len(clips))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(limit)
	for i := range clips {
		clip := clips[i].Footage
		duration := clips[i].Duration
		group.Go(func() error {
			path, err := a.svc.Fetcher.Fetch(groupCtx, footagecache.Request{
				ID:       clip.ID,
				URL:      clip.URL,
				Offset:   clip.Offset,
				Duration: duration,
			})
			if err != nil {
				return fmt.Errorf("clip %s: %w", clip.ID, err)
			}
			clip.Path = path
			if done, percent, ok := progress.advance(); ok {
				logger.Info("footage fetch progress",
					logging.String(logging.FieldEventType, "fetch_progress"),
					logging.Int("done", done),
					logging.Int("clips", len(clips)),
					logging.String("footage_id", clip.ID),
					logging.Float64("percent", percent),
				)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		marker := services.ErrTransient
		if errors.Is(err, footagecache.ErrTrim) {
			marker = services.ErrExternalTool
		}
		return services.Wrap(marker, "fetch", "footage", "", err)
	}
	logger.Info("footage fetched",
		logging.String(logging.FieldEventType, "fetch_complete"),
		logging.Int("clips", len(clips)),
	)
	return writeTimeline(state.ws.TimelinePath(), state.plan.Placements)
}

// fetchProgress counts finished clips across fetch workers and samples
// progress logs to quarter steps.
type fetchProgress struct {
	mu      sync.Mutex
	total   int
	done    int
	sampler *logging.ProgressSampler
}

func newFetchProgress(total int) *fetchProgress {
	return &fetchProgress{total: total, sampler: logging.NewProgressSampler(25)}
}

// advance records one finished clip and reports whether it crossed a
// sampling boundary.
func (p *fetchProgress) advance() (int, float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	percent := 100.0
	if p.total > 0 {
		percent = float64(p.done) * 100 / float64(p.total)
	}
	return p.done, percent, p.sampler.ShouldLog("fetch", percent)
}

func (a *Assembler) stageRender(ctx context.Context, state *runState) error {
	logger := logging.WithContext(ctx, a.logger)
	footageClips := timeline.Footage(state.plan.Placements)
	job := ffmpeg.RenderJob{
		Clips:     make([]ffmpeg.Clip, 0, len(footageClips)),
		Narration: state.sc.NarrationPath,
		Subtitles: state.ws.ASSPath(),
		Duration:  max(state.plan.Duration, state.narrationDuration),
		Output:    state.ws.Output,
	}
	for _, p := range footageClips {
		job.Clips = append(job.Clips, ffmpeg.Clip{Path: p.Footage.Path, Start: p.Start, Duration: p.Duration})
	}

	tracks, err := ffmpeg.ListMusic(a.cfg.Render.MusicDir)
	if err != nil {
		logging.WarnWithContext(logger, "background music unavailable", "music_unavailable",
			logging.Error(err),
			logging.String(logging.FieldImpact, "video rendered without background music"),
		)
	}
	if len(tracks) > 0 {
		job.Music = tracks[a.rng(state.seed).Intn(len(tracks))]
		state.result.Music = filepath.Base(job.Music)
	}

	if err := a.svc.Renderer.Render(ctx, job); err != nil {
		return services.Wrap(services.ErrExternalTool, "render", "ffmpeg", "", err)
	}
	state.result.OutputPath = job.Output
	state.result.Duration = job.Duration
	logger.Info("video rendered",
		logging.String(logging.FieldEventType, "render_complete"),
		logging.String("output", job.Output),
		logging.Seconds("video_seconds", job.Duration),
		logging.Int("clips", len(job.Clips)),
		logging.String("music", textOr(state.result.Music, "none")),
		logging.String("seed", strconv.FormatInt(state.seed, 10)),
	)
	return nil
}

func textOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
