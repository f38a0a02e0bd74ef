package assembly

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"storyreel/internal/config"
	"storyreel/internal/logging"
	"storyreel/internal/scenario"
	"storyreel/internal/services"
	"storyreel/internal/store"
	"storyreel/internal/timeline"
)

// Assembler runs the assembly pipeline for one theme at a time.
type Assembler struct {
	cfg    *config.Config
	store  *store.Store
	svc    Services
	logger *slog.Logger
	now    func() time.Time
}

// Option customizes an Assembler.
type Option func(*Assembler)

// WithClock overrides the time source used for dated output directories
// and generated seeds.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		if now != nil {
			a.now = now
		}
	}
}

// New constructs an Assembler. Every service must be set.
func New(cfg *config.Config, st *store.Store, svc Services, logger *slog.Logger, opts ...Option) (*Assembler, error) {
	if cfg == nil {
		return nil, errors.New("assembly: config required")
	}
	if st == nil {
		return nil, errors.New("assembly: store required")
	}
	if missing := svc.missing(); len(missing) > 0 {
		return nil, fmt.Errorf("assembly: missing services: %s", strings.Join(missing, ", "))
	}
	a := &Assembler{
		cfg:    cfg,
		store:  st,
		svc:    svc,
		logger: logging.NewComponentLogger(logger, "assembly"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

type stage struct {
	name string
	run  func(context.Context, *runState) error
}

// runState is the mutable state threaded through the stages of one run.
type runState struct {
	ws                Workspace
	sc                *scenario.Scenario
	seed              int64
	narrationDuration float64
	plan              *Plan
	result            *Result
}

func (a *Assembler) stages() []stage {
	return []stage{
		{"script", a.stageScript},
		{"keywords", a.stageKeywords},
		{"narration", a.stageNarration},
		{"transcription", a.stageTranscription},
		{"alignment", a.stageAlignment},
		{"captions", a.stageCaptions},
		{"search", a.stageSearch},
		{"plan", a.stagePlan},
		{"fetch", a.stageFetch},
		{"render", a.stageRender},
	}
}

// Assemble produces the video for theme. The returned Result is non-nil
// whenever a run was recorded, including on failure.
func (a *Assembler) Assemble(ctx context.Context, theme string) (*Result, error) {
	theme = strings.TrimSpace(theme)
	if theme == "" {
		return nil, services.Wrap(services.ErrValidation, "assemble", "theme", "theme is empty", nil)
	}
	if err := a.cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "assemble", "directories", "", err)
	}

	videoID := VideoID(theme)
	unlock, err := lockVideo(a.cfg.LockDir(), videoID)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "assemble", "lock", "", err)
	}
	defer unlock()

	seed := a.seed()
	run, err := a.store.BeginRun(ctx, videoID, theme, seed)
	if err != nil {
		return nil, fmt.Errorf("record run: %w", err)
	}

	ctx = services.WithRunID(ctx, run.ID)
	ctx = services.WithVideoID(ctx, videoID)
	logger := logging.WithContext(ctx, a.logger)

	ws := NewWorkspace(a.cfg.Paths.OutputDir, a.now(), videoID)
	state := &runState{
		ws:   ws,
		seed: seed,
		result: &Result{
			RunID:        run.ID,
			VideoID:      videoID,
			Theme:        theme,
			Seed:         seed,
			WorkspaceDir: ws.Dir,
		},
	}
	logger.Info("assembly started",
		logging.String(logging.FieldEventType, "assembly_start"),
		logging.String("theme", theme),
		logging.Int64("seed", seed),
		logging.String("workspace", ws.Dir),
	)

	start := a.now()
	if err := a.execute(ctx, state); err != nil {
		status := services.FailureStatus(err)
		if ferr := a.store.Fail(context.WithoutCancel(ctx), run.ID, status, err.Error()); ferr != nil {
			logging.WarnWithContext(logger, "failed to record run failure", "ledger_update_failed",
				logging.Error(ferr),
				logging.String(logging.FieldImpact, "run ledger shows the run as running"),
				logging.String(logging.FieldErrorHint, "run `storyreel runs list` and retry the theme"),
			)
		}
		logging.ErrorWithContext(logger, "assembly failed", "assembly_failed",
			logging.Error(err),
			logging.String("status", string(status)),
			logging.String(logging.FieldStage, state.result.FailedStage),
			logging.String(logging.FieldErrorHint, failureHint(err)),
		)
		return state.result, err
	}

	if err := a.store.Complete(ctx, run.ID, state.result.OutputPath, state.result.Duration); err != nil {
		return state.result, fmt.Errorf("record run completion: %w", err)
	}
	logger.Info("assembly completed",
		logging.String(logging.FieldEventType, "assembly_complete"),
		logging.String("output", state.result.OutputPath),
		logging.Seconds("video_seconds", state.result.Duration),
		logging.Duration("elapsed", a.now().Sub(start)),
		logging.Int("alignment_misses", len(state.result.Misses)),
		logging.Int("skipped_blocks", len(state.result.SkippedBlocks)),
	)
	return state.result, nil
}

func (a *Assembler) execute(ctx context.Context, state *runState) error {
	for _, s := range a.stages() {
		if err := ctx.Err(); err != nil {
			state.result.FailedStage = s.name
			return services.Wrap(services.ErrTransient, s.name, "start", "cancelled", err)
		}
		stageCtx := services.WithStage(ctx, s.name)
		if err := a.store.SetStage(stageCtx, state.result.RunID, s.name); err != nil {
			return fmt.Errorf("record stage %s: %w", s.name, err)
		}
		logger := logging.WithContext(stageCtx, a.logger)
		logger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))
		started := a.now()
		if err := s.run(stageCtx, state); err != nil {
			state.result.FailedStage = s.name
			return err
		}
		logger.Info("stage completed",
			logging.String(logging.FieldEventType, "stage_complete"),
			logging.Duration("elapsed", a.now().Sub(started)),
		)
	}
	return nil
}

// seed returns the configured seed, or a time-derived one that is recorded
// in the ledger so the allocation can be replayed with `storyreel plan`.
func (a *Assembler) seed() int64 {
	if a.cfg.Footage.Seed != 0 {
		return a.cfg.Footage.Seed
	}
	seed := a.now().UnixNano()
	if seed == 0 {
		seed = 1
	}
	return seed
}

func (a *Assembler) rng(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed)) //nolint:gosec
}

func (a *Assembler) granularity() timeline.Granularity {
	g, err := timeline.ParseGranularity(a.cfg.Footage.Granularity)
	if err != nil {
		return timeline.GranularityBlock
	}
	return g
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, services.ErrConfiguration):
		return "check the configuration with `storyreel config validate`"
	case errors.Is(err, services.ErrExternalTool):
		return "run `storyreel doctor` to check ffmpeg, ffprobe and uvx"
	case errors.Is(err, services.ErrValidation):
		return "inspect the run workspace; delete stale artifacts to regenerate them"
	default:
		return "retry the theme; completed stages are reused"
	}
}
