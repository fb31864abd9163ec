// Package runner drives the AMP cleanup over a list of articles: it polls the
// kill switch, fetches each article, rewrites it and saves the result at a
// paced rate until the list, the edit ceiling or the switch ends the run.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/btraven00/ampclean/internal/logger"
	"github.com/btraven00/ampclean/internal/markup"
	"github.com/btraven00/ampclean/internal/verifier"
)

// DefaultSummary is the edit summary used when none is configured.
const DefaultSummary = "removed AMP tracking from URLs"

// PageStore reads and writes article text.
type PageStore interface {
	PageReader
	SaveText(ctx context.Context, title, text, summary string) error
}

// StopReason says why a run ended. None of them is an error.
type StopReason string

const (
	StopCompleted        StopReason = "completed"
	StopQuota            StopReason = "edit-limit"
	StopKillSwitch       StopReason = "kill-switch"
	StopKillSwitchFailed StopReason = "kill-switch-unreadable"
	StopCancelled        StopReason = "cancelled"
)

// Summary reports the outcome of a run.
type Summary struct {
	RunID     string     `json:"run_id"`
	Stop      StopReason `json:"stop"`
	Processed int        `json:"processed"`
	Edited    int        `json:"edited"`
	Failed    int        `json:"failed"`
}

// Runner processes articles strictly one at a time.
type Runner struct {
	store      PageStore
	prober     verifier.Prober
	killSwitch KillSwitch
	limiter    *rate.Limiter
	logger     *slog.Logger
	summary    string
}

// Option configures a Runner.
type Option func(*Runner)

// WithKillSwitch sets the switch polled before every article.
func WithKillSwitch(ks KillSwitch) Option {
	return func(r *Runner) { r.killSwitch = ks }
}

// WithCooldown sets the minimum delay between saved edits.
func WithCooldown(d time.Duration) Option {
	return func(r *Runner) {
		if d <= 0 {
			r.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		r.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithSummary sets the edit summary.
func WithSummary(summary string) Option {
	return func(r *Runner) { r.summary = summary }
}

// New creates a Runner.
func New(store PageStore, prober verifier.Prober, opts ...Option) *Runner {
	r := &Runner{
		store:      store,
		prober:     prober,
		killSwitch: AlwaysOn{},
		logger:     logger.Discard(),
		summary:    DefaultSummary,
	}

	WithCooldown(10 * time.Second)(r)

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run processes titles in order. Per-article failures are logged and
// skipped. The error is the context error when the run was cancelled.
func (r *Runner) Run(ctx context.Context, rc *RunContext, titles []string) (Summary, error) {
	log := r.logger.With("run_id", rc.ID)
	rewriter := markup.NewRewriter(r.prober, r.emitter(rc, log))

	stop := StopCompleted

	log.Info("run started", "titles", len(titles), "max_edits", rc.MaxEdits, "dry_run", rc.DryRun)

loop:
	for _, title := range titles {
		if ctx.Err() != nil {
			stop = StopCancelled
			break
		}

		if rc.QuotaReached() {
			stop = StopQuota
			rc.Sinks.Logf("* reached the maximum limit of %d edits, stopping", rc.MaxEdits)
			log.Info("edit limit reached", "max_edits", rc.MaxEdits)
			break
		}

		ok, err := r.killSwitch.ShouldContinue(ctx)
		switch {
		case err != nil:
			stop = StopKillSwitchFailed
			rc.Sinks.Logf("* kill switch unreadable, stopping: %v", err)
			log.Error("kill switch unreadable", "error", err)
			break loop
		case !ok:
			stop = StopKillSwitch
			rc.Sinks.Logf("* kill switch is off, stopping")
			log.Info("kill switch is off")
			break loop
		}

		if err := r.processArticle(ctx, rc, rewriter, title, log.With("title", title)); err != nil {
			if ctx.Err() != nil {
				stop = StopCancelled
				break
			}

			rc.failed++
			rc.Sinks.Logf("* failed to process %s: %v", title, err)
			log.Error("article failed", "title", title, "error", err)
		}
	}

	rc.Sinks.Logf("* total pages updated: %d", rc.Edits())

	summary := Summary{
		RunID:     rc.ID,
		Stop:      stop,
		Processed: rc.Processed(),
		Edited:    rc.Edits(),
		Failed:    rc.Failed(),
	}

	log.Info("run finished", "stop", stop, "processed", summary.Processed, "edited", summary.Edited, "failed", summary.Failed)

	if stop == StopCancelled {
		return summary, ctx.Err()
	}

	return summary, nil
}

func (r *Runner) processArticle(ctx context.Context, rc *RunContext, rewriter *markup.Rewriter, title string, log *slog.Logger) error {
	text, err := r.store.FetchText(ctx, title)
	if err != nil {
		return err
	}

	result, err := rewriter.Rewrite(ctx, title, text)
	if err != nil {
		return fmt.Errorf("rewrite: %w", err)
	}

	rc.processed++

	if result.Unsafe > 0 {
		log.Warn("left ambiguous occurrences unchanged", "count", result.Unsafe)
	}

	if !result.Changed {
		log.Debug("no changes")
		return nil
	}

	if rc.DryRun {
		rc.Sinks.RecordChange(title, result.Text)
	} else {
		if err := r.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("pacing: %w", err)
		}

		if err := r.store.SaveText(ctx, title, result.Text, r.summary); err != nil {
			return err
		}
	}

	rc.edits++
	rc.Sinks.RecordEdit(title)
	log.Info("article updated", "replacements", result.Replacements, "dry_run", rc.DryRun)

	return nil
}

// emitter writes each decision to the sinks and the structured log.
func (r *Runner) emitter(rc *RunContext, log *slog.Logger) markup.Emitter {
	return markup.EmitterFunc(func(record markup.EditRecord) {
		rc.Sinks.Emit(record)

		level := slog.LevelInfo
		if !record.Disposition.Replaces() {
			level = slog.LevelWarn
		}

		log.Log(context.Background(), level, "url decision",
			"title", record.Title,
			"pass", record.Pass,
			"old_url", record.OldURL,
			"candidate", record.Candidate,
			"disposition", record.Disposition,
			"original_status", record.OriginalStatus,
			"candidate_status", record.CandidateStatus)
	})
}
