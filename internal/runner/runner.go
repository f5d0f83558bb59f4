// Package runner executes due collection jobs and the digest handoff as one
// locked, restart-safe run.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"bookherald/internal/catalog"
	"bookherald/internal/collector"
	"bookherald/internal/config"
	"bookherald/internal/digest"
	"bookherald/internal/googlebooks"
	"bookherald/internal/jobs"
)

// Options tunes a run.
type Options struct {
	// Force runs every enabled job regardless of its interval.
	Force bool
	// DryRun reports which jobs are due without collecting or delivering.
	DryRun bool
}

// ChannelReport describes what happened to one job during a run.
type ChannelReport struct {
	Job        string
	Ran        bool
	SkipReason string
	Collection collector.Result
	Err        error
}

// RunReport summarizes a full run.
type RunReport struct {
	RunID     string
	Channels  []ChannelReport
	Delivered bool
	Delivery  digest.Report
}

// Failed reports whether any job in the run errored.
func (r RunReport) Failed() bool {
	for _, channel := range r.Channels {
		if channel.Err != nil {
			return true
		}
	}
	return false
}

// Runner owns one end-to-end run: acquire the lock, collect every due job,
// then deliver the digest for the configured channel.
type Runner struct {
	cfg       *config.Config
	store     *catalog.Store
	collector *collector.Collector
	digest    *digest.Service
	logger    *slog.Logger
	now       func() time.Time
}

// New builds a runner.
func New(cfg *config.Config, store *catalog.Store, c *collector.Collector, d *digest.Service, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		cfg:       cfg,
		store:     store,
		collector: c,
		digest:    d,
		logger:    logger.With(slog.String("component", "runner")),
		now:       time.Now,
	}
}

// Run executes every due job from the jobs file sequentially, isolating
// failures so one broken job cannot stop the rest, then hands the digest to
// the configured delivery channel. A second concurrent run is refused via a
// file lock in the data directory.
func (r *Runner) Run(ctx context.Context, file *jobs.File, opts Options) (RunReport, error) {
	report := RunReport{RunID: uuid.NewString()}
	log := r.logger.With(slog.String("run_id", report.RunID))

	lock := flock.New(r.cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return report, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return report, fmt.Errorf("another run holds %s", r.cfg.LockPath())
	}
	defer func() {
		_ = lock.Unlock()
	}()

	for _, job := range file.Jobs {
		channel, err := r.runJob(ctx, log, file, job, opts)
		report.Channels = append(report.Channels, channel)
		if err != nil {
			log.Error("job failed",
				slog.String("job", job.Name),
				slog.String("error", err.Error()))
		}
	}

	if opts.DryRun {
		log.Info("dry run, skipping delivery")
		return report, nil
	}

	delivery, err := r.digest.Deliver(ctx, r.cfg.Delivery.Channel, file.Defaults.MailLimit)
	if err != nil {
		return report, fmt.Errorf("digest delivery: %w", err)
	}
	report.Delivered = !delivery.Skipped
	report.Delivery = delivery
	return report, nil
}

func (r *Runner) runJob(ctx context.Context, log *slog.Logger, file *jobs.File, job jobs.Job, opts Options) (ChannelReport, error) {
	channel := ChannelReport{Job: job.Name}

	if !job.IsEnabled() {
		channel.SkipReason = "disabled"
		return channel, nil
	}

	due, reason, err := r.isDue(ctx, file, job)
	if err != nil {
		channel.Err = err
		return channel, err
	}
	if !due && !opts.Force {
		channel.SkipReason = reason
		return channel, nil
	}

	if opts.DryRun {
		channel.SkipReason = "dry run"
		return channel, nil
	}

	now := r.now().UTC().Format(time.RFC3339Nano)
	if err := r.store.MarkRun(ctx, job.Name, now); err != nil {
		channel.Err = err
		return channel, err
	}

	result, err := r.collector.Collect(ctx, collector.Request{
		Channel:   job.Name,
		Queries:   job.Queries,
		MaxPerRun: file.EffectiveMaxPerRun(job),
		Options: googlebooks.SearchOptions{
			PrintType:    job.GoogleBooks.PrintType,
			LangRestrict: job.GoogleBooks.LangRestrict,
		},
	})
	channel.Collection = result
	if err != nil {
		channel.Err = err
		return channel, err
	}
	channel.Ran = true

	if err := r.store.MarkSuccess(ctx, job.Name, r.now().UTC().Format(time.RFC3339Nano)); err != nil {
		channel.Err = err
		return channel, err
	}
	return channel, nil
}

func (r *Runner) isDue(ctx context.Context, file *jobs.File, job jobs.Job) (bool, string, error) {
	interval, err := file.EffectiveInterval(job)
	if err != nil {
		return false, "", err
	}
	state, err := r.store.JobState(ctx, job.Name)
	if err != nil {
		return false, "", err
	}
	if state.LastRunAt == nil {
		return true, "", nil
	}
	next := state.LastRunAt.Add(interval)
	if r.now().Before(next) {
		return false, fmt.Sprintf("not due until %s", next.UTC().Format(time.RFC3339)), nil
	}
	return true, "", nil
}
