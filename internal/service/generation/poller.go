package generation

import (
	"context"
	"time"

	"github.com/ChaseRain/storycards/internal/infra/logger"
	"github.com/ChaseRain/storycards/internal/service/backend"
	"github.com/ChaseRain/storycards/internal/service/progress"
	"github.com/ChaseRain/storycards/pkg/errors"
)

type StatusSource interface {
	JobStatus(ctx context.Context) (*backend.JobStatus, error)
}

type StoryRenderer interface {
	Render(ctx context.Context) (*backend.Story, error)
}

// job is one observed generation run.
type job struct {
	id      string
	seq     uint64
	level   string
	machine *machine

	// ctx is cancelled by the terminal tick or by Controller.Close.
	ctx    context.Context
	cancel context.CancelFunc
	// renderCtx outlives ctx so the story can be fetched after polling stops.
	renderCtx context.Context

	done   chan struct{}
	result State
	err    error
}

// Poller observes a job by querying its status at a fixed period.
type Poller struct {
	source   StatusSource
	renderer StoryRenderer
	display  Display
	interval time.Duration
	estimate func(status string) float64
	logger   *logger.Logger
}

func NewPoller(source StatusSource, renderer StoryRenderer, display Display, interval time.Duration, log *logger.Logger) *Poller {
	return &Poller{
		source:   source,
		renderer: renderer,
		display:  display,
		interval: interval,
		estimate: progress.Estimate,
		logger:   log,
	}
}

// observe runs until a terminal status is seen or the job is cancelled.
// Queries run inside the loop, so at most one is in flight; ticks that
// fall due while a query is outstanding are dropped by the ticker.
func (p *Poller) observe(j *job) {
	defer close(j.done)

	log := p.logger.With("job_id", j.id, "seq", j.seq)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.ctx.Done():
			p.abandon(j, log)
			return
		case <-ticker.C:
			if p.tick(j, log) {
				return
			}
		}
	}
}

// tick performs one observation and reports whether polling has stopped.
func (p *Poller) tick(j *job, log *logger.Logger) bool {
	status, err := p.source.JobStatus(j.ctx)

	// A response that arrives after cancellation, or for a job that is no
	// longer being observed, is discarded.
	if j.ctx.Err() != nil || !j.machine.is(j.seq, StateObserving) {
		log.Debug("discarding late status response")
		p.abandon(j, log)
		return true
	}

	if err != nil {
		log.Error("status query failed", "error", err)
		p.display.ShowStatus(statusUnavailableText, nil)
		p.finish(j, StateFailed, errors.Wrap(err, errors.ErrCodePoll, "status unavailable"), log)
		return true
	}

	text := status.Status
	p.display.ShowStatus(text, status.Logs)
	p.display.ShowProgress(p.estimate(text))
	log.Debug("status observed", "status", text)

	if !IsTerminalStatus(text) {
		return false
	}

	if IsFailure(text) {
		p.finish(j, StateFailed, errors.New(errors.ErrCodeJobFailed, text), log)
		return true
	}

	// The job stays observing while its story renders, so a new Start
	// cannot clear the container until these cards are in.
	j.cancel()
	var cause error
	if _, err := p.renderer.Render(j.renderCtx); err != nil {
		log.Error("failed to render story", "error", err)
		p.display.ShowStatus(storyUnavailableText, nil)
		cause = errors.Wrap(err, errors.ErrCodeStoryUnavailable, "story fetch failed")
	}
	p.finish(j, StateComplete, cause, log)
	return true
}

// finish stops the recurring task before moving the state, so no further
// tick can act on this job.
func (p *Poller) finish(j *job, to State, cause error, log *logger.Logger) {
	j.cancel()

	if !j.machine.advance(j.seq, StateObserving, to) {
		log.Warn("terminal transition rejected", "to", to)
		return
	}
	j.result = to
	j.err = cause

	p.display.ShowState(to)
	p.display.SetControlEnabled(true)
	log.Info("job finished", "state", to, "level", j.level)
}

// abandon records an observation that ended without a terminal status.
func (p *Poller) abandon(j *job, log *logger.Logger) {
	j.cancel()
	j.result = j.machine.current()
	if j.err == nil {
		j.err = context.Canceled
	}
	log.Info("observation cancelled", "state", j.result)
}
