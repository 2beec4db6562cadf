package generation

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ChaseRain/storycards/internal/infra/config"
	"github.com/ChaseRain/storycards/internal/infra/logger"
	"github.com/ChaseRain/storycards/internal/service/backend"
	"github.com/ChaseRain/storycards/pkg/errors"
)

type Starter interface {
	StartGeneration(ctx context.Context, level string) (*backend.StartAck, error)
}

// Controller starts generation jobs, at most one at a time, and hands them
// to the Poller.
type Controller struct {
	starter Starter
	poller  *Poller
	display Display
	machine *machine
	logger  *logger.Logger

	// lifetime bounds every job; Close cancels it.
	lifetime context.Context
	shutdown context.CancelFunc

	mu      sync.Mutex
	level   string
	current *job
}

func NewController(starter Starter, poller *Poller, display Display, defaultLevel string, log *logger.Logger) *Controller {
	lifetime, shutdown := context.WithCancel(context.Background())
	return &Controller{
		starter:  starter,
		poller:   poller,
		display:  display,
		machine:  newMachine(),
		logger:   log,
		lifetime: lifetime,
		shutdown: shutdown,
		level:    defaultLevel,
	}
}

// SetLevel selects the level used by the next Start.
func (c *Controller) SetLevel(level string) error {
	if err := validateLevel(level); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.level = level
	return nil
}

func validateLevel(level string) error {
	if !config.ValidLevel(level) {
		return errors.New(errors.ErrCodeInvalidLevel,
			fmt.Sprintf("level must be one of %s", strings.Join(config.Levels, ", ")))
	}
	return nil
}

func (c *Controller) Level() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level
}

func (c *Controller) State() State {
	return c.machine.current()
}

// JobID returns the ID of the most recent job that reached observation.
func (c *Controller) JobID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return ""
	}
	return c.current.id
}

// Start begins a job at the selected level unless one is already
// requesting or observing, in which case it returns false and sends
// nothing. On a failed start request the session returns to idle and the
// error is returned with started=true.
func (c *Controller) Start(ctx context.Context) (bool, error) {
	return c.StartLevel(ctx, "")
}

// StartLevel is Start with a level for this job. A non-empty level becomes
// the selected level only when the job is actually started.
func (c *Controller) StartLevel(ctx context.Context, level string) (bool, error) {
	if c.lifetime.Err() != nil {
		return false, errors.New(errors.ErrCodeInternal, "controller closed")
	}
	if level != "" {
		if err := validateLevel(level); err != nil {
			return false, err
		}
	}

	seq, ok := c.machine.begin()
	if !ok {
		c.logger.Debug("start ignored, job already active", "state", c.machine.current())
		return false, nil
	}

	c.mu.Lock()
	if level != "" {
		c.level = level
	}
	level = c.level
	c.mu.Unlock()

	c.display.SetControlEnabled(false)
	c.display.ClearStory()
	c.display.ShowState(StateRequesting)

	c.logger.Info("starting generation", "level", level, "seq", seq)

	ack, err := c.starter.StartGeneration(ctx, level)
	if err != nil {
		c.machine.advance(seq, StateRequesting, StateIdle)
		c.display.ShowState(StateIdle)
		c.display.ShowStatus(startFailedText, nil)
		c.display.SetControlEnabled(true)
		c.logger.Error("start request failed", "level", level, "seq", seq, "error", err)
		if errors.CodeOf(err) != errors.ErrCodeStartRequest {
			err = errors.Wrap(err, errors.ErrCodeStartRequest, "start request failed")
		}
		return true, err
	}
	if ack.Busy {
		c.logger.Warn("backend busy, observing its running job", "seq", seq)
	}

	if !c.machine.advance(seq, StateRequesting, StateObserving) {
		return true, errors.New(errors.ErrCodeInternal, "session state changed during start")
	}

	pollCtx, cancel := context.WithCancel(c.lifetime)
	j := &job{
		id:        uuid.NewString(),
		seq:       seq,
		level:     level,
		machine:   c.machine,
		ctx:       pollCtx,
		cancel:    cancel,
		renderCtx: c.lifetime,
		done:      make(chan struct{}),
		result:    StateObserving,
	}

	c.mu.Lock()
	c.current = j
	c.mu.Unlock()

	c.display.ShowState(StateObserving)
	c.logger.Info("generation acknowledged", "job_id", j.id, "seq", seq)

	go c.poller.observe(j)
	return true, nil
}

// Wait blocks until the current job stops being observed and returns its
// final state. The error carries the failure, if any.
func (c *Controller) Wait(ctx context.Context) (State, error) {
	c.mu.Lock()
	j := c.current
	c.mu.Unlock()

	if j == nil {
		return c.machine.current(), nil
	}

	select {
	case <-j.done:
		return j.result, j.err
	case <-ctx.Done():
		return c.machine.current(), ctx.Err()
	}
}

// Close cancels any active observation. It is safe to call more than once.
func (c *Controller) Close() {
	c.shutdown()
}
