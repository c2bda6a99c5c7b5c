// Package scheduler runs the startup commands of one role.
//
// Commands wait in a FIFO queue until the states they require read DONE in the
// coordination store. The daemon is held back until nothing else is queued.
// Run-once commands execute under a store lock so that only one instance of a
// deployment ever runs them. A command that fails with no retries left stops
// the whole run.
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.trai.ch/ignite/internal/core/domain"
	"go.trai.ch/ignite/internal/core/ports"
	"go.trai.ch/zerr"
)

// maxWaitSeconds is the longest pause between readiness checks, used when the queue is empty.
const maxWaitSeconds = 20

// WaitDelay is the pause before a command that is not ready is checked again:
// ceil(20 / (1 + queued)) seconds. It shrinks as less work remains.
func WaitDelay(queued int) time.Duration {
	if queued < 0 {
		queued = 0
	}
	return time.Duration((maxWaitSeconds+queued)/(1+queued)) * time.Second
}

// RetryDelay is the pause before a failed command runs again.
func RetryDelay(queued int, delay time.Duration) time.Duration {
	return min(WaitDelay(queued), delay)
}

// Scheduler executes the commands of a role against the coordination store.
type Scheduler struct {
	store       ports.CoordinationStore
	executor    ports.Executor
	provisioner ports.Provisioner
	tracer      ports.Tracer
	logger      ports.Logger
	layout      domain.Layout
	sleep       ports.SleepFunc
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithSleep replaces the function used for backoff pauses.
func WithSleep(sleep ports.SleepFunc) Option {
	return func(s *Scheduler) {
		s.sleep = sleep
	}
}

// NewScheduler creates a new Scheduler.
func NewScheduler(
	store ports.CoordinationStore,
	executor ports.Executor,
	provisioner ports.Provisioner,
	tracer ports.Tracer,
	logger ports.Logger,
	layout domain.Layout,
	opts ...Option,
) *Scheduler {
	s := &Scheduler{
		store:       store,
		executor:    executor,
		provisioner: provisioner,
		tracer:      tracer,
		logger:      logger,
		layout:      layout,
		sleep:       ports.Sleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type queued struct {
	cmd       *domain.Command
	remaining int
}

// attempt numbers executions from 1.
func (q *queued) attempt() int {
	return q.cmd.Retries - q.remaining + 1
}

// Run executes cmds until every one of them is DONE.
//
// It returns an error matching domain.ErrCommandExhausted when a command fails
// with no retries left; nothing queued after it runs. Store failures and
// cancellation end the run as well.
func (s *Scheduler) Run(ctx context.Context, cmds []domain.Command) error {
	if len(cmds) == 0 {
		return nil
	}
	role := cmds[0].Role

	queue := make([]*queued, 0, len(cmds))
	plan := make([]string, 0, len(cmds))
	for i := range cmds {
		queue = append(queue, &queued{cmd: &cmds[i], remaining: cmds[i].Retries})
		plan = append(plan, cmds[i].ID())
	}
	s.tracer.EmitPlan(ctx, plan)

	provisioned := false
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		q := queue[0]
		queue = queue[1:]
		cmd := q.cmd

		if cmd.Daemon && len(queue) > 0 {
			if err := s.setState(ctx, cmd, domain.StateWaiting); err != nil {
				return err
			}
			queue = append(queue, q)
			continue
		}

		ready, err := s.RequirementsFulfilled(ctx, cmd)
		if err != nil {
			return err
		}
		if !ready {
			if err := s.setState(ctx, cmd, domain.StateWaiting); err != nil {
				return err
			}
			delay := WaitDelay(len(queue))
			s.logger.Debug(cmd.ID() + " is waiting for its requirements, next check in " + delay.String())
			if err := s.pause(ctx, delay); err != nil {
				return err
			}
			queue = append(queue, q)
			continue
		}

		if !provisioned {
			provisioned = true
			if err := s.provisioner.Provision(ctx, role, domain.CollectFiles(cmds)); err != nil {
				return err
			}
		}

		code, err := s.execute(ctx, q)
		if err != nil {
			return err
		}
		if code == 0 {
			continue
		}

		if q.remaining > 0 {
			q.remaining--
			delay := RetryDelay(len(queue), cmd.RetryDelay)
			s.logger.Warn(cmd.ID() + " failed, " + strconv.Itoa(q.remaining+1) + " attempt(s) left")
			if err := s.pause(ctx, delay); err != nil {
				return err
			}
			queue = append(queue, q)
			continue
		}

		return zerr.With(zerr.With(zerr.Wrap(domain.ErrCommandExhausted, cmd.ID()+" failed"), "command", cmd.ID()), "exit_code", code)
	}
	return nil
}

// RequirementsFulfilled reports whether every requirement of cmd reads DONE.
func (s *Scheduler) RequirementsFulfilled(ctx context.Context, cmd *domain.Command) (bool, error) {
	for _, req := range cmd.Requires {
		v, ok, err := s.store.Get(ctx, s.layout.RequirementPath(req))
		if err != nil {
			return false, err
		}
		if !ok || !domain.IsDone(v) {
			return false, nil
		}
	}
	return true, nil
}

// execute runs the command, under the run-once lock when it has one, and
// persists its outcome: DONE, RETRY while attempts remain, ERROR otherwise.
// It returns the exit code; an error means the run must stop.
func (s *Scheduler) execute(ctx context.Context, q *queued) (int, error) {
	cmd := q.cmd
	if !cmd.RunOnce {
		return s.runAndRecord(ctx, q)
	}

	global := s.layout.RegisterPaths(cmd).Global
	done, err := s.isDone(ctx, global)
	if err != nil {
		return 0, err
	}
	if done {
		s.logger.Info("** = Skipping " + cmd.ID() + ", already DONE")
		return 0, s.setState(ctx, cmd, domain.StateDone)
	}

	code := 0
	err = s.store.WithLock(ctx, global, func(ctx context.Context) error {
		done, err := s.isDone(ctx, global)
		if err != nil {
			return err
		}
		if done {
			s.logger.Info("** = Skipping " + cmd.ID() + ", completed by another instance")
			return s.setState(ctx, cmd, domain.StateDone)
		}
		code, err = s.runAndRecord(ctx, q)
		return err
	})
	return code, err
}

func (s *Scheduler) runAndRecord(ctx context.Context, q *queued) (int, error) {
	code, err := s.run(ctx, q)
	if err != nil {
		return code, err
	}
	state := domain.StateDone
	switch {
	case code == 0:
	case q.remaining > 0:
		state = domain.StateRetry
	default:
		state = domain.StateError
	}
	return code, s.setState(ctx, q.cmd, state)
}

// run executes the command body once. Failures to start the process count as a
// failed attempt; only cancellation is returned as an error.
func (s *Scheduler) run(ctx context.Context, q *queued) (int, error) {
	cmd := q.cmd
	if err := s.setState(ctx, cmd, domain.StateRunning); err != nil {
		return 0, err
	}

	s.logger.Info("** > Running " + cmd.ID())
	spanCtx, span := s.tracer.Start(ctx, cmd.ID(),
		ports.WithAttribute("ignite.role", cmd.Role),
		ports.WithAttribute("ignite.command", cmd.Name),
		ports.WithAttribute("ignite.attempt", q.attempt()),
	)
	code, err := s.executor.Run(spanCtx, cmd)
	span.SetAttribute("ignite.exit_code", code)
	switch {
	case err != nil:
		span.RecordError(err)
	case code != 0:
		span.RecordError(zerr.With(zerr.Wrap(domain.ErrCommandExecutionFailed, cmd.ID()), "exit_code", code))
	}
	span.End()
	s.logger.Info(fmt.Sprintf("** < Complete %s result: %d", cmd.ID(), code))

	if err != nil {
		if ctx.Err() != nil {
			return code, err
		}
		s.logger.Error(err)
		if code == 0 {
			code = -1
		}
	}
	return code, nil
}

func (s *Scheduler) isDone(ctx context.Context, path string) (bool, error) {
	v, ok, err := s.store.Get(ctx, path)
	if err != nil {
		return false, err
	}
	return ok && domain.IsDone(v), nil
}

// setState writes state to both register paths of cmd. A path already DONE
// is left as is, even when a peer marks it DONE concurrently.
func (s *Scheduler) setState(ctx context.Context, cmd *domain.Command, state domain.TaskState) error {
	paths := s.layout.RegisterPaths(cmd)
	for _, p := range []string{paths.Global, paths.Local} {
		err := s.store.Update(ctx, p, func(current []byte, exists bool) ([]byte, bool) {
			if exists && domain.IsDone(current) {
				return nil, false
			}
			return []byte(state), true
		})
		if err != nil {
			return err
		}
	}
	s.logger.Debug(cmd.ID() + " is " + state.String())
	return nil
}

func (s *Scheduler) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	return s.sleep(ctx, d)
}
