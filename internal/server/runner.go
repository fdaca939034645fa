package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Mazurkevichkv/k-means/internal/logger"
	"github.com/Mazurkevichkv/k-means/internal/session"
	"golang.org/x/time/rate"
)

// Command mutates the session on the runner goroutine.
type Command func(s *session.Session) error

type request struct {
	cmd   Command
	reply chan error
}

// Runner owns a session and drives it at a fixed frame rate. All mutation happens
// on the goroutine executing Run; other goroutines submit commands with Do and
// read state through Snapshot.
type Runner struct {
	session  *session.Session
	limiter  *rate.Limiter
	commands chan request
	log      *slog.Logger

	mu       sync.RWMutex
	snapshot session.Snapshot
}

// NewRunner creates a runner advancing s fps times per second.
func NewRunner(s *session.Session, fps int) *Runner {
	if fps < 1 {
		fps = 1
	}
	r := &Runner{
		session:  s,
		limiter:  rate.NewLimiter(rate.Limit(fps), 1),
		commands: make(chan request),
		log:      logger.Get(),
	}
	r.publish()
	return r
}

// Run drives frames until ctx is done. Commands are served between frames
// without waiting for the next tick.
func (r *Runner) Run(ctx context.Context) error {
	r.log.Info("Frame loop started", "session", r.session.ID(), "fps", float64(r.limiter.Limit()))
	defer r.log.Info("Frame loop stopped", "session", r.session.ID())

	for {
		timer := time.NewTimer(r.limiter.Reserve().Delay())
		if !r.await(ctx, timer) {
			return nil
		}
		r.session.Frame()
		r.publish()
	}
}

// await serves commands until the frame timer fires. It reports false once ctx is done.
func (r *Runner) await(ctx context.Context, timer *time.Timer) bool {
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case req := <-r.commands:
			req.reply <- req.cmd(r.session)
			r.publish()
		case <-timer.C:
			return true
		}
	}
}

// Do runs cmd on the runner goroutine and returns its error.
func (r *Runner) Do(ctx context.Context, cmd Command) error {
	req := request{cmd: cmd, reply: make(chan error, 1)}
	select {
	case r.commands <- req:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the state published after the latest frame or command.
func (r *Runner) Snapshot() session.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

func (r *Runner) publish() {
	snap := r.session.Snapshot()
	r.mu.Lock()
	r.snapshot = snap
	r.mu.Unlock()
}

// Next triggers a clustering step.
func (r *Runner) Next(ctx context.Context) error {
	return r.Do(ctx, func(s *session.Session) error { return s.Next() })
}

// Restart bootstraps a new scene.
func (r *Runner) Restart(ctx context.Context) error {
	return r.Do(ctx, func(s *session.Session) error {
		s.Restart()
		return nil
	})
}

// SetAuto switches automatic mode.
func (r *Runner) SetAuto(ctx context.Context, auto bool) error {
	return r.Do(ctx, func(s *session.Session) error {
		s.SetAuto(auto)
		return nil
	})
}

// SetSpeed changes the animation speed.
func (r *Runner) SetSpeed(ctx context.Context, speed float64) error {
	return r.Do(ctx, func(s *session.Session) error { return s.SetSpeed(speed) })
}

// IsConflict reports whether err is a trigger that the session state refused.
func IsConflict(err error) bool {
	return errors.Is(err, session.ErrAnimating) || errors.Is(err, session.ErrExhausted)
}
