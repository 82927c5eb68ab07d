package midi

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DefaultRetryDelay is the pause between connection attempts
const DefaultRetryDelay = 2 * time.Second

// Connector opens sessions. *Initializer is the production implementation.
type Connector interface {
	Connect(ctx context.Context, onEvent func(Event)) (*Session, error)
}

// Supervisor keeps the controller connected for as long as its context lives.
// Every failure, whatever its cause, leads to a fixed delay and a new attempt.
type Supervisor struct {
	connector Connector
	events    *Queue[Event]
	commands  *Queue[Command]
	retry     time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
	log       *zap.Logger

	state     atomic.Int32
	connected bool
	failures  int
}

// NewSupervisor creates a supervisor. It pushes events onto events and drains commands.
func NewSupervisor(connector Connector, events *Queue[Event], commands *Queue[Command], retry time.Duration, log *zap.Logger) *Supervisor {
	if retry <= 0 {
		retry = DefaultRetryDelay
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Supervisor{
		connector: connector,
		events:    events,
		commands:  commands,
		retry:     retry,
		sleep:     sleepContext,
		log:       log,
	}
}

// State returns the current connection state. Safe to call from any goroutine.
func (s *Supervisor) State() State {
	return State(s.state.Load())
}

func (s *Supervisor) setState(st State) {
	if State(s.state.Swap(int32(st))) != st {
		s.log.Debug("state changed", zap.Stringer("state", st))
	}
}

// Run loops connect, serve, fail, wait until ctx is done, then returns nil.
// A session only ends on error, so cancelling ctx is the only way out.
func (s *Supervisor) Run(ctx context.Context) error {
	defer s.setState(StateStopped)

	for {
		s.setState(StateConnecting)
		err := s.runSession(ctx)
		if ctx.Err() != nil {
			s.log.Info("MIDI service stopped")
			return nil
		}
		s.setState(StateIdle)

		if s.connected {
			// Only a link that was up can go down.
			if perr := s.events.Push(Disconnected{}); perr != nil {
				s.log.Debug("dropping event, host stopped receiving", zap.Stringer("event", Disconnected{}))
			}
		}

		if s.failures == 0 {
			s.log.Info("waiting for Launchpad", zap.Error(err))
		} else {
			s.log.Info("Launchpad disconnected, retrying", zap.Error(err))
		}
		s.failures++

		if err := s.sleep(ctx, s.retry); err != nil {
			s.log.Info("MIDI service stopped")
			return nil
		}
	}
}

func (s *Supervisor) runSession(ctx context.Context) error {
	sess, err := s.connector.Connect(ctx, s.forward)
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			s.log.Debug("error closing session ports", zap.String("session", sess.ID), zap.Error(err))
		}
	}()

	if err := s.events.Push(Connected{}); err != nil {
		return fmt.Errorf("failed to report connection: %w", err)
	}
	s.connected = true
	s.setState(StateActive)
	s.log.Info("Launchpad connected",
		zap.String("session", sess.ID),
		zap.String("input", sess.InputName),
		zap.String("output", sess.OutputName))

	return sess.Run(ctx, s.commands)
}

// forward runs on the backend's listener goroutine
func (s *Supervisor) forward(ev Event) {
	if err := s.events.Push(ev); err != nil {
		s.log.Debug("dropping event, host stopped receiving", zap.Any("event", ev))
	}
}
