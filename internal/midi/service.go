package midi

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Options configures a Service
type Options struct {
	Family      string
	Qualifiers  []string
	DAWMarker   string
	Initializer InitializerOptions
	RetryDelay  time.Duration
}

// Service is the host's handle on the controller link. Events flow out through
// NextEvent, commands flow in through Send. Neither side ever sees a connection error;
// failures show up as a Disconnected event and the absence of Connected.
type Service struct {
	events     *Queue[Event]
	commands   *Queue[Command]
	supervisor *Supervisor
	done       chan struct{}
	err        error
}

// Start launches the supervisor goroutine. It runs until ctx is cancelled.
func Start(ctx context.Context, drv Driver, opts Options, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	matcher := NewMatcher(opts.Family, opts.Qualifiers, opts.DAWMarker, log.Named("match"))
	initializer := NewInitializer(drv, matcher, opts.Initializer, log.Named("init"))
	return startWith(ctx, initializer, opts.RetryDelay, log)
}

func startWith(ctx context.Context, connector Connector, retry time.Duration, log *zap.Logger) *Service {
	s := &Service{
		events:   NewQueue[Event](),
		commands: NewQueue[Command](),
		done:     make(chan struct{}),
	}
	s.supervisor = NewSupervisor(connector, s.events, s.commands, retry, log.Named("supervisor"))

	go func() {
		defer close(s.done)
		s.err = s.supervisor.Run(ctx)
	}()
	return s
}

// Send queues cmd for the controller. Commands sent while disconnected wait
// for the next session. It only fails after CloseCommands.
func (s *Service) Send(cmd Command) error {
	return s.commands.Push(cmd)
}

// NextEvent blocks until the controller reports something or ctx is done
func (s *Service) NextEvent(ctx context.Context) (Event, error) {
	return s.events.Recv(ctx)
}

// CloseEvents tells the service the host stopped receiving. Input events are
// dropped from then on, and since Connected can no longer be delivered every
// session ends right after its handshake.
func (s *Service) CloseEvents() {
	s.events.Close()
}

// CloseCommands stops accepting commands. The active session ends once the
// queue is drained, and every later session ends right after its handshake.
func (s *Service) CloseCommands() {
	s.commands.Close()
}

// Pending returns the number of commands waiting for a session
func (s *Service) Pending() int {
	return s.commands.Len()
}

// State returns the current connection state
func (s *Service) State() State {
	return s.supervisor.State()
}

// Wait blocks until the supervisor goroutine has exited
func (s *Service) Wait() error {
	<-s.done
	return s.err
}
