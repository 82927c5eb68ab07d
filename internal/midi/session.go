package midi

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	// ErrSend means a message could not be written to the controller
	ErrSend = errors.New("failed to send to launchpad")

	// ErrCommandsClosed means the host closed the command queue
	ErrCommandsClosed = errors.New("command queue closed")
)

// Session is one live connection to the controller, from a successful
// handshake to the first I/O failure. Only the supervisor goroutine uses it.
type Session struct {
	ID         string
	InputName  string
	OutputName string

	in  InPort
	out OutPort
	log *zap.Logger
}

// Dispatch encodes cmd and sends it. A ClearAll burst stops at the first failed send.
// A malformed command returns ErrInvalidCommand without touching the port.
func (s *Session) Dispatch(cmd Command) error {
	msgs, err := Encode(cmd)
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		if err := s.out.Send(msg.Bytes()); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrSend, msg, err)
		}
	}
	return nil
}

// Run applies commands in queue order until a send fails, the queue is closed
// or ctx is done. Malformed commands are logged and skipped. It never returns nil.
func (s *Session) Run(ctx context.Context, commands *Queue[Command]) error {
	for {
		cmd, err := commands.Recv(ctx)
		if errors.Is(err, ErrQueueClosed) {
			return ErrCommandsClosed
		}
		if err != nil {
			return err
		}

		err = s.Dispatch(cmd)
		if errors.Is(err, ErrInvalidCommand) {
			s.log.Warn("dropping malformed command", zap.Any("command", cmd), zap.Error(err))
			continue
		}
		if err != nil {
			return err
		}
		s.log.Debug("dispatched command", zap.Any("command", cmd))
	}
}

// Close releases both ports
func (s *Session) Close() error {
	return multierr.Combine(s.in.Close(), s.out.Close())
}
