package midi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	// ErrDeviceNotFound means no port pair matched. It is the normal state
	// while the controller is unplugged or still initialising.
	ErrDeviceNotFound = errors.New("launchpad not found")

	// ErrConnect covers backend, enumeration and port open failures
	ErrConnect = errors.New("failed to connect to launchpad")

	// ErrHandshake means the programmer mode message could not be sent
	ErrHandshake = errors.New("failed to enter programmer mode")
)

// Initializer defaults
const (
	DefaultEnumerationAttempts = 3
	DefaultEnumerationPause    = 500 * time.Millisecond
	DefaultSettleDelay         = 100 * time.Millisecond
)

// InitializerOptions tunes device discovery. Zero values use the defaults.
type InitializerOptions struct {
	Attempts    int
	Pause       time.Duration
	SettleDelay time.Duration
}

// Initializer finds the controller, opens its ports and switches it into programmer mode
type Initializer struct {
	drv      Driver
	matcher  Matcher
	attempts int
	pause    time.Duration
	settle   time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	log      *zap.Logger
}

// NewInitializer creates an initializer enumerating ports through drv
func NewInitializer(drv Driver, matcher Matcher, opts InitializerOptions, log *zap.Logger) *Initializer {
	if opts.Attempts < 1 {
		opts.Attempts = DefaultEnumerationAttempts
	}
	if opts.Pause <= 0 {
		opts.Pause = DefaultEnumerationPause
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Initializer{
		drv:      drv,
		matcher:  matcher,
		attempts: opts.Attempts,
		pause:    opts.Pause,
		settle:   opts.SettleDelay,
		sleep:    sleepContext,
		log:      log,
	}
}

type enumeration struct {
	ins  []InPort
	outs []OutPort
	inC  []Candidate
	outC []Candidate
}

func (e enumeration) anyReadable() bool {
	for _, c := range e.inC {
		if c.Err == nil {
			return true
		}
	}
	for _, c := range e.outC {
		if c.Err == nil {
			return true
		}
	}
	return false
}

// enumerate lists ports until at least one name is readable or the attempts run out.
// Some backends report ports before their names have been populated.
func (i *Initializer) enumerate(ctx context.Context) (enumeration, error) {
	var last enumeration
	for attempt := 0; attempt < i.attempts; attempt++ {
		if attempt > 0 {
			if err := i.sleep(ctx, i.pause); err != nil {
				return enumeration{}, err
			}
		}

		ins, err := i.drv.Ins()
		if err != nil {
			return enumeration{}, fmt.Errorf("%w: listing inputs: %v", ErrConnect, err)
		}
		outs, err := i.drv.Outs()
		if err != nil {
			return enumeration{}, fmt.Errorf("%w: listing outputs: %v", ErrConnect, err)
		}

		last = enumeration{ins: ins, outs: outs, inC: Candidates(ins), outC: Candidates(outs)}
		if last.anyReadable() {
			return last, nil
		}
		i.log.Debug("no readable port names yet", zap.Int("attempt", attempt+1))
	}
	return last, nil
}

func (i *Initializer) logPorts(direction string, cands []Candidate) {
	for _, c := range cands {
		if c.Err != nil {
			i.log.Debug("port", zap.String("direction", direction), zap.Int("index", c.Index), zap.Error(c.Err))
			continue
		}
		i.log.Debug("port",
			zap.String("direction", direction),
			zap.Int("index", c.Index),
			zap.String("name", c.Name),
			zap.Int("len", len(c.Name)))
	}
}

// Connect opens a session with the controller. Decoded input events are passed
// to onEvent on the backend's goroutine. When Connect returns, the controller
// is in programmer mode and has had time to settle.
func (i *Initializer) Connect(ctx context.Context, onEvent func(Event)) (*Session, error) {
	enum, err := i.enumerate(ctx)
	if err != nil {
		return nil, err
	}
	i.logPorts("input", enum.inC)
	i.logPorts("output", enum.outC)

	inC, inOK := i.matcher.Match("input", enum.inC)
	outC, outOK := i.matcher.Match("output", enum.outC)
	if !inOK {
		i.log.Info("no valid Launchpad input port (waiting for device to initialize)", zap.Int("ports", len(enum.ins)))
	}
	if !outOK {
		i.log.Info("no valid Launchpad output port (waiting for device to initialize)", zap.Int("ports", len(enum.outs)))
	}
	if !inOK || !outOK {
		return nil, fmt.Errorf("%w in %d inputs and %d outputs", ErrDeviceNotFound, len(enum.ins), len(enum.outs))
	}

	i.log.Info("selected Launchpad ports", zap.String("input", inC.Name), zap.String("output", outC.Name))

	in := enum.ins[inC.Index]
	out := enum.outs[outC.Index]

	if err := in.Listen(func(data []byte) {
		if ev, ok := Decode(data); ok {
			onEvent(ev)
		}
	}); err != nil {
		return nil, fmt.Errorf("%w: opening %q: %v", ErrConnect, inC.Name, err)
	}

	if err := out.Open(); err != nil {
		return nil, multierr.Append(
			fmt.Errorf("%w: opening %q: %v", ErrConnect, outC.Name, err),
			in.Close())
	}

	sess := &Session{
		ID:         uuid.New().String(),
		InputName:  inC.Name,
		OutputName: outC.Name,
		in:         in,
		out:        out,
	}
	sess.log = i.log.With(zap.String("session", sess.ID))

	if err := out.Send(ProgrammerModeMessage().Bytes()); err != nil {
		return nil, multierr.Append(fmt.Errorf("%w: %v", ErrHandshake, err), sess.Close())
	}
	sess.log.Info("Launchpad programmer mode enabled")

	if err := i.sleep(ctx, i.settle); err != nil {
		return nil, multierr.Append(err, sess.Close())
	}
	return sess, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
