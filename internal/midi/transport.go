package midi

import "errors"

var (
	// ErrNameUnavailable is returned by Port.Name while the platform has not
	// yet populated the port's metadata
	ErrNameUnavailable = errors.New("port name unavailable")

	// ErrUnsupportedBackend is returned when a backend is not available on this platform
	ErrUnsupportedBackend = errors.New("unsupported MIDI backend")
)

// Port is an enumerated MIDI port
type Port interface {
	// Name returns the human-readable port name or ErrNameUnavailable
	Name() (string, error)

	// Close releases the port. Closing a port that was never opened is a no-op.
	Close() error
}

// InPort is a port the controller sends on
type InPort interface {
	Port

	// Listen opens the port and calls fn for every received message.
	// fn runs on a goroutine owned by the backend.
	Listen(fn func(data []byte)) error
}

// OutPort is a port the controller listens on
type OutPort interface {
	Port

	// Open prepares the port for Send
	Open() error

	// Send writes one raw message
	Send(data []byte) error
}

// Driver enumerates the platform's MIDI ports.
// Every call re-enumerates, so names that were unavailable may appear later.
type Driver interface {
	Ins() ([]InPort, error)
	Outs() ([]OutPort, error)
}
