package midi

import (
	"fmt"
	"sync"
)

// Backend names accepted by OpenBackend
const (
	BackendRtmidi   = "rtmidi"
	BackendCoreMIDI = "coremidi"
)

type closingDriver interface {
	Driver
	Close() error
}

// LazyDriver opens the platform backend on first use and retries opening it on
// every enumeration until it succeeds, so a backend that fails to initialise
// is a retryable connection failure rather than a fatal one.
type LazyDriver struct {
	mu   sync.Mutex
	open func() (closingDriver, error)
	drv  closingDriver
}

// OpenBackend returns a lazily opened driver for the named backend
func OpenBackend(backend, clientName string) (*LazyDriver, error) {
	switch backend {
	case "", BackendRtmidi:
		return &LazyDriver{open: func() (closingDriver, error) {
			return NewRtmidiDriver()
		}}, nil
	case BackendCoreMIDI:
		return &LazyDriver{open: func() (closingDriver, error) {
			return NewCoreMIDIDriver(clientName)
		}}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, backend)
	}
}

func (d *LazyDriver) get() (Driver, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.drv == nil {
		drv, err := d.open()
		if err != nil {
			return nil, err
		}
		d.drv = drv
	}
	return d.drv, nil
}

func (d *LazyDriver) Ins() ([]InPort, error) {
	drv, err := d.get()
	if err != nil {
		return nil, err
	}
	return drv.Ins()
}

func (d *LazyDriver) Outs() ([]OutPort, error) {
	drv, err := d.get()
	if err != nil {
		return nil, err
	}
	return drv.Outs()
}

// Close shuts the backend down if it was opened
func (d *LazyDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.drv == nil {
		return nil
	}
	err := d.drv.Close()
	d.drv = nil
	return err
}
