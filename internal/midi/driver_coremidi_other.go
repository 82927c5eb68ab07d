//go:build !darwin

package midi

import "fmt"

// CoreMIDIDriver is only available on darwin
type CoreMIDIDriver struct{}

// NewCoreMIDIDriver always fails outside darwin
func NewCoreMIDIDriver(clientName string) (*CoreMIDIDriver, error) {
	return nil, fmt.Errorf("%w: coremidi requires darwin", ErrUnsupportedBackend)
}

func (d *CoreMIDIDriver) Ins() ([]InPort, error)   { return nil, ErrUnsupportedBackend }
func (d *CoreMIDIDriver) Outs() ([]OutPort, error) { return nil, ErrUnsupportedBackend }
func (d *CoreMIDIDriver) Close() error             { return nil }
