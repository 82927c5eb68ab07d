package midi

import (
	"errors"
	"fmt"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

var errPortNotOpen = errors.New("port not open")

// GomidiDriver adapts a gomidi driver to Driver
type GomidiDriver struct {
	drv drivers.Driver
}

// NewRtmidiDriver opens the rtmidi backend
func NewRtmidiDriver() (*GomidiDriver, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("failed to open rtmidi driver: %w", err)
	}
	return WrapDriver(drv), nil
}

// WrapDriver adapts any gomidi driver
func WrapDriver(drv drivers.Driver) *GomidiDriver {
	return &GomidiDriver{drv: drv}
}

func (d *GomidiDriver) Ins() ([]InPort, error) {
	ins, err := d.drv.Ins()
	if err != nil {
		return nil, err
	}
	ports := make([]InPort, 0, len(ins))
	for _, in := range ins {
		ports = append(ports, &gomidiIn{in: in})
	}
	return ports, nil
}

func (d *GomidiDriver) Outs() ([]OutPort, error) {
	outs, err := d.drv.Outs()
	if err != nil {
		return nil, err
	}
	ports := make([]OutPort, 0, len(outs))
	for _, out := range outs {
		ports = append(ports, &gomidiOut{out: out})
	}
	return ports, nil
}

// Close shuts the underlying driver down
func (d *GomidiDriver) Close() error {
	return d.drv.Close()
}

// rtmidi reports an empty name when the lookup fails
func gomidiPortName(p drivers.Port) (string, error) {
	name := p.String()
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: port %d", ErrNameUnavailable, p.Number())
	}
	return name, nil
}

type gomidiIn struct {
	in   drivers.In
	stop func()
}

func (p *gomidiIn) Name() (string, error) {
	return gomidiPortName(p.in)
}

func (p *gomidiIn) Listen(fn func(data []byte)) error {
	stop, err := midi.ListenTo(p.in, func(msg midi.Message, timestampms int32) {
		fn(msg.Bytes())
	})
	if err != nil {
		return fmt.Errorf("failed to start listening: %w", err)
	}
	p.stop = stop
	return nil
}

func (p *gomidiIn) Close() error {
	if p.stop != nil {
		p.stop()
		p.stop = nil
	}
	if !p.in.IsOpen() {
		return nil
	}
	return p.in.Close()
}

type gomidiOut struct {
	out  drivers.Out
	send func(midi.Message) error
}

func (p *gomidiOut) Name() (string, error) {
	return gomidiPortName(p.out)
}

func (p *gomidiOut) Open() error {
	send, err := midi.SendTo(p.out)
	if err != nil {
		return fmt.Errorf("failed to create sender: %w", err)
	}
	p.send = send
	return nil
}

func (p *gomidiOut) Send(data []byte) error {
	if p.send == nil {
		return errPortNotOpen
	}
	return p.send(midi.Message(data))
}

func (p *gomidiOut) Close() error {
	p.send = nil
	if !p.out.IsOpen() {
		return nil
	}
	return p.out.Close()
}
