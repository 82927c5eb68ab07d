//go:build darwin

package midi

import (
	"fmt"
	"strings"

	"github.com/youpy/go-coremidi"
)

// CoreMIDIDriver talks to CoreMIDI directly.
// CoreMIDI fills in endpoint names asynchronously, so a freshly plugged
// Launchpad may enumerate with an empty name for a while.
type CoreMIDIDriver struct {
	client coremidi.Client
}

// NewCoreMIDIDriver creates a CoreMIDI client with the given name
func NewCoreMIDIDriver(clientName string) (*CoreMIDIDriver, error) {
	client, err := coremidi.NewClient(clientName)
	if err != nil {
		return nil, fmt.Errorf("failed to create CoreMIDI client: %w", err)
	}
	return &CoreMIDIDriver{client: client}, nil
}

func (d *CoreMIDIDriver) Ins() ([]InPort, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI sources: %w", err)
	}
	ports := make([]InPort, 0, len(sources))
	for _, source := range sources {
		ports = append(ports, &coreIn{client: d.client, source: source})
	}
	return ports, nil
}

func (d *CoreMIDIDriver) Outs() ([]OutPort, error) {
	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI destinations: %w", err)
	}
	ports := make([]OutPort, 0, len(destinations))
	for _, destination := range destinations {
		ports = append(ports, &coreOut{client: d.client, destination: destination})
	}
	return ports, nil
}

// Close is a no-op; the CoreMIDI client lives as long as the process
func (d *CoreMIDIDriver) Close() error {
	return nil
}

func coreName(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", ErrNameUnavailable
	}
	return name, nil
}

type portConnection interface {
	Disconnect()
}

type coreIn struct {
	client coremidi.Client
	source coremidi.Source
	conn   portConnection
}

func (p *coreIn) Name() (string, error) {
	return coreName(p.source.Name())
}

func (p *coreIn) Listen(fn func(data []byte)) error {
	port, err := coremidi.NewInputPort(p.client, "launchbridge-in", func(_ coremidi.Source, packet coremidi.Packet) {
		// a packet may carry several messages back to back
		for _, msg := range SplitMessages(packet.Data) {
			fn(msg)
		}
	})
	if err != nil {
		return fmt.Errorf("error creating input port: %w", err)
	}
	conn, err := port.Connect(p.source)
	if err != nil {
		return fmt.Errorf("error connecting to MIDI source: %w", err)
	}
	p.conn = conn
	return nil
}

func (p *coreIn) Close() error {
	if p.conn != nil {
		p.conn.Disconnect()
		p.conn = nil
	}
	return nil
}

type coreOut struct {
	client      coremidi.Client
	destination coremidi.Destination
	port        *coremidi.OutputPort
}

func (p *coreOut) Name() (string, error) {
	return coreName(p.destination.Name())
}

func (p *coreOut) Open() error {
	port, err := coremidi.NewOutputPort(p.client, "launchbridge-out")
	if err != nil {
		return fmt.Errorf("error creating output port: %w", err)
	}
	p.port = &port
	return nil
}

func (p *coreOut) Send(data []byte) error {
	if p.port == nil {
		return errPortNotOpen
	}
	packet := coremidi.NewPacket(data, 0)
	return packet.Send(p.port, &p.destination)
}

func (p *coreOut) Close() error {
	p.port = nil
	return nil
}
