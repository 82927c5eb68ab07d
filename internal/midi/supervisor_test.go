package midi

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// scriptedConnector plays back one step per Connect call
type scriptedConnector struct {
	steps []func(ctx context.Context, onEvent func(Event)) (*Session, error)
	calls int
}

func (c *scriptedConnector) Connect(ctx context.Context, onEvent func(Event)) (*Session, error) {
	step := c.steps[c.calls]
	c.calls++
	return step(ctx, onEvent)
}

func notFound(context.Context, func(Event)) (*Session, error) {
	return nil, ErrDeviceNotFound
}

func sessionWith(out *fakeOut) func(context.Context, func(Event)) (*Session, error) {
	return func(context.Context, func(Event)) (*Session, error) {
		return &Session{ID: "test", in: newIn("Launchpad MIDI 1"), out: out, log: zap.NewNop()}, nil
	}
}

func drain(q *Queue[Event]) []Event {
	var events []Event
	for q.Len() > 0 {
		ev, _ := q.Recv(context.Background())
		events = append(events, ev)
	}
	return events
}

func TestSupervisorLifecycle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := newOut("Launchpad MIDI 1")
	out.failAt = 2

	conn := &scriptedConnector{steps: []func(context.Context, func(Event)) (*Session, error){
		notFound,
		sessionWith(out),
		notFound,
		func(context.Context, func(Event)) (*Session, error) {
			cancel()
			return nil, context.Canceled
		},
	}}

	events := NewQueue[Event]()
	commands := NewQueue[Command]()
	require.NoError(t, commands.Push(SetPadColor{Pad: 10, Color: 21}))
	require.NoError(t, commands.Push(SetButtonColor{Control: 91, Color: 5}))

	core, logs := observer.New(zap.InfoLevel)
	s := NewSupervisor(conn, events, commands, 0, zap.New(core))

	var queuedAtSleep []int
	rec := &sleepRecorder{hook: func() { queuedAtSleep = append(queuedAtSleep, events.Len()) }}
	s.sleep = rec.sleep

	require.NoError(t, s.Run(ctx))

	assert.Equal(t, StateStopped, s.State())
	assert.Equal(t, 4, conn.calls)
	assert.Equal(t, []time.Duration{DefaultRetryDelay, DefaultRetryDelay, DefaultRetryDelay}, rec.delays)

	// no Disconnected before the first connection, then one per failure, always before the delay
	assert.Equal(t, []int{0, 2, 3}, queuedAtSleep)
	assert.Equal(t, []Event{Connected{}, Disconnected{}, Disconnected{}}, drain(events))

	assert.Equal(t, [][]byte{{0x90, 10, 21}}, out.messages())
	assert.True(t, out.isClosed(), "a failed session releases its ports")

	assert.Equal(t, 1, logs.FilterMessage("waiting for Launchpad").Len())
	assert.Equal(t, 2, logs.FilterMessage("Launchpad disconnected, retrying").Len())
}

func TestSupervisorCommandsQueueWhileDisconnected(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := newOut("Launchpad MIDI 1")
	conn := &scriptedConnector{steps: []func(context.Context, func(Event)) (*Session, error){
		notFound,
		sessionWith(out),
	}}

	events := NewQueue[Event]()
	commands := NewQueue[Command]()
	s := NewSupervisor(conn, events, commands, time.Second, nil)

	rec := &sleepRecorder{hook: func() {
		// host keeps sending during the outage
		_ = commands.Push(SetPadColor{Pad: 1, Color: 3})
		_ = commands.Push(ClearAll{})
	}}
	s.sleep = rec.sleep

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return len(out.messages()) == 255 }, time.Second, time.Millisecond)
	assert.Equal(t, StateActive, s.State())

	msgs := out.messages()
	assert.Equal(t, []byte{0x90, 1, 3}, msgs[0])
	assert.Equal(t, []byte{0x90, 0, 0}, msgs[1])
	assert.Equal(t, []byte{0xB0, 126, 0}, msgs[254])

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, StateStopped, s.State())
	assert.Equal(t, []Event{Connected{}}, drain(events), "cancelling is not a disconnect")
	assert.Equal(t, []time.Duration{time.Second}, rec.delays)
}

func TestSupervisorClosedCommandsEndSession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := newOut("Launchpad MIDI 1")
	conn := &scriptedConnector{steps: []func(context.Context, func(Event)) (*Session, error){
		sessionWith(out),
		func(context.Context, func(Event)) (*Session, error) {
			cancel()
			return nil, context.Canceled
		},
	}}

	events := NewQueue[Event]()
	commands := NewQueue[Command]()
	require.NoError(t, commands.Push(SetButtonColor{Control: 19, Color: 45}))
	commands.Close()

	s := NewSupervisor(conn, events, commands, 0, nil)
	rec := &sleepRecorder{}
	s.sleep = rec.sleep

	require.NoError(t, s.Run(ctx))
	assert.Equal(t, [][]byte{{0xB0, 19, 45}}, out.messages(), "queued commands drain before the session ends")
	assert.Equal(t, []Event{Connected{}, Disconnected{}}, drain(events))
	assert.Len(t, rec.delays, 1)
}

func TestSupervisorForwardsInput(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := newIn("Launchpad MIDI 1")
	conn := &scriptedConnector{steps: []func(context.Context, func(Event)) (*Session, error){
		func(_ context.Context, onEvent func(Event)) (*Session, error) {
			require.NoError(t, in.Listen(func(data []byte) {
				if ev, ok := Decode(data); ok {
					onEvent(ev)
				}
			}))
			return &Session{ID: "test", in: in, out: newOut("Launchpad MIDI 1"), log: zap.NewNop()}, nil
		},
	}}

	events := NewQueue[Event]()
	s := NewSupervisor(conn, events, NewQueue[Command](), 0, nil)

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	first, err := events.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, Connected{}, first)

	in.emit(0x90, 81, 127)
	in.emit(0x90, 81, 0)
	in.emit(0xB0, 95, 1)

	second, err := events.Recv(ctx)
	require.NoError(t, err)
	third, err := events.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, NoteOn{Pad: 81, Velocity: 127}, second)
	assert.Equal(t, ControlChange{Control: 95, Value: 1}, third)

	cancel()
	require.NoError(t, <-done)
}
