package midi

import (
	"context"
	"errors"
	"sync"
	"time"
)

var errFake = errors.New("fake failure")

type fakePort struct {
	name    string
	nameErr error

	mu     sync.Mutex
	closed bool
}

func (p *fakePort) Name() (string, error) {
	if p.nameErr != nil {
		return "", p.nameErr
	}
	return p.name, nil
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePort) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

type fakeIn struct {
	fakePort
	listenErr error
	listener  func([]byte)
}

func newIn(name string) *fakeIn { return &fakeIn{fakePort: fakePort{name: name}} }

func zombieIn() *fakeIn { return &fakeIn{fakePort: fakePort{nameErr: ErrNameUnavailable}} }

func (p *fakeIn) Listen(fn func([]byte)) error {
	if p.listenErr != nil {
		return p.listenErr
	}
	p.listener = fn
	return nil
}

func (p *fakeIn) emit(data ...byte) {
	p.listener(data)
}

type fakeOut struct {
	fakePort
	openErr error
	// failAt makes the n-th send (1-based) fail. Zero never fails.
	failAt int
	opened bool
	sent   [][]byte
}

func newOut(name string) *fakeOut { return &fakeOut{fakePort: fakePort{name: name}} }

func zombieOut() *fakeOut { return &fakeOut{fakePort: fakePort{nameErr: ErrNameUnavailable}} }

func (p *fakeOut) Open() error {
	if p.openErr != nil {
		return p.openErr
	}
	p.opened = true
	return nil
}

func (p *fakeOut) Send(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failAt > 0 && len(p.sent)+1 == p.failAt {
		return errFake
	}
	p.sent = append(p.sent, append([]byte(nil), data...))
	return nil
}

func (p *fakeOut) messages() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.sent...)
}

// fakeDriver returns one scripted enumeration per call, repeating the last one
type fakeDriver struct {
	ins  [][]InPort
	outs [][]OutPort
	err  error

	inCalls  int
	outCalls int
}

func (d *fakeDriver) Ins() ([]InPort, error) {
	if d.err != nil {
		return nil, d.err
	}
	i := min(d.inCalls, len(d.ins)-1)
	d.inCalls++
	return d.ins[i], nil
}

func (d *fakeDriver) Outs() ([]OutPort, error) {
	if d.err != nil {
		return nil, d.err
	}
	i := min(d.outCalls, len(d.outs)-1)
	d.outCalls++
	return d.outs[i], nil
}

// sleepRecorder replaces real delays and records them
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
	hook   func()
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	hook := r.hook
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	return ctx.Err()
}
