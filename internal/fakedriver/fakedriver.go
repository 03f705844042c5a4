// Package fakedriver is an in-memory stand-in for the teVirtualMIDI library.
package fakedriver

import (
	"errors"
	"fmt"
	"sync"
	"syscall"

	"github.com/shaban/virtualmidi/tevm"
)

// ErrUnknownPort is returned for names or handles the fake never created.
var ErrUnknownPort = errors.New("fakedriver: unknown port")

type port struct {
	cfg  tevm.PortConfig
	recv tevm.ReceiveFunc
	sent [][]byte
}

// Driver records every call and lets tests inject inbound data.
type Driver struct {
	mu       sync.Mutex
	next     tevm.Handle
	open     map[tevm.Handle]*port
	byName   map[string]tevm.Handle
	created  map[string]int
	closed   []tevm.Handle
	failName map[string]error
	sendErr  error
}

func New() *Driver {
	return &Driver{
		open:     make(map[tevm.Handle]*port),
		byName:   make(map[string]tevm.Handle),
		created:  make(map[string]int),
		failName: make(map[string]error),
	}
}

// CreatePort mimics the vendor create call. Creating a name that is still
// open fails the way the real driver does.
func (d *Driver) CreatePort(cfg tevm.PortConfig, recv tevm.ReceiveFunc) (tevm.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err, ok := d.failName[cfg.Name]; ok {
		return 0, &tevm.CreateError{Name: cfg.Name, Err: err}
	}
	if _, busy := d.byName[cfg.Name]; busy {
		return 0, &tevm.CreateError{Name: cfg.Name, Err: syscall.Errno(183)}
	}
	d.next++
	d.open[d.next] = &port{cfg: cfg, recv: recv}
	d.byName[cfg.Name] = d.next
	d.created[cfg.Name]++
	return d.next, nil
}

func (d *Driver) ClosePort(h tevm.Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.open[h]
	if !ok {
		return fmt.Errorf("%w: handle %d", ErrUnknownPort, h)
	}
	delete(d.open, h)
	delete(d.byName, p.cfg.Name)
	d.closed = append(d.closed, h)
	return nil
}

func (d *Driver) SendData(h tevm.Handle, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(data) == 0 {
		return tevm.ErrEmptyMessage
	}
	p, ok := d.open[h]
	if !ok {
		return fmt.Errorf("%w: handle %d", ErrUnknownPort, h)
	}
	if d.sendErr != nil {
		return d.sendErr
	}
	p.sent = append(p.sent, append([]byte(nil), data...))
	return nil
}

// FailCreate makes every create of name fail with err until cleared with a
// nil err.
func (d *Driver) FailCreate(name string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.failName, name)
		return
	}
	d.failName[name] = err
}

// FailSend makes every send fail with err; nil restores success.
func (d *Driver) FailSend(err error) {
	d.mu.Lock()
	d.sendErr = err
	d.mu.Unlock()
}

// Inject delivers data to the receive callback of the open port called name,
// as the driver thread would.
func (d *Driver) Inject(name string, data []byte) error {
	d.mu.Lock()
	h, ok := d.byName[name]
	var recv tevm.ReceiveFunc
	if ok {
		recv = d.open[h].recv
	}
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPort, name)
	}
	if recv != nil {
		recv(append([]byte(nil), data...))
	}
	return nil
}

// Created returns how many vendor ports were created for name.
func (d *Driver) Created(name string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.created[name]
}

// Handle returns the open handle for name.
func (d *Driver) Handle(name string) (tevm.Handle, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	h, ok := d.byName[name]
	return h, ok
}

// Config returns the configuration an open port was created with.
func (d *Driver) Config(name string) (tevm.PortConfig, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	h, ok := d.byName[name]
	if !ok {
		return tevm.PortConfig{}, false
	}
	return d.open[h].cfg, true
}

// Sent returns the chunks sent to the open port called name.
func (d *Driver) Sent(name string) [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	h, ok := d.byName[name]
	if !ok {
		return nil
	}
	return append([][]byte(nil), d.open[h].sent...)
}

// Closed lists closed handles in close order.
func (d *Driver) Closed() []tevm.Handle {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]tevm.Handle(nil), d.closed...)
}

// OpenPorts returns the number of currently open vendor ports.
func (d *Driver) OpenPorts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.open)
}
