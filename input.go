package virtualmidi

import (
	"fmt"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Receiver handles messages arriving at an Input. msg is shared between all
// inputs of the port and must not be modified.
type Receiver interface {
	HandleMessage(in *Input, msg midi.Message)
}

// ReceiverFunc adapts a function to Receiver.
type ReceiverFunc func(in *Input, msg midi.Message)

func (f ReceiverFunc) HandleMessage(in *Input, msg midi.Message) { f(in, msg) }

// Input receives what other applications send to a virtual port.
//
// An Input delivers only while started. Start and Stop toggle delivery for
// the Receiver given at bind time; Listen starts the input as well.
type Input struct {
	port   *Port
	recv   Receiver
	number int

	mu      sync.Mutex
	started bool
	closed  bool
	listen  func(msg []byte, milliseconds int32)
	accept  func(midi.Message) bool
	since   time.Time
}

var _ drivers.In = (*Input)(nil)

// Port returns the port the input is bound to.
func (in *Input) Port() *Port { return in.port }

// Start enables delivery.
func (in *Input) Start() {
	in.mu.Lock()
	if !in.closed {
		in.started = true
	}
	in.mu.Unlock()
}

// Stop suspends delivery. Messages arriving while stopped are discarded.
func (in *Input) Stop() {
	in.mu.Lock()
	in.started = false
	in.mu.Unlock()
}

// Started reports whether the input is delivering.
func (in *Input) Started() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.started
}

// Listen implements drivers.In. onMsg is called for every accepted message
// with the milliseconds elapsed since Listen. The returned function stops
// listening and delivery.
func (in *Input) Listen(onMsg func(msg []byte, milliseconds int32), config drivers.ListenConfig) (func(), error) {
	if onMsg == nil {
		return nil, fmt.Errorf("virtualmidi: nil listener for %q", in.port.Name())
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return nil, ErrClosed
	}
	if in.listen != nil {
		return nil, ErrAlreadyListening
	}
	in.listen = onMsg
	in.accept = listenFilter(config)
	in.since = time.Now()
	in.started = true

	var once sync.Once
	stop := func() {
		once.Do(func() {
			in.mu.Lock()
			in.listen = nil
			in.accept = nil
			in.started = false
			in.mu.Unlock()
		})
	}
	return stop, nil
}

// listenFilter drops the message classes a gomidi ListenConfig opts out of.
func listenFilter(cfg drivers.ListenConfig) func(midi.Message) bool {
	return func(msg midi.Message) bool {
		if len(msg) == 0 {
			return false
		}
		switch msg[0] {
		case 0xF0:
			return cfg.SysEx
		case 0xFE:
			return cfg.ActiveSense
		case 0xF1:
			return cfg.TimeCode
		}
		return true
	}
}

// deliver hands msg to the receiver and listener and reports whether
// anything was called.
func (in *Input) deliver(msg midi.Message) bool {
	in.mu.Lock()
	if in.closed || !in.started {
		in.mu.Unlock()
		return false
	}
	recv, listen, accept, since := in.recv, in.listen, in.accept, in.since
	in.mu.Unlock()

	called := false
	if recv != nil {
		in.guard(func() { recv.HandleMessage(in, msg) })
		called = true
	}
	if listen != nil && (accept == nil || accept(msg)) {
		ms := int32(time.Since(since).Milliseconds())
		in.guard(func() { listen(msg, ms) })
		called = true
	}
	return called
}

// guard keeps a panicking receiver from killing the port's delivery
// goroutine.
func (in *Input) guard(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			in.port.reg.errs.HandleError(fmt.Errorf("virtualmidi: receiver on %q panicked: %v", in.port.Name(), r))
		}
	}()
	fn()
}

func (in *Input) markClosed() {
	in.mu.Lock()
	in.closed = true
	in.started = false
	in.listen = nil
	in.mu.Unlock()
}

// Open implements drivers.Port. Inputs are open from bind until Close.
func (in *Input) Open() error {
	if !in.IsOpen() {
		return ErrClosed
	}
	return nil
}

// Close detaches the input. Closing the last input or output of a port
// closes the driver port. Close may be called from a Receiver.
func (in *Input) Close() error {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return nil
	}
	in.closed = true
	in.started = false
	in.listen = nil
	in.mu.Unlock()
	in.port.reg.detachInput(in)
	return nil
}

func (in *Input) IsOpen() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return !in.closed
}

// Number returns the registry-wide bind sequence number of the input.
func (in *Input) Number() int { return in.number }

func (in *Input) String() string { return in.port.Name() }

// Underlying returns the *Port.
func (in *Input) Underlying() interface{} { return in.port }
