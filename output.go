package virtualmidi

import (
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Output sends data that other applications read from a virtual port.
type Output struct {
	port   *Port
	number int

	mu     sync.Mutex
	closed bool
}

var _ drivers.Out = (*Output)(nil)

// Port returns the port the output is bound to.
func (out *Output) Port() *Port { return out.port }

// Send forwards raw bytes to the driver. Driver failures are returned as a
// *PortError.
func (out *Output) Send(data []byte) error {
	if !out.IsOpen() {
		return ErrClosed
	}
	return out.port.Send(data)
}

// SendMessage sends a single gomidi message.
func (out *Output) SendMessage(msg midi.Message) error {
	return out.Send([]byte(msg))
}

func (out *Output) markClosed() {
	out.mu.Lock()
	out.closed = true
	out.mu.Unlock()
}

// Open implements drivers.Port. Outputs are open from bind until Close.
func (out *Output) Open() error {
	if !out.IsOpen() {
		return ErrClosed
	}
	return nil
}

// Close detaches the output, closing the driver port if it was the last
// input or output bound to it.
func (out *Output) Close() error {
	out.mu.Lock()
	if out.closed {
		out.mu.Unlock()
		return nil
	}
	out.closed = true
	out.mu.Unlock()
	out.port.reg.detachOutput(out)
	return nil
}

func (out *Output) IsOpen() bool {
	out.mu.Lock()
	defer out.mu.Unlock()
	return !out.closed
}

// Number returns the registry-wide bind sequence number of the output.
func (out *Output) Number() int { return out.number }

func (out *Output) String() string { return out.port.Name() }

// Underlying returns the *Port.
func (out *Output) Underlying() interface{} { return out.port }
