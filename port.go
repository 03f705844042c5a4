package virtualmidi

import (
	"context"
	"fmt"
	"sync"

	"gitlab.com/gomidi/midi/v2"

	"github.com/shaban/virtualmidi/internal/queue"
	"github.com/shaban/virtualmidi/tevm"
)

// Port is one driver port shared by every Input and Output bound to its
// name.
type Port struct {
	reg    *Registry
	cfg    tevm.PortConfig
	handle tevm.Handle
	queue  *queue.Queue

	mu      sync.RWMutex
	inputs  []*Input
	outputs []*Output
	closed  bool
}

func newPort(r *Registry, cfg tevm.PortConfig) *Port {
	p := &Port{reg: r, cfg: cfg, queue: queue.New(r.queueSize)}
	p.queue.OnDrop(func() { r.metrics.OnMessageDropped(cfg.Name) })
	p.queue.Start()
	return p
}

// Name returns the port name other applications see.
func (p *Port) Name() string { return p.cfg.Name }

// Handle returns the driver handle.
func (p *Port) Handle() tevm.Handle { return p.handle }

// Config returns the configuration the port was created with.
func (p *Port) Config() tevm.PortConfig { return p.cfg }

// Inputs returns the number of bound inputs.
func (p *Port) Inputs() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.inputs)
}

// Outputs returns the number of bound outputs.
func (p *Port) Outputs() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.outputs)
}

// Closed reports whether the port has been released.
func (p *Port) Closed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// Send passes raw bytes to the driver, which delivers them to every
// application reading from the port. The driver port is not closed while a
// send is in flight.
func (p *Port) Send(data []byte) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrClosed
	}
	err := p.reg.backend.SendData(p.handle, data)
	p.mu.RUnlock()

	p.reg.metrics.OnSend(p.Name(), len(data), err)
	if err != nil {
		return &PortError{Op: "send", Port: p.Name(), Err: err}
	}
	return nil
}

func (p *Port) attachInput(in *Input) {
	p.mu.Lock()
	p.inputs = append(p.inputs, in)
	p.mu.Unlock()
}

func (p *Port) attachOutput(out *Output) {
	p.mu.Lock()
	p.outputs = append(p.outputs, out)
	p.mu.Unlock()
}

// detachInput removes the first occurrence of in and reports whether the
// port is now unused.
func (p *Port) detachInput(in *Input) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, cur := range p.inputs {
		if cur == in {
			p.inputs = append(p.inputs[:i:i], p.inputs[i+1:]...)
			break
		}
	}
	return !p.closed && len(p.inputs) == 0 && len(p.outputs) == 0
}

func (p *Port) detachOutput(out *Output) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, cur := range p.outputs {
		if cur == out {
			p.outputs = append(p.outputs[:i:i], p.outputs[i+1:]...)
			break
		}
	}
	return !p.closed && len(p.inputs) == 0 && len(p.outputs) == 0
}

// closeAdapters marks every bound adapter closed and detaches it.
func (p *Port) closeAdapters() {
	p.mu.Lock()
	ins, outs := p.inputs, p.outputs
	p.inputs, p.outputs = nil, nil
	p.mu.Unlock()

	for _, in := range ins {
		in.markClosed()
	}
	for _, out := range outs {
		out.markClosed()
	}
}

// destroy stops deliveries and releases the driver port. Canceling the
// queue first keeps a driver thread blocked on a full queue from holding up
// the close. Taking p.mu waits out any send in progress.
func (p *Port) destroy() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.queue.Cancel()
	if p.handle == 0 {
		return nil
	}
	if err := p.reg.backend.ClosePort(p.handle); err != nil {
		return &PortError{Op: "close", Port: p.Name(), Err: err}
	}
	return nil
}

// receive runs on the driver thread.
func (p *Port) receive(data []byte) {
	msg := midi.Message(data)
	err := p.queue.Enqueue(func(ctx context.Context) {
		p.deliver(msg)
	})
	if err != nil {
		p.reg.metrics.OnMessageDropped(p.Name())
	}
}

// deliver fans msg out to the inputs bound at the time it is dequeued, in
// bind order.
func (p *Port) deliver(msg midi.Message) {
	p.mu.RLock()
	inputs := make([]*Input, len(p.inputs))
	copy(inputs, p.inputs)
	p.mu.RUnlock()

	n := 0
	for _, in := range inputs {
		if in.deliver(msg) {
			n++
		}
	}
	p.reg.metrics.OnMessageDelivered(p.Name(), len(msg), n)
}

func (p *Port) String() string {
	return fmt.Sprintf("%s (in=%d out=%d)", p.Name(), p.Inputs(), p.Outputs())
}
