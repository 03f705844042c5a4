package virtualmidi

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/shaban/virtualmidi/tevm"
)

const defaultQueueSize = 256

// Backend is the driver surface a Registry needs. *tevm.Library
// implements it.
type Backend interface {
	CreatePort(cfg tevm.PortConfig, recv tevm.ReceiveFunc) (tevm.Handle, error)
	ClosePort(h tevm.Handle) error
	SendData(h tevm.Handle, data []byte) error
}

// Registry owns every open port, keyed by name. A port lives exactly as
// long as at least one Input or Output is bound to it.
type Registry struct {
	backend   Backend
	log       logrus.FieldLogger
	metrics   MetricsHook
	errs      ErrorHandler
	queueSize int

	// mu guards ports and the bind counters. Lock order is Registry.mu,
	// then Port.mu, then Input.mu.
	mu      sync.Mutex
	ports   map[string]*Port
	nextIn  int
	nextOut int
	closed  bool
}

// NewRegistry returns an empty registry creating ports through backend.
func NewRegistry(backend Backend, opts ...Option) *Registry {
	r := &Registry{
		backend:   backend,
		log:       logrus.StandardLogger(),
		metrics:   NopMetrics{},
		queueSize: defaultQueueSize,
		ports:     make(map[string]*Port),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.errs == nil {
		r.errs = &DefaultErrorHandler{Logger: r.log}
	}
	return r
}

// Lookup returns the open port called name.
func (r *Registry) Lookup(name string) (*Port, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.ports[name]
	return p, ok
}

// Names returns the names of all open ports, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.ports))
	for name := range r.ports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of open ports.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ports)
}

// BindInput attaches a new input to the port called name, creating the port
// if needed. recv may be nil for inputs consumed through Listen. The input
// starts stopped.
func (r *Registry) BindInput(name string, recv Receiver, opts ...BindOption) (*Input, error) {
	cfg, err := portConfig(name, opts)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.bindLocked(cfg)
	if err != nil {
		return nil, err
	}
	in := &Input{port: p, recv: recv, number: r.nextIn}
	r.nextIn++
	p.attachInput(in)
	return in, nil
}

// BindOutput attaches a new output to the port called name, creating the
// port if needed.
func (r *Registry) BindOutput(name string, opts ...BindOption) (*Output, error) {
	cfg, err := portConfig(name, opts)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.bindLocked(cfg)
	if err != nil {
		return nil, err
	}
	out := &Output{port: p, number: r.nextOut}
	r.nextOut++
	p.attachOutput(out)
	return out, nil
}

func portConfig(name string, opts []BindOption) (tevm.PortConfig, error) {
	if name == "" {
		return tevm.PortConfig{}, ErrEmptyName
	}
	cfg := tevm.PortConfig{Name: name, MaxSysExSize: tevm.DefaultMaxSysExSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg, nil
}

// bindLocked returns the port for cfg.Name, creating and registering it when
// absent. A port whose creation fails is never registered.
func (r *Registry) bindLocked(cfg tevm.PortConfig) (*Port, error) {
	if r.closed {
		return nil, ErrRegistryClosed
	}
	if p, ok := r.ports[cfg.Name]; ok {
		return p, nil
	}

	log := r.log.WithField("port", cfg.Name)
	p := newPort(r, cfg)
	h, err := r.backend.CreatePort(cfg, p.receive)
	if err != nil {
		p.queue.Close()
		r.metrics.OnPortCreateFailed(cfg.Name, err)
		log.WithError(err).Warn("virtual port not created")
		return nil, &PortError{Op: "create", Port: cfg.Name, Err: err}
	}
	p.handle = h
	r.ports[cfg.Name] = p
	r.metrics.OnPortCreated(cfg.Name)
	log.WithField("handle", uintptr(h)).Debug("virtual port created")
	return p, nil
}

// detachInput removes in from its port and unbinds the port if it is left
// without inputs and outputs.
func (r *Registry) detachInput(in *Input) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if in.port.detachInput(in) {
		r.unbindLocked(in.port)
	}
}

func (r *Registry) detachOutput(out *Output) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if out.port.detachOutput(out) {
		r.unbindLocked(out.port)
	}
}

// unbindLocked removes p from the registry and releases its driver port.
// The driver port is closed before the lock is released so a rebind of the
// same name cannot collide with the old one.
func (r *Registry) unbindLocked(p *Port) {
	if cur, ok := r.ports[p.Name()]; !ok || cur != p {
		return
	}
	delete(r.ports, p.Name())
	if err := p.destroy(); err != nil {
		r.errs.HandleError(err)
	}
	r.metrics.OnPortClosed(p.Name())
	r.log.WithField("port", p.Name()).Debug("virtual port closed")
}

// Close closes every input, output and port. It waits for in-flight
// deliveries, so it must not be called from a Receiver.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	ports := make([]*Port, 0, len(r.ports))
	for _, p := range r.ports {
		ports = append(ports, p)
	}
	for _, p := range ports {
		p.closeAdapters()
		r.unbindLocked(p)
	}
	r.mu.Unlock()

	for _, p := range ports {
		p.queue.Close()
	}
	return nil
}
