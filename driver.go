package virtualmidi

import "gitlab.com/gomidi/midi/v2/drivers"

// DriverName is what Registry.String reports to gomidi.
const DriverName = "tevirtualmidi"

var _ drivers.Driver = (*Registry)(nil)

// Ins implements drivers.Driver. It lists the currently bound inputs ordered
// by port name, then bind order.
func (r *Registry) Ins() ([]drivers.In, error) {
	var ins []drivers.In
	for _, p := range r.sortedPorts() {
		p.mu.RLock()
		for _, in := range p.inputs {
			ins = append(ins, in)
		}
		p.mu.RUnlock()
	}
	return ins, nil
}

// Outs implements drivers.Driver.
func (r *Registry) Outs() ([]drivers.Out, error) {
	var outs []drivers.Out
	for _, p := range r.sortedPorts() {
		p.mu.RLock()
		for _, out := range p.outputs {
			outs = append(outs, out)
		}
		p.mu.RUnlock()
	}
	return outs, nil
}

func (r *Registry) String() string { return DriverName }

func (r *Registry) sortedPorts() []*Port {
	names := r.Names()
	ports := make([]*Port, 0, len(names))
	for _, name := range names {
		if p, ok := r.Lookup(name); ok {
			ports = append(ports, p)
		}
	}
	return ports
}
