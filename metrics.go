package virtualmidi

// MetricsHook observes port lifecycle and traffic. Implementations must be
// safe for concurrent use; delivery events arrive on per-port goroutines.
type MetricsHook interface {
	// Port lifecycle
	OnPortCreated(name string)
	OnPortCreateFailed(name string, err error)
	OnPortClosed(name string)

	// Inbound traffic. listeners is the number of inputs the message reached.
	OnMessageDelivered(name string, size, listeners int)
	OnMessageDropped(name string)

	// Outbound traffic; err is nil on success.
	OnSend(name string, size int, err error)
}

// NopMetrics discards all events.
type NopMetrics struct{}

func (NopMetrics) OnPortCreated(string)                {}
func (NopMetrics) OnPortCreateFailed(string, error)    {}
func (NopMetrics) OnPortClosed(string)                 {}
func (NopMetrics) OnMessageDelivered(string, int, int) {}
func (NopMetrics) OnMessageDropped(string)             {}
func (NopMetrics) OnSend(string, int, error)           {}
