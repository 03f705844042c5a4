package virtualmidi

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/shaban/virtualmidi/tevm"
)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for port lifecycle events.
func WithLogger(log logrus.FieldLogger) Option {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// WithMetrics installs a metrics hook.
func WithMetrics(m MetricsHook) Option {
	return func(r *Registry) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithErrorHandler sets the handler for asynchronous errors.
func WithErrorHandler(h ErrorHandler) Option {
	return func(r *Registry) {
		if h != nil {
			r.errs = h
		}
	}
}

// WithQueueSize sets how many inbound messages a port buffers before the
// driver thread blocks.
func WithQueueSize(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.queueSize = n
		}
	}
}

// BindOption configures the driver port created by a bind. Options are
// ignored when the bind reuses an existing port.
type BindOption func(*tevm.PortConfig)

// WithMaxSysExSize sets the largest inbound message the driver accepts.
func WithMaxSysExSize(n uint32) BindOption {
	return func(c *tevm.PortConfig) { c.MaxSysExSize = n }
}

// WithFlags sets the driver port flags.
func WithFlags(f tevm.Flags) BindOption {
	return func(c *tevm.PortConfig) { c.Flags = f }
}

// WithManufacturer sets the manufacturer id reported for the port.
func WithManufacturer(id uuid.UUID) BindOption {
	return func(c *tevm.PortConfig) { c.Manufacturer = &id }
}

// WithProduct sets the product id reported for the port.
func WithProduct(id uuid.UUID) BindOption {
	return func(c *tevm.PortConfig) { c.Product = &id }
}
