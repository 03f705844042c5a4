package virtualmidi

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

var (
	// ErrClosed is returned by operations on a closed input or output.
	ErrClosed = errors.New("virtualmidi: closed")
	// ErrRegistryClosed is returned by binds after Registry.Close.
	ErrRegistryClosed = errors.New("virtualmidi: registry closed")
	// ErrAlreadyListening is returned by a second Listen on the same input.
	ErrAlreadyListening = errors.New("virtualmidi: input already listening")
	// ErrEmptyName is returned when binding without a port name.
	ErrEmptyName = errors.New("virtualmidi: empty port name")
)

// PortError describes a failed driver operation on a named port.
type PortError struct {
	Op   string // "create", "close" or "send"
	Port string
	Err  error
}

func (e *PortError) Error() string {
	return fmt.Sprintf("virtualmidi: %s %q: %v", e.Op, e.Port, e.Err)
}

func (e *PortError) Unwrap() error { return e.Err }

// ErrorHandler receives failures that have no caller to return to, such as
// a receiver panicking on the delivery goroutine or a driver error while a
// port is torn down.
type ErrorHandler interface {
	HandleError(error)
}

// DefaultErrorHandler logs errors.
type DefaultErrorHandler struct {
	Logger logrus.FieldLogger
}

func (h *DefaultErrorHandler) HandleError(err error) {
	log := h.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	log.WithError(err).Error("virtual MIDI error")
}

// LoggingErrorHandler hands each error to an observer, such as a metrics
// counter, and then to the wrapped handler. Either may be nil.
type LoggingErrorHandler struct {
	underlying ErrorHandler
	logger     func(error)
}

func NewLoggingErrorHandler(underlying ErrorHandler, logger func(error)) *LoggingErrorHandler {
	return &LoggingErrorHandler{
		underlying: underlying,
		logger:     logger,
	}
}

func (h *LoggingErrorHandler) HandleError(err error) {
	if h.logger != nil {
		h.logger(err)
	}
	if h.underlying != nil {
		h.underlying.HandleError(err)
	}
}

// PanicErrorHandler turns a receiver panic or a failed port close into a
// process crash. vmidi installs it with --strict.
type PanicErrorHandler struct{}

func (h *PanicErrorHandler) HandleError(err error) {
	panic(fmt.Sprintf("virtualmidi: %v", err))
}
