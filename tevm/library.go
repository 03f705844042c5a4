package tevm

import (
	"errors"
	"fmt"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Exported symbol names of the vendor library.
const (
	symCreatePort = "virtualMIDICreatePortEx3"
	symClosePort  = "virtualMIDIClosePort"
	symSendData   = "virtualMIDISendData"
)

// DefaultMaxSysExSize is the receive buffer size requested from the driver
// when a PortConfig leaves MaxSysExSize at zero.
const DefaultMaxSysExSize uint32 = 8192

var (
	// ErrUnavailable is returned by every call once loading the driver failed.
	ErrUnavailable = errors.New("tevm: driver library unavailable")
	// ErrNotLicensed means the binary was built without the tevirtualmidi tag.
	ErrNotLicensed = errors.New("tevm: built without tevirtualmidi tag")
	// ErrClosed is returned after Library.Close.
	ErrClosed = errors.New("tevm: library closed")
	// ErrSendFailed reports a false return from the driver's send entry point.
	ErrSendFailed = errors.New("tevm: driver rejected data")
	// ErrEmptyMessage is returned when SendData is called without data.
	ErrEmptyMessage = errors.New("tevm: empty message")

	errNullPort = errors.New("driver returned no port")
)

// Flags are passed verbatim to the create entry point.
type Flags uint32

const (
	FlagParseRx Flags = 1 << iota // driver parses inbound data into messages
	FlagParseTx                   // driver parses outbound data
	FlagRxOnly                    // only the receive side is visible to other apps
	FlagTxOnly                    // only the send side is visible to other apps

	FlagBoth = FlagRxOnly | FlagTxOnly
)

// Handle is the opaque, non-zero port pointer returned by the driver.
type Handle uintptr

// ReceiveFunc is called on a driver thread for each inbound chunk. The slice
// is a copy and may be retained.
type ReceiveFunc func(data []byte)

// PortConfig describes a port to create.
type PortConfig struct {
	Name         string
	MaxSysExSize uint32
	Flags        Flags
	Manufacturer *uuid.UUID
	Product      *uuid.UUID
}

func (c PortConfig) maxSysEx() uint32 {
	if c.MaxSysExSize == 0 {
		return DefaultMaxSysExSize
	}
	return c.MaxSysExSize
}

// CreateError is returned when the driver refuses to create a port.
type CreateError struct {
	Name string
	Err  error
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("tevm: create port %q: %v", e.Name, e.Err)
}

func (e *CreateError) Unwrap() error { return e.Err }

// Code returns the operating system error code recorded when creation
// failed, or 0 when none was available.
func (e *CreateError) Code() uint32 {
	var errno syscall.Errno
	if errors.As(e.Err, &errno) {
		return uint32(errno)
	}
	return 0
}

// Config configures a Library.
type Config struct {
	// Path is the library file name or path. Empty selects DefaultPath.
	Path   string
	Logger logrus.FieldLogger
}

// Library is a lazily loaded handle on the vendor driver.
type Library struct {
	path string
	log  logrus.FieldLogger

	once sync.Once
	err  error

	mu     sync.RWMutex
	ep     *entryPoints
	closed bool
}

// entryPoints are the resolved driver functions for one loaded library.
type entryPoints struct {
	create  func(name []uint16, instance uintptr, maxSysEx, flags uint32, manufacturer, product *guid) (uintptr, error)
	close   func(port uintptr)
	send    func(port uintptr, data []byte) bool
	release func() error
}

// New returns a Library for cfg. Nothing is loaded until first use.
func New(cfg Config) *Library {
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	return &Library{
		path: cfg.Path,
		log:  cfg.Logger.WithField("path", cfg.Path),
	}
}

// Path returns the library path this Library loads from.
func (l *Library) Path() string { return l.path }

// Load opens the library and resolves its entry points. Only the first call
// does any work; the outcome is returned by every later call.
func (l *Library) Load() error {
	l.once.Do(func() {
		ep, err := openLibrary(l.path)
		l.mu.Lock()
		defer l.mu.Unlock()
		if err != nil {
			l.err = fmt.Errorf("%w: %w", ErrUnavailable, err)
			l.log.WithError(err).Warn("virtual MIDI driver not loaded")
			return
		}
		l.ep = ep
		l.log.Info("virtual MIDI driver loaded")
	})
	return l.err
}

// Err reports the load error, if the library has been loaded and failed.
func (l *Library) Err() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrClosed
	}
	return l.err
}

// Close releases the library. Ports must be closed beforehand; the driver
// code is unmapped once this returns.
func (l *Library) Close() error {
	// A Library closed before first use must never load afterwards.
	l.once.Do(func() {
		l.mu.Lock()
		l.err = ErrClosed
		l.mu.Unlock()
	})

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if l.ep == nil {
		return nil
	}
	err := l.ep.release()
	l.ep = nil
	return err
}

// entriesLocked must be called with l.mu held for reading.
func (l *Library) entriesLocked() (*entryPoints, error) {
	if l.closed {
		return nil, ErrClosed
	}
	if l.err != nil {
		return nil, l.err
	}
	return l.ep, nil
}

// CreatePort asks the driver for a new port. recv receives inbound data
// until ClosePort is called for the returned handle.
func (l *Library) CreatePort(cfg PortConfig, recv ReceiveFunc) (Handle, error) {
	if err := l.Load(); err != nil {
		return 0, err
	}
	name, err := encodeName(cfg.Name)
	if err != nil {
		return 0, &CreateError{Name: cfg.Name, Err: err}
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	ep, err := l.entriesLocked()
	if err != nil {
		return 0, err
	}

	token := routes.add(recv)
	port, err := ep.create(name, token, cfg.maxSysEx(), uint32(cfg.Flags), toGUID(cfg.Manufacturer), toGUID(cfg.Product))
	if err != nil || port == 0 {
		routes.remove(token)
		if err == nil {
			err = errNullPort
		}
		return 0, &CreateError{Name: cfg.Name, Err: err}
	}
	h := Handle(port)
	routes.bind(h, token)
	l.log.WithFields(logrus.Fields{"port": cfg.Name, "handle": port}).Debug("driver port created")
	return h, nil
}

// ClosePort releases a handle obtained from CreatePort. No data is
// delivered for the handle once ClosePort returns.
func (l *Library) ClosePort(h Handle) error {
	if h == 0 {
		return nil
	}
	if err := l.Load(); err != nil {
		return err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	ep, err := l.entriesLocked()
	if err != nil {
		return err
	}
	ep.close(uintptr(h))
	routes.unbind(h)
	return nil
}

// SendData passes data to the driver for delivery to the port's readers.
func (l *Library) SendData(h Handle, data []byte) error {
	if len(data) == 0 {
		return ErrEmptyMessage
	}
	if err := l.Load(); err != nil {
		return err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	ep, err := l.entriesLocked()
	if err != nil {
		return err
	}
	if !ep.send(uintptr(h), data) {
		return ErrSendFailed
	}
	return nil
}
