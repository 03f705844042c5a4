package virtualmidi

import (
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/shaban/virtualmidi/internal/fakedriver"
)

// recordingMetrics counts metric events for assertions.
type recordingMetrics struct {
	mu           sync.Mutex
	created      []string
	createFailed []string
	closed       []string
	delivered    int
	listeners    []int
	dropped      int
	sends        int
	sendFailures int
}

func (m *recordingMetrics) OnPortCreated(name string) {
	m.mu.Lock()
	m.created = append(m.created, name)
	m.mu.Unlock()
}

func (m *recordingMetrics) OnPortCreateFailed(name string, err error) {
	m.mu.Lock()
	m.createFailed = append(m.createFailed, name)
	m.mu.Unlock()
}

func (m *recordingMetrics) OnPortClosed(name string) {
	m.mu.Lock()
	m.closed = append(m.closed, name)
	m.mu.Unlock()
}

func (m *recordingMetrics) OnMessageDelivered(name string, size, listeners int) {
	m.mu.Lock()
	m.delivered++
	m.listeners = append(m.listeners, listeners)
	m.mu.Unlock()
}

func (m *recordingMetrics) OnMessageDropped(string) {
	m.mu.Lock()
	m.dropped++
	m.mu.Unlock()
}

func (m *recordingMetrics) OnSend(name string, size int, err error) {
	m.mu.Lock()
	m.sends++
	if err != nil {
		m.sendFailures++
	}
	m.mu.Unlock()
}

func (m *recordingMetrics) snapshot() recordingMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return recordingMetrics{
		created:      append([]string(nil), m.created...),
		createFailed: append([]string(nil), m.createFailed...),
		closed:       append([]string(nil), m.closed...),
		delivered:    m.delivered,
		listeners:    append([]int(nil), m.listeners...),
		dropped:      m.dropped,
		sends:        m.sends,
		sendFailures: m.sendFailures,
	}
}

// collectErrors is an ErrorHandler that keeps everything it is given.
type collectErrors struct {
	mu   sync.Mutex
	errs []error
}

func (c *collectErrors) HandleError(err error) {
	c.mu.Lock()
	c.errs = append(c.errs, err)
	c.mu.Unlock()
}

func (c *collectErrors) all() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]error(nil), c.errs...)
}

type fixture struct {
	drv     *fakedriver.Driver
	reg     *Registry
	metrics *recordingMetrics
	errs    *collectErrors
	logs    *test.Hook
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	f := &fixture{
		drv:     fakedriver.New(),
		metrics: &recordingMetrics{},
		errs:    &collectErrors{},
		logs:    hook,
	}
	opts = append([]Option{
		WithLogger(logger),
		WithMetrics(f.metrics),
		WithErrorHandler(f.errs),
	}, opts...)
	f.reg = NewRegistry(f.drv, opts...)
	t.Cleanup(func() { f.reg.Close() })
	return f
}

// eventually fails the test unless cond becomes true within a second.
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, time.Second, time.Millisecond, msg)
}
