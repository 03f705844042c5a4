package prommetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaban/virtualmidi"
	"github.com/shaban/virtualmidi/internal/fakedriver"
)

func TestHookCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	h, err := New(reg)
	require.NoError(t, err)

	h.OnPortCreated("A")
	h.OnPortCreated("B")
	h.OnPortClosed("B")
	h.OnPortCreateFailed("C", errors.New("no"))
	h.OnMessageDelivered("A", 3, 2)
	h.OnMessageDelivered("A", 1, 0)
	h.OnMessageDropped("A")
	h.OnSend("A", 3, nil)
	h.OnSend("A", 3, errors.New("rejected"))
	h.ObserveError(errors.New("receiver panicked"))

	assert.Equal(t, 1.0, testutil.ToFloat64(h.portsOpen))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.portsCreated.WithLabelValues("A")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.createFailures.WithLabelValues("C")))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.messagesIn.WithLabelValues("A")))
	assert.Equal(t, 4.0, testutil.ToFloat64(h.bytesIn.WithLabelValues("A")))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.deliveries.WithLabelValues("A")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.dropped.WithLabelValues("A")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.messagesOut.WithLabelValues("A")))
	assert.Equal(t, 3.0, testutil.ToFloat64(h.bytesOut.WithLabelValues("A")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.sendFailures.WithLabelValues("A")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.asyncErrors))
}

func TestDoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}

func TestHookWithRegistry(t *testing.T) {
	preg := prometheus.NewRegistry()
	h, err := New(preg)
	require.NoError(t, err)

	drv := fakedriver.New()
	reg := virtualmidi.NewRegistry(drv, virtualmidi.WithMetrics(h))
	out, err := reg.BindOutput("Metered")
	require.NoError(t, err)
	require.NoError(t, out.Send([]byte{0xf8}))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.portsOpen))

	require.NoError(t, reg.Close())
	assert.Equal(t, 0.0, testutil.ToFloat64(h.portsOpen))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.messagesOut.WithLabelValues("Metered")))
}
