package virtualmidi

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"gitlab.com/gomidi/midi/v2"
)

// TestConcurrentBindCreatesOnePort binds one name from many goroutines.
func TestConcurrentBindCreatesOnePort(t *testing.T) {
	f := newFixture(t)

	const workers = 32
	var wg sync.WaitGroup
	ports := make([]*Port, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				in, err := f.reg.BindInput("Busy", nil)
				if assert.NoError(t, err) {
					ports[i] = in.Port()
				}
				return
			}
			out, err := f.reg.BindOutput("Busy")
			if assert.NoError(t, err) {
				ports[i] = out.Port()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, f.drv.Created("Busy"))
	for _, p := range ports {
		assert.Same(t, ports[0], p)
	}
	assert.Equal(t, workers/2, ports[0].Inputs())
	assert.Equal(t, workers/2, ports[0].Outputs())
}

// TestChurnWithInboundTraffic binds and closes adapters while the driver
// keeps delivering data, then checks nothing leaked.
func TestChurnWithInboundTraffic(t *testing.T) {
	f := newFixture(t)
	names := []string{"churn-0", "churn-1", "churn-2"}

	var received int64
	recv := ReceiverFunc(func(*Input, midi.Message) { atomic.AddInt64(&received, 1) })

	stop := make(chan struct{})
	var injectors sync.WaitGroup
	for _, name := range names {
		injectors.Add(1)
		go func(name string) {
			defer injectors.Done()
			for {
				select {
				case <-stop:
					return
				default:
					_ = f.drv.Inject(name, []byte{0xf8}) // port may be gone
				}
			}
		}(name)
	}

	var workers sync.WaitGroup
	for w := 0; w < 8; w++ {
		workers.Add(1)
		go func(w int) {
			defer workers.Done()
			for i := 0; i < 100; i++ {
				name := names[(w+i)%len(names)]
				in, err := f.reg.BindInput(name, recv)
				if !assert.NoError(t, err, "worker %d iteration %d", w, i) {
					return
				}
				in.Start()
				out, err := f.reg.BindOutput(name)
				if !assert.NoError(t, err) {
					return
				}
				_ = out.Send([]byte{0xfa})
				assert.NoError(t, in.Close())
				assert.NoError(t, out.Close())
			}
		}(w)
	}
	workers.Wait()
	close(stop)
	injectors.Wait()

	assert.Equal(t, 0, f.reg.Len())
	assert.Equal(t, 0, f.drv.OpenPorts())
	for _, name := range names {
		created := f.drv.Created(name)
		assert.Positive(t, created)
	}
	m := f.metrics.snapshot()
	assert.Equal(t, len(m.created), len(m.closed), "every created port was closed")
	assert.Empty(t, f.errs.all())
}
