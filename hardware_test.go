//go:build tevirtualmidi

package virtualmidi

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"

	"github.com/shaban/virtualmidi/devices"
	"github.com/shaban/virtualmidi/internal/testutil"
	"github.com/shaban/virtualmidi/tevm"
)

// TestDriverPortRoundTrip needs the vendor driver installed.
func TestDriverPortRoundTrip(t *testing.T) {
	testutil.SkipUnlessEnv(t, testutil.HardwareEnv, "1")
	if testutil.IsCI() {
		t.Skip("skipped: no virtual MIDI driver on CI runners")
	}

	lib := tevm.New(tevm.Config{Path: testutil.LibraryPath()})
	defer lib.Close()
	require.NoError(t, lib.Load())

	reg := NewRegistry(lib)
	defer reg.Close()

	const name = "virtualmidi test port"
	in, err := reg.BindInput(name, nil)
	require.NoError(t, err)
	in.Start()
	out, err := reg.BindOutput(name)
	require.NoError(t, err)
	assert.Same(t, in.Port(), out.Port())

	require.NoError(t, out.SendMessage(midi.NoteOn(0, 60, 1)))
	require.NoError(t, out.SendMessage(midi.NoteOff(0, 60)))

	// Give the system a moment to publish the new endpoints.
	time.Sleep(200 * time.Millisecond)
	readable, writable, err := devices.Visible(name)
	if errors.Is(err, devices.ErrUnsupported) {
		t.Log("device visibility not checked: built without cgo")
	} else {
		require.NoError(t, err)
		assert.True(t, readable || writable, "port should be visible to other applications")
	}

	require.NoError(t, in.Close())
	require.NoError(t, out.Close())
	assert.Equal(t, 0, reg.Len())
}
