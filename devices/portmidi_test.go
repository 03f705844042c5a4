//go:build cgo

package devices

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shaban/virtualmidi/internal/testutil"
)

func TestGetMIDI(t *testing.T) {
	testutil.SkipUnlessEnv(t, testutil.HardwareEnv, "1")

	devs, err := GetMIDI()
	require.NoError(t, err)
	t.Logf("Found %d MIDI devices", len(devs))
	for i, d := range devs {
		if d.Name == "" {
			t.Errorf("MIDI device %d has empty name", i)
		}
		t.Logf("  %+v", d)
	}
}
