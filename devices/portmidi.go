//go:build cgo

package devices

import (
	"fmt"
	"sync"

	"github.com/rakyll/portmidi"
)

// PortMidi caches its device list at initialization, so every scan
// reinitializes it to observe ports created since the last call.
var pmMu sync.Mutex

// GetMIDI returns all MIDI devices currently known to the system.
func GetMIDI() (MIDIDevices, error) {
	pmMu.Lock()
	defer pmMu.Unlock()

	if err := portmidi.Initialize(); err != nil {
		return nil, fmt.Errorf("portmidi initialize: %w", err)
	}
	defer portmidi.Terminate()

	count := portmidi.CountDevices()
	devs := make(MIDIDevices, 0, count)
	for i := 0; i < count; i++ {
		info := portmidi.Info(portmidi.DeviceID(i))
		if info == nil {
			continue
		}
		devs = append(devs, MIDIDevice{
			ID:        i,
			Name:      info.Name,
			Interface: info.Interface,
			IsInput:   info.IsInputAvailable,
			IsOutput:  info.IsOutputAvailable,
			IsOpened:  info.IsOpened,
		})
	}
	return devs, nil
}
