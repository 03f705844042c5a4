// Package devices lists the MIDI devices the operating system exposes to
// every application. It is used to confirm that a virtual port created
// through the driver is visible outside this process.
package devices

import "errors"

// ErrUnsupported is returned when the binary was built without cgo.
var ErrUnsupported = errors.New("devices: MIDI enumeration requires cgo")

// MIDIDevice is one system MIDI endpoint.
type MIDIDevice struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Interface string `json:"interface"` // host API, e.g. "MMSystem", "CoreMIDI", "ALSA"
	IsInput   bool   `json:"isInput"`
	IsOutput  bool   `json:"isOutput"`
	IsOpened  bool   `json:"isOpened"`
}

// Helper methods for MIDI capability checking
func (m MIDIDevice) CanInput() bool {
	return m.IsInput
}

func (m MIDIDevice) CanOutput() bool {
	return m.IsOutput
}

// MIDIDevices represents a slice of MIDIDevice with filter methods
type MIDIDevices []MIDIDevice

// Inputs returns only devices other applications can read from
func (devices MIDIDevices) Inputs() MIDIDevices {
	var inputs MIDIDevices
	for _, device := range devices {
		if device.CanInput() {
			inputs = append(inputs, device)
		}
	}
	return inputs
}

// Outputs returns only devices other applications can write to
func (devices MIDIDevices) Outputs() MIDIDevices {
	var outputs MIDIDevices
	for _, device := range devices {
		if device.CanOutput() {
			outputs = append(outputs, device)
		}
	}
	return outputs
}

// ByName returns devices with exactly this name. A virtual port usually
// shows up twice, once per direction.
func (devices MIDIDevices) ByName(name string) MIDIDevices {
	var named MIDIDevices
	for _, device := range devices {
		if device.Name == name {
			named = append(named, device)
		}
	}
	return named
}

// ByInterface returns devices reported by one host API
func (devices MIDIDevices) ByInterface(iface string) MIDIDevices {
	var filtered MIDIDevices
	for _, device := range devices {
		if device.Interface == iface {
			filtered = append(filtered, device)
		}
	}
	return filtered
}

// Visibility reports in which directions a port name is visible.
func (devices MIDIDevices) Visibility(name string) (readable, writable bool) {
	for _, device := range devices.ByName(name) {
		readable = readable || device.IsInput
		writable = writable || device.IsOutput
	}
	return readable, writable
}

// Visible enumerates system devices and reports in which directions name
// is visible to other applications.
func Visible(name string) (readable, writable bool, err error) {
	devs, err := GetMIDI()
	if err != nil {
		return false, false, err
	}
	readable, writable = devs.Visibility(name)
	return readable, writable, nil
}
