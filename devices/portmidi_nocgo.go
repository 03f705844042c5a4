//go:build !cgo

package devices

// GetMIDI always fails without cgo.
func GetMIDI() (MIDIDevices, error) {
	return nil, ErrUnsupported
}
