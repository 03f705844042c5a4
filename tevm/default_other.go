//go:build !windows && !darwin

package tevm

const DefaultPath = "libteVirtualMIDI.so"
