package testutil

import (
	"os"
	"testing"
)

// HardwareEnv gates tests that need the real driver installed.
const HardwareEnv = "VMIDI_HARDWARE"

// LibraryEnv overrides the driver library path in hardware tests.
const LibraryEnv = "VMIDI_LIBRARY"

// SkipUnlessEnv skips the test unless the given env var equals the wanted value.
func SkipUnlessEnv(t *testing.T, key, want string) {
	t.Helper()
	if os.Getenv(key) != want {
		t.Skipf("skipped: set %s=%s to run", key, want)
	}
}

// IsCI reports whether running under common CI environments.
func IsCI() bool {
	if os.Getenv("CI") == "true" || os.Getenv("GITHUB_ACTIONS") == "true" {
		return true
	}
	return false
}

// LibraryPath returns the driver path from LibraryEnv, or "" for the default.
func LibraryPath() string {
	return os.Getenv(LibraryEnv)
}
