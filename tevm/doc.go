// Package tevm loads the teVirtualMIDI driver library and exposes its three
// entry points (create port, close port, send data) as Go methods.
//
// The library is opened lazily on first use and only once. A failed load is
// sticky for the lifetime of the Library: every later call returns an error
// wrapping ErrUnavailable and nothing is retried.
//
// Driver support is compiled in only with the tevirtualmidi build tag, which
// stands in for the commercial licence required by the vendor SDK:
//
//	go build -tags tevirtualmidi ./...
//
// On Windows the library is resolved with golang.org/x/sys/windows. On
// darwin and linux (amd64, arm64) an ABI-compatible shared object is opened
// with purego, which is mostly useful for driver shims in test rigs.
package tevm
