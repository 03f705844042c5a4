//go:build !tevirtualmidi

package tevm

func openLibrary(string) (*entryPoints, error) {
	return nil, ErrNotLicensed
}
