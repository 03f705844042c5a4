//go:build tevirtualmidi && !windows && !((darwin || linux) && (amd64 || arm64))

package tevm

import (
	"fmt"
	"runtime"
)

func openLibrary(path string) (*entryPoints, error) {
	return nil, fmt.Errorf("no loader for %s/%s", runtime.GOOS, runtime.GOARCH)
}
