//go:build tevirtualmidi && (darwin || linux) && (amd64 || arm64)

package tevm

import (
	"errors"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

var (
	callbackOnce sync.Once
	callbackAddr uintptr
)

func trampoline() uintptr {
	callbackOnce.Do(func() {
		callbackAddr = purego.NewCallback(func(port, data, length, instance uintptr) uintptr {
			dispatch(instance, data, length)
			return 0
		})
	})
	return callbackAddr
}

func openLibrary(path string) (*entryPoints, error) {
	lib, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, err
	}
	createAddr, err1 := purego.Dlsym(lib, symCreatePort)
	closeAddr, err2 := purego.Dlsym(lib, symClosePort)
	sendAddr, err3 := purego.Dlsym(lib, symSendData)
	if err := errors.Join(err1, err2, err3); err != nil {
		purego.Dlclose(lib)
		return nil, err
	}

	var (
		createFn func(name unsafe.Pointer, cb, instance uintptr, maxSysEx, flags uint32, manufacturer, product unsafe.Pointer) uintptr
		closeFn  func(port uintptr)
		sendFn   func(port uintptr, data unsafe.Pointer, length uint32) uintptr
	)
	purego.RegisterFunc(&createFn, createAddr)
	purego.RegisterFunc(&closeFn, closeAddr)
	purego.RegisterFunc(&sendFn, sendAddr)
	cb := trampoline()

	return &entryPoints{
		create: func(name []uint16, instance uintptr, maxSysEx, flags uint32, manufacturer, product *guid) (uintptr, error) {
			r := createFn(unsafe.Pointer(&name[0]), cb, instance, maxSysEx, flags,
				unsafe.Pointer(manufacturer), unsafe.Pointer(product))
			if r == 0 {
				return 0, errNullPort
			}
			return r, nil
		},
		close: closeFn,
		send: func(port uintptr, data []byte) bool {
			return uint32(sendFn(port, unsafe.Pointer(&data[0]), uint32(len(data)))) != 0
		},
		release: func() error { return purego.Dlclose(lib) },
	}, nil
}
