//go:build tevirtualmidi && windows

package tevm

import (
	"errors"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	callbackOnce sync.Once
	callbackAddr uintptr
)

// trampoline returns the stdcall function pointer handed to the driver.
// Windows limits the number of callbacks per process, so one is shared.
func trampoline() uintptr {
	callbackOnce.Do(func() {
		callbackAddr = windows.NewCallback(func(port, data, length, instance uintptr) uintptr {
			dispatch(instance, data, length)
			return 0
		})
	})
	return callbackAddr
}

func openLibrary(path string) (*entryPoints, error) {
	// Keep a missing DLL from popping up a system dialog.
	windows.SetErrorMode(windows.SEM_NOOPENFILEERRORBOX | windows.SEM_FAILCRITICALERRORS)

	dll, err := windows.LoadDLL(path)
	if err != nil {
		return nil, err
	}
	create, err1 := dll.FindProc(symCreatePort)
	closeProc, err2 := dll.FindProc(symClosePort)
	send, err3 := dll.FindProc(symSendData)
	if err := errors.Join(err1, err2, err3); err != nil {
		dll.Release()
		return nil, err
	}
	cb := trampoline()

	return &entryPoints{
		create: func(name []uint16, instance uintptr, maxSysEx, flags uint32, manufacturer, product *guid) (uintptr, error) {
			r, _, callErr := create.Call(
				uintptr(unsafe.Pointer(&name[0])),
				cb,
				instance,
				uintptr(maxSysEx),
				uintptr(flags),
				uintptr(unsafe.Pointer(manufacturer)),
				uintptr(unsafe.Pointer(product)),
			)
			if r == 0 {
				var errno syscall.Errno
				if errors.As(callErr, &errno) && errno != 0 {
					return 0, errno
				}
				return 0, errNullPort
			}
			return r, nil
		},
		close: func(port uintptr) {
			closeProc.Call(port)
		},
		send: func(port uintptr, data []byte) bool {
			r, _, _ := send.Call(port, uintptr(unsafe.Pointer(&data[0])), uintptr(len(data)))
			return uint32(r) != 0
		},
		release: dll.Release,
	}, nil
}
