package tevm

import (
	"sync"
	"unsafe"
)

// The driver calls back through a single C function pointer, so inbound data
// is routed to the owning port by the instance token handed to the driver at
// creation time.
var routes = newRouteTable()

type routeTable struct {
	mu       sync.RWMutex
	next     uintptr
	byToken  map[uintptr]ReceiveFunc
	byHandle map[Handle]uintptr
}

func newRouteTable() *routeTable {
	return &routeTable{
		byToken:  make(map[uintptr]ReceiveFunc),
		byHandle: make(map[Handle]uintptr),
	}
}

func (t *routeTable) add(recv ReceiveFunc) uintptr {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	t.byToken[t.next] = recv
	return t.next
}

func (t *routeTable) remove(token uintptr) {
	t.mu.Lock()
	delete(t.byToken, token)
	t.mu.Unlock()
}

func (t *routeTable) bind(h Handle, token uintptr) {
	t.mu.Lock()
	t.byHandle[h] = token
	t.mu.Unlock()
}

func (t *routeTable) unbind(h Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if token, ok := t.byHandle[h]; ok {
		delete(t.byToken, token)
		delete(t.byHandle, h)
	}
}

func (t *routeTable) lookup(token uintptr) ReceiveFunc {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.byToken[token]
}

// dispatch is invoked from the driver's callback thread. The driver buffer
// is only valid for the duration of the call, so it is copied first.
func dispatch(instance, data, length uintptr) {
	n := int(uint32(length))
	if data == 0 || n == 0 {
		return
	}
	recv := routes.lookup(instance)
	if recv == nil {
		return
	}
	buf := make([]byte, n)
	copy(buf, unsafe.Slice((*byte)(unsafe.Pointer(data)), n))
	recv(buf)
}
