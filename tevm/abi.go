package tevm

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/google/uuid"
)

// guid mirrors the Windows GUID layout expected by the create entry point.
type guid struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

// toGUID converts u so that the driver reports the same textual identifier
// as u.String().
func toGUID(u *uuid.UUID) *guid {
	if u == nil {
		return nil
	}
	g := &guid{
		Data1: binary.BigEndian.Uint32(u[0:4]),
		Data2: binary.BigEndian.Uint16(u[4:6]),
		Data3: binary.BigEndian.Uint16(u[6:8]),
	}
	copy(g.Data4[:], u[8:16])
	return g
}

// encodeName returns name as a NUL-terminated UTF-16 string (LPCWSTR).
func encodeName(name string) ([]uint16, error) {
	if name == "" {
		return nil, fmt.Errorf("empty port name")
	}
	if strings.IndexByte(name, 0) >= 0 {
		return nil, fmt.Errorf("port name %q contains NUL", name)
	}
	return append(utf16.Encode([]rune(name)), 0), nil
}
