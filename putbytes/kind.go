package putbytes

import (
	"fmt"
	"strings"

	"github.com/arloliu/go-putbytes/protocol"
)

// ObjectKind classifies the object being transferred.
type ObjectKind uint8

const (
	KindFirmware        ObjectKind = 1
	KindRecovery        ObjectKind = 2
	KindSystemResources ObjectKind = 3
	KindResources       ObjectKind = 4
	KindBinary          ObjectKind = 5
	KindFile            ObjectKind = 6
	KindWorker          ObjectKind = 7
)

var kindNames = map[ObjectKind]string{
	KindFirmware:        "firmware",
	KindRecovery:        "recovery",
	KindSystemResources: "system-resources",
	KindResources:       "resources",
	KindBinary:          "binary",
	KindFile:            "file",
	KindWorker:          "worker",
}

// String returns the kind name, e.g. "system-resources".
func (k ObjectKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Valid reports whether k is one of the defined kinds.
func (k ObjectKind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind returns the kind named name. Matching ignores case, and "_" is
// accepted in place of "-".
func ParseKind(name string) (ObjectKind, error) {
	name = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidKind, name)
}

// EncodeKind packs kind and the app-scope flag into the kind byte of an init request.
//
// The kind must be non-zero and fit in 7 bits; the top bit is reserved for the
// flag and is set if and only if appScoped is true.
func EncodeKind(kind ObjectKind, appScoped bool) (byte, error) {
	b := byte(kind)
	if b == 0 || b&protocol.AppScopeBit != 0 {
		return 0, fmt.Errorf("%w: %d does not fit in 7 bits", ErrInvalidKind, b)
	}

	if appScoped {
		b |= protocol.AppScopeBit
	}

	return b, nil
}

// DecodeKind splits a kind byte into the kind and the app-scope flag.
func DecodeKind(b byte) (ObjectKind, bool) {
	return ObjectKind(b &^ protocol.AppScopeBit), b&protocol.AppScopeBit != 0
}
