package unit

import (
	"fmt"

	"github.com/unitsys/resolver/resolver"
)

// Error kinds specific to the unit algebra, layered on top of the
// generic resolver.ErrorKind so all layers share one error shape.
const (
	KindInvalidConfig        resolver.ErrorKind = "InvalidConfig"
	KindIncommensurableUnits resolver.ErrorKind = "IncommensurableUnits"
	KindOffsetMisuse         resolver.ErrorKind = "OffsetMisuse"
	KindExponentOverflow     resolver.ErrorKind = "ExponentOverflow"
)

func newAlgebraError(kind resolver.ErrorKind, message string) *resolver.Error {
	return &resolver.Error{Kind: kind, Pos: -1, Message: message}
}

func errIncommensurable() *resolver.Error {
	return newAlgebraError(KindIncommensurableUnits, "Units must be commensurable")
}

func errOffsetPower() *resolver.Error {
	return newAlgebraError(KindOffsetMisuse, "Units with offsets cannot be raised to a power")
}

func errNonConstantPower() *resolver.Error {
	return newAlgebraError(KindOffsetMisuse, "Units can only be raised to a unitless power")
}

func errOffsetMixing() *resolver.Error {
	return newAlgebraError(KindOffsetMisuse,
		"Units with offsets (e.g. degC, degF) should be converted to base (e.g. degK) or delta variants (delC, delF)")
}

// InvalidConfigError reports a malformed configuration or an
// unresolvable seed expression encountered while building a
// dictionary.
func InvalidConfigError(format string, args ...any) error {
	return newAlgebraError(KindInvalidConfig, fmt.Sprintf(format, args...))
}
