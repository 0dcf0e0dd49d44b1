// Package encoding round-trips a unit through its canonical expression
// text, the simplest external encoding for a resolved unit: the text
// that would resolve to the same UnitInfo, useful for config files and
// serialised values that need to name a unit.
package encoding

import (
	"fmt"

	"github.com/unitsys/resolver/unit"
)

// MarshalText returns u's source expression text.
func MarshalText(u *unit.Unit) ([]byte, error) {
	if u == nil {
		return nil, fmt.Errorf("encoding: cannot marshal a nil unit")
	}
	return []byte(u.String()), nil
}

// UnmarshalText resolves b's text against sys, returning the resulting
// unit. Round-tripping through Marshal/Unmarshal against the same
// System yields a unit with an identical UnitInfo, though not
// necessarily the identical *Unit pointer.
func UnmarshalText(b []byte, sys *unit.System) (*unit.Unit, error) {
	u, err := sys.Create(string(b))
	if err != nil {
		return nil, fmt.Errorf("encoding: unmarshalling %q: %w", string(b), err)
	}
	return u, nil
}
