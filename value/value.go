// Package value gives the resolver's units something to be attached to:
// a numeric amount paired with the unit it is measured in, plus the
// two conversions spec.md names as the core's external consumers
// (convert to another unit, read off as a time.Duration).
package value

import (
	"fmt"
	"time"

	"github.com/unitsys/resolver/unit"
)

// Value is an amount measured in a unit.
type Value struct {
	Amount float64
	Unit   *unit.Unit
}

// Convert returns v's amount expressed in to, using the affine
// conversion unit.Unit.ConversionTo. It errors iff v.Unit and to are
// not commensurable.
func Convert(v Value, to *unit.Unit) (float64, error) {
	factor, offset, err := v.Unit.ConversionTo(to)
	if err != nil {
		return 0, fmt.Errorf("converting %v %s: %w", v.Amount, v.Unit, err)
	}
	return v.Amount*factor + offset, nil
}

// Duration interprets v as a time.Duration, valid only when v.Unit is
// commensurable with the base time unit "s" (seconds). The conversion
// goes through Convert against a unit created from "s" against the same
// System that resolved v.Unit, so it inherits whatever time unit
// family that system's configuration defines.
func Duration(v Value, sys *unit.System) (time.Duration, error) {
	seconds, err := sys.Create("s")
	if err != nil {
		return 0, fmt.Errorf("resolving base time unit: %w", err)
	}
	asSeconds, err := Convert(v, seconds)
	if err != nil {
		return 0, fmt.Errorf("value is not a duration: %w", err)
	}
	return time.Duration(asSeconds * float64(time.Second)), nil
}
