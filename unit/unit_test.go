package unit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unitsys/resolver/resolver"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := &Config{
		BaseUnits: []string{"m", "kg", "s", "K"},
		Prefixes: map[string]map[string]float64{
			"SI": {"k": 1000, "c": 0.01, "m": 0.001},
		},
		Units: map[string]string{
			"mm":     "m/1000",
			"in":     "m*0.0254",
			"N":      "kg*m/s^2",
			"J":      "N*m",
			"W":      "J/s",
			"degC":   "K + 273.15",
			"degF":   "K*5/9 + 255.372222222222",
			"degR":   "K*9/5",
			"[SI]g":  "kg/1000",
		},
	}
	cfg.applyDefaults()
	return cfg
}

func buildTestSystem(t *testing.T) *System {
	t.Helper()
	sys, err := NewSystem(testConfig(t))
	assert.NoError(t, err)
	return sys
}

func create(t *testing.T, sys *System, expr string) *Unit {
	t.Helper()
	u, err := sys.Create(expr)
	assert.NoError(t, err, "expr %q", expr)
	return u
}

// Invariant 1: every base unit resolves to its own basis vector with
// factor 1, offset 0.
func TestBaseUnitsResolveToOwnBasisVector(t *testing.T) {
	sys := buildTestSystem(t)
	for i, name := range []string{"m", "kg", "s", "K"} {
		u := create(t, sys, name)
		assert.Equal(t, 1.0, u.Info().Factor)
		assert.Equal(t, 0.0, u.Info().Offset)
		for j, e := range u.Info().Exponents {
			if j == i {
				assert.Equal(t, int32(exponentScale), e)
			} else {
				assert.Equal(t, int32(0), e)
			}
		}
	}
}

// Scenario 1: degF -> degC convert 32 => 0.
func TestDegFToDegCConversion(t *testing.T) {
	sys := buildTestSystem(t)
	degF := create(t, sys, "degF")
	degC := create(t, sys, "degC")

	factor, offset, err := degF.ConversionTo(degC)
	assert.NoError(t, err)
	result := 32*factor + offset
	assert.InDelta(t, 0.0, result, 1e-9)
}

// Scenario 2: in -> mm convert 1 => 25.4.
func TestInToMmConversion(t *testing.T) {
	sys := buildTestSystem(t)
	in := create(t, sys, "in")
	mm := create(t, sys, "mm")

	factor, offset, err := in.ConversionTo(mm)
	assert.NoError(t, err)
	assert.InDelta(t, 25.4, 1*factor+offset, 1e-9)
}

// Scenario 3: fractional exponent tolerance.
func TestFractionalExponentTolerance(t *testing.T) {
	sys := buildTestSystem(t)

	a := create(t, sys, "m^1.333")
	b := create(t, sys, "m^(4/3)")
	assert.True(t, Commensurable(a.Info(), b.Info()))

	c := create(t, sys, "m^1.3")
	assert.False(t, Commensurable(c.Info(), b.Info()))
}

// Scenario 4: J/s commensurable with W, factor 1 offset 0.
func TestJoulesPerSecondMatchesWatt(t *testing.T) {
	sys := buildTestSystem(t)
	joulesPerSecond := create(t, sys, "J/s")
	watt := create(t, sys, "W")

	factor, offset, err := joulesPerSecond.ConversionTo(watt)
	assert.NoError(t, err)
	assert.InDelta(t, 1.0, factor, 1e-12)
	assert.InDelta(t, 0.0, offset, 1e-12)
}

// Scenario 5: pow(m, -2) negates the exponent.
func TestPowNegativeExponent(t *testing.T) {
	sys := buildTestSystem(t)
	u := create(t, sys, "pow(m, -2)")
	assert.Equal(t, 1.0, u.Info().Factor)
	assert.Equal(t, 0.0, u.Info().Offset)
	assert.Equal(t, int32(-2*exponentScale), u.Info().Exponents[0])
}

// Scenario 6: degC^2 is OffsetMisuse.
func TestOffsetUnitCannotBeRaisedToPower(t *testing.T) {
	sys := buildTestSystem(t)
	_, err := sys.Create("degC^2")
	assert.Error(t, err)
	rerr, ok := err.(*resolver.Error)
	assert.True(t, ok)
	assert.Equal(t, KindOffsetMisuse, rerr.Kind)
	assert.Contains(t, rerr.Message, "cannot be raised to a power")
}

// Scenario 7: unmatched parens.
func TestUnmatchedParens(t *testing.T) {
	sys := buildTestSystem(t)
	_, err := sys.Create("((m)")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Missing right parenthesis")
}

// Scenario 8: incommensurable addition.
func TestIncommensurableAddition(t *testing.T) {
	sys := buildTestSystem(t)
	_, err := sys.Create("m + s")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must be commensurable")
}

// Scenario 9: unknown name with suggestions.
func TestUnknownNameSuggestsNeighbors(t *testing.T) {
	sys := buildTestSystem(t)
	_, err := sys.Create("degc")
	assert.Error(t, err)
	rerr, ok := err.(*resolver.Error)
	assert.True(t, ok)
	assert.Equal(t, resolver.KindUnknownName, rerr.Kind)
	assert.Contains(t, rerr.Suggestions, "degC")
	assert.Contains(t, rerr.Suggestions, "degF")
	assert.Contains(t, rerr.Suggestions, "degR")
}

// Round-trip laws.
func TestPowCaretAndRepeatedMultiplicationAgree(t *testing.T) {
	sys := buildTestSystem(t)
	pow := create(t, sys, "pow(m, 2)")
	caret := create(t, sys, "m^2")
	mulmul := create(t, sys, "m*m")

	assert.Equal(t, pow.Info().Exponents, caret.Info().Exponents)
	assert.Equal(t, caret.Info().Exponents, mulmul.Info().Exponents)
	assert.InDelta(t, pow.Info().Factor, caret.Info().Factor, 1e-12)
	assert.InDelta(t, caret.Info().Factor, mulmul.Info().Factor, 1e-12)
}

func TestMultiplyThenDivideIsIdentity(t *testing.T) {
	sys := buildTestSystem(t)
	a := create(t, sys, "m")
	b := create(t, sys, "kg")

	result := create(t, sys, "(m * kg) / kg")
	assert.Equal(t, a.Info().Exponents, result.Info().Exponents)
	assert.InDelta(t, a.Info().Factor, result.Info().Factor, 1e-12)
	_ = b
}

func TestDoubleNegationIsIdentity(t *testing.T) {
	sys := buildTestSystem(t)
	a := create(t, sys, "m")
	b := create(t, sys, "-(-m)")
	assert.Equal(t, a.Info().Exponents, b.Info().Exponents)
	assert.Equal(t, a.Info().Factor, b.Info().Factor)
	assert.Equal(t, a.Info().Offset, b.Info().Offset)
}

// Boundary cases.
func TestBoundaryCases(t *testing.T) {
	sys := buildTestSystem(t)

	tests := []string{
		"",
		" ",
		"(m",
		",",
		"pow(2,,3)",
		"2 ** 3",
	}
	for _, expr := range tests {
		t.Run(expr, func(t *testing.T) {
			_, err := sys.Create(expr)
			assert.Error(t, err)
		})
	}
}

func TestSignedExponentLiterals(t *testing.T) {
	sys := buildTestSystem(t)
	u, err := sys.Create("1e+3 * m")
	assert.NoError(t, err)
	assert.InDelta(t, 1000.0, u.Info().Factor, 1e-9)

	u2, err := sys.Create("1e-2 * m")
	assert.NoError(t, err)
	assert.InDelta(t, 0.01, u2.Info().Factor, 1e-9)
}

// Prefix collision with a pre-existing base unit falls back to the
// bracketed disambiguation instead of overwriting the base.
func TestPrefixCollisionFallsBackToBracketedName(t *testing.T) {
	sys := buildTestSystem(t)

	base := create(t, sys, "kg")
	assert.Equal(t, 1.0, base.Info().Factor, "kg must remain the untouched base unit")

	bracketed := create(t, sys, "[k]g")
	assert.InDelta(t, 1.0, bracketed.Info().Factor, 1e-12)

	centi := create(t, sys, "cg")
	assert.InDelta(t, 0.00001, centi.Info().Factor, 1e-12)
}

// spec.md:130's own worked example: a bare unit name ("min", minutes)
// must win over a colliding prefix expansion of another unit
// ("milli-in" expanding to "min"), regardless of config key order --
// here "[SI]in" sorts before "min" alphabetically, so the prefix
// expansion is the one that is attempted first and must be the one
// bracketed, not the bare "min" binding.
func TestBareNameWinsOverPrefixExpansionRegardlessOfConfigOrder(t *testing.T) {
	cfg := &Config{
		BaseUnits: []string{"m", "s"},
		Prefixes: map[string]map[string]float64{
			"SI": {"m": 0.001},
		},
		Units: map[string]string{
			"[SI]in": "0.0254*m",
			"min":    "60*s",
		},
	}
	cfg.applyDefaults()
	sys, err := NewSystem(cfg)
	assert.NoError(t, err)

	minutes := create(t, sys, "min")
	assert.InDelta(t, 60.0, minutes.Info().Factor, 1e-12, "bare \"min\" must remain bound to minutes")
	assert.Equal(t, int32(0), minutes.Info().Exponents[0], "minutes has no length component")

	milliInch := create(t, sys, "[m]in")
	assert.InDelta(t, 0.0254*0.001, milliInch.Info().Factor, 1e-12)
}

func TestForwardReferencingUnitConfigResolvesViaFixedPoint(t *testing.T) {
	// "J" is defined in terms of "N". Entries are visited in sorted key
	// order, so "J" is attempted before "N" exists and must be retried
	// by the fixed-point pass once "N" has resolved.
	cfg := &Config{
		BaseUnits: []string{"m", "kg", "s"},
		Units: map[string]string{
			"J": "N*m",
			"N": "kg*m/s^2",
		},
	}
	cfg.applyDefaults()
	_, err := NewSystem(cfg)
	assert.NoError(t, err)
}

func TestUnresolvableUnitConfigFails(t *testing.T) {
	cfg := &Config{
		BaseUnits: []string{"m"},
		Units: map[string]string{
			"bogus": "undefined_name * 2",
		},
	}
	cfg.applyDefaults()
	_, err := NewSystem(cfg)
	assert.Error(t, err)
}

func TestConcurrentCreateIsConsistent(t *testing.T) {
	sys := buildTestSystem(t)
	done := make(chan UnitInfo, 64)
	for i := 0; i < 64; i++ {
		go func() {
			u, err := sys.Create("J/s")
			assert.NoError(t, err)
			done <- u.Info()
		}()
	}
	var first UnitInfo
	for i := 0; i < 64; i++ {
		info := <-done
		if i == 0 {
			first = info
		} else {
			assert.Equal(t, first.Exponents, info.Exponents)
			assert.Equal(t, first.Factor, info.Factor)
		}
	}
}

func TestRoundExponentRoundsHalfAwayFromZero(t *testing.T) {
	v, err := roundExponent(2.5)
	assert.NoError(t, err)
	assert.Equal(t, int32(3), v)

	v, err = roundExponent(-2.5)
	assert.NoError(t, err)
	assert.Equal(t, int32(-3), v)
}

func TestExponentOverflow(t *testing.T) {
	_, err := roundExponent(math.MaxInt32 + 1000.0)
	assert.Error(t, err)
	rerr, ok := err.(*resolver.Error)
	assert.True(t, ok)
	assert.Equal(t, KindExponentOverflow, rerr.Kind)
}
