package encoding

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unitsys/resolver/unit"
)

func testSystem(t *testing.T) *unit.System {
	t.Helper()
	cfg, err := unit.LoadConfigJSON([]byte(`{
		"baseUnits": ["m", "kg", "s"],
		"units": {
			"mm": "m/1000",
			"N":  "kg*m/s^2"
		}
	}`))
	assert.NoError(t, err)
	sys, err := unit.NewSystem(cfg)
	assert.NoError(t, err)
	return sys
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	sys := testSystem(t)
	u, err := sys.Create("N/s")
	assert.NoError(t, err)

	text, err := MarshalText(u)
	assert.NoError(t, err)
	assert.Equal(t, "N/s", string(text))

	round, err := UnmarshalText(text, sys)
	assert.NoError(t, err)
	assert.Equal(t, u.Info().Exponents, round.Info().Exponents)
	assert.InDelta(t, u.Info().Factor, round.Info().Factor, 1e-12)
}

func TestMarshalNilUnitFails(t *testing.T) {
	_, err := MarshalText(nil)
	assert.Error(t, err)
}

func TestUnmarshalInvalidTextFails(t *testing.T) {
	sys := testSystem(t)
	_, err := UnmarshalText([]byte("not_a_unit"), sys)
	assert.Error(t, err)
}
