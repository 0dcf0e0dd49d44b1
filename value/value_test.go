package value

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unitsys/resolver/unit"
)

func testSystem(t *testing.T) *unit.System {
	t.Helper()
	cfg, err := unit.LoadConfigJSON([]byte(`{
		"baseUnits": ["m", "s"],
		"units": {
			"mm": "m/1000",
			"min": "s*60",
			"ms": "s/1000"
		}
	}`))
	assert.NoError(t, err)
	sys, err := unit.NewSystem(cfg)
	assert.NoError(t, err)
	return sys
}

func TestConvertMillimetersToMeters(t *testing.T) {
	sys := testSystem(t)
	mm, err := sys.Create("mm")
	assert.NoError(t, err)
	m, err := sys.Create("m")
	assert.NoError(t, err)

	v := Value{Amount: 5000, Unit: mm}
	result, err := Convert(v, m)
	assert.NoError(t, err)
	assert.InDelta(t, 5.0, result, 1e-9)
}

func TestConvertIncommensurableFails(t *testing.T) {
	sys := testSystem(t)
	mm, err := sys.Create("mm")
	assert.NoError(t, err)
	s, err := sys.Create("s")
	assert.NoError(t, err)

	_, err = Convert(Value{Amount: 1, Unit: mm}, s)
	assert.Error(t, err)
}

func TestDurationFromMinutes(t *testing.T) {
	sys := testSystem(t)
	min, err := sys.Create("min")
	assert.NoError(t, err)

	d, err := Duration(Value{Amount: 2, Unit: min}, sys)
	assert.NoError(t, err)
	assert.Equal(t, 120.0, d.Seconds())
}

func TestDurationRejectsNonTimeUnit(t *testing.T) {
	sys := testSystem(t)
	m, err := sys.Create("m")
	assert.NoError(t, err)

	_, err = Duration(Value{Amount: 1, Unit: m}, sys)
	assert.Error(t, err)
}
