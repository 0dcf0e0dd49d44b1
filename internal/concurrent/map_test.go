package concurrent

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapWithErrorsPreservesOrder(t *testing.T) {
	inputs := []int{5, 4, 3, 2, 1, 0}
	results, errs := MapWithErrors(inputs, 4, func(n int) (int, error) {
		return n * n, nil
	})

	assert.Equal(t, []int{25, 16, 9, 4, 1, 0}, results)
	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestMapWithErrorsCollectsPerItemFailures(t *testing.T) {
	inputs := []int{1, 2, 3, 4}
	results, errs := MapWithErrors(inputs, 2, func(n int) (int, error) {
		if n%2 == 0 {
			return 0, fmt.Errorf("even: %d", n)
		}
		return n, nil
	})

	assert.Equal(t, 4, len(results))
	assert.Equal(t, 4, len(errs))
	assert.NoError(t, errs[0])
	assert.Error(t, errs[1])
	assert.NoError(t, errs[2])
	assert.Error(t, errs[3])
	// one failing item must not have blocked the others from running.
	assert.Equal(t, 1, results[0])
	assert.Equal(t, 3, results[2])
}

func TestMapWithErrorsSerialModeAndUnlimited(t *testing.T) {
	inputs := []int{1, 2, 3}

	results, errs := MapWithErrors(inputs, 0, func(n int) (int, error) { return n, nil })
	assert.Equal(t, inputs, results)
	for _, err := range errs {
		assert.NoError(t, err)
	}

	results, errs = MapWithErrors(inputs, -1, func(n int) (int, error) { return n * 2, nil })
	assert.Equal(t, []int{2, 4, 6}, results)
	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestMapWithErrorsEmptyInput(t *testing.T) {
	results, errs := MapWithErrors([]int{}, 4, func(n int) (int, error) { return n, nil })
	assert.Empty(t, results)
	assert.Empty(t, errs)
}

func TestMapWithErrorsAllFail(t *testing.T) {
	inputs := []string{"a", "b", "c"}
	_, errs := MapWithErrors(inputs, 2, func(s string) (string, error) {
		return "", errors.New("always fails: " + s)
	})
	for i, err := range errs {
		assert.Error(t, err)
		assert.Contains(t, err.Error(), inputs[i])
	}
}
