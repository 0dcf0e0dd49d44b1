package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrewarmResolvesEveryExpression(t *testing.T) {
	expressions := []string{"a", "b", "c", "d"}
	failures := Prewarm(expressions, 2, func(expr string) (string, error) {
		return expr + "!", nil
	})
	assert.Empty(t, failures)
}

func TestPrewarmCollectsFailuresByExpression(t *testing.T) {
	expressions := []string{"ok1", "bad1", "ok2", "bad2"}
	failures := Prewarm(expressions, 2, func(expr string) (string, error) {
		if expr == "bad1" || expr == "bad2" {
			return "", fmt.Errorf("cannot resolve %s", expr)
		}
		return expr, nil
	})

	assert.Len(t, failures, 2)
	assert.Error(t, failures["bad1"])
	assert.Error(t, failures["bad2"])
	_, ok := failures["ok1"]
	assert.False(t, ok)
}
