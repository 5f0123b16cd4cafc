package generics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortedKeys(t *testing.T) {
	m := map[string]float64{"b": 2, "c": 3, "a": 1}
	// Go map iteration is randomized, so repeat to show the order is stable.
	for range 100 {
		assert.Equal(t, []string{"a", "b", "c"}, SortedKeys(m))
	}
}

func TestSortedKeysAndValues(t *testing.T) {
	m := map[string]float64{"b": 2, "c": 3, "a": 1}
	for range 100 {
		var keys []string
		var values []float64
		for k, v := range SortedKeysAndValues(m) {
			keys = append(keys, k)
			values = append(values, v)
		}
		assert.Equal(t, []string{"a", "b", "c"}, keys)
		assert.Equal(t, []float64{1, 2, 3}, values)
	}

	// Early break.
	count := 0
	for range SortedKeysAndValues(m) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}
