package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// go test --run TestGeneratorEach

func TestGeneratorEach(t *testing.T) {
	generator := SliceGenerator([]int{1, 2, 3, 4})

	var seen []int
	generator.Each(func(value int, _ int) bool {
		seen = append(seen, value)
		return value == 2
	})
	assert.Equal(t, []int{1, 2}, seen)

	// an unpulled generator walks again from the start
	assert.Equal(t, []int{1, 2, 3, 4}, Collect(generator))
	assert.Empty(t, Collect(EmptyGenerator[int, int]()))
}

// go test --run TestGeneratorNext

func TestGeneratorNext(t *testing.T) {
	generator := NewGenerator(func(yield YieldFn[string, int]) {
		for idx, value := range []string{"a", "b", "c"} {
			if yield(value, idx) {
				return
			}
		}
	})

	value, key, done := generator.Next()
	assert.Equal(t, "a", value)
	assert.Equal(t, 0, key)
	assert.False(t, done)

	// Each continues where Next stopped
	assert.Equal(t, []string{"b", "c"}, Collect(generator))

	_, _, done = generator.Next()
	assert.True(t, done)
}

// go test --run TestGeneratorCancel

func TestGeneratorCancel(t *testing.T) {
	stopped := false
	generator := NewGenerator(func(yield YieldFn[int, int]) {
		defer func() {
			stopped = true
		}()
		for idx := 0; ; idx++ {
			if yield(idx, idx) {
				return
			}
		}
	})

	value, _, _ := generator.Next()
	assert.Equal(t, 0, value)
	generator.Cancel()
	assert.True(t, stopped)
}

// go test --run TestGeneratorAll

func TestGeneratorAll(t *testing.T) {
	var keys []int
	for _, key := range SliceGenerator([]string{"x", "y", "z"}).All() {
		keys = append(keys, key)
		if key == 1 {
			break
		}
	}
	assert.Equal(t, []int{0, 1}, keys)
}
