package randengine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/metrosim/utils/randengine"
)

func TestDiscreteDistribution(t *testing.T) {
	e := randengine.New(1)
	assert.Equal(t, -1, e.DiscreteDistribution(nil))
	assert.Equal(t, -1, e.DiscreteDistribution([]float64{0, 0}))
	for _i := 0; _i < 100; _i++ {
		assert.Equal(t, 2, e.DiscreteDistribution([]float64{0, 0, 3, 0}))
	}
	counts := make([]int, 2)
	for _i := 0; _i < 10000; _i++ {
		counts[e.DiscreteDistribution([]float64{1, 3})]++
	}
	assert.InDelta(t, 0.75, float64(counts[1])/10000, 0.03)
}

func TestReproducible(t *testing.T) {
	a, b := randengine.New(42), randengine.New(42)
	for _i := 0; _i < 20; _i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
	for _i := 0; _i < 100; _i++ {
		v := a.Uniform(-2, 5)
		assert.GreaterOrEqual(t, v, -2.)
		assert.Less(t, v, 5.)
	}
	assert.False(t, a.PTrue(0))
	assert.True(t, a.PTrue(1))
}
