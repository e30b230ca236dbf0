package clock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/metrosim/clock"
	"github.com/tsinghua-fib-lab/metrosim/utils/config"
)

func TestTickAndFinished(t *testing.T) {
	c := clock.New(config.ControlStep{Start: 2, Total: 3, Interval: 500}, 10000)
	assert.Equal(t, int32(2), c.InternalStep)
	assert.Equal(t, 1000., c.T)
	for _i := 0; _i < 3; _i++ {
		assert.False(t, c.Finished())
		c.Tick()
	}
	assert.True(t, c.Finished())
	assert.Equal(t, 2500., c.T)

	c.Init()
	assert.Equal(t, int32(2), c.InternalStep)
	assert.False(t, c.Finished())
}

func TestUnlimited(t *testing.T) {
	c := clock.New(config.ControlStep{Interval: 1000}, 0)
	for _i := 0; _i < 1000; _i++ {
		c.Tick()
	}
	assert.False(t, c.Finished())
	assert.Equal(t, 1, c.Day())
}

func TestDayAndString(t *testing.T) {
	c := clock.New(config.ControlStep{Interval: 1000}, 120000)
	assert.Equal(t, 1, c.Day())
	assert.Equal(t, "Day 1 00:00:00.000", c.String())

	c.T = 120000 + 61500
	assert.Equal(t, 2, c.Day())
	assert.Equal(t, "Day 2 00:01:01.500", c.String())
}
