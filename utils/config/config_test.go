package config_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/metrosim/utils/config"
)

func TestDefaults(t *testing.T) {
	c, err := config.Parse(nil)
	require.NoError(t, err)
	rc := config.NewRuntimeConfig(c)
	assert.InDelta(t, 1000./60, rc.C.Step.Interval, 1e-12)
	assert.Equal(t, 120000., rc.C.DayLength)
	assert.Equal(t, 12, rc.Station.BaseCapacity)
	assert.Equal(t, 60000., rc.Station.GraceBase)
	assert.Equal(t, 90000., rc.Passenger.MaxWait)
	assert.Equal(t, []float64{0.5, 0.75}, rc.Train.EarlyDwellFactors)
	assert.Equal(t, 3, rc.Resources.Trains)
	assert.Equal(t, 2, rc.Resources.Permits)
	require.NotNil(t, rc.AutoRoute.Weights)
	assert.Equal(t, 8., rc.AutoRoute.Weights.Overcrowded)
	assert.Len(t, rc.Palette, 8)
	assert.Empty(t, rc.Corridor)
}

func TestParseOverrides(t *testing.T) {
	c, err := config.Parse([]byte(`
control:
  step:
    interval: 20
    total: 100
station:
  base_capacity: 5
resources:
  trains: 7
corridor:
  polygon: [[0, 0], [10, 0], [10, 10]]
palette: ["#000000"]
`))
	require.NoError(t, err)
	rc := config.NewRuntimeConfig(c)
	assert.Equal(t, 20., rc.C.Step.Interval)
	assert.Equal(t, int32(100), rc.C.Step.Total)
	assert.Equal(t, 5, rc.Station.BaseCapacity)
	assert.Equal(t, 6, rc.Station.MinCapacity)
	assert.Equal(t, 7, rc.Resources.Trains)
	assert.Equal(t, orb.Ring{{0, 0}, {10, 0}, {10, 10}}, rc.Corridor)
	assert.Equal(t, []string{"#000000"}, rc.Palette)
	// 原始配置保持不变
	assert.Zero(t, rc.All.Station.MinCapacity)
}

func TestParseStrict(t *testing.T) {
	_, err := config.Parse([]byte("station:\n  capacity: 5\n"))
	assert.Error(t, err)
	_, err = config.Parse([]byte("control: [1, 2]"))
	assert.Error(t, err)
}
