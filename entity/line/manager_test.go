package line_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/metrosim/entity"
	"github.com/tsinghua-fib-lab/metrosim/entity/line"
	"github.com/tsinghua-fib-lab/metrosim/task"
	"github.com/tsinghua-fib-lab/metrosim/utils/config"
	"github.com/tsinghua-fib-lab/metrosim/utils/input"
)

func newContext(t *testing.T, mutate func(c *config.Config), stations ...input.Station) *task.Context {
	t.Helper()
	var c config.Config
	c.Station.SpawnDisabled = true
	c.Passenger.SpawnDisabled = true
	if mutate != nil {
		mutate(&c)
	}
	ctx := task.NewContext(c, &input.Input{Scenario: input.Scenario{Stations: stations}}, nil)
	ctx.Init()
	return ctx
}

func grid() []input.Station {
	return []input.Station{
		{ID: 0, X: 0, Y: 0},
		{ID: 1, X: 300, Y: 0},
		{ID: 2, X: 300, Y: 300},
		{ID: 3, X: 0, Y: 300},
	}
}

func TestCreateLineValidation(t *testing.T) {
	ctx := newContext(t, func(c *config.Config) {
		c.Resources.Lines = 2
	}, grid()...)
	lm := ctx.LineManager()

	_, err := lm.CreateLine([]int32{0}, -1)
	assert.ErrorIs(t, err, line.ErrTooFewStations)
	_, err = lm.CreateLine([]int32{0, 1, 0}, -1)
	assert.ErrorIs(t, err, line.ErrDuplicateStation)
	_, err = lm.CreateLine([]int32{0, 1, 1, 2}, -1)
	assert.ErrorIs(t, err, line.ErrDuplicateStation)
	_, err = lm.CreateLine([]int32{0, 9}, -1)
	assert.ErrorIs(t, err, line.ErrUnknownStation)
	_, lines, _ := ctx.Counters()
	assert.Equal(t, 2, lines)
	assert.Zero(t, lm.Version())

	loop, err := lm.CreateLine([]int32{0, 1, 2, 0}, -1)
	require.NoError(t, err)
	assert.True(t, loop.IsLoop)
	assert.Equal(t, []int32{0, 1, 2}, loop.Stations)
	assert.Len(t, loop.Pairs(), 3)
	assert.Equal(t, uint64(1), lm.Version())

	_, err = lm.CreateLine([]int32{3, 2}, -1)
	require.NoError(t, err)
	_, err = lm.CreateLine([]int32{3, 0}, -1)
	assert.ErrorIs(t, err, line.ErrNoLineAvailable)

	for _, id := range []int32{0, 1} {
		assert.Equal(t, []int32{0}, ctx.StationManager().Get(id).ConnectionIDs())
	}
	assert.Equal(t, []int32{0, 1}, ctx.StationManager().Get(2).ConnectionIDs())
}

func TestPermits(t *testing.T) {
	ctx := newContext(t, func(c *config.Config) {
		c.Resources.Permits = 1
		c.Corridor.Polygon = [][2]float64{{100, -50}, {200, -50}, {200, 50}, {100, 50}}
	}, grid()...)
	lm := ctx.LineManager()

	assert.Equal(t, 2, lm.Crossings(ctx.StationManager().Get(0).Pos, ctx.StationManager().Get(1).Pos))
	_, err := lm.CreateLine([]int32{0, 1}, -1)
	assert.ErrorIs(t, err, line.ErrPermitExhausted)
	_, lines, permits := ctx.Counters()
	assert.Equal(t, 3, lines)
	assert.Equal(t, 1, permits)

	require.True(t, ctx.AddResources(0, 0, 1))
	_, err = lm.CreateLine([]int32{0, 1}, -1)
	require.NoError(t, err)
	_, _, permits = ctx.Counters()
	assert.Zero(t, permits)

	_, err = lm.CreateLine([]int32{3, 2}, -1)
	require.NoError(t, err)
}

func TestInsertStation(t *testing.T) {
	ctx := newContext(t, nil, grid()...)
	lm := ctx.LineManager()
	l, err := lm.CreateLine([]int32{0, 1}, -1)
	require.NoError(t, err)
	v := lm.Version()

	require.NoError(t, lm.InsertStation(l.ID, 2, 2))
	assert.Equal(t, []int32{0, 1, 2}, l.Stations)
	assert.Len(t, l.StationOffsets, 3)
	assert.Greater(t, lm.Version(), v)
	assert.Equal(t, []int32{0}, ctx.StationManager().Get(2).ConnectionIDs())

	require.NoError(t, lm.InsertStation(l.ID, 3, 0))
	assert.Equal(t, []int32{3, 0, 1, 2}, l.Stations)

	assert.ErrorIs(t, lm.InsertStation(l.ID, 2, 1), line.ErrStationOnLine)
	assert.ErrorIs(t, lm.InsertStation(9, 2, 1), line.ErrNoSuchLine)
	assert.ErrorIs(t, lm.InsertStation(l.ID, 9, 1), line.ErrUnknownStation)

	l2, err := lm.CreateLine([]int32{0, 2}, -1)
	require.NoError(t, err)
	assert.ErrorIs(t, lm.InsertStation(l2.ID, 1, 5), line.ErrBadIndex)
}

func TestColorAssignment(t *testing.T) {
	ctx := newContext(t, func(c *config.Config) {
		c.Palette = []string{"#111111", "#222222"}
		c.Resources.Lines = 4
	}, grid()...)
	lm := ctx.LineManager()

	a, err := lm.CreateLine([]int32{0, 1}, -1)
	require.NoError(t, err)
	b, err := lm.CreateLine([]int32{1, 2}, -1)
	require.NoError(t, err)
	assert.Equal(t, 0, a.ColorIndex)
	assert.Equal(t, 1, b.ColorIndex)

	// 颜色用完后复用最久未分配的颜色
	c, err := lm.CreateLine([]int32{2, 3}, -1)
	require.NoError(t, err)
	assert.Equal(t, 0, c.ColorIndex)

	d, err := lm.CreateLine([]int32{3, 0}, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, d.ColorIndex)
	assert.Equal(t, "#111111", entity.ColorOf(ctx.World(), d))
}

func TestRebuildWaypoints(t *testing.T) {
	ctx := newContext(t, nil,
		input.Station{ID: 0, X: 0, Y: 0, Interchange: true},
		input.Station{ID: 1, X: 400, Y: 0},
		input.Station{ID: 2, X: 400, Y: 300, Final: true},
		input.Station{ID: 3, X: 0, Y: 20},
		input.Station{ID: 4, X: 400, Y: 20},
	)
	lm := ctx.LineManager()
	a, err := lm.CreateLine([]int32{0, 1, 2}, -1)
	require.NoError(t, err)
	b, err := lm.CreateLine([]int32{3, 4}, -1)
	require.NoError(t, err)

	for _, ln := range []*entity.Line{a, b} {
		require.Len(t, ln.StationOffsets, len(ln.Stations), ln.String())
		assert.Equal(t, 0., ln.StationOffsets[0], ln.String())
		assert.InDelta(t, 1., ln.StationOffsets[len(ln.StationOffsets)-1], 1e-12, ln.String())
		for i := 1; i < len(ln.StationOffsets); i++ {
			assert.GreaterOrEqual(t, ln.StationOffsets[i], ln.StationOffsets[i-1], ln.String())
		}
		assert.Len(t, ln.Lengths, len(ln.Waypoints), ln.String())
		assert.InDelta(t, ln.Lengths[len(ln.Lengths)-1], ln.TotalLength, 1e-9, ln.String())
	}
	assert.InDelta(t, 700, a.StationLength, 1e-9)

	// 相同状态下重建结果不变
	before := append(b.Waypoints[:0:0], b.Waypoints...)
	lm.RebuildWaypoints(b)
	assert.Equal(t, before, b.Waypoints)
	beforeA := append(a.Waypoints[:0:0], a.Waypoints...)
	lm.RebuildWaypoints(a)
	assert.Equal(t, beforeA, a.Waypoints)
}

func TestRebuildWaypointsCloseStations(t *testing.T) {
	stations := []input.Station{
		{ID: 0, X: 0, Y: 0},
		{ID: 1, X: 8, Y: 0},
		{ID: 2, X: 300, Y: 0},
	}

	// 两个站点距离不足一个网格
	short, err := newContext(t, nil, stations...).LineManager().CreateLine([]int32{0, 1}, -1)
	require.NoError(t, err)
	assert.Greater(t, short.TotalLength, 0.)
	assert.Equal(t, []float64{0, 1}, short.StationOffsets)

	long, err := newContext(t, nil, stations...).LineManager().CreateLine([]int32{0, 1, 2}, -1)
	require.NoError(t, err)
	require.Len(t, long.StationOffsets, 3)
	for i := 1; i < len(long.StationOffsets); i++ {
		assert.Greater(t, long.StationOffsets[i], long.StationOffsets[i-1])
	}
	assert.InDelta(t, 1., long.StationOffsets[2], 1e-12)
}

func TestRemoveLineRebuildsLaterLines(t *testing.T) {
	ctx := newContext(t, nil,
		input.Station{ID: 0, X: 0, Y: 0},
		input.Station{ID: 1, X: 400, Y: 0},
		input.Station{ID: 2, X: 0, Y: 10},
		input.Station{ID: 3, X: 400, Y: 10},
	)
	lm := ctx.LineManager()
	a, err := lm.CreateLine([]int32{0, 1}, -1)
	require.NoError(t, err)
	b, err := lm.CreateLine([]int32{2, 3}, -1)
	require.NoError(t, err)
	bundled := append(b.Waypoints[:0:0], b.Waypoints...)

	require.NoError(t, lm.RemoveLine(a.ID))
	assert.ErrorIs(t, lm.RemoveLine(a.ID), line.ErrNoSuchLine)

	// 没有上游线路后，重建结果与单独建线相同
	fresh := newContext(t, nil,
		input.Station{ID: 0, X: 0, Y: 0},
		input.Station{ID: 1, X: 400, Y: 0},
		input.Station{ID: 2, X: 0, Y: 10},
		input.Station{ID: 3, X: 400, Y: 10},
	)
	alone, err := fresh.LineManager().CreateLine([]int32{2, 3}, -1)
	require.NoError(t, err)
	assert.Equal(t, alone.Waypoints, b.Waypoints)
	assert.NotEqual(t, bundled, b.Waypoints)
}
