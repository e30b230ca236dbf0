package autoroute_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/metrosim/entity/autoroute"
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

func row(n int) []input.Station {
	res := make([]input.Station, n)
	for i := range res {
		res[i] = input.Station{ID: int32(i), X: float64(200 * i), Y: 0}
	}
	return res
}

func builder(ctx *task.Context) *autoroute.Builder {
	return ctx.AutoRouter().(*autoroute.Builder)
}

func TestComplexity(t *testing.T) {
	ctx := newContext(t, nil, row(4)...)
	require.True(t, ctx.Step())
	// 4个站点各1分，4个未连接站点各3分
	assert.InDelta(t, 16, ctx.AutoRouter().Complexity(), 1e-9)
	assert.InDelta(t, 16, ctx.World().Stats.Complexity, 1e-9)
	assert.False(t, ctx.AutoRouter().Enabled())

	require.True(t, ctx.CreateLine([]int32{0, 1}, -1))
	// 乘客在未被服务的站点等待，不会被新车带走
	_, err := ctx.PassengerManager().Spawn(2, 3)
	require.NoError(t, err)
	// 1条线路2分，2个未连接站点，1个等待乘客0.5分
	assert.InDelta(t, 2+4+6+0.5, builder(ctx).Score(), 1e-9)
}

func TestAutoEnableByComplexity(t *testing.T) {
	ctx := newContext(t, func(c *config.Config) {
		c.AutoRoute.EnableThreshold = 10
	}, row(4)...)
	require.True(t, ctx.Step())
	assert.True(t, ctx.AutoRouter().Enabled())
	// 启用后立即建立初始线网
	require.Len(t, ctx.LineManager().All(), 1)
}

func TestToggleOverridesAutoSwitch(t *testing.T) {
	ctx := newContext(t, func(c *config.Config) {
		c.AutoRoute.EnableThreshold = 10
	}, row(4)...)
	assert.True(t, ctx.ToggleAutoRouting())
	assert.False(t, ctx.ToggleAutoRouting())
	for _i := 0; _i < 100; _i++ {
		require.True(t, ctx.Step())
	}
	assert.False(t, ctx.AutoRouter().Enabled())
	assert.Empty(t, ctx.LineManager().All())
}

func TestBootstrapThenConnectIsolated(t *testing.T) {
	ctx := newContext(t, nil, row(4)...)
	require.True(t, ctx.ToggleAutoRouting())
	require.True(t, ctx.Step())

	lines := ctx.LineManager().All()
	require.Len(t, lines, 1)
	assert.Equal(t, []int32{0, 1, 2}, lines[0].Stations)

	// 冷却期内不再动作
	for ctx.Clock().T < 5000 {
		require.True(t, ctx.Step())
	}
	assert.Equal(t, []int32{0, 1, 2}, lines[0].Stations)

	for ctx.Clock().T < 10000 {
		require.True(t, ctx.Step())
	}
	require.Len(t, ctx.LineManager().All(), 1)
	assert.Equal(t, []int32{0, 1, 2, 3}, lines[0].Stations)
	for _, s := range ctx.StationManager().All() {
		assert.True(t, s.Connected())
	}
}

func TestActRules(t *testing.T) {
	ctx := newContext(t, nil,
		input.Station{ID: 0, X: 0, Y: 0, Final: true},
		input.Station{ID: 1, X: 200, Y: 0},
		input.Station{ID: 2, X: 400, Y: 0, Interchange: true},
		input.Station{ID: 3, X: 0, Y: 400, Interchange: true},
	)
	b := builder(ctx)

	// 从第一个枢纽出发贪心连接最近的站点
	name, ok := b.Act()
	require.True(t, ok)
	assert.Equal(t, "bootstrap", name)
	assert.Equal(t, []int32{0, 1, 2}, ctx.LineManager().Get(0).Stations)

	// 站点3未连接，最近的已连接站点0是线路端点，延长线路
	name, ok = b.Act()
	require.True(t, ok)
	assert.Equal(t, "connect-isolated", name)
	assert.Equal(t, []int32{3, 0, 1, 2}, ctx.LineManager().Get(0).Stations)

	// 所有站点都已连通，没有需要处理的情况
	_, ok = b.Act()
	assert.False(t, ok)
}

func TestLinkHubs(t *testing.T) {
	ctx := newContext(t, nil,
		input.Station{ID: 0, X: 0, Y: 0, Interchange: true},
		input.Station{ID: 1, X: 200, Y: 0},
		input.Station{ID: 2, X: 600, Y: 0, Interchange: true},
		input.Station{ID: 3, X: 800, Y: 0},
	)
	require.True(t, ctx.CreateLine([]int32{0, 1}, -1))
	require.True(t, ctx.CreateLine([]int32{2, 3}, -1))
	name, ok := builder(ctx).Act()
	require.True(t, ok)
	assert.Equal(t, "link-hubs", name)
	assert.Equal(t, []int32{0, 2}, ctx.LineManager().Get(2).Stations)
}
