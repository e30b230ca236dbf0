package task_test

import (
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/metrosim/entity"
	"github.com/tsinghua-fib-lab/metrosim/task"
	"github.com/tsinghua-fib-lab/metrosim/utils/config"
	"github.com/tsinghua-fib-lab/metrosim/utils/input"
)

// newContext 创建关闭了站点与乘客生成的测试场景
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

func TestTrainRoundTrip(t *testing.T) {
	ctx := newContext(t, func(c *config.Config) {
		c.Control.Step.Interval = 7.8125
		c.Train.Speed = 1
		c.Resources.Trains = 1
	},
		input.Station{ID: 0, X: 0, Y: 0},
		input.Station{ID: 1, X: 1000, Y: 0},
	)
	for _, s := range ctx.StationManager().All() {
		s.Turnaround = 0
	}
	require.True(t, ctx.CreateLine([]int32{0, 1}, -1))

	// 使用直线折线，使到站时间可以精确计算
	l := ctx.LineManager().Get(0)
	l.Waypoints = orb.LineString{{0, 0}, {1000, 0}}
	l.Lengths = []float64{0, 1000}
	l.TotalLength = 1000
	l.StationOffsets = []float64{0, 1}

	trains := ctx.TrainManager().All()
	require.Len(t, trains, 1)
	tr := trains[0]
	assert.Equal(t, int32(0), tr.LastStationVisited)
	assert.Equal(t, entity.TrainRunning, tr.State)

	var arrivals []float64
	var visited []int32
	prev := tr.LastStationVisited
	for i := 0; i < 400 && len(arrivals) < 2; i++ {
		require.True(t, ctx.Step())
		require.GreaterOrEqual(t, tr.Position, 0.)
		require.LessOrEqual(t, tr.Position, 1.)
		if tr.LastStationVisited != prev {
			prev = tr.LastStationVisited
			arrivals = append(arrivals, ctx.Clock().T)
			visited = append(visited, prev)
			if len(visited) == 1 {
				assert.Equal(t, entity.BACKWARD, tr.Direction)
			}
		}
	}
	require.Len(t, arrivals, 2)
	assert.Equal(t, []int32{1, 0}, visited)
	assert.InDelta(t, 1000, arrivals[0], 1e-9)
	assert.InDelta(t, 2000, arrivals[1], 1e-9)
	assert.Equal(t, entity.FORWARD, tr.Direction)
}

func TestCloseStationsAreServed(t *testing.T) {
	ctx := newContext(t, func(c *config.Config) {
		c.Resources.Trains = 1
	},
		input.Station{ID: 0, X: 0, Y: 0},
		input.Station{ID: 1, X: 8, Y: 0},
		input.Station{ID: 2, X: 300, Y: 0},
	)
	// 站点0与站点1吸附到同一网格点
	require.True(t, ctx.CreateLine([]int32{0, 1, 2}, -1))
	tr := ctx.TrainManager().All()[0]

	var visited []int32
	prev := tr.LastStationVisited
	for i := 0; i < 5000 && len(visited) < 2; i++ {
		require.True(t, ctx.Step())
		if tr.LastStationVisited != prev {
			prev = tr.LastStationVisited
			visited = append(visited, prev)
		}
	}
	assert.Equal(t, []int32{1, 2}, visited)
}

func TestOvercrowdingEndsGame(t *testing.T) {
	ctx := newContext(t, func(c *config.Config) {
		c.Station.BaseCapacity = 10
	},
		input.Station{ID: 0, Name: "Alpha", X: 0, Y: 0},
		input.Station{ID: 1, Name: "Beta", X: 500, Y: 0},
	)
	for _i := 0; _i < 10; _i++ {
		_, err := ctx.PassengerManager().Spawn(0, 1)
		require.NoError(t, err)
	}
	for i := 0; i < 10000 && ctx.Step(); i++ {
	}
	w := ctx.World()
	require.True(t, w.GameOver)
	assert.Contains(t, w.GameOverReason, "Alpha")
	assert.True(t, strings.HasSuffix(w.GameOverReason, "overcrowded"))
	assert.Greater(t, w.GameOverAt, 60000.)
	assert.Less(t, w.GameOverAt, 60000+2*ctx.Clock().DT)
	assert.False(t, ctx.Step())

	events := w.Events()
	require.NotEmpty(t, events)
	assert.Equal(t, entity.EventGameOver, events[len(events)-1].Kind)
}

func TestUnreachablePassengerDiscarded(t *testing.T) {
	ctx := newContext(t, func(c *config.Config) {
		c.Passenger.MaxWait = 5000
	},
		input.Station{ID: 0, X: 0, Y: 0},
		input.Station{ID: 1, X: 500, Y: 0},
	)
	_, err := ctx.PassengerManager().Spawn(0, 1)
	require.NoError(t, err)
	for ctx.Clock().T < 6000 {
		require.True(t, ctx.Step())
	}
	w := ctx.World()
	assert.False(t, w.GameOver)
	assert.Equal(t, int64(1), w.Stats.Discarded)
	assert.Empty(t, ctx.StationManager().Get(0).Queue)
}

func TestMissedConnectionEndsGame(t *testing.T) {
	ctx := newContext(t, func(c *config.Config) {
		c.Passenger.MaxWait = 5000
	},
		input.Station{ID: 0, Name: "Alpha", X: 0, Y: 0},
		input.Station{ID: 1, Name: "Beta", X: 500, Y: 0},
	)
	// 没有列车的线路：可达但永远等不到车
	trains, _, _ := ctx.Counters()
	require.True(t, ctx.AddResources(-trains, 0, 0))
	require.True(t, ctx.CreateLine([]int32{0, 1}, -1))
	_, err := ctx.PassengerManager().Spawn(0, 1)
	require.NoError(t, err)

	for i := 0; i < 2000 && ctx.Step(); i++ {
	}
	w := ctx.World()
	require.True(t, w.GameOver)
	assert.True(t, strings.HasPrefix(w.GameOverReason, "Missed connection"))
	assert.Contains(t, w.GameOverReason, "Beta")
	assert.Greater(t, w.GameOverAt, 10000.)
	assert.Zero(t, w.Stats.Discarded)
}

func TestZeroVehicleLineGetsFreedTrain(t *testing.T) {
	ctx := newContext(t, func(c *config.Config) {
		c.Resources.Trains = 1
	},
		input.Station{ID: 0, X: 0, Y: 0},
		input.Station{ID: 1, X: 300, Y: 0},
		input.Station{ID: 2, X: 0, Y: 300},
		input.Station{ID: 3, X: 300, Y: 300},
	)
	require.True(t, ctx.CreateLine([]int32{0, 1}, -1))
	require.True(t, ctx.CreateLine([]int32{2, 3}, -1))
	l0, l1 := ctx.LineManager().Get(0), ctx.LineManager().Get(1)
	assert.Len(t, l0.Trains, 1)
	assert.Empty(t, l1.Trains)

	// 线路0需求更高，但无车线路优先
	for _i := 0; _i < 5; _i++ {
		_, err := ctx.PassengerManager().Spawn(0, 1)
		require.NoError(t, err)
	}
	require.True(t, ctx.AddResources(1, 0, 0))
	ctx.FleetAllocator().Allocate()
	assert.Len(t, l0.Trains, 1)
	assert.Len(t, l1.Trains, 1)
	trains, _, _ := ctx.Counters()
	assert.Zero(t, trains)
}

func TestTrainCapacityNeverExceeded(t *testing.T) {
	stations := []input.Station{
		{ID: 0, X: 0, Y: 0, Final: true},
		{ID: 1, X: 200, Y: 0},
		{ID: 2, X: 400, Y: 0, Interchange: true},
		{ID: 3, X: 400, Y: 200},
		{ID: 4, X: 400, Y: 400},
		{ID: 5, X: 600, Y: 0},
	}
	var c config.Config
	c.Input.Seed = 42
	c.Station.SpawnDisabled = true
	c.Passenger.SpawnInterval = 300
	c.Passenger.SpawnIntervalMin = 300
	c.Train.Capacity = 2
	ctx := task.NewContext(c, &input.Input{Scenario: input.Scenario{
		Stations: stations,
		Lines:    [][]int32{{0, 1, 2, 5}, {2, 3, 4}},
	}}, nil)
	ctx.Init()
	require.Len(t, ctx.LineManager().All(), 2)

	for i := 0; i < 6000 && ctx.Step(); i++ {
		for _, tr := range ctx.TrainManager().All() {
			require.LessOrEqual(t, len(tr.Passengers), tr.Capacity)
			require.NotNil(t, ctx.LineManager().Get(tr.LineID))
			require.GreaterOrEqual(t, tr.Position, 0.)
			require.LessOrEqual(t, tr.Position, 1.)
		}
	}
	assert.Positive(t, ctx.World().Stats.Spawned)
	assert.Positive(t, ctx.World().Stats.Delivered)
}

func TestRemoveLineRestoresResources(t *testing.T) {
	ctx := newContext(t, nil,
		input.Station{ID: 0, X: 0, Y: 0},
		input.Station{ID: 1, X: 300, Y: 0},
		input.Station{ID: 2, X: 600, Y: 0},
	)
	trains0, lines0, permits0 := ctx.Counters()
	require.True(t, ctx.CreateLine([]int32{0, 1, 2}, -1))
	l := ctx.LineManager().Get(0)
	require.NotEmpty(t, l.Trains)
	tr := ctx.TrainManager().Get(l.Trains[0])
	tr.Passengers = append(tr.Passengers, &entity.Passenger{ID: 100, Destination: 2}, &entity.Passenger{ID: 101, Destination: 0})

	require.True(t, ctx.RemoveLine(0))
	trains, lines, permits := ctx.Counters()
	assert.Equal(t, trains0, trains)
	assert.Equal(t, lines0, lines)
	assert.Equal(t, permits0, permits)
	assert.Empty(t, ctx.TrainManager().All())
	assert.Nil(t, ctx.LineManager().Get(0))
	for _, s := range ctx.StationManager().All() {
		assert.False(t, s.Connected())
	}
	// 列车停在站点0：目的地为0的乘客送达，其余放回队列
	q := ctx.StationManager().Get(0).Queue
	require.Len(t, q, 1)
	assert.Equal(t, int32(100), q[0].ID)
	assert.Equal(t, int64(1), ctx.World().Stats.Delivered)
	assert.False(t, ctx.RemoveLine(0))
}

func TestAddResources(t *testing.T) {
	ctx := newContext(t, nil)
	trains, lines, permits := ctx.Counters()
	assert.True(t, ctx.AddResources(1, 2, 3))
	tr, li, pe := ctx.Counters()
	assert.Equal(t, []int{trains + 1, lines + 2, permits + 3}, []int{tr, li, pe})
	assert.False(t, ctx.AddResources(-100, 0, 0))
	tr2, li2, pe2 := ctx.Counters()
	assert.Equal(t, []int{tr, li, pe}, []int{tr2, li2, pe2})
}

func TestStepLimit(t *testing.T) {
	ctx := newContext(t, func(c *config.Config) {
		c.Control.Step.Total = 10
	})
	n := 0
	for ctx.Step() {
		n++
		require.Less(t, n, 100)
	}
	assert.Equal(t, int32(10), ctx.Clock().InternalStep)
}
