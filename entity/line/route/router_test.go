package route_test

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/metrosim/entity/line/route"
)

func TestCubeRound(t *testing.T) {
	assert.Equal(t, route.Cube{Q: 0, R: 0, S: 0}, route.CubeRound(0.1, 0.1, -0.2))
	c := route.CubeRound(1.2, -0.7, -0.5)
	assert.Equal(t, 0, c.Q+c.R+c.S)
	assert.Equal(t, route.Cube{Q: 1, R: -1, S: 0}, c)
}

func TestLatticeRoundTrip(t *testing.T) {
	l := route.Lattice{Size: 20}
	for _, c := range []route.Cube{{0, 0, 0}, {3, -1, -2}, {-5, 7, -2}} {
		assert.Equal(t, c, l.FromPixel(l.ToPixel(c)))
	}
}

func TestRouteEndpoints(t *testing.T) {
	r := route.New(20, 64, 50000)
	l := r.Lattice()
	cases := []struct {
		a, b orb.Point
	}{
		{orb.Point{0, 0}, orb.Point{400, 0}},
		{orb.Point{13, 77}, orb.Point{612.5, -230}},
		{orb.Point{-300, 200}, orb.Point{250, 260}},
	}
	for _, c := range cases {
		path := r.Route(c.a, c.b)
		assert.GreaterOrEqual(t, len(path), 2)
		assert.Equal(t, l.Snap(c.a), path[0])
		assert.Equal(t, l.Snap(c.b), path[len(path)-1])
	}
}

func TestRouteEdgesFollowLattice(t *testing.T) {
	r := route.New(20, 64, 50000)
	path := r.Route(orb.Point{0, 0}, orb.Point{500, 300})
	step := 20 * math.Sqrt(3)
	for i := 1; i < len(path); i++ {
		d := math.Hypot(path[i][0]-path[i-1][0], path[i][1]-path[i-1][1])
		assert.InDelta(t, step, d, 1e-9)
		angle := math.Atan2(path[i][1]-path[i-1][1], path[i][0]-path[i-1][0]) * 180 / math.Pi
		k := math.Round(angle / 60)
		assert.InDelta(t, k*60, angle, 1e-6)
	}
}

func TestRouteDegenerate(t *testing.T) {
	r := route.New(20, 64, 50000)
	a, b := orb.Point{math.NaN(), 0}, orb.Point{10, 10}
	path := r.Route(a, b)
	assert.Len(t, path, 2)
	assert.Equal(t, b, path[1])
}

func TestRouteSameCell(t *testing.T) {
	r := route.New(20, 64, 50000)
	// 两个端点吸附到同一网格点，退化为直连而不是长度为0的折线
	a, b := orb.Point{0, 0}, orb.Point{8, 0}
	assert.Equal(t, r.Lattice().FromPixel(a), r.Lattice().FromPixel(b))
	assert.Equal(t, orb.LineString{a, b}, r.Route(a, b))
	// 缓存命中结果相同
	assert.Equal(t, orb.LineString{a, b}, r.Route(a, b))

	same := orb.Point{5, 5}
	path := r.Route(same, same)
	assert.Len(t, path, 2)
	assert.Equal(t, path[0], path[1])
}

func TestRouteCacheIsolation(t *testing.T) {
	r := route.New(20, 64, 50000)
	a, b := orb.Point{0, 0}, orb.Point{300, 120}
	first := r.Route(a, b)
	first[0] = orb.Point{-1, -1}
	second := r.Route(a, b)
	assert.NotEqual(t, first[0], second[0])
	r.Invalidate()
	assert.Equal(t, second, r.Route(a, b))
}

func TestBundleOffsetsParallelSegments(t *testing.T) {
	other := orb.LineString{{0, 0}, {100, 0}}
	path := orb.LineString{{0, 0}, {100, 0}}
	res := route.Bundle(path, []orb.LineString{other}, 14, 5)
	// 完全重合时偏向右侧（法向量的反方向）
	assert.InDelta(t, -5, res[0][1], 1e-9)
	assert.InDelta(t, -5, res[1][1], 1e-9)
	assert.Equal(t, orb.Point{0, 0}, path[0])

	// 两侧邻居数相同时偏向右侧
	both := []orb.LineString{{{0, 8}, {100, 8}}, {{0, -8}, {100, -8}}}
	res = route.Bundle(path, both, 14, 5)
	assert.InDelta(t, -5, res[0][1], 1e-9)
	assert.InDelta(t, -5, res[1][1], 1e-9)

	// 邻居在左侧时向右偏
	left := orb.LineString{{0, 8}, {100, 8}}
	res = route.Bundle(path, []orb.LineString{left}, 14, 5)
	assert.InDelta(t, -5, res[0][1], 1e-9)
	// 邻居在右侧时向左偏
	right := orb.LineString{{0, -8}, {100, -8}}
	res = route.Bundle(path, []orb.LineString{right}, 14, 5)
	assert.InDelta(t, 5, res[0][1], 1e-9)
}

func TestBundleIgnoresNonParallel(t *testing.T) {
	path := orb.LineString{{0, 0}, {100, 0}}
	cases := []orb.LineString{
		{{50, -50}, {50, 50}}, // 垂直
		{{100, 0}, {0, 0}},    // 反向
		{{0, 40}, {100, 40}},  // 过远
		{{300, 0}, {400, 0}},  // 不重叠
	}
	for _, other := range cases {
		assert.Equal(t, path, route.Bundle(path, []orb.LineString{other}, 14, 5))
	}
}

func TestBubble(t *testing.T) {
	path := orb.LineString{{0, 0}, {100, 10}, {200, 10}}
	res := route.Bubble(path, true, 18)
	assert.Len(t, res, 4)
	assert.Equal(t, orb.Point{0, 0}, res[0])
	assert.InDelta(t, 18, res[1][0], 1e-9)
	assert.InDelta(t, 0, res[1][1], 1e-9)

	res = route.Bubble(path, false, 18)
	assert.Len(t, res, 4)
	assert.Equal(t, orb.Point{200, 10}, res[3])
	assert.InDelta(t, 182, res[2][0], 1e-9)

	short := orb.LineString{{0, 0}, {10, 0}}
	assert.Equal(t, short, route.Bubble(short, true, 18))
}
