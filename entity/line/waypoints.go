package line

import (
	"github.com/paulmach/orb"
	"github.com/tsinghua-fib-lab/metrosim/entity"
	"github.com/tsinghua-fib-lab/metrosim/entity/line/route"
	"github.com/tsinghua-fib-lab/metrosim/utils/geometry"
)

// RebuildWaypoints 重新生成线路折线
// 功能：根据站点序列与ID更小的线路重新计算折线、长度与站点位置
// 参数：l-线路
// 算法说明：
// 1. 对每对相邻站点调用网格导航，拼接时去掉重复的连接点，并记录每个站点对应的折线下标（严格递增）
// 2. 非环线的端点若为枢纽站，在该端插入进站泡
// 3. 与ID更小的线路做走廊捆绑
// 4. 计算折线累积长度、总长，以及各站点的归一化位置
// 5. 单独计算相邻站点直线距离之和，供车辆分配使用
func (m *LineManager) RebuildWaypoints(l *entity.Line) {
	sm := m.ctx.StationManager()
	stations := make([]*entity.Station, 0, len(l.Stations))
	for _, id := range l.Stations {
		st := sm.Get(id)
		if st == nil {
			log.Errorf("%v refers to missing station %d, skip rebuild", l, id)
			return
		}
		stations = append(stations, st)
	}
	n := len(stations)
	if n < 2 {
		return
	}

	// 1. 逐段导航并拼接
	path := make(orb.LineString, 0)
	index := make([]int, n)
	appendSegment := func(a, b orb.Point) {
		seg := m.router.Route(a, b)
		if len(path) > 0 && path[len(path)-1] == seg[0] {
			seg = seg[1:]
		}
		path = append(path, seg...)
	}
	stationLength := 0.
	for i := 0; i+1 < n; i++ {
		appendSegment(stations[i].Pos, stations[i+1].Pos)
		// 站点下标必须严格递增，否则两个站点共用一个位置，后一个永远不会被停靠
		if len(path)-1 <= index[i] {
			path = append(path, stations[i+1].Pos)
		}
		index[i+1] = len(path) - 1
		stationLength += geometry.Distance(stations[i].Pos, stations[i+1].Pos)
	}
	if l.IsLoop {
		appendSegment(stations[n-1].Pos, stations[0].Pos)
		stationLength += geometry.Distance(stations[n-1].Pos, stations[0].Pos)
	}

	// 2. 进站泡
	rc := m.ctx.RuntimeConfig()
	if !l.IsLoop {
		if stations[0].IsHub() {
			before := len(path)
			path = route.Bubble(path, true, rc.Router.BubbleRadius)
			if len(path) > before {
				for i := 1; i < n; i++ {
					index[i]++
				}
			}
		}
		if stations[n-1].IsHub() {
			path = route.Bubble(path, false, rc.Router.BubbleRadius)
			index[n-1] = len(path) - 1
		}
	}

	// 3. 走廊捆绑
	others := make([]orb.LineString, 0)
	for _, other := range m.All() {
		if other.ID < l.ID && len(other.Waypoints) >= 2 {
			others = append(others, other.Waypoints)
		}
	}
	path = route.Bundle(path, others, rc.Router.BundleThreshold, rc.Router.BundleSpacing)

	// 4. 长度与站点位置
	lengths := geometry.PolylineLengths(path)
	total := lengths[len(lengths)-1]
	offsets := make([]float64, n)
	if total > 0 {
		for i := range offsets {
			offsets[i] = lengths[index[i]] / total
		}
	}

	l.Waypoints = path
	l.Lengths = lengths
	l.TotalLength = total
	l.StationOffsets = offsets
	l.StationLength = stationLength
}
