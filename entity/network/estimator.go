package network

import (
	"slices"

	"git.fiblab.net/general/common/v2/mathutil"
	"github.com/tsinghua-fib-lab/metrosim/entity"
	"github.com/tsinghua-fib-lab/metrosim/utils/container"
	"github.com/tsinghua-fib-lab/metrosim/utils/geometry"
)

// Finite ETA是否有限（可达）
func Finite(eta float64) bool {
	return eta < mathutil.INF
}

// Estimator ETA估计器
// 功能：在由线路相邻站点对构成的无向图上，计算各站点到目的站的最短时间（含换乘惩罚）
// 说明：结果按目的站缓存，线网版本号变化时整体失效
type Estimator struct {
	ctx entity.ITaskContext

	version uint64
	tables  map[int32]map[int32]float64
}

// NewEstimator 创建ETA估计器
func NewEstimator(ctx entity.ITaskContext) *Estimator {
	return &Estimator{
		ctx:    ctx,
		tables: make(map[int32]map[int32]float64),
	}
}

// adjacency 由所有线路的相邻站点对构建无向邻接表
// 说明：A-B-C只产生A-B与B-C两条边；邻接表按ID排序以保证确定性
func (e *Estimator) adjacency() map[int32][]int32 {
	adj := make(map[int32][]int32)
	for _, l := range e.ctx.LineManager().All() {
		for _, p := range l.Pairs() {
			a, b := p[0], p[1]
			if !slices.Contains(adj[a], b) {
				adj[a] = append(adj[a], b)
			}
			if !slices.Contains(adj[b], a) {
				adj[b] = append(adj[b], a)
			}
		}
	}
	for k := range adj {
		slices.Sort(adj[k])
	}
	return adj
}

// EdgeTime 两个站点之间的行驶时间（直线距离/速度常数）
func (e *Estimator) EdgeTime(a, b int32) float64 {
	sm := e.ctx.StationManager()
	sa, sb := sm.Get(a), sm.Get(b)
	if sa == nil || sb == nil {
		return mathutil.INF
	}
	return geometry.Distance(sa.Pos, sb.Pos) / e.ctx.RuntimeConfig().Network.Speed
}

// transferTime 在u处的换乘时间，到达目的站时为0
func (e *Estimator) transferTime(u, destination int32) float64 {
	if u == destination {
		return 0
	}
	s := e.ctx.StationManager().Get(u)
	if s == nil {
		return mathutil.INF
	}
	c := e.ctx.RuntimeConfig().Network
	t := s.MCT
	if s.IsInterchange {
		t *= c.InterchangeDiscount
	}
	return t * c.TransferMultiplier
}

// ComputeETAs 计算所有站点到目的站的ETA
// 功能：以目的站为源做反向Dijkstra
// 参数：destination-目的站ID
// 返回：站点ID到ETA的映射，包含所有站点，不可达为mathutil.INF；调用方不得修改
// 算法说明：
// 1. 目的站ETA为0
// 2. 从u松弛到邻居v的代价为 edgeTime(v,u) + transferTime(u, destination) + eta(u)
// 3. 中间站点都计入换乘惩罚，目的站不计
func (e *Estimator) ComputeETAs(destination int32) map[int32]float64 {
	if v := e.ctx.LineManager().Version(); v != e.version {
		e.version = v
		clear(e.tables)
	}
	if t, ok := e.tables[destination]; ok && len(t) == len(e.ctx.StationManager().All()) {
		return t
	}
	adj := e.adjacency()
	eta := map[int32]float64{destination: 0}
	done := make(map[int32]struct{})
	pq := container.NewPriorityQueue[int32]()
	pq.HeapPush(destination, 0)
	for pq.Len() > 0 {
		u, d := pq.HeapPop()
		if _, ok := done[u]; ok {
			continue
		}
		done[u] = struct{}{}
		penalty := e.transferTime(u, destination)
		for _, v := range adj[u] {
			cost := e.EdgeTime(v, u) + penalty + d
			if old, ok := eta[v]; !ok || cost < old {
				eta[v] = cost
				pq.HeapPush(v, cost)
			}
		}
	}
	table := make(map[int32]float64, len(e.ctx.StationManager().All()))
	for _, s := range e.ctx.StationManager().All() {
		if v, ok := eta[s.ID]; ok {
			table[s.ID] = v
		} else {
			table[s.ID] = mathutil.INF
		}
	}
	e.tables[destination] = table
	log.Tracef("eta table for station %d: %d/%d reachable", destination, len(eta), len(table))
	return table
}

// EstimateETA 单个站点到目的站的ETA
func (e *Estimator) EstimateETA(from, to int32) float64 {
	if v, ok := e.ComputeETAs(to)[from]; ok {
		return v
	}
	return mathutil.INF
}

// StepReducesETA 从from经相邻站via前往to是否严格缩短ETA
// 说明：两端ETA都必须有限，并且缩短量超过Epsilon，避免边际收益的上车
func (e *Estimator) StepReducesETA(from, via, to int32) bool {
	table := e.ComputeETAs(to)
	etaFrom, ok1 := table[from]
	etaVia, ok2 := table[via]
	if !ok1 || !ok2 || !Finite(etaFrom) || !Finite(etaVia) {
		return false
	}
	return e.EdgeTime(from, via)+etaVia+e.ctx.RuntimeConfig().Network.Epsilon < etaFrom
}
