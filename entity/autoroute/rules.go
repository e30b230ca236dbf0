package autoroute

import (
	"math"
	"slices"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/metrosim/entity"
	"github.com/tsinghua-fib-lab/metrosim/entity/network"
	"github.com/tsinghua-fib-lab/metrosim/utils/geometry"
)

// rule 自动建线规则：when判断是否适用，do执行并返回是否成功
type rule struct {
	name string
	when func(b *Builder) bool
	do   func(b *Builder) bool
}

// defaultRules 规则表，严格按顺序尝试
func defaultRules() []rule {
	return []rule{
		{"bootstrap", (*Builder).noLines, (*Builder).bootstrap},
		{"connect-isolated", (*Builder).hasIsolated, (*Builder).connectIsolated},
		{"isolated-to-hub", (*Builder).hasHub, (*Builder).connectToHub},
		{"link-hubs", (*Builder).hasHubPair, (*Builder).linkHubs},
		{"extend-toward-demand", (*Builder).hasLines, (*Builder).extendTowardDemand},
		{"direct-to-final", (*Builder).hasOvercrowded, (*Builder).directToFinal},
	}
}

func (b *Builder) stations() []*entity.Station {
	return b.ctx.StationManager().All()
}

func (b *Builder) hubs() []*entity.Station {
	return lo.Filter(b.stations(), func(s *entity.Station, _ int) bool { return s.IsHub() })
}

func (b *Builder) noLines() bool {
	return len(b.ctx.LineManager().All()) == 0 && len(b.stations()) >= 2
}

func (b *Builder) hasLines() bool {
	return len(b.ctx.LineManager().All()) > 0
}

func (b *Builder) hasIsolated() bool {
	return b.hasLines() && lo.SomeBy(b.stations(), func(s *entity.Station) bool { return !s.Connected() })
}

func (b *Builder) hasHub() bool {
	return len(b.hubs()) > 0
}

func (b *Builder) hasHubPair() bool {
	return len(b.hubs()) >= 2
}

func (b *Builder) hasOvercrowded() bool {
	return lo.SomeBy(b.stations(), func(s *entity.Station) bool { return s.IsOvercrowded })
}

func (b *Builder) create(ids ...int32) bool {
	l, err := b.ctx.LineManager().CreateLine(ids, -1)
	if err != nil {
		log.Debugf("create line %v failed: %v", ids, err)
		return false
	}
	log.Infof("auto routing created %v", l)
	return true
}

func (b *Builder) insert(l *entity.Line, stationID int32, index int) bool {
	if err := b.ctx.LineManager().InsertStation(l.ID, stationID, index); err != nil {
		log.Debugf("insert station %d into %v failed: %v", stationID, l, err)
		return false
	}
	log.Infof("auto routing extended %v with station %d", l, stationID)
	return true
}

// nearest candidates中距离from最近的站点（距离相同取ID小者）
func nearest(from *entity.Station, candidates []*entity.Station) *entity.Station {
	var best *entity.Station
	bestDist := math.Inf(1)
	for _, c := range candidates {
		if c.ID == from.ID {
			continue
		}
		if d := geometry.Distance(from.Pos, c.Pos); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// byQueue 按排队数降序、ID升序排列
func byQueue(stations []*entity.Station) []*entity.Station {
	res := slices.Clone(stations)
	slices.SortStableFunc(res, func(x, y *entity.Station) int {
		if len(x.Queue) != len(y.Queue) {
			return len(y.Queue) - len(x.Queue)
		}
		return int(x.ID - y.ID)
	})
	return res
}

// bootstrap 建立初始线网
// 算法说明：从第一个枢纽站（没有则为第一个站点）出发，贪心连接最近的未使用站点，共BootstrapSize个
func (b *Builder) bootstrap() bool {
	stations := b.stations()
	start := stations[0]
	if hubs := b.hubs(); len(hubs) > 0 {
		start = hubs[0]
	}
	size := b.ctx.RuntimeConfig().AutoRoute.BootstrapSize
	ids := []int32{start.ID}
	cur := start
	for len(ids) < size {
		next := nearest(cur, lo.Filter(stations, func(s *entity.Station, _ int) bool {
			return !slices.Contains(ids, s.ID)
		}))
		if next == nil {
			break
		}
		ids = append(ids, next.ID)
		cur = next
	}
	return b.create(ids...)
}

// connectIsolated 把未连接的站点接入线网
// 算法说明：找到最近的已连接站点，若它是某条非环线的端点则延长该线路，否则新建两站线路
func (b *Builder) connectIsolated() bool {
	connected := lo.Filter(b.stations(), func(s *entity.Station, _ int) bool { return s.Connected() })
	lm := b.ctx.LineManager()
	for _, s := range byQueue(b.stations()) {
		if s.Connected() {
			continue
		}
		target := nearest(s, connected)
		if target == nil {
			continue
		}
		for _, id := range target.ConnectionIDs() {
			l := lm.Get(id)
			if l == nil || !l.IsTerminal(target.ID) {
				continue
			}
			index := 0
			if l.Stations[len(l.Stations)-1] == target.ID {
				index = len(l.Stations)
			}
			if b.insert(l, s.ID, index) {
				return true
			}
		}
		if b.create(s.ID, target.ID) {
			return true
		}
	}
	return false
}

// connectToHub 把无法到达任何枢纽的普通站点连接到最近的枢纽
func (b *Builder) connectToHub() bool {
	hubs := b.hubs()
	sm, lm := b.ctx.StationManager(), b.ctx.LineManager()
	for _, s := range byQueue(b.stations()) {
		if s.IsHub() {
			continue
		}
		reach := network.Reach(sm, lm, s.ID)
		if lo.SomeBy(hubs, func(h *entity.Station) bool { return reach[h.ID] }) {
			continue
		}
		if hub := nearest(s, hubs); hub != nil && b.create(s.ID, hub.ID) {
			return true
		}
	}
	return false
}

// linkHubs 连接距离最近的一对互不可达的枢纽
func (b *Builder) linkHubs() bool {
	hubs := b.hubs()
	sm, lm := b.ctx.StationManager(), b.ctx.LineManager()
	type pair struct {
		a, b *entity.Station
		d    float64
	}
	pairs := make([]pair, 0)
	for i, h := range hubs {
		reach := network.Reach(sm, lm, h.ID)
		for _, o := range hubs[i+1:] {
			if !reach[o.ID] {
				pairs = append(pairs, pair{h, o, geometry.Distance(h.Pos, o.Pos)})
			}
		}
	}
	slices.SortStableFunc(pairs, func(x, y pair) int {
		switch {
		case x.d < y.d:
			return -1
		case x.d > y.d:
			return 1
		}
		return 0
	})
	for _, p := range pairs {
		if b.create(p.a.ID, p.b.ID) {
			return true
		}
	}
	return false
}

// extendTowardDemand 将经过拥挤站点的线路端点延长到该站点需求最多的不可达目的地
func (b *Builder) extendTowardDemand() bool {
	sm, lm := b.ctx.StationManager(), b.ctx.LineManager()
	for _, s := range byQueue(b.stations()) {
		if len(s.Queue) == 0 {
			break
		}
		if !s.Connected() {
			continue
		}
		reach := network.Reach(sm, lm, s.ID)
		counts := lo.CountValuesBy(s.Queue, func(p *entity.Passenger) int32 { return p.Destination })
		dests := lo.Filter(lo.Keys(counts), func(id int32, _ int) bool { return !reach[id] })
		if len(dests) == 0 {
			continue
		}
		slices.SortFunc(dests, func(x, y int32) int {
			if counts[x] != counts[y] {
				return counts[y] - counts[x]
			}
			return int(x - y)
		})
		dest := sm.Get(dests[0])
		for _, id := range s.ConnectionIDs() {
			l := lm.Get(id)
			if l == nil || l.IsLoop {
				continue
			}
			first, last := sm.Get(l.Stations[0]), sm.Get(l.Stations[len(l.Stations)-1])
			index := len(l.Stations)
			if geometry.Distance(first.Pos, dest.Pos) < geometry.Distance(last.Pos, dest.Pos) {
				index = 0
			}
			if b.insert(l, dest.ID, index) {
				return true
			}
		}
	}
	return false
}

// directToFinal 从过载站点新建直达其乘客最多的终点站的线路
func (b *Builder) directToFinal() bool {
	sm := b.ctx.StationManager()
	for _, s := range byQueue(b.stations()) {
		if !s.IsOvercrowded {
			continue
		}
		counts := lo.CountValuesBy(s.Queue, func(p *entity.Passenger) int32 { return p.Destination })
		finals := lo.Filter(lo.Keys(counts), func(id int32, _ int) bool {
			d := sm.Get(id)
			return d != nil && d.IsFinal
		})
		slices.SortFunc(finals, func(x, y int32) int {
			if counts[x] != counts[y] {
				return counts[y] - counts[x]
			}
			return int(x - y)
		})
		for _, f := range finals {
			if b.create(s.ID, f) {
				return true
			}
		}
	}
	return false
}
