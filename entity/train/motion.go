package train

import (
	"math"

	"github.com/tsinghua-fib-lab/metrosim/entity"
)

// Update 更新阶段，推进所有列车
// 功能：按ID顺序推进每辆列车，处理停站计时、到站与折返
// 参数：dt-时间步长（毫秒）
// 说明：线路不存在或长度为0的列车本步跳过
func (m *TrainManager) Update(dt float64) {
	factor := m.ctx.SpeedModifier().SpeedFactor(m.ctx.Clock().T)
	for _, t := range m.All() {
		l := m.ctx.LineManager().Get(t.LineID)
		if l == nil || l.TotalLength <= 0 || len(l.StationOffsets) != len(l.Stations) {
			log.Debugf("skip %v: line unavailable", t)
			continue
		}
		m.step(t, l, dt, factor)
	}
}

// step 推进单辆列车
// 算法说明：
// 1. 停站中：扣减剩余停站时间，归零时发车（发车的这一步不移动）
// 2. 行驶中：计算候选位置，若行驶方向上(当前, 候选]内有站点，停在最近的站点并触发到站
// 3. 没有到站时，环线位置对1取模，非环线截断到[0,1]并在端点折返
func (m *TrainManager) step(t *entity.Train, l *entity.Line, dt, factor float64) {
	t.StationCooldown = max(0, t.StationCooldown-dt)
	if t.State == entity.TrainDwelling {
		t.DwellRemaining -= dt
		if t.DwellRemaining <= 0 {
			m.depart(t, l)
		}
		return
	}
	cur := t.Position
	next := cur + t.Speed*factor*dt/l.TotalLength*float64(t.Direction)
	if i, snap, ok := m.crossing(t, l, cur, next); ok {
		m.arrive(t, l, i, snap, false)
		return
	}
	if l.IsLoop {
		next = wrap(next)
	} else if next >= 1 {
		next = 1
		t.Direction = entity.BACKWARD
	} else if next <= 0 {
		next = 0
		t.Direction = entity.FORWARD
	}
	t.Position = next
}

// crossing 寻找本步经过的最近站点
// 返回：站点下标，站点位置（环线可能为o+1），是否找到
// 说明：冷却期内不会再次停靠上一次到达的站点
func (m *TrainManager) crossing(t *entity.Train, l *entity.Line, cur, next float64) (int, float64, bool) {
	best, bestPos, bestDist := -1, 0., math.Inf(1)
	for i, o := range l.StationOffsets {
		if l.Stations[i] == t.LastStationVisited && t.StationCooldown > 0 {
			continue
		}
		candidates := []float64{o}
		if l.IsLoop {
			candidates = append(candidates, o+1)
		}
		for _, c := range candidates {
			var in bool
			if t.Direction == entity.FORWARD {
				in = c > cur && c <= next
			} else {
				in = c >= next && c < cur
			}
			if in && math.Abs(c-cur) < bestDist {
				best, bestPos, bestDist = i, c, math.Abs(c-cur)
			}
		}
	}
	return best, bestPos, best >= 0
}

// arrive 到站处理
// 功能：停在站点、上下车、在非环线端点折返，并计算停站时间
// 参数：t-列车，l-线路，index-站点下标，pos-站点位置，boardOnly-只上车（新车首次发车）
// 算法说明：停站时间 = 站点停站时间 × 前几天的加速系数 × 过载惩罚 × 换乘站折扣，为0时立即发车
func (m *TrainManager) arrive(t *entity.Train, l *entity.Line, index int, pos float64, boardOnly bool) {
	st := m.ctx.StationManager().Get(l.Stations[index])
	if st == nil {
		return
	}
	c := m.ctx.RuntimeConfig().Train
	t.Position = pos
	if l.IsLoop {
		t.Position = wrap(pos)
	}
	t.LastStationVisited = st.ID
	t.StationCooldown = c.Cooldown

	m.ctx.PassengerManager().Exchange(t, l, st, boardOnly)

	if !l.IsLoop {
		if index == 0 {
			t.Direction = entity.FORWARD
		} else if index == len(l.Stations)-1 {
			t.Direction = entity.BACKWARD
		}
	}
	dwell := st.Turnaround
	if day := m.ctx.Clock().Day(); day-1 < len(c.EarlyDwellFactors) {
		dwell *= c.EarlyDwellFactors[day-1]
	}
	if st.IsOvercrowded {
		dwell *= c.CongestionPenalty
	}
	if st.IsInterchange {
		dwell *= c.InterchangeDiscount
	}
	t.State = entity.TrainDwelling
	t.DwellRemaining = dwell
	if dwell <= 0 {
		m.depart(t, l)
	}
}

// depart 发车
// 说明：位置沿行驶方向微移Epsilon，避免下一步在同一位置再次触发到站
func (m *TrainManager) depart(t *entity.Train, l *entity.Line) {
	t.State = entity.TrainRunning
	t.DwellRemaining = 0
	p := t.Position + m.ctx.RuntimeConfig().Train.Epsilon*float64(t.Direction)
	if l.IsLoop {
		p = wrap(p)
	} else {
		p = min(1, max(0, p))
	}
	t.Position = p
}

// wrap 将位置折回[0,1)
func wrap(p float64) float64 {
	p = math.Mod(p, 1)
	if p < 0 {
		p += 1
	}
	return p
}
