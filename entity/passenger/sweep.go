package passenger

import (
	"fmt"
	"slices"

	"github.com/tsinghua-fib-lab/metrosim/entity"
	"github.com/tsinghua-fib-lab/metrosim/entity/network"
)

// Update 更新阶段：过载与等待超时检查
// 功能：每步遍历所有站点，处理严重过载时的疏解、过载计时与等待超时
// 参数：dt-时间步长（毫秒）
// 算法说明：
// 1. 过载计时器达到宽限期的SevereRatio时先执行疏解
// 2. 排队数不小于当前容量时标记过载并累加计时器，超过宽限期则游戏结束；否则计时器按OverflowDecay倍速衰减
// 3. 等待超过MaxWait的乘客：不可达则直接移除；可达但等待超过MaxWait×倍数则游戏结束（错过换乘）
// 说明：游戏结束是状态转换而不是错误，结束后不再继续检查
func (m *PassengerManager) Update(dt float64) {
	w := m.ctx.World()
	sm := m.ctx.StationManager()
	capacity := sm.Capacity()
	grace := sm.Grace()
	sc := m.ctx.RuntimeConfig().Station
	now := m.ctx.Clock().T

	for _, st := range sm.All() {
		if w.GameOver {
			return
		}
		if st.OverflowTimer >= grace*sc.SevereRatio {
			m.relieve(st, capacity)
		}
		if len(st.Queue) >= capacity {
			st.IsOvercrowded = true
			st.OverflowTimer += dt
			if st.OverflowTimer > grace {
				w.EndGame(fmt.Sprintf("Station %s overcrowded", st.Name), now)
				return
			}
		} else {
			st.IsOvercrowded = false
			st.OverflowTimer = max(0, st.OverflowTimer-dt*sc.OverflowDecay)
		}
		m.checkTimeouts(st, now)
	}
}

func (m *PassengerManager) checkTimeouts(st *entity.Station, now float64) {
	c := m.ctx.RuntimeConfig().Passenger
	w := m.ctx.World()
	eta := m.ctx.ETAEstimator()
	remain := st.Queue[:0]
	for i, p := range st.Queue {
		waited := p.Waited(now)
		if waited <= c.MaxWait {
			remain = append(remain, p)
			continue
		}
		if !network.Finite(eta.EstimateETA(st.ID, p.Destination)) {
			w.Stats.Discarded++
			w.Emit(entity.Event{
				Kind: entity.EventDiscarded, T: now,
				StationID: st.ID, LineID: entity.NoID, PassengerID: p.ID,
			})
			log.Debugf("discard %v at %v: unreachable after %.0fms", p, st, waited)
			continue
		}
		if waited > c.MaxWait*c.MissedConnectionMultiplier {
			dest := m.ctx.StationManager().Get(p.Destination)
			w.EndGame(fmt.Sprintf("Missed connection: passenger at %s waited too long for %s", st.Name, dest.Name), now)
			remain = append(remain, st.Queue[i:]...)
			break
		}
		remain = append(remain, p)
	}
	clear(st.Queue[len(remain):])
	st.Queue = remain
}

// relieve 严重过载时的疏解
// 功能：直接送达已在目的地排队的乘客；把至多ReliefBatch个久等的乘客转移到最空闲的相邻站点
// 参数：st-过载站点，capacity-当前容量
// 说明：目标站点排队数必须小于容量的一半；转移不重置等待时间
func (m *PassengerManager) relieve(st *entity.Station, capacity int) {
	c := m.ctx.RuntimeConfig().Passenger
	now := m.ctx.Clock().T
	w := m.ctx.World()

	remain := make([]*entity.Passenger, 0, len(st.Queue))
	for _, p := range st.Queue {
		if p.Destination == st.ID {
			m.deliver(p, st, entity.NoID)
		} else {
			remain = append(remain, p)
		}
	}
	st.Queue = remain

	target := m.reliefTarget(st, capacity)
	if target == nil {
		return
	}
	moved := 0
	remain = make([]*entity.Passenger, 0, len(st.Queue))
	for _, p := range st.Queue {
		if moved < c.ReliefBatch && p.Waited(now) > c.ReliefWait {
			moved++
			if p.Destination == target.ID {
				m.deliver(p, target, entity.NoID)
			} else {
				target.Queue = append(target.Queue, p)
			}
			w.Stats.Relocated++
			w.Emit(entity.Event{
				Kind: entity.EventRelocated, T: now,
				StationID: target.ID, LineID: entity.NoID, PassengerID: p.ID,
				Message: st.Name,
			})
			continue
		}
		remain = append(remain, p)
	}
	st.Queue = remain
	if moved > 0 {
		log.Debugf("relocate %d passengers from %v to %v", moved, st, target)
	}
}

// reliefTarget 线路上相邻站点中排队最少且少于容量一半的站点
func (m *PassengerManager) reliefTarget(st *entity.Station, capacity int) *entity.Station {
	sm := m.ctx.StationManager()
	lm := m.ctx.LineManager()
	candidates := make([]int32, 0)
	for _, id := range st.ConnectionIDs() {
		if l := lm.Get(id); l != nil {
			candidates = append(candidates, l.Neighbors(st.ID)...)
		}
	}
	slices.Sort(candidates)
	var best *entity.Station
	for _, id := range slices.Compact(candidates) {
		s := sm.Get(id)
		if s == nil || 2*len(s.Queue) >= capacity {
			continue
		}
		if best == nil || len(s.Queue) < len(best.Queue) {
			best = s
		}
	}
	return best
}
