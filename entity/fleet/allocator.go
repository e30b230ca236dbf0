package fleet

import (
	"math"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/metrosim/entity"
)

// Allocator 车辆分配器
// 功能：按固定周期把共享车辆池中的列车分配给各线路
// 说明：车辆池计数只由本分配器与删除线路的路径修改
type Allocator struct {
	ctx entity.ITaskContext

	nextRunAt float64 // 下一次周期分配的时间（毫秒）
}

// NewAllocator 创建车辆分配器
func NewAllocator(ctx entity.ITaskContext) *Allocator {
	return &Allocator{
		ctx:       ctx,
		nextRunAt: ctx.Clock().T + ctx.RuntimeConfig().Fleet.Interval,
	}
}

// Update 更新阶段：到达周期时执行一次分配
func (a *Allocator) Update(dt float64) {
	now := a.ctx.Clock().T
	if now < a.nextRunAt {
		return
	}
	a.nextRunAt = now + a.ctx.RuntimeConfig().Fleet.Interval
	a.Allocate()
}

// Demand 线路的需求分
// 功能：统计线路各站点排队乘客，线路直达目的地计2分，经其他线路可达计1分
func (a *Allocator) Demand(l *entity.Line) float64 {
	sm := a.ctx.StationManager()
	demand := 0.
	for _, id := range l.Stations {
		st := sm.Get(id)
		if st == nil {
			continue
		}
		for _, p := range st.Queue {
			if l.Has(p.Destination) {
				demand += 2
			} else if a.connects(l, p.Destination) {
				demand += 1
			}
		}
	}
	return demand
}

// connects 线路是否能经某个站点上的其他线路到达destination
func (a *Allocator) connects(l *entity.Line, destination int32) bool {
	sm := a.ctx.StationManager()
	lm := a.ctx.LineManager()
	return lo.SomeBy(l.Stations, func(id int32) bool {
		st := sm.Get(id)
		if st == nil {
			return false
		}
		return lo.SomeBy(st.ConnectionIDs(), func(other int32) bool {
			if other == l.ID {
				return false
			}
			ol := lm.Get(other)
			return ol != nil && ol.Has(destination)
		})
	})
}

// Desired 线路的期望车辆数
// 算法说明：max(ceil(长度/单位长度), ceil(站点数/单位站点数)) + ceil(需求分/单位需求) [+ 枢纽辐射模式下途经枢纽的加成]，
// 不超过随天数增长的每线上限，至少为1
func (a *Allocator) Desired(l *entity.Line) int {
	return a.desired(l, a.Demand(l))
}

func (a *Allocator) desired(l *entity.Line, demand float64) int {
	rc := a.ctx.RuntimeConfig()
	c := rc.Fleet
	base := max(
		int(math.Ceil(l.StationLength/c.UnitDistance)),
		int(math.Ceil(float64(len(l.Stations))/float64(c.UnitStations))),
	)
	d := base + int(math.Ceil(demand/c.UnitDemand))
	if rc.HubSpoke.Enabled && entity.LineTouchesHub(a.ctx.StationManager(), l) {
		d += rc.HubSpoke.FleetBonus
	}
	limit := min(c.MaxPerLineCap, c.MaxPerLineBase+c.MaxPerLineGrowth*(a.ctx.Clock().Day()-1))
	return max(1, min(d, limit))
}

// priority 线路获得车辆的优先级
func (a *Allocator) priority(l *entity.Line, demand float64) float64 {
	c := a.ctx.RuntimeConfig().Fleet
	p := l.StationLength + demand*c.DemandWeight
	if len(l.Trains) == 0 {
		p += c.ZeroVehicleBoost
	}
	if entity.LineTouchesHub(a.ctx.StationManager(), l) {
		p += c.HubPriority
	}
	return p
}

// Allocate 执行一次分配
// 算法说明：
// 1. 计算各线路的需求分与期望车辆数
// 2. 回收超出期望数的空载行驶列车（每条线至少保留1辆）
// 3. 每次把一辆车分给仍有缺口的线路中优先级最高者（优先级相同取ID小者），重新计算后继续，
// 直到车辆池为空或所有缺口都已补齐；无车线路的优先级加成保证每条线路最终至少有一辆车
func (a *Allocator) Allocate() {
	lines := a.ctx.LineManager().All()
	if len(lines) == 0 {
		return
	}
	tm := a.ctx.TrainManager()
	w := a.ctx.World()
	demand := make(map[int32]float64, len(lines))
	desired := make(map[int32]int, len(lines))
	for _, l := range lines {
		demand[l.ID] = a.Demand(l)
		desired[l.ID] = a.desired(l, demand[l.ID])
	}

	if !a.ctx.RuntimeConfig().Fleet.ReclaimDisabled {
		for _, l := range lines {
			for i := len(l.Trains) - 1; i >= 0 && len(l.Trains) > max(1, desired[l.ID]); i-- {
				t := tm.Get(l.Trains[i])
				if t == nil || len(t.Passengers) > 0 || t.State != entity.TrainRunning {
					continue
				}
				if err := tm.Reclaim(t.ID); err != nil {
					log.Errorf("reclaim %v: %v", t, err)
				}
			}
		}
	}

	for w.AvailableTrains > 0 {
		var best *entity.Line
		bestPriority := 0.
		for _, l := range lines {
			if len(l.Trains) >= desired[l.ID] {
				continue
			}
			if p := a.priority(l, demand[l.ID]); best == nil || p > bestPriority {
				best, bestPriority = l, p
			}
		}
		if best == nil {
			break
		}
		if _, err := tm.AddToLine(best.ID); err != nil {
			log.Errorf("add train to %v: %v", best, err)
			break
		}
	}
}
