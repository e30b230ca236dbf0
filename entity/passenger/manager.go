package passenger

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/metrosim/entity"
)

var (
	ErrUnknownStation = errors.New("unknown station")
	ErrSameStation    = errors.New("origin equals destination")
)

// PassengerManager Passenger管理器
// 功能：负责乘客的生成、上车决策、到站上下车，以及站点过载与等待超时检查
// 说明：站点队列只由本管理器（包括列车到站时调用的Exchange）修改
type PassengerManager struct {
	ctx entity.ITaskContext

	nextID      int32
	nextSpawnAt float64 // 下一次生成乘客的时间（毫秒）

	rules []boardingRule // 上车规则表，按顺序匹配
}

// NewManager 创建Passenger管理器实例
func NewManager(ctx entity.ITaskContext) *PassengerManager {
	m := &PassengerManager{
		ctx:   ctx,
		rules: defaultRules(),
	}
	m.nextSpawnAt = ctx.Clock().T + m.spawnInterval()
	return m
}

func (m *PassengerManager) day() int {
	return m.ctx.Clock().Day()
}

func (m *PassengerManager) spawnInterval() float64 {
	c := m.ctx.RuntimeConfig().Passenger
	return max(c.SpawnIntervalMin, c.SpawnInterval-c.SpawnTaper*float64(m.day()-1))
}

// Spawn 在origin站点生成一个前往destination的乘客
func (m *PassengerManager) Spawn(origin, destination int32) (*entity.Passenger, error) {
	sm := m.ctx.StationManager()
	st := sm.Get(origin)
	if st == nil {
		return nil, errors.Wrapf(ErrUnknownStation, "origin %d", origin)
	}
	if sm.Get(destination) == nil {
		return nil, errors.Wrapf(ErrUnknownStation, "destination %d", destination)
	}
	if origin == destination {
		return nil, errors.Wrapf(ErrSameStation, "station %d", origin)
	}
	now := m.ctx.Clock().T
	p := &entity.Passenger{
		ID:              m.nextID,
		Destination:     destination,
		SpawnedAt:       now,
		QueuedAt:        now,
		TransferReadyAt: now,
	}
	m.nextID++
	st.Queue = append(st.Queue, p)
	m.ctx.World().Stats.Spawned++
	return p, nil
}

// Prepare 准备阶段
// 功能：到达生成时间时生成一个乘客
// 算法说明：
// 1. 起点按 max(下限, 1-排队数/容量) 加权，避开接近满载的站点
// 2. 终点以FinalBias的概率选终点站，否则在非终点站中按枢纽权重选择
func (m *PassengerManager) Prepare() {
	c := m.ctx.RuntimeConfig().Passenger
	now := m.ctx.Clock().T
	if c.SpawnDisabled || now < m.nextSpawnAt {
		return
	}
	m.nextSpawnAt = now + m.spawnInterval()
	stations := m.ctx.StationManager().All()
	if len(stations) < 2 {
		return
	}
	capacity := float64(m.ctx.StationManager().Capacity())
	weights := lo.Map(stations, func(s *entity.Station, _ int) float64 {
		return max(c.OriginWeightFloor, 1-float64(len(s.Queue))/capacity)
	})
	i := m.ctx.Rand().DiscreteDistribution(weights)
	if i < 0 {
		return
	}
	origin := stations[i]
	dest := m.pickDestination(origin, stations)
	if dest == entity.NoID {
		return
	}
	if p, err := m.Spawn(origin.ID, dest); err != nil {
		log.Errorf("spawn failed: %v", err)
	} else {
		log.Tracef("spawn %v at %v", p, origin)
	}
}

func (m *PassengerManager) pickDestination(origin *entity.Station, stations []*entity.Station) int32 {
	rc := m.ctx.RuntimeConfig()
	r := m.ctx.Rand()
	finals := lo.Filter(stations, func(s *entity.Station, _ int) bool {
		return s.IsFinal && s.ID != origin.ID
	})
	others := lo.Filter(stations, func(s *entity.Station, _ int) bool {
		return !s.IsFinal && s.ID != origin.ID
	})
	if len(finals) > 0 && (len(others) == 0 || r.PTrue(rc.Passenger.FinalBias)) {
		return finals[r.Intn(len(finals))].ID
	}
	if len(others) == 0 {
		return entity.NoID
	}
	hubWeight := rc.Passenger.HubWeight
	if rc.HubSpoke.Enabled {
		hubWeight = rc.HubSpoke.HubWeight
	}
	weights := lo.Map(others, func(s *entity.Station, _ int) float64 {
		if s.IsInterchange {
			return hubWeight
		}
		return 1
	})
	return others[r.DiscreteDistribution(weights)].ID
}

// Redistribute 将乘客放回站点队列
// 说明：目的地就是该站点的乘客直接送达，其余乘客重新开始排队
func (m *PassengerManager) Redistribute(ps []*entity.Passenger, stationID int32) {
	st := m.ctx.StationManager().Get(stationID)
	if st == nil {
		log.Warnf("drop %d passengers: no station %d", len(ps), stationID)
		return
	}
	now := m.ctx.Clock().T
	for _, p := range ps {
		if p.Destination == st.ID {
			m.deliver(p, st, entity.NoID)
			continue
		}
		p.QueuedAt = now
		p.TransferReadyAt = now
		st.Queue = append(st.Queue, p)
	}
}

// deliver 乘客送达
func (m *PassengerManager) deliver(p *entity.Passenger, at *entity.Station, lineID int32) {
	w := m.ctx.World()
	w.Stats.Delivered++
	w.Emit(entity.Event{
		Kind: entity.EventDelivered, T: m.ctx.Clock().T,
		StationID: at.ID, LineID: lineID, PassengerID: p.ID,
	})
}
