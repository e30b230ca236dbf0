package station

import (
	"fmt"
	"slices"

	"github.com/paulmach/orb"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/metrosim/entity"
	"github.com/tsinghua-fib-lab/metrosim/utils/geometry"
	"github.com/tsinghua-fib-lab/metrosim/utils/input"
)

// 生成新站点时的最大尝试次数
const spawnAttempts = 32

// StationManager Station管理器
// 功能：管理所有站点，提供查找、随天数变化的容量与宽限期、定时生成新站点
// 说明：站点只增不删
type StationManager struct {
	ctx entity.ITaskContext

	data     map[int32]*entity.Station
	stations []*entity.Station // 按ID升序
	nextID   int32

	nextSpawnAt float64 // 下一次生成站点的时间（毫秒）
}

// NewManager 创建Station管理器实例
// 参数：ctx-任务上下文
// 返回：新创建的Station管理器实例
func NewManager(ctx entity.ITaskContext) *StationManager {
	return &StationManager{
		ctx:      ctx,
		data:     make(map[int32]*entity.Station),
		stations: make([]*entity.Station, 0),
	}
}

// Init 初始化所有站点
// 功能：根据场景数据创建站点，未指定的换乘时间与停站时间使用默认值
// 参数：stations-场景中的站点列表
func (m *StationManager) Init(stations []input.Station) {
	for _, in := range stations {
		name := in.Name
		if name == "" {
			name = fmt.Sprintf("S%d", in.ID)
		}
		m.insert(in.ID, name, orb.Point{in.X, in.Y}, in.Final, in.Interchange, in.MCT, in.Turnaround)
	}
	if len(m.data) > 0 {
		m.nextID = lo.Max(lo.Keys(m.data)) + 1
	}
	m.nextSpawnAt = m.ctx.Clock().T + m.spawnInterval()
}

func (m *StationManager) insert(id int32, name string, pos orb.Point, isFinal, isInterchange bool, mct, turnaround float64) *entity.Station {
	rc := m.ctx.RuntimeConfig()
	s := entity.NewStation(id, name, pos)
	s.IsFinal = isFinal
	s.IsInterchange = isInterchange
	s.MCT = mct
	if s.MCT == 0 {
		s.MCT = rc.Network.DefaultMCT
	}
	s.Turnaround = turnaround
	if s.Turnaround == 0 {
		s.Turnaround = rc.Station.DefaultTurnaround
	}
	m.data[id] = s
	m.stations = append(m.stations, s)
	slices.SortFunc(m.stations, func(a, b *entity.Station) int { return int(a.ID - b.ID) })
	return s
}

// Add 新增站点
func (m *StationManager) Add(name string, pos orb.Point, isFinal, isInterchange bool) *entity.Station {
	id := m.nextID
	m.nextID++
	if name == "" {
		name = fmt.Sprintf("S%d", id)
	}
	return m.insert(id, name, pos, isFinal, isInterchange, 0, 0)
}

// Get 根据ID获取Station，不存在返回nil
func (m *StationManager) Get(id int32) *entity.Station {
	return m.data[id]
}

// GetOrError 根据ID获取Station，不存在返回错误
func (m *StationManager) GetOrError(id int32) (*entity.Station, error) {
	if s, ok := m.data[id]; !ok {
		return nil, fmt.Errorf("no id %d in station data", id)
	} else {
		return s, nil
	}
}

// All 所有站点（按ID升序）
func (m *StationManager) All() []*entity.Station {
	return m.stations
}

// Capacity 当前的站点容量
// 说明：第一天最高，之后每天减少CapacityTaper，不低于MinCapacity
func (m *StationManager) Capacity() int {
	c := m.ctx.RuntimeConfig().Station
	return max(c.MinCapacity, c.BaseCapacity-c.CapacityTaper*(m.ctx.Clock().Day()-1))
}

// Grace 当前的过载宽限期
func (m *StationManager) Grace() float64 {
	c := m.ctx.RuntimeConfig().Station
	return max(c.GraceMin, c.GraceBase-c.GraceTaper*float64(m.ctx.Clock().Day()-1))
}

func (m *StationManager) spawnInterval() float64 {
	c := m.ctx.RuntimeConfig().Station
	return max(c.SpawnIntervalMin, c.SpawnInterval-c.SpawnTaper*float64(m.ctx.Clock().Day()-1))
}

// Prepare 准备阶段
// 功能：到达生成时间时在范围内随机生成一个新站点
// 算法说明：
// 1. 随机采样位置，要求与所有已有站点的距离不小于MinSpacing，多次失败则放弃本次生成
// 2. 按概率决定是否为终点站或换乘站
// 3. 站点名优先取名称池中的下一个名字
func (m *StationManager) Prepare() {
	c := m.ctx.RuntimeConfig().Station
	now := m.ctx.Clock().T
	if c.SpawnDisabled || now < m.nextSpawnAt {
		return
	}
	m.nextSpawnAt = now + m.spawnInterval()
	if len(m.stations) >= c.MaxStations {
		return
	}
	r := m.ctx.Rand()
	var pos orb.Point
	found := false
	for _i := 0; _i < spawnAttempts; _i++ {
		pos = orb.Point{r.Uniform(c.Bounds.MinX, c.Bounds.MaxX), r.Uniform(c.Bounds.MinY, c.Bounds.MaxY)}
		if lo.EveryBy(m.stations, func(s *entity.Station) bool {
			return geometry.Distance(s.Pos, pos) >= c.MinSpacing
		}) {
			found = true
			break
		}
	}
	if !found {
		log.Debugf("no room for a new station")
		return
	}
	isFinal := r.PTrue(c.FinalProb)
	isInterchange := !isFinal && r.PTrue(c.InterchangeProb)
	name := ""
	if k := len(m.stations); k < len(c.Names) {
		name = c.Names[k]
	}
	s := m.Add(name, pos, isFinal, isInterchange)
	m.ctx.World().Emit(entity.Event{
		Kind: entity.EventStationSpawned, T: now,
		StationID: s.ID, LineID: entity.NoID, PassengerID: entity.NoID,
		Message: s.Name,
	})
	log.Debugf("spawn %v at %v final=%v interchange=%v", s, pos, isFinal, isInterchange)
}
