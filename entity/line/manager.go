package line

import (
	"fmt"
	"slices"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/metrosim/entity"
	"github.com/tsinghua-fib-lab/metrosim/entity/line/route"
	"github.com/tsinghua-fib-lab/metrosim/utils"
	"github.com/tsinghua-fib-lab/metrosim/utils/geometry"
)

// 线路操作失败原因
var (
	ErrTooFewStations   = errors.New("line needs at least 2 distinct stations")
	ErrDuplicateStation = errors.New("duplicated station in line")
	ErrUnknownStation   = errors.New("unknown station")
	ErrNoLineAvailable  = errors.New("no line available")
	ErrPermitExhausted  = errors.New("not enough permits to cross the restricted corridor")
	ErrNoSuchLine       = errors.New("no such line")
	ErrStationOnLine    = errors.New("station already on line")
	ErrBadIndex         = errors.New("insert index out of range")
)

// LineManager Line管理器
// 功能：管理所有线路的站点序列，在结构变化时重新生成折线并触发车辆分配
// 说明：折线只在这里被修改；任何结构变化都会清空导航缓存并递增版本号
type LineManager struct {
	ctx    entity.ITaskContext
	router *route.Router

	data    map[int32]*entity.Line
	nextID  int32
	version uint64

	colorCursor   int      // 下一次寻找未使用颜色的起点
	colorAssigned []uint64 // 各颜色最近一次被分配的序号，0表示从未分配
	colorSeq      uint64
}

// NewManager 创建Line管理器实例
// 参数：ctx-任务上下文
// 返回：新创建的Line管理器实例
func NewManager(ctx entity.ITaskContext) *LineManager {
	rc := ctx.RuntimeConfig()
	return &LineManager{
		ctx:           ctx,
		router:        route.New(rc.Router.CellSize, rc.Router.CacheSize, rc.Router.MaxExpansions),
		data:          make(map[int32]*entity.Line),
		colorAssigned: make([]uint64, len(rc.Palette)),
	}
}

// Router 网格导航器
func (m *LineManager) Router() *route.Router {
	return m.router
}

// Get 根据ID获取Line，不存在返回nil
func (m *LineManager) Get(id int32) *entity.Line {
	return m.data[id]
}

// GetOrError 根据ID获取Line，不存在返回错误
func (m *LineManager) GetOrError(id int32) (*entity.Line, error) {
	if l, ok := m.data[id]; !ok {
		return nil, fmt.Errorf("no id %d in line data", id)
	} else {
		return l, nil
	}
}

// All 所有线路（按ID升序）
func (m *LineManager) All() []*entity.Line {
	ids := lo.Keys(m.data)
	slices.Sort(ids)
	lines, _ := utils.Find(m.data, ids)
	return lines
}

func (m *LineManager) Version() uint64 {
	return m.version
}

// Crossings 线段ab跨越受限走廊的次数
func (m *LineManager) Crossings(a, b orb.Point) int {
	return geometry.CrossingCount(a, b, m.ctx.RuntimeConfig().Corridor)
}

// sequenceCrossings 站点序列（含环线闭合段）跨越受限走廊的总次数
func (m *LineManager) sequenceCrossings(ids []int32, loop bool) int {
	sm := m.ctx.StationManager()
	count := 0
	n := len(ids)
	for i := 0; i+1 < n; i++ {
		count += m.Crossings(sm.Get(ids[i]).Pos, sm.Get(ids[i+1]).Pos)
	}
	if loop && n > 2 {
		count += m.Crossings(sm.Get(ids[n-1]).Pos, sm.Get(ids[0]).Pos)
	}
	return count
}

func (m *LineManager) validate(ids []int32) error {
	if len(ids) < 2 {
		return ErrTooFewStations
	}
	seen := make(map[int32]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return errors.Wrapf(ErrDuplicateStation, "station %d", id)
		}
		seen[id] = struct{}{}
		if m.ctx.StationManager().Get(id) == nil {
			return errors.Wrapf(ErrUnknownStation, "station %d", id)
		}
	}
	return nil
}

// CreateLine 新建线路
// 功能：校验站点序列、消耗线路与许可、分配颜色、登记站点连接并生成折线
// 参数：stations-站点ID序列（首尾相同且至少3个不同站点时为环线），colorPreference-偏好的颜色下标，<0表示自动
// 返回：新线路，失败时返回错误且不修改任何状态
// 算法说明：
// 1. 检查可用线路数与站点序列合法性
// 2. 统计跨越受限走廊的次数，超过可用许可则失败，否则扣除许可
// 3. 选择颜色：偏好颜色优先，其次从轮转起点找未使用的颜色，最后复用最久未分配的颜色
// 4. 登记connections，清空导航缓存，重建本线及ID更大的线路折线
// 5. 触发一次车辆分配
func (m *LineManager) CreateLine(stations []int32, colorPreference int) (*entity.Line, error) {
	w := m.ctx.World()
	if w.AvailableLines <= 0 {
		return nil, ErrNoLineAvailable
	}
	ids := slices.Clone(stations)
	loop := false
	if n := len(ids); n >= 4 && ids[0] == ids[n-1] {
		loop = true
		ids = ids[:n-1]
	}
	if err := m.validate(ids); err != nil {
		return nil, err
	}
	crossings := m.sequenceCrossings(ids, loop)
	if crossings > w.AvailablePermits {
		return nil, errors.Wrapf(ErrPermitExhausted, "need %d, have %d", crossings, w.AvailablePermits)
	}
	w.AvailablePermits -= crossings
	w.AvailableLines--

	l := &entity.Line{
		ID:         m.nextID,
		Stations:   ids,
		ColorIndex: m.pickColor(colorPreference),
		IsLoop:     loop,
		Trains:     make([]int32, 0),
	}
	m.nextID++
	m.data[l.ID] = l
	for _, id := range ids {
		m.ctx.StationManager().Get(id).Connections[l.ID] = struct{}{}
	}
	m.structureChanged(l.ID)
	w.Emit(entity.Event{Kind: entity.EventLineCreated, T: m.ctx.Clock().T, LineID: l.ID, StationID: entity.NoID, PassengerID: entity.NoID})
	log.Debugf("create %v, crossings=%d", l, crossings)

	m.ctx.FleetAllocator().Allocate()
	return l, nil
}

// InsertStation 在线路的index位置插入站点
// 功能：新增的受限走廊跨越次数不能超过可用许可，成功后重建折线并重新分配车辆
// 参数：lineID-线路ID，stationID-站点ID，index-插入位置[0, len]
func (m *LineManager) InsertStation(lineID, stationID int32, index int) error {
	l, ok := m.data[lineID]
	if !ok {
		return errors.Wrapf(ErrNoSuchLine, "line %d", lineID)
	}
	st := m.ctx.StationManager().Get(stationID)
	if st == nil {
		return errors.Wrapf(ErrUnknownStation, "station %d", stationID)
	}
	if l.Has(stationID) {
		return errors.Wrapf(ErrStationOnLine, "station %d on line %d", stationID, lineID)
	}
	if index < 0 || index > len(l.Stations) {
		return errors.Wrapf(ErrBadIndex, "index %d for %d stations", index, len(l.Stations))
	}
	w := m.ctx.World()
	next := slices.Insert(slices.Clone(l.Stations), index, stationID)
	extra := max(0, m.sequenceCrossings(next, l.IsLoop)-m.sequenceCrossings(l.Stations, l.IsLoop))
	if extra > w.AvailablePermits {
		return errors.Wrapf(ErrPermitExhausted, "need %d, have %d", extra, w.AvailablePermits)
	}
	w.AvailablePermits -= extra
	l.Stations = next
	st.Connections[l.ID] = struct{}{}
	m.structureChanged(l.ID)
	w.Emit(entity.Event{Kind: entity.EventLineChanged, T: m.ctx.Clock().T, LineID: l.ID, StationID: stationID, PassengerID: entity.NoID})
	log.Debugf("insert station %d into %v at %d", stationID, l, index)

	m.ctx.FleetAllocator().Allocate()
	return nil
}

// RemoveLine 删除线路
// 功能：移除线路上的列车（乘客放回站点），解除站点连接，归还线路
func (m *LineManager) RemoveLine(lineID int32) error {
	l, ok := m.data[lineID]
	if !ok {
		return errors.Wrapf(ErrNoSuchLine, "line %d", lineID)
	}
	w := m.ctx.World()
	m.ctx.TrainManager().RemoveLine(l)
	for _, id := range l.Stations {
		if st := m.ctx.StationManager().Get(id); st != nil {
			delete(st.Connections, l.ID)
		}
	}
	delete(m.data, lineID)
	w.AvailableLines++
	m.structureChanged(lineID + 1)
	w.Emit(entity.Event{Kind: entity.EventLineRemoved, T: m.ctx.Clock().T, LineID: lineID, StationID: entity.NoID, PassengerID: entity.NoID})
	log.Debugf("remove %v", l)

	m.ctx.FleetAllocator().Allocate()
	return nil
}

// structureChanged 线网结构变化后的统一处理
// 说明：捆绑只参考ID更小的线路，因此ID不小于from的线路都需要按ID顺序重建
func (m *LineManager) structureChanged(from int32) {
	m.version++
	m.router.Invalidate()
	for _, l := range m.All() {
		if l.ID >= from {
			m.RebuildWaypoints(l)
		}
	}
}

func (m *LineManager) pickColor(preference int) int {
	n := len(m.colorAssigned)
	if n == 0 {
		return 0
	}
	c := preference
	if c < 0 || c >= n {
		c = m.unusedColor()
	}
	m.colorSeq++
	m.colorAssigned[c] = m.colorSeq
	return c
}

func (m *LineManager) unusedColor() int {
	n := len(m.colorAssigned)
	used := make(map[int]struct{}, len(m.data))
	for _, l := range m.data {
		used[l.ColorIndex] = struct{}{}
	}
	for i := 0; i < n; i++ {
		c := (m.colorCursor + i) % n
		if _, ok := used[c]; !ok {
			m.colorCursor = (c + 1) % n
			return c
		}
	}
	oldest := 0
	for c := 1; c < n; c++ {
		if m.colorAssigned[c] < m.colorAssigned[oldest] {
			oldest = c
		}
	}
	return oldest
}
