package train

import (
	"math"
	"slices"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/metrosim/entity"
	"github.com/tsinghua-fib-lab/metrosim/utils"
	"github.com/tsinghua-fib-lab/metrosim/utils/geometry"
)

var (
	ErrNoTrainAvailable = errors.New("no train available")
	ErrNoSuchLine       = errors.New("no such line")
	ErrNoSuchTrain      = errors.New("no such train")
)

// TrainManager Train管理器
// 功能：管理所有列车，负责列车在线路折线上的运动、到站、停站与折返
type TrainManager struct {
	ctx entity.ITaskContext

	data   map[int32]*entity.Train
	nextID int32
}

// NewManager 创建Train管理器实例
func NewManager(ctx entity.ITaskContext) *TrainManager {
	return &TrainManager{
		ctx:  ctx,
		data: make(map[int32]*entity.Train),
	}
}

// Get 根据ID获取Train，不存在返回nil
func (m *TrainManager) Get(id int32) *entity.Train {
	return m.data[id]
}

// All 所有列车（按ID升序）
func (m *TrainManager) All() []*entity.Train {
	ids := lo.Keys(m.data)
	slices.Sort(ids)
	trains, _ := utils.Find(m.data, ids)
	return trains
}

// AddToLine 从车辆池取出一辆车放到线路起点
// 功能：新车停在线路第一个站点，立即做一次只上车的到站处理后按停站时间发车
// 参数：lineID-线路ID
// 返回：新列车，车辆池为空或线路不存在时返回错误
func (m *TrainManager) AddToLine(lineID int32) (*entity.Train, error) {
	w := m.ctx.World()
	if w.AvailableTrains <= 0 {
		return nil, ErrNoTrainAvailable
	}
	l := m.ctx.LineManager().Get(lineID)
	if l == nil {
		return nil, errors.Wrapf(ErrNoSuchLine, "line %d", lineID)
	}
	c := m.ctx.RuntimeConfig().Train
	t := &entity.Train{
		ID:                 m.nextID,
		LineID:             lineID,
		Direction:          entity.FORWARD,
		Capacity:           c.Capacity,
		Speed:              c.Speed,
		Passengers:         make([]*entity.Passenger, 0, c.Capacity),
		State:              entity.TrainRunning,
		LastStationVisited: entity.NoID,
	}
	m.nextID++
	m.data[t.ID] = t
	l.Trains = append(l.Trains, t.ID)
	w.AvailableTrains--
	if len(l.StationOffsets) > 0 {
		m.arrive(t, l, 0, l.StationOffsets[0], true)
	}
	log.Debugf("add %v", t)
	return t, nil
}

// Reclaim 将列车收回车辆池
// 说明：车上乘客放回距离列车最近的本线站点
func (m *TrainManager) Reclaim(trainID int32) error {
	t, ok := m.data[trainID]
	if !ok {
		return errors.Wrapf(ErrNoSuchTrain, "train %d", trainID)
	}
	l := m.ctx.LineManager().Get(t.LineID)
	m.evict(t, l)
	if l != nil {
		l.Trains = lo.Without(l.Trains, trainID)
	}
	log.Debugf("reclaim %v", t)
	return nil
}

// RemoveLine 删除线路上的所有列车并归还车辆池
func (m *TrainManager) RemoveLine(l *entity.Line) {
	for _, id := range l.Trains {
		if t, ok := m.data[id]; ok {
			m.evict(t, l)
		}
	}
	l.Trains = l.Trains[:0]
}

func (m *TrainManager) evict(t *entity.Train, l *entity.Line) {
	if len(t.Passengers) > 0 {
		if target := m.nearestStation(t, l); target != entity.NoID {
			m.ctx.PassengerManager().Redistribute(t.Passengers, target)
		} else {
			log.Warnf("%v has no station to drop %d passengers", t, len(t.Passengers))
		}
		t.Passengers = nil
	}
	delete(m.data, t.ID)
	m.ctx.World().AvailableTrains++
}

// nearestStation 距离列车最近的本线站点
func (m *TrainManager) nearestStation(t *entity.Train, l *entity.Line) int32 {
	if l == nil || len(l.Stations) == 0 {
		return entity.NoID
	}
	if len(l.StationOffsets) != len(l.Stations) {
		return l.Stations[0]
	}
	best, bestDist := l.Stations[0], 2.
	for i, o := range l.StationOffsets {
		d := math.Abs(o - t.Position)
		if l.IsLoop {
			d = min(d, 1-d)
		}
		if d < bestDist {
			best, bestDist = l.Stations[i], d
		}
	}
	return best
}

// WorldPosition 列车的世界坐标与朝向
func (m *TrainManager) WorldPosition(t *entity.Train) (orb.Point, float64) {
	l := m.ctx.LineManager().Get(t.LineID)
	if l == nil || len(l.Waypoints) == 0 {
		return orb.Point{}, 0
	}
	p, heading := geometry.PositionAlong(l.Waypoints, l.Lengths, t.Position*l.TotalLength)
	if t.Direction == entity.BACKWARD {
		heading += math.Pi
	}
	return p, heading
}
