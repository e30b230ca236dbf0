package entity

import (
	"github.com/paulmach/orb"
	"github.com/tsinghua-fib-lab/metrosim/utils/input"
)

// Manager依赖倒置

// entity/station/manager.go的依赖倒置
type IStationManager interface {
	Init(stations []input.Station) // 初始化

	// 新增站点
	Add(name string, pos orb.Point, isFinal, isInterchange bool) *Station

	// 输入Station ID，查找Station，如果不存在则返回nil
	Get(id int32) *Station
	// 输入Station ID，查找Station，如果不存在则返回error
	GetOrError(id int32) (*Station, error)
	// 所有站点（按ID升序）
	All() []*Station

	Capacity() int  // 当前（随天数变化的）站点容量
	Grace() float64 // 当前过载宽限期（毫秒）

	Prepare() // 准备阶段：定时生成新站点
}

// entity/line/manager.go的依赖倒置
type ILineManager interface {
	// 输入Line ID，查找Line，如果不存在则返回nil
	Get(id int32) *Line
	// 输入Line ID，查找Line，如果不存在则返回error
	GetOrError(id int32) (*Line, error)
	// 所有线路（按ID升序）
	All() []*Line
	// 线网结构版本号，任何线路结构变化都会递增
	Version() uint64

	// 新建线路，首尾相同表示环线，colorPreference<0表示自动选色
	CreateLine(stations []int32, colorPreference int) (*Line, error)
	// 在线路的index位置插入站点
	InsertStation(lineID, stationID int32, index int) error
	// 删除线路
	RemoveLine(lineID int32) error
	// 重新生成线路折线
	RebuildWaypoints(l *Line)
	// 线段跨越受限走廊的次数
	Crossings(a, b orb.Point) int
}

// entity/network/estimator.go的依赖倒置
type IETAEstimator interface {
	// 所有站点到目的站的ETA表，不可达为+Inf
	ComputeETAs(destination int32) map[int32]float64
	// 单个站点到目的站的ETA
	EstimateETA(from, to int32) float64
	// 从from经相邻站via前往to是否能严格缩短ETA
	StepReducesETA(from, via, to int32) bool
	// 两个相邻站点之间的行驶时间
	EdgeTime(a, b int32) float64
	// 基于connections图的可达性判断
	Reachable(from, to int32) bool
}

// entity/train/manager.go的依赖倒置
type ITrainManager interface {
	// 输入Train ID，查找Train，如果不存在则返回nil
	Get(id int32) *Train
	// 所有列车（按ID升序）
	All() []*Train

	// 从车辆池取出一辆车放到线路起点
	AddToLine(lineID int32) (*Train, error)
	// 将线路上的列车收回车辆池
	Reclaim(trainID int32) error
	// 删除线路上的所有列车，车上乘客放回最近的站点
	RemoveLine(l *Line)
	// 列车的世界坐标与朝向
	WorldPosition(t *Train) (orb.Point, float64)

	Update(dt float64) // 更新阶段：推进列车
}

// entity/passenger/manager.go的依赖倒置
type IPassengerManager interface {
	// 在指定站点生成前往destination的乘客
	Spawn(origin, destination int32) (*Passenger, error)
	// 上车决策
	ShouldBoardLineHere(l *Line, at *Station, p *Passenger) bool
	// 列车到站时的上下车处理，boardOnly为true时只上车（列车首次发车）
	Exchange(t *Train, l *Line, at *Station, boardOnly bool)
	// 将乘客放回站点队列
	Redistribute(ps []*Passenger, stationID int32)

	Prepare()          // 准备阶段：定时生成乘客
	Update(dt float64) // 更新阶段：过载与超时检查
}

// entity/fleet/allocator.go的依赖倒置
type IFleetAllocator interface {
	// 立即执行一次分配
	Allocate()
	// 线路的需求分
	Demand(l *Line) float64
	// 线路的期望车辆数
	Desired(l *Line) int

	Update(dt float64) // 更新阶段：按周期分配
}

// entity/autoroute/builder.go的依赖倒置
type IAutoRouter interface {
	Enabled() bool
	// 切换启用状态，切换后不再自动开关
	Toggle() bool
	// 当前线网复杂度
	Complexity() float64

	Update(dt float64) // 更新阶段：按周期尝试建线
}

// ISpeedModifier 外部速度修正（如天气）
type ISpeedModifier interface {
	// 当前时间的列车速度系数
	SpeedFactor(t float64) float64
}

// ConstantSpeed 恒定速度系数
type ConstantSpeed float64

func (c ConstantSpeed) SpeedFactor(float64) float64 {
	return float64(c)
}
