package entity

import (
	"fmt"
	"slices"

	"github.com/paulmach/orb"
	"github.com/samber/lo"
)

// 行驶方向
const (
	FORWARD  = 1  // 沿站点序列正向
	BACKWARD = -1 // 沿站点序列反向
)

// 无效ID
const NoID int32 = -1

// Passenger 乘客
// 功能：有起点（当前排队站点）与终点的出行者，受等待超时策略约束
type Passenger struct {
	ID              int32
	Destination     int32   // 终点站ID
	SpawnedAt       float64 // 生成时间（毫秒）
	QueuedAt        float64 // 进入当前站点队列的时间（毫秒），等待时长由此计算
	TransferReadyAt float64 // 最早可再次上车的时间（毫秒），模拟最小换乘时间
	TransferCount   int32   // 换乘次数
}

// Waited 已在当前站点等待的时长
func (p *Passenger) Waited(now float64) float64 {
	return now - p.QueuedAt
}

func (p *Passenger) String() string {
	return fmt.Sprintf("Passenger{ID=%d, Dest=%d}", p.ID, p.Destination)
}

// Station 站点
// 功能：线网节点，可以是普通站、换乘站（枢纽）或终点站
// 说明：只增不删；队列只由乘客管理器与列车到站处理修改，connections只由线路管理器修改
type Station struct {
	ID            int32
	Name          string
	Pos           orb.Point
	IsFinal       bool    // 终点站
	IsInterchange bool    // 换乘站
	MCT           float64 // 最小换乘时间（毫秒）
	Turnaround    float64 // 停站时间（毫秒）

	Queue       []*Passenger       // 等待的乘客（近似FIFO）
	Connections map[int32]struct{} // 经过本站的线路ID

	IsOvercrowded bool    // 是否过载
	OverflowTimer float64 // 过载计时器（毫秒）
}

// NewStation 创建站点
func NewStation(id int32, name string, pos orb.Point) *Station {
	return &Station{
		ID:          id,
		Name:        name,
		Pos:         pos,
		Queue:       make([]*Passenger, 0),
		Connections: make(map[int32]struct{}),
	}
}

// IsHub 是否为枢纽类站点（换乘站或终点站）
func (s *Station) IsHub() bool {
	return s.IsInterchange || s.IsFinal
}

// Connected 是否有线路经过
func (s *Station) Connected() bool {
	return len(s.Connections) > 0
}

// ConnectionIDs 经过本站的线路ID（升序）
func (s *Station) ConnectionIDs() []int32 {
	ids := lo.Keys(s.Connections)
	slices.Sort(ids)
	return ids
}

func (s *Station) String() string {
	return fmt.Sprintf("Station{ID=%d, Name=%s}", s.ID, s.Name)
}

// Line 线路
// 功能：有序站点序列及其导航生成的折线
// 说明：Waypoints只由线路管理器（通过网格导航）修改，列车与渲染只读
type Line struct {
	ID         int32
	Stations   []int32 // 站点ID序列，至少2个且相邻不重复
	ColorIndex int     // 调色板下标，通过ColorOf查询颜色
	IsLoop     bool    // 是否环线（末站回到首站）

	Waypoints      orb.LineString // 导航折线
	Lengths        []float64      // 折线各点累积长度
	StationOffsets []float64      // 各站点在折线上的归一化位置，与Stations一一对应
	TotalLength    float64        // 折线长度，供运动与渲染使用
	StationLength  float64        // 相邻站点直线距离之和，供车辆分配使用

	Trains []int32 // 分配到本线的列车ID
}

// Has 线路是否经过站点
func (l *Line) Has(stationID int32) bool {
	return slices.Contains(l.Stations, stationID)
}

// IndexOf 站点在序列中的下标，不存在返回-1
func (l *Line) IndexOf(stationID int32) int {
	return slices.Index(l.Stations, stationID)
}

// IsTerminal 是否为非环线的端点站
func (l *Line) IsTerminal(stationID int32) bool {
	if l.IsLoop || len(l.Stations) == 0 {
		return false
	}
	return l.Stations[0] == stationID || l.Stations[len(l.Stations)-1] == stationID
}

// Neighbors 站点在线路上的相邻站点（环线首尾相邻）
func (l *Line) Neighbors(stationID int32) []int32 {
	i := l.IndexOf(stationID)
	if i < 0 {
		return nil
	}
	n := len(l.Stations)
	res := make([]int32, 0, 2)
	if i > 0 {
		res = append(res, l.Stations[i-1])
	} else if l.IsLoop && n > 2 {
		res = append(res, l.Stations[n-1])
	}
	if i < n-1 {
		res = append(res, l.Stations[i+1])
	} else if l.IsLoop && n > 2 {
		res = append(res, l.Stations[0])
	}
	return res
}

// Pairs 相邻站点对（环线包含首尾闭合）
func (l *Line) Pairs() [][2]int32 {
	n := len(l.Stations)
	res := make([][2]int32, 0, n)
	for i := 0; i+1 < n; i++ {
		res = append(res, [2]int32{l.Stations[i], l.Stations[i+1]})
	}
	if l.IsLoop && n > 2 {
		res = append(res, [2]int32{l.Stations[n-1], l.Stations[0]})
	}
	return res
}

func (l *Line) String() string {
	return fmt.Sprintf("Line{ID=%d, Stations=%v, Loop=%v}", l.ID, l.Stations, l.IsLoop)
}

// TrainState 列车状态
type TrainState int

const (
	TrainRunning  TrainState = iota // 行驶中
	TrainDwelling                   // 停站中
)

func (s TrainState) String() string {
	switch s {
	case TrainRunning:
		return "running"
	case TrainDwelling:
		return "dwelling"
	}
	return "unknown"
}

// Train 列车
// 功能：容量受限的载具，同一时刻只属于一条线路
type Train struct {
	ID        int32
	LineID    int32
	Position  float64 // 沿线路折线的归一化位置[0,1]
	Direction int     // FORWARD/BACKWARD，环线恒为FORWARD
	Capacity  int
	Speed     float64 // 速度（单位/毫秒）

	Passengers []*Passenger // 车上乘客（不超过Capacity）

	State              TrainState
	DwellRemaining     float64 // 剩余停站时间（毫秒）
	StationCooldown    float64 // 同站重复到站保护剩余时间（毫秒）
	LastStationVisited int32   // 上一次到达的站点ID
}

// Free 剩余容量
func (t *Train) Free() int {
	return max(0, t.Capacity-len(t.Passengers))
}

func (t *Train) String() string {
	return fmt.Sprintf("Train{ID=%d, Line=%d, Pos=%.4f, Dir=%d, State=%v}", t.ID, t.LineID, t.Position, t.Direction, t.State)
}
