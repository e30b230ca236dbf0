package entity

import (
	"github.com/google/uuid"
)

// 事件环形缓冲区容量
const eventRingSize = 256

// EventKind 事件类型
type EventKind string

const (
	EventDelivered      EventKind = "delivered"       // 乘客送达
	EventDiscarded      EventKind = "discarded"       // 乘客因不可达被移除
	EventRelocated      EventKind = "relocated"       // 严重过载时乘客被转移
	EventGameOver       EventKind = "game_over"       // 游戏结束
	EventLineCreated    EventKind = "line_created"    // 新建线路
	EventLineChanged    EventKind = "line_changed"    // 线路插入站点
	EventLineRemoved    EventKind = "line_removed"    // 删除线路
	EventStationSpawned EventKind = "station_spawned" // 新站点
)

// Event 仿真事件
// 功能：供外部（渲染、提示、成就等）消费的事件记录，核心只负责产生
type Event struct {
	ID          uuid.UUID `json:"id"`
	Kind        EventKind `json:"kind"`
	T           float64   `json:"t"`
	StationID   int32     `json:"station_id"`
	LineID      int32     `json:"line_id"`
	PassengerID int32     `json:"passenger_id"`
	Message     string    `json:"message,omitempty"`
}

// Stats 全局统计
type Stats struct {
	Spawned    int64   `json:"spawned"`    // 生成乘客数
	Delivered  int64   `json:"delivered"`  // 送达乘客数
	Discarded  int64   `json:"discarded"`  // 因不可达移除的乘客数
	Relocated  int64   `json:"relocated"`  // 被转移的乘客数
	Transfers  int64   `json:"transfers"`  // 换乘次数
	Complexity float64 `json:"complexity"` // 最近一次计算的线网复杂度
}

// World 共享的全局游戏状态
// 功能：保存各管理器之间共享的计数器、游戏结束状态、统计与事件
// 说明：站点、线路、列车由各自的管理器持有；World只保存跨管理器共享的标量状态
type World struct {
	RunID   uuid.UUID
	Palette []string

	AvailableTrains  int // 车辆池中可分配的列车数
	AvailableLines   int // 可新建的线路数
	AvailablePermits int // 跨越受限走廊的许可数

	GameOver       bool
	GameOverReason string
	GameOverAt     float64

	Stats Stats

	events     [eventRingSize]Event
	eventHead  int // 下一个写入位置
	eventCount int
}

// NewWorld 创建全局状态
func NewWorld(trains, lines, permits int, palette []string) *World {
	return &World{
		RunID:            uuid.New(),
		Palette:          palette,
		AvailableTrains:  trains,
		AvailableLines:   lines,
		AvailablePermits: permits,
	}
}

// Emit 记录事件，超过容量时覆盖最旧的事件
func (w *World) Emit(e Event) Event {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	w.events[w.eventHead] = e
	w.eventHead = (w.eventHead + 1) % eventRingSize
	if w.eventCount < eventRingSize {
		w.eventCount++
	}
	return e
}

// Events 按时间顺序返回缓冲区内的事件（副本）
func (w *World) Events() []Event {
	res := make([]Event, 0, w.eventCount)
	start := (w.eventHead - w.eventCount + eventRingSize) % eventRingSize
	for i := 0; i < w.eventCount; i++ {
		res = append(res, w.events[(start+i)%eventRingSize])
	}
	return res
}

// EndGame 进入游戏结束状态
// 功能：记录第一次触发的结束原因，之后的调用被忽略
// 参数：reason-结束原因，t-当前仿真时间
// 返回：是否是本次调用触发的结束
func (w *World) EndGame(reason string, t float64) bool {
	if w.GameOver {
		return false
	}
	w.GameOver = true
	w.GameOverReason = reason
	w.GameOverAt = t
	w.Emit(Event{Kind: EventGameOver, T: t, StationID: NoID, LineID: NoID, PassengerID: NoID, Message: reason})
	log.Warnf("game over at %.0fms: %s", t, reason)
	return true
}

// ColorOf 查询线路颜色
func ColorOf(w *World, l *Line) string {
	if len(w.Palette) == 0 || l.ColorIndex < 0 {
		return "#000000"
	}
	return w.Palette[l.ColorIndex%len(w.Palette)]
}
