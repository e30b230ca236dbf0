package task

import (
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	geojson "github.com/paulmach/go.geojson"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/metrosim/entity"
)

// PassengerView 渲染用的乘客信息
type PassengerView struct {
	ID            int32   `json:"id"`
	Destination   int32   `json:"destination"`
	Waited        float64 `json:"waited"`
	TransferCount int32   `json:"transfer_count"`
}

// StationView 渲染用的站点信息
type StationView struct {
	ID            int32           `json:"id"`
	Name          string          `json:"name"`
	X             float64         `json:"x"`
	Y             float64         `json:"y"`
	IsFinal       bool            `json:"is_final"`
	IsInterchange bool            `json:"is_interchange"`
	Queue         []PassengerView `json:"queue"`
	IsOvercrowded bool            `json:"is_overcrowded"`
	OverflowTimer float64         `json:"overflow_timer"`
	Lines         []int32         `json:"lines"`
}

// LineView 渲染用的线路信息
type LineView struct {
	ID          int32        `json:"id"`
	Stations    []int32      `json:"stations"`
	Color       string       `json:"color"`
	IsLoop      bool         `json:"is_loop"`
	Waypoints   [][2]float64 `json:"waypoints"`
	TotalLength float64      `json:"total_length"`
	Trains      []int32      `json:"trains"`
}

// TrainView 渲染用的列车信息
type TrainView struct {
	ID        int32   `json:"id"`
	LineID    int32   `json:"line_id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Heading   float64 `json:"heading"`
	Position  float64 `json:"position"`
	Direction int     `json:"direction"`
	State     string  `json:"state"`
	Load      int     `json:"load"`
	Capacity  int     `json:"capacity"`
}

// Snapshot 仿真状态快照
// 功能：每步结束后发布的不可变深拷贝，供渲染、HTTP服务与外部存档/撤销使用
type Snapshot struct {
	RunID uuid.UUID `json:"run_id"`
	Step  int32     `json:"step"`
	T     float64   `json:"t"`
	Day   int       `json:"day"`
	Clock string    `json:"clock"`

	Stations []StationView `json:"stations"`
	Lines    []LineView    `json:"lines"`
	Trains   []TrainView   `json:"trains"`

	AvailableTrains  int     `json:"available_trains"`
	AvailableLines   int     `json:"available_lines"`
	AvailablePermits int     `json:"available_permits"`
	AutoRouting      bool    `json:"auto_routing"`
	Complexity       float64 `json:"complexity"`

	GameOver       bool   `json:"game_over"`
	GameOverReason string `json:"game_over_reason,omitempty"`

	Stats  entity.Stats   `json:"stats"`
	Events []entity.Event `json:"events"`
}

// Snapshot 最近一次发布的快照，可以被任意协程调用
func (ctx *Context) Snapshot() *Snapshot {
	return ctx.snapshot.Load()
}

// publish 生成并发布快照
func (ctx *Context) publish() {
	ctx.snapshot.Store(ctx.buildSnapshot())
}

func (ctx *Context) buildSnapshot() *Snapshot {
	w := ctx.world
	now := ctx.clock.T
	s := &Snapshot{
		RunID:            w.RunID,
		Step:             ctx.clock.InternalStep,
		T:                now,
		Day:              ctx.clock.Day(),
		Clock:            ctx.clock.String(),
		AvailableTrains:  w.AvailableTrains,
		AvailableLines:   w.AvailableLines,
		AvailablePermits: w.AvailablePermits,
		AutoRouting:      ctx.autoRouter.Enabled(),
		Complexity:       ctx.autoRouter.Complexity(),
		GameOver:         w.GameOver,
		GameOverReason:   w.GameOverReason,
		Stats:            w.Stats,
		Events:           w.Events(),
	}
	s.Stations = lo.Map(ctx.stationManager.All(), func(st *entity.Station, _ int) StationView {
		return StationView{
			ID:            st.ID,
			Name:          st.Name,
			X:             st.Pos[0],
			Y:             st.Pos[1],
			IsFinal:       st.IsFinal,
			IsInterchange: st.IsInterchange,
			Queue: lo.Map(st.Queue, func(p *entity.Passenger, _ int) PassengerView {
				return PassengerView{ID: p.ID, Destination: p.Destination, Waited: p.Waited(now), TransferCount: p.TransferCount}
			}),
			IsOvercrowded: st.IsOvercrowded,
			OverflowTimer: st.OverflowTimer,
			Lines:         st.ConnectionIDs(),
		}
	})
	s.Lines = lo.Map(ctx.lineManager.All(), func(l *entity.Line, _ int) LineView {
		return LineView{
			ID:          l.ID,
			Stations:    append([]int32(nil), l.Stations...),
			Color:       entity.ColorOf(w, l),
			IsLoop:      l.IsLoop,
			Waypoints:   lo.Map(l.Waypoints, func(p orb.Point, _ int) [2]float64 { return p }),
			TotalLength: l.TotalLength,
			Trains:      append([]int32(nil), l.Trains...),
		}
	})
	s.Trains = lo.Map(ctx.trainManager.All(), func(t *entity.Train, _ int) TrainView {
		p, heading := ctx.trainManager.WorldPosition(t)
		return TrainView{
			ID:        t.ID,
			LineID:    t.LineID,
			X:         p[0],
			Y:         p[1],
			Heading:   heading,
			Position:  t.Position,
			Direction: t.Direction,
			State:     t.State.String(),
			Load:      len(t.Passengers),
			Capacity:  t.Capacity,
		}
	})
	return s
}

// GeoJSON 将快照中的线路、站点与列车导出为GeoJSON FeatureCollection
func (s *Snapshot) GeoJSON() ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, l := range s.Lines {
		coords := lo.Map(l.Waypoints, func(p [2]float64, _ int) []float64 { return []float64{p[0], p[1]} })
		f := geojson.NewLineStringFeature(coords)
		f.SetProperty("kind", "line")
		f.SetProperty("id", l.ID)
		f.SetProperty("color", l.Color)
		f.SetProperty("is_loop", l.IsLoop)
		f.SetProperty("stations", l.Stations)
		fc.AddFeature(f)
	}
	for _, st := range s.Stations {
		f := geojson.NewPointFeature([]float64{st.X, st.Y})
		f.SetProperty("kind", "station")
		f.SetProperty("id", st.ID)
		f.SetProperty("name", st.Name)
		f.SetProperty("is_final", st.IsFinal)
		f.SetProperty("is_interchange", st.IsInterchange)
		f.SetProperty("is_overcrowded", st.IsOvercrowded)
		f.SetProperty("queue", len(st.Queue))
		fc.AddFeature(f)
	}
	for _, t := range s.Trains {
		f := geojson.NewPointFeature([]float64{t.X, t.Y})
		f.SetProperty("kind", "train")
		f.SetProperty("id", t.ID)
		f.SetProperty("line_id", t.LineID)
		f.SetProperty("heading", t.Heading)
		f.SetProperty("load", t.Load)
		fc.AddFeature(f)
	}
	b, err := fc.MarshalJSON()
	if err != nil {
		return nil, errors.Wrap(err, "snapshot: marshal geojson")
	}
	return b, nil
}
