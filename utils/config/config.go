package config

import (
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// 默认线路配色
var defaultPalette = []string{
	"#e4002b", "#0072ce", "#00a651", "#ffb81c",
	"#8e44ad", "#f47b20", "#00b2a9", "#8b5e3c",
}

// Parse 解析YAML配置
// 功能：严格模式解析配置文件内容，未知字段视为错误
// 参数：data-YAML文件内容
// 返回：配置对象，错误信息
func Parse(data []byte) (Config, error) {
	var c Config
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return c, errors.Wrap(err, "config: unmarshal yaml")
	}
	return c, nil
}

// RuntimeConfig 运行时配置
// 功能：存储填充默认值后的配置，供各个管理器读取
// 说明：所有零值字段在NewRuntimeConfig中替换为默认值，受限走廊转换为orb.Ring
type RuntimeConfig struct {
	All Config  // 原始配置
	C   Control // 全局控制配置

	Router    Router
	Network   Network
	HubSpoke  HubSpoke
	Station   Station
	Passenger Passenger
	Train     Train
	Fleet     Fleet
	AutoRoute AutoRoute
	Resources Resources
	Corridor  orb.Ring // 受限走廊多边形（可能为空）
	Palette   []string
}

func orFloat(v, d float64) float64 {
	if v == 0 {
		return d
	}
	return v
}

func orInt(v, d int) int {
	if v == 0 {
		return d
	}
	return v
}

// NewRuntimeConfig 根据配置初始化运行时配置
// 功能：复制原始配置并填充所有默认值
// 参数：config-原始配置对象
// 返回：初始化的运行时配置指针
func NewRuntimeConfig(config Config) *RuntimeConfig {
	rc := &RuntimeConfig{}

	rc.All = config
	rc.C = config.Control
	rc.C.Step.Interval = orFloat(rc.C.Step.Interval, 1000./60)
	rc.C.DayLength = orFloat(rc.C.DayLength, 120000)

	r := config.Router
	r.CellSize = orFloat(r.CellSize, 20)
	r.BundleThreshold = orFloat(r.BundleThreshold, 14)
	r.BundleSpacing = orFloat(r.BundleSpacing, 5)
	r.BubbleRadius = orFloat(r.BubbleRadius, 18)
	r.CacheSize = orInt(r.CacheSize, 2048)
	r.MaxExpansions = orInt(r.MaxExpansions, 50000)
	rc.Router = r

	n := config.Network
	n.Speed = orFloat(n.Speed, 0.12)
	n.DefaultMCT = orFloat(n.DefaultMCT, 3000)
	n.InterchangeDiscount = orFloat(n.InterchangeDiscount, 0.5)
	n.TransferMultiplier = orFloat(n.TransferMultiplier, 1)
	n.Epsilon = orFloat(n.Epsilon, 1)
	rc.Network = n

	h := config.HubSpoke
	h.Bias = orFloat(h.Bias, 1.5)
	h.HubWeight = orFloat(h.HubWeight, 6)
	h.FleetBonus = orInt(h.FleetBonus, 1)
	rc.HubSpoke = h

	s := config.Station
	s.BaseCapacity = orInt(s.BaseCapacity, 12)
	s.MinCapacity = orInt(s.MinCapacity, 6)
	s.CapacityTaper = orInt(s.CapacityTaper, 1)
	s.GraceBase = orFloat(s.GraceBase, 60000)
	s.GraceMin = orFloat(s.GraceMin, 20000)
	s.GraceTaper = orFloat(s.GraceTaper, 5000)
	s.OverflowDecay = orFloat(s.OverflowDecay, 2)
	s.SevereRatio = orFloat(s.SevereRatio, 0.5)
	s.DefaultTurnaround = orFloat(s.DefaultTurnaround, 1500)
	s.SpawnInterval = orFloat(s.SpawnInterval, 45000)
	s.SpawnIntervalMin = orFloat(s.SpawnIntervalMin, 20000)
	s.SpawnTaper = orFloat(s.SpawnTaper, 5000)
	s.MaxStations = orInt(s.MaxStations, 40)
	s.InterchangeProb = orFloat(s.InterchangeProb, 0.15)
	s.FinalProb = orFloat(s.FinalProb, 0.1)
	s.MinSpacing = orFloat(s.MinSpacing, 80)
	if s.Bounds == (Bounds{}) {
		s.Bounds = Bounds{MinX: 0, MinY: 0, MaxX: 1600, MaxY: 900}
	}
	rc.Station = s

	p := config.Passenger
	p.SpawnInterval = orFloat(p.SpawnInterval, 2500)
	p.SpawnIntervalMin = orFloat(p.SpawnIntervalMin, 800)
	p.SpawnTaper = orFloat(p.SpawnTaper, 300)
	p.OriginWeightFloor = orFloat(p.OriginWeightFloor, 0.05)
	p.FinalBias = orFloat(p.FinalBias, 0.3)
	p.HubWeight = orFloat(p.HubWeight, 3)
	p.MaxWait = orFloat(p.MaxWait, 90000)
	p.MissedConnectionMultiplier = orFloat(p.MissedConnectionMultiplier, 2)
	p.CrowdedQueueBase = orInt(p.CrowdedQueueBase, 8)
	p.CrowdedQueueMin = orInt(p.CrowdedQueueMin, 4)
	p.HubBootstrapWait = orFloat(p.HubBootstrapWait, 15000)
	p.LongWait = orFloat(p.LongWait, 30000)
	p.EmergencyWait = orFloat(p.EmergencyWait, 60000)
	p.ReliefWait = orFloat(p.ReliefWait, 45000)
	p.ReliefBatch = orInt(p.ReliefBatch, 3)
	rc.Passenger = p

	t := config.Train
	t.Capacity = orInt(t.Capacity, 6)
	t.Speed = orFloat(t.Speed, 0.12)
	t.Cooldown = orFloat(t.Cooldown, 500)
	t.Epsilon = orFloat(t.Epsilon, 1e-6)
	if t.EarlyDwellFactors == nil {
		t.EarlyDwellFactors = []float64{0.5, 0.75}
	}
	t.CongestionPenalty = orFloat(t.CongestionPenalty, 1.5)
	t.InterchangeDiscount = orFloat(t.InterchangeDiscount, 0.7)
	rc.Train = t

	f := config.Fleet
	f.Interval = orFloat(f.Interval, 2000)
	f.UnitDistance = orFloat(f.UnitDistance, 400)
	f.UnitStations = orInt(f.UnitStations, 4)
	f.UnitDemand = orFloat(f.UnitDemand, 10)
	f.DemandWeight = orFloat(f.DemandWeight, 5)
	f.HubPriority = orFloat(f.HubPriority, 200)
	f.ZeroVehicleBoost = orFloat(f.ZeroVehicleBoost, 1e6)
	f.MaxPerLineBase = orInt(f.MaxPerLineBase, 3)
	f.MaxPerLineGrowth = orInt(f.MaxPerLineGrowth, 1)
	f.MaxPerLineCap = orInt(f.MaxPerLineCap, 8)
	rc.Fleet = f

	a := config.AutoRoute
	a.Interval = orFloat(a.Interval, 1000)
	a.ActionCooldown = orFloat(a.ActionCooldown, 8000)
	a.EnableThreshold = orFloat(a.EnableThreshold, 60)
	a.DisableThreshold = orFloat(a.DisableThreshold, 30)
	a.DisableMaxLines = orInt(a.DisableMaxLines, 2)
	a.BootstrapSize = orInt(a.BootstrapSize, 3)
	if a.Weights == nil {
		a.Weights = &AutoRouteWeights{
			Lines: 2, Stations: 1, Waiting: 0.5,
			Overcrowded: 8, Disconnected: 3, LongWaiting: 1,
		}
	}
	rc.AutoRoute = a

	res := config.Resources
	res.Trains = orInt(res.Trains, 3)
	res.Lines = orInt(res.Lines, 3)
	res.Permits = orInt(res.Permits, 2)
	rc.Resources = res

	for _, v := range config.Corridor.Polygon {
		rc.Corridor = append(rc.Corridor, orb.Point{v[0], v[1]})
	}
	rc.Palette = config.Palette
	if len(rc.Palette) == 0 {
		rc.Palette = defaultPalette
	}
	return rc
}
