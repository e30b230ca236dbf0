package config

// Input 指定模拟器输入数据的配置项
// 功能：定义初始场景的数据来源
// 说明：场景文件为YAML格式，包含初始站点列表；为空则完全依赖站点生成器
type Input struct {
	Scenario string `yaml:"scenario,omitempty"` // 场景文件路径
	Seed     uint64 `yaml:"seed,omitempty"`     // 随机数种子
}

// ControlStep 指定模拟器模拟时间范围和间隔的配置项
// 功能：定义仿真时间控制参数
// 说明：时间单位统一为毫秒（仿真时间）
type ControlStep struct {
	Start    int32   `yaml:"start"`    // 开始步数
	Total    int32   `yaml:"total"`    // 总步数，0表示一直运行到游戏结束
	Interval float64 `yaml:"interval"` // 每步的时间间隔（毫秒）
}

// Control 模拟器控制配置
type Control struct {
	Step      ControlStep `yaml:"step"`
	DayLength float64     `yaml:"day_length,omitempty"` // 一天的长度（毫秒），影响随天数变化的参数
}

// Router 网格导航配置
type Router struct {
	CellSize        float64 `yaml:"cell_size,omitempty"`        // 六边形网格尺寸
	BundleThreshold float64 `yaml:"bundle_threshold,omitempty"` // 走廊捆绑的垂直距离阈值
	BundleSpacing   float64 `yaml:"bundle_spacing,omitempty"`   // 走廊捆绑的偏移距离
	BubbleRadius    float64 `yaml:"bubble_radius,omitempty"`    // 枢纽站进站泡半径
	CacheSize       int     `yaml:"cache_size,omitempty"`       // 路径缓存容量
	MaxExpansions   int     `yaml:"max_expansions,omitempty"`   // A*最大扩展节点数，超过则退化为直连
}

// Network 线网ETA估计配置
type Network struct {
	Speed               float64 `yaml:"speed,omitempty"`                // ETA使用的速度常数（单位/毫秒）
	DefaultMCT          float64 `yaml:"default_mct,omitempty"`          // 默认最小换乘时间（毫秒）
	InterchangeDiscount float64 `yaml:"interchange_discount,omitempty"` // 换乘站换乘时间折扣
	TransferMultiplier  float64 `yaml:"transfer_multiplier,omitempty"`  // 全局换乘时间倍率
	Epsilon             float64 `yaml:"epsilon,omitempty"`              // stepReducesETA的判定余量（毫秒）
}

// HubSpoke 枢纽辐射模式配置
type HubSpoke struct {
	Enabled    bool    `yaml:"enabled"`
	Bias       float64 `yaml:"bias,omitempty"`        // 枢纽偏好系数，越大越早向枢纽上车
	HubWeight  float64 `yaml:"hub_weight,omitempty"`  // 生成乘客时枢纽终点的权重
	FleetBonus int     `yaml:"fleet_bonus,omitempty"` // 途经枢纽的线路额外期望车辆数
}

// Bounds 矩形范围
type Bounds struct {
	MinX float64 `yaml:"min_x"`
	MinY float64 `yaml:"min_y"`
	MaxX float64 `yaml:"max_x"`
	MaxY float64 `yaml:"max_y"`
}

// Station 站点配置
type Station struct {
	BaseCapacity      int      `yaml:"base_capacity,omitempty"`       // 第一天的站点容量
	MinCapacity       int      `yaml:"min_capacity,omitempty"`        // 容量下限
	CapacityTaper     int      `yaml:"capacity_taper,omitempty"`      // 每天减少的容量
	GraceBase         float64  `yaml:"grace_base,omitempty"`          // 第一天的过载宽限期（毫秒）
	GraceMin          float64  `yaml:"grace_min,omitempty"`           // 宽限期下限
	GraceTaper        float64  `yaml:"grace_taper,omitempty"`         // 每天减少的宽限期
	OverflowDecay     float64  `yaml:"overflow_decay,omitempty"`      // 解除过载后过载计时器的衰减倍率
	SevereRatio       float64  `yaml:"severe_ratio,omitempty"`        // 过载计时器达到宽限期该比例时视为严重过载
	DefaultTurnaround float64  `yaml:"default_turnaround,omitempty"`  // 默认停站时间（毫秒）
	SpawnInterval     float64  `yaml:"spawn_interval,omitempty"`      // 新站点生成间隔（毫秒）
	SpawnIntervalMin  float64  `yaml:"spawn_interval_min,omitempty"`  // 生成间隔下限
	SpawnTaper        float64  `yaml:"spawn_taper,omitempty"`         // 每天缩短的生成间隔
	MaxStations       int      `yaml:"max_stations,omitempty"`        // 站点数量上限
	InterchangeProb   float64  `yaml:"interchange_prob,omitempty"`    // 新站点为换乘站的概率
	FinalProb         float64  `yaml:"final_prob,omitempty"`          // 新站点为终点站的概率
	MinSpacing        float64  `yaml:"min_spacing,omitempty"`         // 新站点与已有站点的最小间距
	Bounds            Bounds   `yaml:"bounds"`                        // 新站点生成范围
	Names             []string `yaml:"names,omitempty"`               // 新站点名称池
	SpawnDisabled     bool     `yaml:"spawn_disabled,omitempty"`      // 关闭站点生成
}

// Passenger 乘客配置
type Passenger struct {
	SpawnInterval              float64 `yaml:"spawn_interval,omitempty"`               // 乘客生成间隔（毫秒）
	SpawnIntervalMin           float64 `yaml:"spawn_interval_min,omitempty"`           // 生成间隔下限
	SpawnTaper                 float64 `yaml:"spawn_taper,omitempty"`                  // 每天缩短的生成间隔
	SpawnDisabled              bool    `yaml:"spawn_disabled,omitempty"`               // 关闭乘客生成
	OriginWeightFloor          float64 `yaml:"origin_weight_floor,omitempty"`          // 起点权重下限
	FinalBias                  float64 `yaml:"final_bias,omitempty"`                   // 终点为终点站的概率
	HubWeight                  float64 `yaml:"hub_weight,omitempty"`                   // 非终点站中换乘站的权重
	MaxWait                    float64 `yaml:"max_wait,omitempty"`                     // 最大等待时间（毫秒）
	MissedConnectionMultiplier float64 `yaml:"missed_connection_multiplier,omitempty"` // 错过换乘判负的等待倍数
	CrowdedQueueBase           int     `yaml:"crowded_queue_base,omitempty"`           // 拥挤判定的排队长度（第一天）
	CrowdedQueueMin            int     `yaml:"crowded_queue_min,omitempty"`            // 拥挤判定的排队长度下限
	HubBootstrapWait           float64 `yaml:"hub_bootstrap_wait,omitempty"`           // 无ETA时向枢纽上车的等待阈值
	LongWait                   float64 `yaml:"long_wait,omitempty"`                    // 长时间等待阈值
	EmergencyWait              float64 `yaml:"emergency_wait,omitempty"`               // 紧急上车等待阈值
	ReliefWait                 float64 `yaml:"relief_wait,omitempty"`                  // 严重过载时转移乘客的等待阈值
	ReliefBatch                int     `yaml:"relief_batch,omitempty"`                 // 每次转移的乘客数
}

// Train 列车配置
type Train struct {
	Capacity            int       `yaml:"capacity,omitempty"`
	Speed               float64   `yaml:"speed,omitempty"`                // 基础速度（单位/毫秒）
	Cooldown            float64   `yaml:"cooldown,omitempty"`             // 同站重复到站保护时间（毫秒）
	Epsilon             float64   `yaml:"epsilon,omitempty"`              // 离站时的归一化位置微移量
	EarlyDwellFactors   []float64 `yaml:"early_dwell_factors,omitempty"`  // 前几天的停站时间系数
	CongestionPenalty   float64   `yaml:"congestion_penalty,omitempty"`   // 过载站停站时间系数
	InterchangeDiscount float64   `yaml:"interchange_discount,omitempty"` // 换乘站停站时间系数
}

// Fleet 车辆分配配置
type Fleet struct {
	Interval         float64 `yaml:"interval,omitempty"`           // 分配周期（毫秒）
	UnitDistance     float64 `yaml:"unit_distance,omitempty"`      // 每辆车负责的线路长度
	UnitStations     int     `yaml:"unit_stations,omitempty"`      // 每辆车负责的站点数
	UnitDemand       float64 `yaml:"unit_demand,omitempty"`        // 每辆车负责的需求分
	DemandWeight     float64 `yaml:"demand_weight,omitempty"`      // 优先级中需求分的权重
	HubPriority      float64 `yaml:"hub_priority,omitempty"`       // 优先级中途经枢纽的加分
	ZeroVehicleBoost float64 `yaml:"zero_vehicle_boost,omitempty"` // 无车线路的优先级加分
	MaxPerLineBase   int     `yaml:"max_per_line_base,omitempty"`  // 第一天每条线最多车辆
	MaxPerLineGrowth int     `yaml:"max_per_line_growth,omitempty"`
	MaxPerLineCap    int     `yaml:"max_per_line_cap,omitempty"`
	ReclaimDisabled  bool    `yaml:"reclaim_disabled,omitempty"` // 关闭多余车辆回收
}

// AutoRouteWeights 复杂度评分权重
type AutoRouteWeights struct {
	Lines        float64 `yaml:"lines"`
	Stations     float64 `yaml:"stations"`
	Waiting      float64 `yaml:"waiting"`
	Overcrowded  float64 `yaml:"overcrowded"`
	Disconnected float64 `yaml:"disconnected"`
	LongWaiting  float64 `yaml:"long_waiting"`
}

// AutoRoute 自动建线配置
type AutoRoute struct {
	Interval         float64           `yaml:"interval,omitempty"`          // 运行周期（毫秒）
	ActionCooldown   float64           `yaml:"action_cooldown,omitempty"`   // 两次建线动作的最短间隔（毫秒）
	EnableThreshold  float64           `yaml:"enable_threshold,omitempty"`  // 自动开启的复杂度阈值
	DisableThreshold float64           `yaml:"disable_threshold,omitempty"` // 自动关闭的复杂度阈值
	DisableMaxLines  int               `yaml:"disable_max_lines,omitempty"` // 自动关闭时的线路数上限
	BootstrapSize    int               `yaml:"bootstrap_size,omitempty"`    // 初始线网的站点数
	Weights          *AutoRouteWeights `yaml:"weights,omitempty"`
}

// Resources 初始资源
type Resources struct {
	Trains  int `yaml:"trains,omitempty"`
	Lines   int `yaml:"lines,omitempty"`
	Permits int `yaml:"permits,omitempty"`
}

// Corridor 受限走廊（多边形），跨越需要消耗许可
type Corridor struct {
	Polygon [][2]float64 `yaml:"polygon,omitempty"`
}

// Server HTTP服务配置
type Server struct {
	Listen string `yaml:"listen,omitempty"` // 为空则不启动
}

// Config YAML配置文件的根结构
// 功能：定义整个仿真系统的配置结构
type Config struct {
	Input     Input     `yaml:"input"`
	Control   Control   `yaml:"control"`
	Router    Router    `yaml:"router"`
	Network   Network   `yaml:"network"`
	HubSpoke  HubSpoke  `yaml:"hub_spoke"`
	Station   Station   `yaml:"station"`
	Passenger Passenger `yaml:"passenger"`
	Train     Train     `yaml:"train"`
	Fleet     Fleet     `yaml:"fleet"`
	AutoRoute AutoRoute `yaml:"autoroute"`
	Resources Resources `yaml:"resources"`
	Corridor  Corridor  `yaml:"corridor"`
	Palette   []string  `yaml:"palette,omitempty"`
	Server    Server    `yaml:"server"`
}
