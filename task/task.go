package task

import (
	"sync"
	"sync/atomic"

	"github.com/tsinghua-fib-lab/metrosim/clock"
	"github.com/tsinghua-fib-lab/metrosim/entity"
	"github.com/tsinghua-fib-lab/metrosim/entity/autoroute"
	"github.com/tsinghua-fib-lab/metrosim/entity/fleet"
	"github.com/tsinghua-fib-lab/metrosim/entity/line"
	"github.com/tsinghua-fib-lab/metrosim/entity/network"
	"github.com/tsinghua-fib-lab/metrosim/entity/passenger"
	"github.com/tsinghua-fib-lab/metrosim/entity/station"
	"github.com/tsinghua-fib-lab/metrosim/entity/train"
	"github.com/tsinghua-fib-lab/metrosim/utils/config"
	"github.com/tsinghua-fib-lab/metrosim/utils/input"
	"github.com/tsinghua-fib-lab/metrosim/utils/randengine"
)

// Context 仿真任务上下文
// 功能：包含一次仿真任务的所有变量和状态，替代全局变量
// 说明：所有管理器在同一个线程中按固定顺序执行；外部调用者通过命令缓冲区提交修改，通过快照读取状态
type Context struct {
	// 关闭指令
	closed atomic.Bool

	// 时钟
	clock *clock.Clock
	// 共享的全局状态
	world *entity.World
	// 运行时配置文件
	runtimeConfig *config.RuntimeConfig
	// 随机数引擎
	rand *randengine.Engine
	// 外部速度修正
	speedModifier entity.ISpeedModifier

	// Station管理器
	stationManager *station.StationManager
	// Line管理器
	lineManager *line.LineManager
	// ETA估计器
	etaEstimator *network.Estimator
	// Train管理器
	trainManager *train.TrainManager
	// Passenger管理器
	passengerManager *passenger.PassengerManager
	// 车辆分配器
	fleetAllocator *fleet.Allocator
	// 自动建线器
	autoRouter *autoroute.Builder

	// 用于初始化的输入
	initRes *input.Input

	// 待执行的外部命令，在准备阶段统一执行
	commands      []*Command
	commandsMutex sync.Mutex

	// 最近一次发布的快照
	snapshot atomic.Pointer[Snapshot]
}

// NewContext 创建新的仿真任务上下文
// 功能：初始化仿真系统的所有组件和配置
// 参数：
//   - c: 配置对象
//   - in: 初始场景（为nil时根据配置加载）
//   - speedModifier: 外部速度修正（为nil时恒为1）
//
// 返回：创建完成但尚未Init的Context实例
func NewContext(c config.Config, in *input.Input, speedModifier entity.ISpeedModifier) *Context {
	ctx := &Context{
		commands: make([]*Command, 0),
	}
	ctx.runtimeConfig = config.NewRuntimeConfig(c)
	rc := ctx.runtimeConfig
	ctx.clock = clock.New(rc.C.Step, rc.C.DayLength)
	ctx.rand = randengine.New(c.Input.Seed)
	if speedModifier == nil {
		speedModifier = entity.ConstantSpeed(1)
	}
	ctx.speedModifier = speedModifier

	// 加载初始场景
	if in == nil {
		in = input.Init(c)
	}
	ctx.initRes = in

	ctx.world = entity.NewWorld(rc.Resources.Trains, rc.Resources.Lines, rc.Resources.Permits, rc.Palette)

	// 新建各类模拟对象
	ctx.stationManager = station.NewManager(ctx)
	ctx.lineManager = line.NewManager(ctx)
	ctx.etaEstimator = network.NewEstimator(ctx)
	ctx.trainManager = train.NewManager(ctx)
	ctx.passengerManager = passenger.NewManager(ctx)
	ctx.fleetAllocator = fleet.NewAllocator(ctx)
	ctx.autoRouter = autoroute.NewBuilder(ctx)

	return ctx
}

func (ctx *Context) GetInput() *input.Input {
	return ctx.initRes
}

func (ctx *Context) Clock() *clock.Clock {
	return ctx.clock
}

func (ctx *Context) World() *entity.World {
	return ctx.world
}

func (ctx *Context) RuntimeConfig() *config.RuntimeConfig {
	return ctx.runtimeConfig
}

func (ctx *Context) Rand() *randengine.Engine {
	return ctx.rand
}

func (ctx *Context) SpeedModifier() entity.ISpeedModifier {
	return ctx.speedModifier
}

func (ctx *Context) StationManager() entity.IStationManager {
	return ctx.stationManager
}

func (ctx *Context) LineManager() entity.ILineManager {
	return ctx.lineManager
}

func (ctx *Context) ETAEstimator() entity.IETAEstimator {
	return ctx.etaEstimator
}

func (ctx *Context) TrainManager() entity.ITrainManager {
	return ctx.trainManager
}

func (ctx *Context) PassengerManager() entity.IPassengerManager {
	return ctx.passengerManager
}

func (ctx *Context) FleetAllocator() entity.IFleetAllocator {
	return ctx.fleetAllocator
}

func (ctx *Context) AutoRouter() entity.IAutoRouter {
	return ctx.autoRouter
}

// Init 初始化
// 功能：重置时钟，创建场景中的站点与预置线路，发布初始快照
func (ctx *Context) Init() {
	ctx.clock.Init()

	scenario := ctx.initRes.Scenario
	log.Infof("run %v", ctx.world.RunID)
	log.Infof("Station: %v", len(scenario.Stations))
	log.Infof("Line: %v", len(scenario.Lines))

	ctx.stationManager.Init(scenario.Stations)
	for _, ids := range scenario.Lines {
		if _, err := ctx.lineManager.CreateLine(ids, -1); err != nil {
			log.Errorf("failed to create scenario line %v: %v", ids, err)
		}
	}
	ctx.publish()
}

// Close 请求停止运行
func (ctx *Context) Close() {
	ctx.closed.Store(true)
}
