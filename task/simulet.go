package task

import (
	"context"
	"flag"
	"time"
)

var (
	heartBeatInterval = flag.Int("log.heartbeat_interval", 600, "心跳日志间隔步数")
)

// prepare 准备阶段，每步执行一次
// 功能：在每个仿真步骤开始时进行准备工作
// 算法说明：
// 1. 更新时钟：增加内部步数并计算当前时间
// 2. 心跳日志：定期输出系统状态信息
// 3. 执行外部提交的命令（建线、删线、插站、开关自动建线等）
// 4. 定时生成新站点与新乘客
func (ctx *Context) prepare() {
	ctx.clock.Tick()

	if *heartBeatInterval > 0 && ctx.clock.InternalStep%int32(*heartBeatInterval) == 0 {
		w := ctx.world
		log.Infof(
			"STEP: %d(%s) stations=%d lines=%d trains=%d delivered=%d complexity=%.1f",
			ctx.clock.InternalStep, ctx.clock,
			len(ctx.stationManager.All()), len(ctx.lineManager.All()), len(ctx.trainManager.All()),
			w.Stats.Delivered, w.Stats.Complexity,
		)
	}

	ctx.applyCommands()
	ctx.stationManager.Prepare()
	ctx.passengerManager.Prepare()
}

// update 更新阶段，每步执行一次
// 功能：在每个仿真步骤中执行主要的仿真逻辑
// 算法说明：顺序不可调换
// 1. 列车运动（读取外部速度修正），到站时上下车
// 2. 车辆分配（按周期）
// 3. 自动建线（按周期）
// 4. 站点过载与乘客超时检查，放在列车之后，使本步到站的列车先缓解站点压力
// 5. 发布快照
func (ctx *Context) update() {
	dt := ctx.clock.DT
	ctx.trainManager.Update(dt)
	ctx.fleetAllocator.Update(dt)
	ctx.autoRouter.Update(dt)
	ctx.passengerManager.Update(dt)
	ctx.publish()
}

// Step 推进一步
// 返回：是否还可以继续推进（游戏结束或到达结束步后返回false）
func (ctx *Context) Step() bool {
	if ctx.world.GameOver || ctx.clock.Finished() {
		return false
	}
	ctx.prepare()
	ctx.update()
	log.Debugf("step %d: update complete", ctx.clock.InternalStep)
	return !ctx.world.GameOver
}

// Run 运行
// 参数：c-用于取消的上下文，realtime-是否按墙钟时间节流（每步等待DT毫秒）
func (ctx *Context) Run(c context.Context, realtime bool) {
	ctx.Init()
	var ticker *time.Ticker
	if realtime {
		ticker = time.NewTicker(time.Duration(ctx.clock.DT * float64(time.Millisecond)))
		defer ticker.Stop()
	}
	for !ctx.closed.Load() {
		if ticker != nil {
			select {
			case <-c.Done():
				ctx.Close()
				continue
			case <-ticker.C:
			}
		} else if c.Err() != nil {
			break
		}
		if !ctx.Step() {
			break
		}
	}
	if ctx.world.GameOver {
		log.Warnf("engine stopped: %s", ctx.world.GameOverReason)
	}
	log.Infof("engine complete at %s", ctx.clock)
}
