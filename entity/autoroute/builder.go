package autoroute

import (
	"github.com/tsinghua-fib-lab/metrosim/entity"
)

// Builder 自动建线器
// 功能：按周期计算线网复杂度，复杂度过高时自动开启，并在冷却结束后按规则表尝试建线或延长线路
// 说明：手动切换过启用状态后不再自动开关
type Builder struct {
	ctx entity.ITaskContext

	enabled    bool
	overridden bool
	complexity float64

	nextRunAt    float64 // 下一次评估的时间（毫秒）
	nextActionAt float64 // 下一次允许建线的时间（毫秒）

	rules []rule
}

// NewBuilder 创建自动建线器
func NewBuilder(ctx entity.ITaskContext) *Builder {
	return &Builder{
		ctx:   ctx,
		rules: defaultRules(),
	}
}

func (b *Builder) Enabled() bool {
	return b.enabled
}

// Toggle 手动切换启用状态
// 返回：切换后的状态
func (b *Builder) Toggle() bool {
	b.overridden = true
	b.enabled = !b.enabled
	log.Infof("auto routing toggled to %v", b.enabled)
	return b.enabled
}

func (b *Builder) Complexity() float64 {
	return b.complexity
}

// Score 计算线网复杂度
// 算法说明：线路数、站点数、等待乘客数、过载站点数、未连接站点数、久等乘客数的加权和
func (b *Builder) Score() float64 {
	rc := b.ctx.RuntimeConfig()
	wt := rc.AutoRoute.Weights
	now := b.ctx.Clock().T
	stations := b.ctx.StationManager().All()
	waiting, overcrowded, disconnected, longWaiting := 0, 0, 0, 0
	for _, s := range stations {
		waiting += len(s.Queue)
		if s.IsOvercrowded {
			overcrowded++
		}
		if !s.Connected() {
			disconnected++
		}
		for _, p := range s.Queue {
			if p.Waited(now) > rc.Passenger.LongWait {
				longWaiting++
			}
		}
	}
	return wt.Lines*float64(len(b.ctx.LineManager().All())) +
		wt.Stations*float64(len(stations)) +
		wt.Waiting*float64(waiting) +
		wt.Overcrowded*float64(overcrowded) +
		wt.Disconnected*float64(disconnected) +
		wt.LongWaiting*float64(longWaiting)
}

// Update 更新阶段
// 功能：按周期更新复杂度与启用状态；启用且冷却结束时按顺序尝试规则，第一个成功的动作生效
// 说明：复杂度超过开启阈值时自动开启；只有复杂度低于关闭阈值且线路数不多时才自动关闭，避免来回切换
func (b *Builder) Update(dt float64) {
	now := b.ctx.Clock().T
	if now < b.nextRunAt {
		return
	}
	c := b.ctx.RuntimeConfig().AutoRoute
	b.nextRunAt = now + c.Interval
	b.complexity = b.Score()
	b.ctx.World().Stats.Complexity = b.complexity

	if !b.overridden {
		lines := len(b.ctx.LineManager().All())
		if !b.enabled && b.complexity >= c.EnableThreshold {
			b.enabled = true
			log.Infof("auto routing enabled, complexity=%.1f", b.complexity)
		} else if b.enabled && b.complexity <= c.DisableThreshold && lines <= c.DisableMaxLines {
			b.enabled = false
			log.Infof("auto routing disabled, complexity=%.1f", b.complexity)
		}
	}
	if !b.enabled || now < b.nextActionAt {
		return
	}
	if name, ok := b.Act(); ok {
		b.nextActionAt = now + c.ActionCooldown
		log.Debugf("auto routing action %s", name)
	}
}

// Act 按顺序尝试规则，返回第一个成功的规则名
func (b *Builder) Act() (string, bool) {
	for _, r := range b.rules {
		if r.when(b) && r.do(b) {
			return r.name, true
		}
	}
	return "", false
}
