package clock

import (
	"fmt"

	"github.com/tsinghua-fib-lab/metrosim/utils/config"
)

// Clock 仿真时钟管理器
// 功能：管理仿真系统的时间推进，时间单位为毫秒（仿真时间，不是墙钟时间）
// 说明：维护当前仿真时间、步数与天数，所有超时判断都基于T比较
type Clock struct {
	DT         float64 // 每个模拟步的时间间隔（毫秒）
	DayLength  float64 // 一天的长度（毫秒）
	START_STEP int32   // 起始步
	END_STEP   int32   // 结束步，推进到END后停止，Total为0时不限制（-1）

	T            float64 // 当前时间（毫秒）
	InternalStep int32   // 当前步数
}

// New 根据配置创建新的时钟实例
// 参数：stepConfig-控制步配置，dayLength-一天的长度（毫秒）
func New(stepConfig config.ControlStep, dayLength float64) *Clock {
	c := &Clock{
		DT:         stepConfig.Interval,
		DayLength:  dayLength,
		START_STEP: stepConfig.Start,
		END_STEP:   -1,
	}
	if stepConfig.Total > 0 {
		c.END_STEP = stepConfig.Start + stepConfig.Total
	}
	c.Init()
	return c
}

// Init 重置时钟到起始步
func (c *Clock) Init() {
	c.InternalStep = c.START_STEP
	c.T = float64(c.InternalStep) * c.DT
}

// Tick 推进一步
func (c *Clock) Tick() {
	c.InternalStep++
	c.T = float64(c.InternalStep) * c.DT
}

// Finished 是否已推进了Total步
func (c *Clock) Finished() bool {
	return c.END_STEP >= 0 && c.InternalStep >= c.END_STEP
}

// Day 当前是第几天（从1开始）
func (c *Clock) Day() int {
	if c.DayLength <= 0 {
		return 1
	}
	return int(c.T/c.DayLength) + 1
}

// String 获取时钟的字符串表示（Day X HH:MM:SS.mmm，按仿真时间）
func (c *Clock) String() string {
	t := c.T
	if c.DayLength > 0 {
		t -= float64(c.Day()-1) * c.DayLength
	}
	ms := int64(t)
	h := ms / 3600000
	ms -= h * 3600000
	m := ms / 60000
	ms -= m * 60000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("Day %d %02d:%02d:%02d.%03d", c.Day(), h, m, s, ms)
}
