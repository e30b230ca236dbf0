// 随机数引擎，包装了golang.org/x/exp/rand，提供乘客与站点生成所需的常用随机方法
package randengine

import (
	"flag"

	"golang.org/x/exp/rand"
)

var (
	seedOffset = flag.Uint64("rand.seed_offset", 0, "seed offset") // 种子偏移量，用于调整随机数生成
)

// Engine 随机数引擎
// 功能：提供可复现的随机数生成，整个仿真共用一个实例
// 说明：仿真单线程运行，不提供加锁版本
type Engine struct {
	*rand.Rand // 底层随机数生成器
}

// New 创建随机数引擎
// 参数：seed-随机数种子（会叠加命令行的种子偏移量）
func New(seed uint64) *Engine {
	return &Engine{Rand: rand.New(rand.NewSource(seed + *seedOffset))}
}

// DiscreteDistribution 按给定权重生成随机下标
// 功能：根据权重数组生成离散分布的随机数
// 参数：weight-权重数组，每个元素表示对应索引的相对权重（非负）
// 返回：随机生成的索引值（0到len(weight)-1），权重全为0或数组为空时返回-1
// 算法说明：
// 1. 计算总权重
// 2. 在[0, 总权重)范围内生成随机数
// 3. 累积权重直到超过随机数，返回对应下标
func (e *Engine) DiscreteDistribution(weight []float64) int {
	total := .0
	for _, w := range weight {
		total += w
	}
	if total <= 0 {
		return -1
	}
	random := total * e.Float64()
	sum := 0.
	for i, w := range weight {
		sum += w
		if sum > random {
			return i
		}
	}
	// 浮点误差，落在最后一个正权重上
	for i := len(weight) - 1; i >= 0; i-- {
		if weight[i] > 0 {
			return i
		}
	}
	return -1
}

// PTrue 以指定概率返回true
func (e *Engine) PTrue(p float64) bool {
	return e.Float64() < p
}

// Uniform 在[min, max)范围内均匀采样
func (e *Engine) Uniform(min, max float64) float64 {
	return min + (max-min)*e.Float64()
}
