// 基于orb的平面几何工具：折线长度、沿折线插值、线段相交、角度吸附
package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// IsFinite 检查点坐标是否为有限值（非NaN非Inf）
func IsFinite(p orb.Point) bool {
	return !math.IsNaN(p[0]) && !math.IsNaN(p[1]) && !math.IsInf(p[0], 0) && !math.IsInf(p[1], 0)
}

// Distance 两点欧式距离
func Distance(a, b orb.Point) float64 {
	return planar.Distance(a, b)
}

// Sub 向量a-b
func Sub(a, b orb.Point) orb.Point {
	return orb.Point{a[0] - b[0], a[1] - b[1]}
}

// Add 向量a+b
func Add(a, b orb.Point) orb.Point {
	return orb.Point{a[0] + b[0], a[1] + b[1]}
}

// Scale 向量数乘
func Scale(a orb.Point, k float64) orb.Point {
	return orb.Point{a[0] * k, a[1] * k}
}

// Dot 向量点积
func Dot(a, b orb.Point) float64 {
	return a[0]*b[0] + a[1]*b[1]
}

// Cross 向量叉积（z分量）
func Cross(a, b orb.Point) float64 {
	return a[0]*b[1] - a[1]*b[0]
}

// Midpoint 线段中点
func Midpoint(a, b orb.Point) orb.Point {
	return orb.Point{(a[0] + b[0]) / 2, (a[1] + b[1]) / 2}
}

// PolylineLengths 计算折线各点处的累积长度
// 返回：与line等长的数组，第一个元素为0，最后一个元素为折线总长
func PolylineLengths(line orb.LineString) []float64 {
	lengths := make([]float64, len(line))
	for i := 1; i < len(line); i++ {
		lengths[i] = lengths[i-1] + planar.Distance(line[i-1], line[i])
	}
	return lengths
}

// PositionAlong 将折线上的长度坐标s转换为xy坐标与切向角度
// 功能：沿折线插值，s超出[0, 总长]时截断到端点
// 参数：line-折线，lengths-PolylineLengths的结果，s-长度坐标
// 返回：插值点，所在线段方向角（atan2，弧度）
func PositionAlong(line orb.LineString, lengths []float64, s float64) (orb.Point, float64) {
	n := len(line)
	switch n {
	case 0:
		return orb.Point{}, 0
	case 1:
		return line[0], 0
	}
	if s <= 0 {
		return line[0], heading(line[0], line[1])
	}
	if s >= lengths[n-1] {
		return line[n-1], heading(line[n-2], line[n-1])
	}
	// 二分查找所在线段
	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if lengths[mid] <= s {
			lo = mid
		} else {
			hi = mid
		}
	}
	segLen := lengths[hi] - lengths[lo]
	if segLen <= 0 {
		return line[lo], heading(line[lo], line[hi])
	}
	k := (s - lengths[lo]) / segLen
	p := orb.Point{
		line[lo][0] + (line[hi][0]-line[lo][0])*k,
		line[lo][1] + (line[hi][1]-line[lo][1])*k,
	}
	return p, heading(line[lo], line[hi])
}

func heading(a, b orb.Point) float64 {
	return math.Atan2(b[1]-a[1], b[0]-a[0])
}

// orientation 三点方向：0共线，1顺时针，2逆时针
func orientation(p, q, r orb.Point) int {
	v := (q[1]-p[1])*(r[0]-q[0]) - (q[0]-p[0])*(r[1]-q[1])
	switch {
	case math.Abs(v) < 1e-12:
		return 0
	case v > 0:
		return 1
	default:
		return 2
	}
}

// onSegment 已知p,q,r共线时，检查q是否在线段pr上
func onSegment(p, q, r orb.Point) bool {
	return q[0] <= math.Max(p[0], r[0]) && q[0] >= math.Min(p[0], r[0]) &&
		q[1] <= math.Max(p[1], r[1]) && q[1] >= math.Min(p[1], r[1])
}

// SegmentsIntersect 判断线段p1q1与p2q2是否相交
// 算法说明：标准方向测试，加上共线时的在线段上测试
func SegmentsIntersect(p1, q1, p2, q2 orb.Point) bool {
	o1 := orientation(p1, q1, p2)
	o2 := orientation(p1, q1, q2)
	o3 := orientation(p2, q2, p1)
	o4 := orientation(p2, q2, q1)
	if o1 != o2 && o3 != o4 {
		return true
	}
	if o1 == 0 && onSegment(p1, p2, q1) {
		return true
	}
	if o2 == 0 && onSegment(p1, q2, q1) {
		return true
	}
	if o3 == 0 && onSegment(p2, p1, q2) {
		return true
	}
	if o4 == 0 && onSegment(p2, q1, q2) {
		return true
	}
	return false
}

// CrossingCount 统计线段ab与多边形各边的相交次数
// 说明：ring首尾是否闭合均可，未闭合时自动补上最后一条边；少于3个顶点的多边形视为不存在
func CrossingCount(a, b orb.Point, ring orb.Ring) int {
	n := len(ring)
	if n < 3 {
		return 0
	}
	if ring[0] == ring[n-1] {
		n--
	}
	count := 0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		if SegmentsIntersect(a, b, ring[i], ring[j]) {
			count++
		}
	}
	return count
}

// Crosses 线段ab是否跨越多边形（与任一边相交）
func Crosses(a, b orb.Point, ring orb.Ring) bool {
	return CrossingCount(a, b, ring) > 0
}

// SnapAngle 将角度吸附到step的整数倍
func SnapAngle(angle, step float64) float64 {
	return math.Round(angle/step) * step
}
