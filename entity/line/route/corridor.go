package route

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/tsinghua-fib-lab/metrosim/utils/geometry"
)

// 平行判定：方向向量夹角余弦不小于cos(30°)
var parallelCos = math.Cos(math.Pi / 6)

// 进站泡方向吸附步长
const bubbleStep = math.Pi / 6

// Bundle 走廊捆绑
// 功能：对与其他线路近似平行且相邻的线段做垂直偏移，使并行线路分开显示
// 参数：path-待处理折线，others-其他线路的折线，threshold-中点垂直距离阈值，spacing-偏移距离
// 返回：新的折线，点数与path相同
// 算法说明：
// 1. 对path的每条线段，统计与之平行（同向夹角不超过30°）且相邻的其他线段位于左侧还是右侧
// 2. 有平行邻居的线段向多数邻居的另一侧偏移spacing，两侧相同时偏向右侧
// 3. 每个点的偏移取其相邻的已偏移线段偏移量的平均值
// 说明：单遍贪心，不做全局间距优化
func Bundle(path orb.LineString, others []orb.LineString, threshold, spacing float64) orb.LineString {
	n := len(path)
	res := path.Clone()
	if n < 2 || len(others) == 0 || spacing == 0 {
		return res
	}
	offsets := make([]orb.Point, n-1)
	bundled := make([]bool, n-1)
	for i := 0; i+1 < n; i++ {
		a, b := path[i], path[i+1]
		length := geometry.Distance(a, b)
		if length == 0 {
			continue
		}
		dir := geometry.Scale(geometry.Sub(b, a), 1/length)
		normal := orb.Point{-dir[1], dir[0]}
		mid := geometry.Midpoint(a, b)
		neighbors, left, right := 0, 0, 0
		for _, other := range others {
			for j := 0; j+1 < len(other); j++ {
				oa, ob := other[j], other[j+1]
				oLength := geometry.Distance(oa, ob)
				if oLength == 0 {
					continue
				}
				oDir := geometry.Scale(geometry.Sub(ob, oa), 1/oLength)
				if geometry.Dot(dir, oDir) < parallelCos {
					continue
				}
				v := geometry.Sub(geometry.Midpoint(oa, ob), mid)
				perp := geometry.Dot(v, normal)
				along := geometry.Dot(v, dir)
				if math.Abs(perp) > threshold || math.Abs(along) > (length+oLength)/2 {
					continue
				}
				neighbors++
				if perp > 0 {
					left++
				} else if perp < 0 {
					right++
				}
			}
		}
		if neighbors == 0 {
			continue
		}
		sign := -1.
		if right > left {
			sign = 1
		}
		bundled[i] = true
		offsets[i] = geometry.Scale(normal, sign*spacing)
	}
	for k := 0; k < n; k++ {
		sum, cnt := orb.Point{}, 0
		if k > 0 && bundled[k-1] {
			sum = geometry.Add(sum, offsets[k-1])
			cnt++
		}
		if k < n-1 && bundled[k] {
			sum = geometry.Add(sum, offsets[k])
			cnt++
		}
		if cnt > 0 {
			res[k] = geometry.Add(res[k], geometry.Scale(sum, 1/float64(cnt)))
		}
	}
	return res
}

// Bubble 枢纽进站泡
// 功能：在折线的一端插入一个沿30°整数倍方向、距端点radius的进站点
// 参数：path-折线，atStart-处理起点（否则处理终点），radius-半径
// 返回：新的折线；端点相邻线段不长于radius时原样返回
func Bubble(path orb.LineString, atStart bool, radius float64) orb.LineString {
	n := len(path)
	if n < 2 || radius <= 0 {
		return path
	}
	end, next := path[0], path[1]
	if !atStart {
		end, next = path[n-1], path[n-2]
	}
	if geometry.Distance(end, next) <= radius {
		return path
	}
	angle := geometry.SnapAngle(math.Atan2(next[1]-end[1], next[0]-end[0]), bubbleStep)
	p := orb.Point{end[0] + radius*math.Cos(angle), end[1] + radius*math.Sin(angle)}
	res := make(orb.LineString, 0, n+1)
	if atStart {
		res = append(res, end, p)
		res = append(res, path[1:]...)
	} else {
		res = append(res, path[:n-1]...)
		res = append(res, p, end)
	}
	return res
}
