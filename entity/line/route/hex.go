package route

import (
	"math"

	"github.com/paulmach/orb"
)

// Cube 六边形网格立方坐标，满足Q+R+S=0
type Cube struct {
	Q, R, S int
}

// 六个相邻方向，顺序固定以保证搜索结果确定
var directions = [6]Cube{
	{1, 0, -1}, {1, -1, 0}, {0, -1, 1},
	{-1, 0, 1}, {-1, 1, 0}, {0, 1, -1},
}

func (c Cube) Add(o Cube) Cube {
	return Cube{c.Q + o.Q, c.R + o.R, c.S + o.S}
}

// Distance 六边形距离 (|dq|+|dr|+|ds|)/2
func (c Cube) Distance(o Cube) int {
	return (abs(c.Q-o.Q) + abs(c.R-o.R) + abs(c.S-o.S)) / 2
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// CubeRound 将浮点立方坐标取整到最近的网格点
// 算法说明：三个分量分别四舍五入，误差最大的分量由另外两个分量反推，保持q+r+s=0
func CubeRound(q, r, s float64) Cube {
	rq, rr, rs := math.Round(q), math.Round(r), math.Round(s)
	dq, dr, ds := math.Abs(rq-q), math.Abs(rr-r), math.Abs(rs-s)
	switch {
	case dq > dr && dq > ds:
		rq = -rr - rs
	case dr > ds:
		rr = -rq - rs
	default:
		rs = -rq - rr
	}
	return Cube{int(rq), int(rr), int(rs)}
}

// Lattice 尖顶六边形网格与像素坐标的换算
type Lattice struct {
	Size float64 // 网格尺寸（中心到顶点的距离）
}

// ToPixel 网格点转像素坐标
func (l Lattice) ToPixel(c Cube) orb.Point {
	x := l.Size * math.Sqrt(3) * (float64(c.Q) + float64(c.R)/2)
	y := l.Size * 1.5 * float64(c.R)
	return orb.Point{x, y}
}

// FromPixel 像素坐标转最近的网格点
func (l Lattice) FromPixel(p orb.Point) Cube {
	q := (math.Sqrt(3)/3*p[0] - p[1]/3) / l.Size
	r := (2. / 3 * p[1]) / l.Size
	return CubeRound(q, r, -q-r)
}

// Snap 像素坐标吸附到最近的网格点
func (l Lattice) Snap(p orb.Point) orb.Point {
	return l.ToPixel(l.FromPixel(p))
}
