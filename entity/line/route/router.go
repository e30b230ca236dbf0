package route

import (
	"github.com/bluele/gcache"
	"github.com/paulmach/orb"
	"github.com/tsinghua-fib-lab/metrosim/utils/container"
	"github.com/tsinghua-fib-lab/metrosim/utils/geometry"
)

type cacheKey [4]float64

type searchNode struct {
	c Cube
	g int
}

// Router 六边形网格导航
// 功能：将两个端点转换为沿60°网格边行进的折线，结果按端点对缓存
// 说明：缓存只能由线路管理器在线网结构变化时通过Invalidate清空
type Router struct {
	lattice       Lattice
	maxExpansions int
	cache         gcache.Cache
}

// New 创建导航器
// 参数：cellSize-网格尺寸，cacheSize-缓存容量，maxExpansions-A*最大扩展节点数
func New(cellSize float64, cacheSize, maxExpansions int) *Router {
	return &Router{
		lattice:       Lattice{Size: cellSize},
		maxExpansions: maxExpansions,
		cache:         gcache.New(cacheSize).LRU().Build(),
	}
}

// Lattice 网格换算
func (r *Router) Lattice() Lattice {
	return r.lattice
}

// Invalidate 清空路径缓存
func (r *Router) Invalidate() {
	r.cache.Purge()
}

// Route 计算两点间的网格路径
// 功能：返回至少2个点的折线，首尾一般为吸附到网格后的端点
// 参数：a-起点，b-终点（像素坐标）
// 返回：折线（调用方可以自由修改，不影响缓存）
// 算法说明：
// 1. 非有限坐标直接返回[a, b]
// 2. 查询缓存
// 3. 两个端点分别取整到最近的立方坐标，A*搜索（单位边权，六边形距离启发）
// 4. 网格路径转换回像素坐标并去除相邻重复点；搜索失败时退化为吸附端点的直连
// 5. 两个不同端点吸附到同一网格点时直接返回[a, b]，保证折线长度不为0
func (r *Router) Route(a, b orb.Point) orb.LineString {
	if !geometry.IsFinite(a) || !geometry.IsFinite(b) || r.lattice.Size <= 0 {
		return orb.LineString{a, b}
	}
	key := cacheKey{a[0], a[1], b[0], b[1]}
	if v, err := r.cache.Get(key); err == nil {
		return v.(orb.LineString).Clone()
	}
	start, goal := r.lattice.FromPixel(a), r.lattice.FromPixel(b)
	if start == goal && a != b {
		// 两个端点落在同一网格点上，退化为直连
		path := orb.LineString{a, b}
		_ = r.cache.Set(key, path.Clone())
		return path
	}
	var path orb.LineString
	if cubes, ok := r.search(start, goal); ok {
		path = make(orb.LineString, 0, len(cubes))
		for _, c := range cubes {
			p := r.lattice.ToPixel(c)
			if len(path) > 0 && path[len(path)-1] == p {
				continue
			}
			path = append(path, p)
		}
	} else {
		log.Debugf("lattice search failed from %v to %v, use direct segment", a, b)
		path = orb.LineString{r.lattice.ToPixel(start), r.lattice.ToPixel(goal)}
	}
	if len(path) < 2 {
		path = orb.LineString{path[0], path[0]}
	}
	_ = r.cache.Set(key, path.Clone())
	return path
}

// search A*搜索
// 说明：目标判定为与终点六边形距离小于1；同f值按入队顺序出队
func (r *Router) search(start, goal Cube) ([]Cube, bool) {
	open := container.NewPriorityQueue[searchNode]()
	best := map[Cube]int{start: 0}
	came := map[Cube]Cube{}
	closed := map[Cube]struct{}{}
	open.HeapPush(searchNode{c: start}, float64(start.Distance(goal)))
	expansions := 0
	for open.Len() > 0 {
		cur, _ := open.HeapPop()
		if _, ok := closed[cur.c]; ok {
			continue
		}
		if cur.c.Distance(goal) < 1 {
			return reconstruct(came, start, cur.c), true
		}
		closed[cur.c] = struct{}{}
		expansions++
		if r.maxExpansions > 0 && expansions > r.maxExpansions {
			return nil, false
		}
		for _, d := range directions {
			nb := cur.c.Add(d)
			if _, ok := closed[nb]; ok {
				continue
			}
			g := cur.g + 1
			if old, ok := best[nb]; ok && old <= g {
				continue
			}
			best[nb] = g
			came[nb] = cur.c
			open.HeapPush(searchNode{c: nb, g: g}, float64(g+nb.Distance(goal)))
		}
	}
	return nil, false
}

func reconstruct(came map[Cube]Cube, start, end Cube) []Cube {
	res := []Cube{end}
	for cur := end; cur != start; {
		cur = came[cur]
		res = append(res, cur)
	}
	for i, j := 0, len(res)-1; i < j; i, j = i+1, j-1 {
		res[i], res[j] = res[j], res[i]
	}
	return res
}
