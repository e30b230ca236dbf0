package network

import "github.com/tsinghua-fib-lab/metrosim/entity"

// Reachable 基于站点connections的可达性判断
// 功能：广度优先搜索，站点之间通过共同线路相连
// 说明：只回答能否到达，不计算代价；记录已访问站点，环状连接也能终止
func (e *Estimator) Reachable(from, to int32) bool {
	if from == to {
		return true
	}
	return Reach(e.ctx.StationManager(), e.ctx.LineManager(), from)[to]
}

// Reach 从from出发可达的所有站点
func Reach(sm entity.IStationManager, lm entity.ILineManager, from int32) map[int32]bool {
	visited := map[int32]bool{from: true}
	queue := []int32{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		s := sm.Get(cur)
		if s == nil {
			continue
		}
		for _, lineID := range s.ConnectionIDs() {
			l := lm.Get(lineID)
			if l == nil {
				continue
			}
			for _, next := range l.Stations {
				if !visited[next] {
					visited[next] = true
					queue = append(queue, next)
				}
			}
		}
	}
	return visited
}
