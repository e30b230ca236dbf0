package container

import "container/heap"

// entry 堆中的一项
// 说明：seq为入队序号，优先级相同时序号小者先出，A*与Dijkstra因此对相同输入给出相同结果
type entry[T any] struct {
	value    T
	priority float64 // 越小越先出队
	seq      uint64
}

// entries 实现heap.Interface的底层切片
type entries[T any] []entry[T]

func (h entries[T]) Len() int { return len(h) }

func (h entries[T]) Less(i, j int) bool {
	if h[i].priority == h[j].priority {
		return h[i].seq < h[j].seq
	}
	return h[i].priority < h[j].priority
}

func (h entries[T]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entries[T]) Push(x any) {
	*h = append(*h, x.(entry[T]))
}

func (h *entries[T]) Pop() any {
	old := *h
	last := old[len(old)-1]
	old[len(old)-1] = entry[T]{} // 释放value引用
	*h = old[:len(old)-1]
	return last
}

// PriorityQueue 稳定的最小优先队列
// 功能：按优先级从小到大出队，同优先级先进先出
// 说明：用于网格A*的open表与线网Dijkstra；不支持修改已入队元素的优先级，调用方重复入队并在出队时跳过过期项
type PriorityQueue[T any] struct {
	h   entries[T]
	seq uint64
}

// NewPriorityQueue 创建空队列
func NewPriorityQueue[T any]() *PriorityQueue[T] {
	return &PriorityQueue[T]{h: make(entries[T], 0)}
}

// Len 队列中的元素个数
func (q *PriorityQueue[T]) Len() int {
	return q.h.Len()
}

// First 查看队首元素但不出队，队列为空时panic
func (q *PriorityQueue[T]) First() T {
	return q.h[0].value
}

// HeapPush 以priority入队
func (q *PriorityQueue[T]) HeapPush(value T, priority float64) {
	heap.Push(&q.h, entry[T]{value: value, priority: priority, seq: q.seq})
	q.seq++
}

// HeapPop 弹出优先级数值最小的元素
// 返回：元素与其优先级
func (q *PriorityQueue[T]) HeapPop() (T, float64) {
	e := heap.Pop(&q.h).(entry[T])
	return e.value, e.priority
}
