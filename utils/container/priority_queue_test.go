package container_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/metrosim/utils/container"
)

func TestPriorityQueueOrder(t *testing.T) {
	q := container.NewPriorityQueue[string]()
	assert.Equal(t, 0, q.Len())
	q.HeapPush("c", 3)
	q.HeapPush("a", 1)
	q.HeapPush("d", 4)
	q.HeapPush("b", 2)
	assert.Equal(t, 4, q.Len())
	assert.Equal(t, "a", q.First())

	var got []string
	var prios []float64
	for q.Len() > 0 {
		v, p := q.HeapPop()
		got = append(got, v)
		prios = append(prios, p)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, got)
	assert.Equal(t, []float64{1, 2, 3, 4}, prios)
}

func TestPriorityQueueStable(t *testing.T) {
	q := container.NewPriorityQueue[int]()
	for i := 0; i < 10; i++ {
		q.HeapPush(i, 1)
	}
	q.HeapPush(-1, 0)
	v, _ := q.HeapPop()
	assert.Equal(t, -1, v)
	// 同优先级按入队顺序出队
	for i := 0; i < 10; i++ {
		v, _ := q.HeapPop()
		assert.Equal(t, i, v)
	}
}
