package alert

import (
	"container/heap"
	"context"
	"sync"

	"github.com/shenikar/incident_orchestrator/internal/models"
)

type queued struct {
	dispatch *models.AlertDispatch
	seq      uint64
}

// dispatchHeap упорядочивает по приоритету, внутри приоритета - по порядку постановки
type dispatchHeap []queued

func (h dispatchHeap) Len() int { return len(h) }

func (h dispatchHeap) Less(i, j int) bool {
	ri, rj := h[i].dispatch.Priority.Rank(), h[j].dispatch.Priority.Rank()
	if ri != rj {
		return ri < rj
	}
	return h[i].seq < h[j].seq
}

func (h dispatchHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *dispatchHeap) Push(x any) { *h = append(*h, x.(queued)) }

func (h *dispatchHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// priorityQueue - потокобезопасная очередь с блокирующим Pop
type priorityQueue struct {
	mu    sync.Mutex
	items dispatchHeap
	seq   uint64
	ready chan struct{}
}

func newPriorityQueue() *priorityQueue {
	return &priorityQueue{ready: make(chan struct{}, 1)}
}

func (q *priorityQueue) Push(d *models.AlertDispatch) {
	q.mu.Lock()
	q.seq++
	heap.Push(&q.items, queued{dispatch: d, seq: q.seq})
	q.mu.Unlock()
	q.signal()
}

// Pop блокируется до появления элемента или отмены ctx
func (q *priorityQueue) Pop(ctx context.Context) (*models.AlertDispatch, bool) {
	for {
		q.mu.Lock()
		if q.items.Len() > 0 {
			item := heap.Pop(&q.items).(queued)
			remaining := q.items.Len()
			q.mu.Unlock()
			if remaining > 0 {
				q.signal()
			}
			return item.dispatch, true
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, false
		case <-q.ready:
		}
	}
}

func (q *priorityQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

func (q *priorityQueue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
