// Package queue provides the merge frontier of the k-way merge: a generic
// binary-heap priority queue ordered by an injected less function.
package queue

import "container/heap"

// innerHeap implements heap.Interface over the queued values
type innerHeap[E any] struct {
	items    []E
	lessFunc func(E, E) bool
}

func (h *innerHeap[E]) Len() int           { return len(h.items) }
func (h *innerHeap[E]) Less(i, j int) bool { return h.lessFunc(h.items[i], h.items[j]) }
func (h *innerHeap[E]) Swap(i, j int)      { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *innerHeap[E]) Push(x any) {
	h.items = append(h.items, x.(E))
}

func (h *innerHeap[E]) Pop() any {
	old := h.items
	n := len(old)
	v := old[n-1]
	var zero E
	old[n-1] = zero // release the reference
	h.items = old[:n-1]
	return v
}

// PriorityQueue keeps its minimum value, according to lessFunc, at the head.
// Values that compare equal leave the queue in no particular order.
type PriorityQueue[E any] struct {
	h innerHeap[E]
}

// NewPriorityQueue creates an empty PriorityQueue ordered by lessFunc.
// capacity is a hint for the number of values that will be queued.
func NewPriorityQueue[E any](lessFunc func(E, E) bool, capacity int) *PriorityQueue[E] {
	pq := &PriorityQueue[E]{}
	pq.h.items = make([]E, 0, capacity)
	pq.h.lessFunc = lessFunc
	return pq
}

// Len returns the number of values in the queue
func (pq *PriorityQueue[E]) Len() int {
	return pq.h.Len()
}

// Push adds x to the queue
func (pq *PriorityQueue[E]) Push(x E) {
	heap.Push(&pq.h, x)
}

// Pop removes and returns the head of the queue. The queue must not be empty.
func (pq *PriorityQueue[E]) Pop() E {
	return heap.Pop(&pq.h).(E)
}

// Peek returns the head of the queue without removing it. The queue must not be empty.
func (pq *PriorityQueue[E]) Peek() E {
	return pq.h.items[0]
}

// Fix restores the ordering after the key of the head value changed in place.
func (pq *PriorityQueue[E]) Fix() {
	heap.Fix(&pq.h, 0)
}

// Drain removes every value from the queue and returns them in heap order.
func (pq *PriorityQueue[E]) Drain() []E {
	items := pq.h.items
	pq.h.items = nil
	return items
}
