package queue_test

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/lanrat/kwaysort/queue"
)

func intLess(a, b int) bool {
	return a < b
}

func TestAllEqual(t *testing.T) {
	q := queue.NewPriorityQueue(intLess, 0)
	for i := 20; i > 0; i-- {
		q.Push(0) // all elements are the same
	}

	if l := q.Len(); l != 20 {
		t.Fatalf("queue len is %d, expected %d", l, 20)
	}

	for i := 1; q.Len() > 0; i++ {
		x := q.Peek()
		y := q.Pop()
		if x != y {
			t.Fatalf("q.Peek() and q.Pop() returned different values %d %d", x, y)
		}
		if x != 0 {
			t.Errorf("%d.th pop got %d; want %d", i, x, 0)
		}
	}
}

func TestPushPop(t *testing.T) {
	q := queue.NewPriorityQueue(intLess, 20)
	if l := q.Len(); l != 0 {
		t.Fatalf("queue len is %d, expected %d", l, 0)
	}

	for i := 20; i > 10; i-- {
		q.Push(i)
	}
	for i := 10; i > 0; i-- {
		q.Push(i)
	}
	if l := q.Len(); l != 20 {
		t.Fatalf("queue len is %d, expected %d", l, 20)
	}

	for i := 1; q.Len() > 0; i++ {
		x := q.Peek()
		y := q.Pop()
		if x != y {
			t.Fatalf("q.Peek() and q.Pop() returned different values %d %d", x, y)
		}
		if i < 20 {
			q.Push(20 + i)
		}
		if x != i {
			t.Errorf("%d.th pop got %d; want %d", i, x, i)
		}
	}
}

type head struct {
	value  int
	source []int
}

// TestFixMerge drives the queue the way the k-way merge does: the head's
// key is advanced in place and the queue is fixed.
func TestFixMerge(t *testing.T) {
	var all []int
	q := queue.NewPriorityQueue(func(a, b *head) bool { return a.value < b.value }, 5)
	for i := 0; i < 5; i++ {
		run := make([]int, 50)
		for j := range run {
			run[j] = rand.Intn(100)
		}
		sort.Ints(run)
		all = append(all, run...)
		q.Push(&head{value: run[0], source: run[1:]})
	}
	sort.Ints(all)

	var merged []int
	for q.Len() > 0 {
		h := q.Peek()
		merged = append(merged, h.value)
		if len(h.source) == 0 {
			q.Pop()
			continue
		}
		h.value, h.source = h.source[0], h.source[1:]
		q.Fix()
	}

	if len(merged) != len(all) {
		t.Fatalf("merged %d values, expected %d", len(merged), len(all))
	}
	for i := range all {
		if merged[i] != all[i] {
			t.Fatalf("merged[%d] = %d, expected %d", i, merged[i], all[i])
		}
	}
}

func TestDrain(t *testing.T) {
	q := queue.NewPriorityQueue(intLess, 0)
	for i := 0; i < 5; i++ {
		q.Push(i)
	}
	if d := q.Drain(); len(d) != 5 {
		t.Fatalf("Drain returned %d values, expected 5", len(d))
	}
	if q.Len() != 0 {
		t.Fatalf("queue len is %d after Drain", q.Len())
	}
	q.Push(1)
	if q.Pop() != 1 {
		t.Fatal("queue unusable after Drain")
	}
}
