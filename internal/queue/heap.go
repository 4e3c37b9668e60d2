// Package queue provides the array-backed binary min-heap that orders tasks
// by priority. The heap is not safe for concurrent use.
package queue

import "github.com/valter-silva-au/taskq/pkg/models"

// PriorityHeap keeps tasks so that the highest-priority task is always at
// index 0. For every non-root index i, heap[parent(i)] ranks no lower than
// heap[i]. Tasks of equal priority have no defined relative order.
type PriorityHeap struct {
	items []*models.Task
}

// NewPriorityHeap returns an empty heap.
func NewPriorityHeap() *PriorityHeap {
	return &PriorityHeap{}
}

func parent(i int) int { return (i - 1) / 2 }
func left(i int) int   { return 2*i + 1 }
func right(i int) int  { return 2*i + 2 }

// Push appends task and sifts it up past every parent it strictly outranks.
func (h *PriorityHeap) Push(task *models.Task) {
	h.items = append(h.items, task)
	h.siftUp(len(h.items) - 1)
}

// Pop removes and returns the highest-priority task. The boolean is false
// when the heap is empty, in which case the heap is left untouched.
func (h *PriorityHeap) Pop() (*models.Task, bool) {
	n := len(h.items)
	if n == 0 {
		return nil, false
	}
	if n == 1 {
		top := h.items[0]
		h.items[0] = nil
		h.items = h.items[:0]
		return top, true
	}

	top := h.items[0]
	h.items[0] = h.items[n-1]
	h.items[n-1] = nil
	h.items = h.items[:n-1]
	h.siftDown(0)
	return top, true
}

// Peek returns the task Pop would return without removing it.
func (h *PriorityHeap) Peek() (*models.Task, bool) {
	if len(h.items) == 0 {
		return nil, false
	}
	return h.items[0], true
}

// Len returns the number of queued tasks.
func (h *PriorityHeap) Len() int { return len(h.items) }

// IsEmpty reports whether the heap holds no tasks.
func (h *PriorityHeap) IsEmpty() bool { return len(h.items) == 0 }

// Snapshot returns copies of the queued tasks in current backing order.
// Positions in the result are only meaningful until the next Push or Pop.
func (h *PriorityHeap) Snapshot() []models.Task {
	out := make([]models.Task, len(h.items))
	for i, t := range h.items {
		out[i] = *t
	}
	return out
}

// Find returns the queued task with the given ID. The pointer may be used to
// mutate fields that do not take part in ordering, such as Completed.
func (h *PriorityHeap) Find(id string) (*models.Task, bool) {
	for _, t := range h.items {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

func (h *PriorityHeap) siftUp(i int) {
	for i > 0 {
		p := parent(i)
		if !h.items[i].Less(h.items[p]) {
			return
		}
		h.items[i], h.items[p] = h.items[p], h.items[i]
		i = p
	}
}

func (h *PriorityHeap) siftDown(i int) {
	n := len(h.items)
	for {
		smallest := i
		if l := left(i); l < n && h.items[l].Less(h.items[smallest]) {
			smallest = l
		}
		if r := right(i); r < n && h.items[r].Less(h.items[smallest]) {
			smallest = r
		}
		if smallest == i {
			return
		}
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
}
