package queue

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valter-silva-au/taskq/pkg/models"
)

func newTask(id string, p models.Priority) *models.Task {
	return &models.Task{ID: id, Name: "task " + id, Priority: p}
}

// assertHeapProperty fails the test if any parent ranks after one of its children.
func assertHeapProperty(t *testing.T, h *PriorityHeap) {
	t.Helper()
	for i := 1; i < len(h.items); i++ {
		p := parent(i)
		assert.LessOrEqualf(t, h.items[p].Priority.Rank(), h.items[i].Priority.Rank(),
			"heap property violated between index %d (%s) and %d (%s)", p, h.items[p].Priority, i, h.items[i].Priority)
	}
}

func TestPriorityHeap_PopOrder(t *testing.T) {
	h := NewPriorityHeap()
	input := []models.Priority{
		models.PriorityLow, models.PriorityHigh, models.PriorityMedium,
		models.PriorityHigh, models.PriorityLow,
	}
	for i, p := range input {
		h.Push(newTask(fmt.Sprintf("T%d", i), p))
		assertHeapProperty(t, h)
	}

	var got []models.Priority
	ids := make(map[string]bool)
	for !h.IsEmpty() {
		task, ok := h.Pop()
		require.True(t, ok)
		got = append(got, task.Priority)
		ids[task.ID] = true
		assertHeapProperty(t, h)
	}

	assert.Equal(t, []models.Priority{
		models.PriorityHigh, models.PriorityHigh, models.PriorityMedium,
		models.PriorityLow, models.PriorityLow,
	}, got)
	assert.Len(t, ids, 5)
}

func TestPriorityHeap_PopEmpty(t *testing.T) {
	h := NewPriorityHeap()

	task, ok := h.Pop()
	assert.False(t, ok)
	assert.Nil(t, task)
	assert.True(t, h.IsEmpty())
	assert.Equal(t, 0, h.Len())

	// A second pop must behave the same way.
	_, ok = h.Pop()
	assert.False(t, ok)
}

func TestPriorityHeap_PushPopSingle(t *testing.T) {
	h := NewPriorityHeap()
	task := newTask("only", models.PriorityMedium)

	h.Push(task)
	require.False(t, h.IsEmpty())

	got, ok := h.Pop()
	require.True(t, ok)
	assert.Same(t, task, got)
	assert.True(t, h.IsEmpty())
}

func TestPriorityHeap_Peek(t *testing.T) {
	h := NewPriorityHeap()
	_, ok := h.Peek()
	assert.False(t, ok)

	h.Push(newTask("a", models.PriorityLow))
	h.Push(newTask("b", models.PriorityHigh))

	top, ok := h.Peek()
	require.True(t, ok)
	assert.Equal(t, "b", top.ID)
	assert.Equal(t, 2, h.Len(), "peek must not remove the task")
}

func TestPriorityHeap_SnapshotIsACopy(t *testing.T) {
	h := NewPriorityHeap()
	h.Push(newTask("a", models.PriorityMedium))
	h.Push(newTask("b", models.PriorityHigh))

	snap := h.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "b", snap[0].ID)

	snap[0].Completed = true
	snap[0].Priority = models.PriorityLow

	top, _ := h.Peek()
	assert.False(t, top.Completed)
	assert.Equal(t, models.PriorityHigh, top.Priority)
}

func TestPriorityHeap_FindAndComplete(t *testing.T) {
	h := NewPriorityHeap()
	for i, p := range []models.Priority{models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityLow} {
		h.Push(newTask(fmt.Sprintf("T%d", i), p))
	}
	before := h.Snapshot()

	task, ok := h.Find("T1")
	require.True(t, ok)
	task.Completed = true

	after := h.Snapshot()
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].ID, after[i].ID, "position %d moved", i)
	}
	assertHeapProperty(t, h)

	_, ok = h.Find("missing")
	assert.False(t, ok)
}

func TestPriorityHeap_EqualPriorities(t *testing.T) {
	h := NewPriorityHeap()
	for i := 0; i < 10; i++ {
		h.Push(newTask(fmt.Sprintf("T%d", i), models.PriorityMedium))
	}

	seen := make(map[string]bool)
	for !h.IsEmpty() {
		task, _ := h.Pop()
		assert.Equal(t, models.PriorityMedium, task.Priority)
		seen[task.ID] = true
	}
	assert.Len(t, seen, 10)
}
