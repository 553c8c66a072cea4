package step

import (
	"sync"

	"github.com/google/uuid"
)

// List is an ordered, mutable collection of steps. Insertion order is the
// execution order unless reordered. IDs are unique and stable: removing or
// reordering other steps never changes an existing step's id.
type List struct {
	mu    sync.RWMutex
	steps []Step
}

// NewList creates an empty step list.
func NewList() *List {
	return &List{}
}

// Add assigns a fresh id, appends the step, and returns the stored copy.
func (l *List) Add(s Step) Step {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.ID = uuid.NewString()
	l.steps = append(l.steps, s)
	return s
}

// RemoveAt removes and returns the step at index; false if out of bounds.
func (l *List) RemoveAt(index int) (Step, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if index < 0 || index >= len(l.steps) {
		return Step{}, false
	}
	s := l.steps[index]
	l.steps = append(l.steps[:index], l.steps[index+1:]...)
	return s, true
}

// Reorder moves the step at oldIndex to newIndex. Returns false without
// mutating anything if either index is out of bounds.
func (l *List) Reorder(oldIndex, newIndex int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.steps)
	if oldIndex < 0 || oldIndex >= n || newIndex < 0 || newIndex >= n {
		return false
	}
	s := l.steps[oldIndex]
	l.steps = append(l.steps[:oldIndex], l.steps[oldIndex+1:]...)
	l.steps = append(l.steps[:newIndex], append([]Step{s}, l.steps[newIndex:]...)...)
	return true
}

// Clear removes all steps.
func (l *List) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.steps = nil
}

// Get returns the step at index; false if out of bounds.
func (l *List) Get(index int) (Step, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if index < 0 || index >= len(l.steps) {
		return Step{}, false
	}
	return l.steps[index], true
}

// Len returns the number of steps.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.steps)
}

// Snapshot returns a copy of the current order for iteration during a run.
func (l *List) Snapshot() []Step {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Step, len(l.steps))
	copy(out, l.steps)
	return out
}

// Replace swaps the whole list content, assigning fresh ids to steps that
// lack one (scenario files may omit ids).
func (l *List) Replace(steps []Step) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.steps = make([]Step, len(steps))
	copy(l.steps, steps)
	for i := range l.steps {
		if l.steps[i].ID == "" {
			l.steps[i].ID = uuid.NewString()
		}
	}
}
