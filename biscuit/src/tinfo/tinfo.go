// Package tinfo tracks which Task is current on each hardware context
// (core), the Go-native replacement for the per-thread "current task"
// pointer a microkernel keeps in thread-local storage.
package tinfo

import (
	"sync"

	"proc"
)

/// ContextID identifies a hardware execution context (core). Syscalls
/// always arrive tagged with the ContextID they were issued from; the
/// dispatcher resolves it to a Task through Table rather than through
/// any implicit global.
type ContextID int

/// Table maps ContextID to the Task currently scheduled on it.
type Table struct {
	mu      sync.RWMutex
	current map[ContextID]*proc.Task
}

/// NewTable allocates an empty Table.
func NewTable() *Table {
	return &Table{current: make(map[ContextID]*proc.Task)}
}

/// Set installs task as current on ctx.
func (t *Table) Set(ctx ContextID, task *proc.Task) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current[ctx] = task
}

/// Clear removes whatever task is current on ctx.
func (t *Table) Clear(ctx ContextID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.current, ctx)
}

/// Current returns the task installed on ctx, or nil if none.
func (t *Table) Current(ctx ContextID) *proc.Task {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current[ctx]
}
