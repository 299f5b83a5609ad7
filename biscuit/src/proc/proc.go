// Package proc implements Task, the kernel's execution-identity
// object: a name, an owning Domain, an address Space, a capability
// mask and exit state.
package proc

import (
	"sync"

	"accnt"
	"defs"
	"domain"
	"object"
	"ustr"
	"vm"
)

/// Flags records task-creation flags passed through sys_create and
/// attributed by the dispatcher.
type Flags uint32

const (
	/// FlagUser marks a task created by another task via sys_create,
	/// mirroring BR_TASK_USER.
	FlagUser Flags = 1 << iota
	/// FlagKernel marks a task bootstrapped directly by the kernel,
	/// with no creating parent.
	FlagKernel
)

/// Task is the kernel object representing an execution identity. A
/// Task owns a strong reference to its Space (shared: other tasks may
/// map the same Space) and exclusive ownership of its own Domain
/// (never published anywhere, so the single construction reference
/// transfers directly to the Task rather than being additionally
/// Ref'd).
type Task struct {
	object.Object

	Name   ustr.Ustr
	Domain *domain.Domain
	Space  *vm.Space
	Accnt  accnt.Accnt_t

	mu    sync.Mutex
	caps  defs.Cap
	flags Flags

	exited    bool
	exitValue int

	release func()
}

/// New constructs a Task known by handle, with its own freshly created
/// dom (ownership transferred in) mapped into space (a shared
/// reference is taken). release, if non-nil, is invoked once when the
/// Task is destroyed, so a caller enforcing a system-wide task count
/// limit can give its slot back.
func New(handle defs.Handle, name ustr.Ustr, space *vm.Space, caps defs.Cap, flags Flags, dom *domain.Domain, release func()) *Task {
	space.Base().Ref()
	t := &Task{
		Name:    name,
		Domain:  dom,
		Space:   space,
		caps:    caps,
		flags:   flags,
		release: release,
	}
	t.Object.Init(t, handle, object.KindTask)
	return t
}

/// Flags returns the task-creation flags it was constructed with.
func (t *Task) Flags() Flags {
	return t.flags
}

/// Base implements object.Holder.
func (t *Task) Base() *object.Object {
	return &t.Object
}

/// Caps returns the task's current capability mask.
func (t *Task) Caps() defs.Cap {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.caps
}

/// HasCap reports whether the task holds every bit in want.
func (t *Task) HasCap(want defs.Cap) bool {
	return t.Caps().Has(want)
}

/// DropCap clears bits from the task's capability mask. Capability
/// masks are monotonically subtractive: there is no corresponding
/// grant operation.
func (t *Task) DropCap(bits defs.Cap) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.caps = t.caps.Drop(bits)
}

/// SetExit records the task's exit value, idempotently; a task that
/// has already exited keeps its first recorded value.
func (t *Task) SetExit(value int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.exited {
		return
	}
	t.exited = true
	t.exitValue = value
}

/// Exited reports whether the task has exited, and its exit value.
func (t *Task) Exited() (bool, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.exited, t.exitValue
}

/// Destroy releases the Task's reference on its Space and its owning
/// Domain, and invokes the release callback supplied at construction.
func (t *Task) Destroy() {
	t.Space.Base().Deref()
	t.Domain.Base().Deref()
	if t.release != nil {
		t.release()
	}
}
