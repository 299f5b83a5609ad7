// Package sched declares the Scheduler interface the dispatcher calls
// into for sys_start and sys_exit. Scheduling policy (run queues,
// priorities, preemption) is explicitly out of scope for the
// object/handle subsystem; this package only names the boundary.
package sched

import "proc"

/// Scheduler is the external collaborator that actually runs tasks. It
/// is named only by this interface: how a task gets CPU time is a
/// scheduling-policy decision this subsystem does not make.
type Scheduler interface {
	/// Start makes task runnable beginning at ip with stack pointer sp
	/// and argument words argv.
	Start(task *proc.Task, ip, sp uintptr, argv []uintptr)
	/// Stop tears task out of the run queue and records exitValue.
	Stop(task *proc.Task, exitValue int)
}

/// Null is a Scheduler that performs no scheduling of its own; it only
/// records exit state. It is useful for exercising the object/handle
/// subsystem and the syscall dispatcher in isolation, without a real
/// run queue.
type Null struct{}

func (Null) Start(task *proc.Task, ip, sp uintptr, argv []uintptr) {}

func (Null) Stop(task *proc.Task, exitValue int) {
	task.SetExit(exitValue)
}
