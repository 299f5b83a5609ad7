package defs

/// Cap is a bitmask of capabilities held by a task. Capabilities are
/// only ever dropped, never added, after a task is created: there is
/// no syscall that grants new bits.
type Cap uint32

const (
	/// CapTask permits sys_create with an object type of Task, i.e.
	/// spawning further tasks.
	CapTask Cap = 1 << iota
	/// CapPMM permits sys_create with an object type of MemObj and the
	/// MemObjPMM flag, i.e. wrapping a physical range named by address.
	CapPMM
	/// CapIRQ permits sys_irq.
	CapIRQ
)

/// Has reports whether c holds every bit set in want.
func (c Cap) Has(want Cap) bool {
	return c&want == want
}

/// Drop clears the given bits and returns the narrowed mask. Capability
/// masks are monotonically subtractive: Drop never sets a bit that
/// was not already present in c.
func (c Cap) Drop(bits Cap) Cap {
	return c &^ bits
}

/// MemObjFlag controls how a memory object created by sys_create is
/// backed.
type MemObjFlag uint32

const (
	/// MemObjPMM backs the memory object with the caller-named
	/// physical range, not owned by the object (non-owning mode).
	/// Without it, pages are freshly allocated and owned.
	MemObjPMM MemObjFlag = 1 << iota
)
