// Package mem implements the physical memory allocator and the
// memory-object kernel type that wraps a range of physical memory for
// mapping into address spaces.
package mem

import (
	"sort"
	"sync"

	"defs"
	"object"
	"oommsg"
	"util"
)

/// PageSize is the allocation granularity of the physical allocator.
const PageSize = uintptr(4096)

/// PhysRange describes a contiguous range of physical memory.
type PhysRange struct {
	Addr uintptr
	Size uintptr
}

/// Pmm is the kernel's physical memory allocator: a first-fit free
/// list of physical ranges. It is an external collaborator named by
/// the object/handle subsystem only through its Alloc/Free interface;
/// it does not model page coloring, per-CPU caches or NUMA, which a
/// production allocator would add without changing this interface.
type Pmm struct {
	mu   sync.Mutex
	free []PhysRange
}

/// NewPmm creates an allocator managing [base, base+size).
func NewPmm(base, size uintptr) *Pmm {
	return &Pmm{free: []PhysRange{{Addr: base, Size: size}}}
}

/// Alloc reserves a page-rounded range of at least size bytes using a
/// first-fit search of the free list. On exhaustion it makes a
/// non-blocking announcement on oommsg.OomCh before returning
/// StatusNoMemory; nothing in this package waits on a reclaim
/// response, that is a scheduler concern.
func (p *Pmm) Alloc(size uintptr) (PhysRange, defs.Status) {
	size = util.Roundup(size, PageSize)

	p.mu.Lock()
	for i, r := range p.free {
		if r.Size < size {
			continue
		}
		alloc := PhysRange{Addr: r.Addr, Size: size}
		if r.Size == size {
			p.free = append(p.free[:i], p.free[i+1:]...)
		} else {
			p.free[i] = PhysRange{Addr: r.Addr + size, Size: r.Size - size}
		}
		p.mu.Unlock()
		return alloc, defs.StatusSuccess
	}
	p.mu.Unlock()

	select {
	case oommsg.OomCh <- oommsg.Oommsg_t{Need: int(size), Resume: make(chan bool)}:
	default:
	}
	return PhysRange{}, defs.StatusNoMemory
}

/// Free returns r to the free list, coalescing with adjacent ranges.
func (p *Pmm) Free(r PhysRange) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.free = append(p.free, r)
	sort.Slice(p.free, func(i, j int) bool { return p.free[i].Addr < p.free[j].Addr })

	merged := p.free[:1]
	for _, cur := range p.free[1:] {
		last := &merged[len(merged)-1]
		if last.Addr+last.Size == cur.Addr {
			last.Size += cur.Size
		} else {
			merged = append(merged, cur)
		}
	}
	p.free = merged
}

/// Mode controls whether a MemObj's backing pages are returned to the
/// allocator when the object is destroyed.
type Mode int

const (
	/// ModeNone describes a memory object backed by a caller-supplied
	/// range it does not own; Destroy leaves the pages alone.
	ModeNone Mode = iota
	/// ModeOwning describes a memory object whose range came from
	/// Pmm.Alloc; Destroy frees it back to the allocator.
	ModeOwning
)

/// MemObj is a refcounted descriptor for a physical range, mappable
/// into any number of address spaces simultaneously.
type MemObj struct {
	object.Object

	pmm  *Pmm
	rng  PhysRange
	mode Mode
}

/// NewPMM wraps an existing physical range (e.g. device memory handed
/// to the kernel at boot) without taking ownership of it.
func NewPMM(handle defs.Handle, rng PhysRange) *MemObj {
	return newMemObj(handle, nil, rng, ModeNone)
}

/// NewOwning allocates size bytes from pmm and wraps the result,
/// returning StatusNoMemory if the allocator is exhausted.
func NewOwning(handle defs.Handle, pmm *Pmm, size uintptr) (*MemObj, defs.Status) {
	rng, status := pmm.Alloc(size)
	if !status.Ok() {
		return nil, status
	}
	return newMemObj(handle, pmm, rng, ModeOwning), defs.StatusSuccess
}

func newMemObj(handle defs.Handle, pmm *Pmm, rng PhysRange, mode Mode) *MemObj {
	m := &MemObj{pmm: pmm, rng: rng, mode: mode}
	m.Object.Init(m, handle, object.KindMemory)
	return m
}

/// Base implements object.Holder.
func (m *MemObj) Base() *object.Object {
	return &m.Object
}

/// Range returns the physical range backing the object.
func (m *MemObj) Range() PhysRange {
	return m.rng
}

/// Destroy returns the backing range to the allocator if this object
/// owns it.
func (m *MemObj) Destroy() {
	if m.mode == ModeOwning {
		m.pmm.Free(m.rng)
	}
}
