// Package vm implements Space, the kernel's address-space object: the
// set of memory-object mappings a task's virtual address space
// consists of. It tracks mapping ranges and overlap, leaving the
// actual CPU page-table/TLB programming to a platform layer outside
// this subsystem's scope.
package vm

import (
	"sync"

	"defs"
	"mem"
	"object"
	"util"
)

/// PageSize mirrors mem.PageSize; mappings are page-aligned.
const PageSize = mem.PageSize

/// Mapping describes one memory object mapped into a Space.
type Mapping struct {
	Vaddr  uintptr
	Size   uintptr
	Offset uintptr
	Obj    *mem.MemObj
}

/// Space is a kernel object representing a virtual address space. A
/// single mutex serializes Map/Unmap; it is never held while a
/// MemObj reference is released.
type Space struct {
	object.Object

	mu       sync.Mutex
	mappings []Mapping
}

/// New allocates an empty Space known by handle. flags is reserved for
/// platform-specific address-space attributes (e.g. 32 vs 64-bit);
/// this subsystem does not interpret it.
func New(handle defs.Handle, flags uint32) *Space {
	s := &Space{}
	s.Object.Init(s, handle, object.KindSpace)
	return s
}

/// Base implements object.Holder.
func (s *Space) Base() *object.Object {
	return &s.Object
}

func overlaps(a, b Mapping) bool {
	return a.Vaddr < b.Vaddr+b.Size && b.Vaddr < a.Vaddr+a.Size
}

/// Map establishes a mapping of obj[offset:offset+size] at vaddr. If
/// vaddr is zero the Space picks the next address above its current
/// highest mapping, page-aligned; mismatches against page alignment
/// yield StatusAlignmentFault and overlap with an existing mapping
/// yields StatusRangeConflict. On success the Space takes its own
/// reference on obj, independent of the caller's resolved reference.
func (s *Space) Map(obj *mem.MemObj, offset, size, vaddr uintptr) (uintptr, defs.Status) {
	if size == 0 {
		return 0, defs.StatusBadArguments
	}
	if offset%PageSize != 0 || size%PageSize != 0 {
		return 0, defs.StatusAlignmentFault
	}
	rng := obj.Range()
	if offset+size > rng.Size {
		return 0, defs.StatusBadArguments
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if vaddr == 0 {
		vaddr = s.nextFreeLocked(size)
	} else if vaddr%PageSize != 0 {
		return 0, defs.StatusAlignmentFault
	}

	cand := Mapping{Vaddr: vaddr, Size: size, Offset: offset, Obj: obj}
	for _, m := range s.mappings {
		if overlaps(cand, m) {
			return 0, defs.StatusRangeConflict
		}
	}

	obj.Base().Ref()
	s.mappings = append(s.mappings, cand)
	return vaddr, defs.StatusSuccess
}

func (s *Space) nextFreeLocked(size uintptr) uintptr {
	var top uintptr
	for _, m := range s.mappings {
		if end := m.Vaddr + m.Size; end > top {
			top = end
		}
	}
	return util.Roundup(top+1, PageSize)
}

/// Unmap releases every mapping overlapping [vaddr, vaddr+size),
/// dereferencing the memory objects they held. Unmapping a region with
/// no mappings is a no-op, mirroring sys_unmap's unconditional
/// success.
func (s *Space) Unmap(vaddr, size uintptr) {
	target := Mapping{Vaddr: vaddr, Size: size}

	s.mu.Lock()
	kept := s.mappings[:0]
	var removed []Mapping
	for _, m := range s.mappings {
		if overlaps(target, m) {
			removed = append(removed, m)
		} else {
			kept = append(kept, m)
		}
	}
	s.mappings = kept
	s.mu.Unlock()

	for _, m := range removed {
		m.Obj.Base().Deref()
	}
}

/// Mappings returns a snapshot of the current mapping list, for tests
/// and diagnostics.
func (s *Space) Mappings() []Mapping {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Mapping, len(s.mappings))
	copy(out, s.mappings)
	return out
}

/// Destroy unmaps everything still resident, releasing every memory
/// object reference the Space held.
func (s *Space) Destroy() {
	s.mu.Lock()
	removed := s.mappings
	s.mappings = nil
	s.mu.Unlock()

	for _, m := range removed {
		m.Obj.Base().Deref()
	}
}
