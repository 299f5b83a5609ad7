// Package object implements the kernel's capability-abstracted object
// header: a reference-counted, kind-tagged base embedded by every
// concrete kernel object (memory objects, domains, address spaces,
// tasks), plus the process-wide privileged lookup index.
package object

import (
	"encoding/binary"
	"sync/atomic"

	iradix "github.com/hashicorp/go-immutable-radix"

	"defs"
)

/// Kind tags the concrete type of an Object so that type-confused
/// handles (e.g. passing a memory object's handle where a task is
/// expected) are rejected before a caller's pointer is ever cast.
type Kind int

const (
	KindNone Kind = iota
	KindMemory
	KindDomain
	KindSpace
	KindTask
)

func (k Kind) String() string {
	switch k {
	case KindMemory:
		return "MEMORY"
	case KindDomain:
		return "DOMAIN"
	case KindSpace:
		return "SPACE"
	case KindTask:
		return "TASK"
	default:
		return "NONE"
	}
}

/// Holder is implemented by every concrete kernel object. It is Go's
/// stand-in for the union-of-header trick a C kernel uses to treat any
/// object as its common base: instead of reinterpreting a pointer, an
/// Object keeps a Holder back-reference and dispatches destruction
/// through it.
type Holder interface {
	/// Base returns the embedded Object header.
	Base() *Object
	/// Destroy releases whatever the concrete type owns. It runs
	/// exactly once, when the Object's reference count reaches zero.
	Destroy()
}

/// Object is the common header embedded by every kernel object. It
/// carries the handle the object is known by, an atomic reference
/// count, its Kind, and the Holder that implements its destructor.
type Object struct {
	handle   defs.Handle
	refcount int32
	kind     Kind
	owner    Holder
}

/// Init installs the Object header on behalf of owner. Callers embed
/// Object by value and call Init from their constructor before the
/// object escapes. The initial reference count of 1 represents the
/// constructing reference; the constructor must Deref it once
/// ownership has been transferred (typically by publishing the object
/// into a Domain).
func (o *Object) Init(owner Holder, handle defs.Handle, kind Kind) {
	o.owner = owner
	o.handle = handle
	o.kind = kind
	o.refcount = 1
	globalIndex.insert(handle, owner)
}

/// Handle returns the object's handle.
func (o *Object) Handle() defs.Handle {
	return o.handle
}

/// Kind returns the object's kind tag.
func (o *Object) Kind() Kind {
	return o.kind
}

/// Ref increments the reference count. Every Ref must be balanced by
/// exactly one Deref.
func (o *Object) Ref() {
	atomic.AddInt32(&o.refcount, 1)
}

/// Deref decrements the reference count and, if it reaches zero,
/// removes the object from the global index and dispatches to the
/// owner's Destroy.
func (o *Object) Deref() {
	if atomic.AddInt32(&o.refcount, -1) == 0 {
		globalIndex.remove(o.handle)
		o.owner.Destroy()
	}
}

/// RefCount returns the current reference count. It exists for tests
/// and debug dumps; production code has no business branching on it.
func (o *Object) RefCount() int32 {
	return atomic.LoadInt32(&o.refcount)
}

/// handleKey encodes a handle as big-endian bytes for use as a radix
/// tree key, so lexicographic key order matches numeric handle order.
func handleKey(h defs.Handle) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(h))
	return b[:]
}

/// index is a snapshot-consistent, lock-free-on-read process-wide
/// table of every live object, used by privileged paths (debug dumps,
/// cross-domain diagnostics) that must not contend with a per-domain
/// mutex. Per-domain lookups never go through this; they use the
/// domain's own handle table.
type index struct {
	tree atomic.Pointer[iradix.Tree]
}

var globalIndex = newIndex()

func newIndex() *index {
	idx := &index{}
	idx.tree.Store(iradix.New())
	return idx
}

func (idx *index) insert(h defs.Handle, owner Holder) {
	for {
		old := idx.tree.Load()
		updated, _, _ := old.Insert(handleKey(h), owner)
		if idx.tree.CompareAndSwap(old, updated) {
			return
		}
	}
}

func (idx *index) remove(h defs.Handle) {
	for {
		old := idx.tree.Load()
		updated, _, ok := old.Delete(handleKey(h))
		if !ok {
			return
		}
		if idx.tree.CompareAndSwap(old, updated) {
			return
		}
	}
}

func (idx *index) lookup(h defs.Handle, kind Kind) Holder {
	tree := idx.tree.Load()
	v, ok := tree.Get(handleKey(h))
	if !ok {
		return nil
	}
	holder := v.(Holder)
	if kind != KindNone && holder.Base().Kind() != kind {
		return nil
	}
	holder.Base().Ref()
	return holder
}

/// GlobalLookup resolves a handle through the process-wide index
/// regardless of which domain published it, for privileged callers
/// only (the dispatcher itself never uses this for ordinary syscall
/// arguments; see domain.Domain.Lookup for the per-domain path).
/// Returns an already-ref-incremented Holder; the caller must Deref it
/// exactly once on every exit path.
func GlobalLookup(h defs.Handle, kind Kind) Holder {
	return globalIndex.lookup(h, kind)
}
