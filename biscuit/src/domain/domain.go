// Package domain implements the per-task handle table: the Domain
// object that owns a strong reference to every object a task can name
// by handle, serialized behind a single mutex.
package domain

import (
	"sync"

	"defs"
	"hashtable"
	"object"
)

/// Domain is a kernel object in its own right (it embeds object.Object
/// and is itself reachable by handle, mirroring the C header union
/// trick) that also owns a handle table mapping every handle it has
/// published to the object behind it. A single mutex serializes
/// Add/Remove/Lookup; the lock is never held while calling into a
/// collaborator.
type Domain struct {
	object.Object

	mu      sync.Mutex
	entries *hashtable.Hashtable_t
}

const tableBuckets = 64

/// New allocates an empty Domain known by handle.
func New(handle defs.Handle) *Domain {
	d := &Domain{entries: hashtable.MkHash(tableBuckets)}
	d.Object.Init(d, handle, object.KindDomain)
	return d
}

/// Base implements object.Holder.
func (d *Domain) Base() *object.Object {
	return &d.Object
}

/// Add publishes obj under its own handle, taking a strong reference
/// on it. Adding an object whose handle already has an entry is a
/// no-op: the handle table never shadows one entry with another.
func (d *Domain) Add(obj object.Holder) {
	d.mu.Lock()
	defer d.mu.Unlock()

	h := int32(obj.Base().Handle())
	if _, existing := d.entries.Get(h); existing {
		return
	}
	obj.Base().Ref()
	d.entries.Set(h, obj)
}

/// Remove releases the strong reference held for handle and drops the
/// table entry. Removing an unknown handle is always a silent no-op,
/// matching sys_close's "always succeeds" contract.
func (d *Domain) Remove(handle defs.Handle) {
	d.mu.Lock()
	h := int32(handle)
	v, ok := d.entries.Get(h)
	if !ok {
		d.mu.Unlock()
		return
	}
	d.entries.Del(h)
	d.mu.Unlock()

	v.(object.Holder).Base().Deref()
}

/// Lookup resolves handle to the object behind it, requiring it match
/// kind, and returns a reference-incremented Holder so the caller can
/// release the domain's mutex before touching the object. Callers
/// must Deref exactly once on every exit path. A zero kind matches
/// any object.
func (d *Domain) Lookup(handle defs.Handle, kind object.Kind) object.Holder {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, ok := d.entries.Get(int32(handle))
	if !ok {
		return nil
	}
	holder := v.(object.Holder)
	if kind != object.KindNone && holder.Base().Kind() != kind {
		return nil
	}
	holder.Base().Ref()
	return holder
}

/// Len reports the number of live entries, for tests and diagnostics.
func (d *Domain) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.entries.Size()
}

/// Destroy releases every object the domain still holds a strong
/// reference to. It runs exactly once, driven by the embedded
/// Object's refcount reaching zero.
func (d *Domain) Destroy() {
	d.mu.Lock()
	pairs := d.entries.Elems()
	d.mu.Unlock()

	for _, p := range pairs {
		p.Value.(object.Holder).Base().Deref()
	}
}
