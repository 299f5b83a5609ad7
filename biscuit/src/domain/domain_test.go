package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"defs"
	"domain"
	"object"
)

type fakeObj struct {
	object.Object
	destroyed bool
}

func (f *fakeObj) Base() *object.Object { return &f.Object }
func (f *fakeObj) Destroy()             { f.destroyed = true }

func newFakeObj(handle defs.Handle, kind object.Kind) *fakeObj {
	f := &fakeObj{}
	f.Object.Init(f, handle, kind)
	return f
}

func TestAddLookupRemove(t *testing.T) {
	d := domain.New(100)
	obj := newFakeObj(101, object.KindMemory)

	d.Add(obj)
	obj.Base().Deref() // constructing reference; domain.Add took its own
	assert.Equal(t, 1, d.Len())

	found := d.Lookup(101, object.KindMemory)
	require.NotNil(t, found)
	found.Base().Deref()

	d.Remove(101)
	assert.Equal(t, 0, d.Len())
	assert.True(t, obj.destroyed)
}

func TestLookupKindMismatch(t *testing.T) {
	d := domain.New(200)
	obj := newFakeObj(201, object.KindSpace)
	d.Add(obj)
	obj.Base().Deref()

	assert.Nil(t, d.Lookup(201, object.KindTask))
}

func TestLookupUnknownHandle(t *testing.T) {
	d := domain.New(300)
	assert.Nil(t, d.Lookup(999, object.KindNone))
}

func TestRemoveUnknownHandleIsNoop(t *testing.T) {
	d := domain.New(400)
	assert.NotPanics(t, func() { d.Remove(9999) })
}

func TestAddDuplicateHandleIsNoop(t *testing.T) {
	d := domain.New(500)
	first := newFakeObj(501, object.KindMemory)
	d.Add(first)
	first.Base().Deref()

	second := newFakeObj(501, object.KindMemory)
	d.Add(second)
	second.Base().Deref()

	assert.Equal(t, 1, d.Len())
	found := d.Lookup(501, object.KindNone)
	require.NotNil(t, found)
	assert.Same(t, first, found)
	found.Base().Deref()
}

func TestDestroyReleasesEveryEntry(t *testing.T) {
	d := domain.New(600)
	a := newFakeObj(601, object.KindMemory)
	b := newFakeObj(602, object.KindSpace)
	d.Add(a)
	d.Add(b)
	a.Base().Deref()
	b.Base().Deref()

	d.Base().Deref()
	assert.True(t, a.destroyed)
	assert.True(t, b.destroyed)
}
