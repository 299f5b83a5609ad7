package object_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"defs"
	"object"
)

type fakeHolder struct {
	object.Object
	destroyed bool
}

func (f *fakeHolder) Base() *object.Object { return &f.Object }
func (f *fakeHolder) Destroy()             { f.destroyed = true }

func newFake(handle defs.Handle, kind object.Kind) *fakeHolder {
	f := &fakeHolder{}
	f.Object.Init(f, handle, kind)
	return f
}

func TestRefDerefRunsDestroyOnce(t *testing.T) {
	f := newFake(1, object.KindTask)
	f.Base().Ref()

	f.Base().Deref()
	assert.False(t, f.destroyed, "must not destroy while a reference remains")

	f.Base().Deref()
	assert.True(t, f.destroyed, "must destroy once the last reference drops")
}

func TestGlobalLookupFindsLiveObject(t *testing.T) {
	f := newFake(42, object.KindSpace)
	defer f.Base().Deref()

	got := object.GlobalLookup(42, object.KindSpace)
	require.NotNil(t, got)
	assert.Equal(t, f, got)
	assert.Equal(t, int32(2), f.Base().RefCount())
	got.Base().Deref()
}

func TestGlobalLookupKindMismatch(t *testing.T) {
	f := newFake(43, object.KindSpace)
	defer f.Base().Deref()

	assert.Nil(t, object.GlobalLookup(43, object.KindTask))
}

func TestGlobalLookupGoneAfterDestroy(t *testing.T) {
	f := newFake(44, object.KindMemory)
	f.Base().Deref()

	assert.Nil(t, object.GlobalLookup(44, object.KindNone))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "TASK", object.KindTask.String())
	assert.Equal(t, "NONE", object.KindNone.String())
}
