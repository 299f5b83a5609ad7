package tinfo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"defs"
	"domain"
	"proc"
	"tinfo"
	"ustr"
	"vm"
)

func TestSetCurrentClear(t *testing.T) {
	table := tinfo.NewTable()
	assert.Nil(t, table.Current(0))

	space := vm.New(1, 0)
	dom := domain.New(2)
	task := proc.New(3, ustr.MkUstrSlice([]byte("t")), space, defs.CapTask, proc.FlagUser, dom, nil)
	space.Base().Deref()

	table.Set(0, task)
	assert.Same(t, task, table.Current(0))

	table.Clear(0)
	assert.Nil(t, table.Current(0))
}

func TestContextsAreIndependent(t *testing.T) {
	table := tinfo.NewTable()

	space := vm.New(10, 0)
	dom := domain.New(11)
	task := proc.New(12, ustr.MkUstrSlice([]byte("a")), space, defs.CapTask, proc.FlagUser, dom, nil)
	space.Base().Deref()

	table.Set(1, task)
	assert.Nil(t, table.Current(2))
	assert.Same(t, task, table.Current(1))
}
