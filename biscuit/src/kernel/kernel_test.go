package kernel_test

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"defs"
	"hostlog"
	"kernel"
	"object"
	"proc"
	"sched"
	"tinfo"
)

const ctx tinfo.ContextID = 0

func newKernel() (*kernel.Kernel, *bytes.Buffer) {
	var buf bytes.Buffer
	log := hostlog.NewDefault(&buf, 4096)
	k := kernel.New(sched.Null{}, log, 0, 64*mib)
	k.Boot(ctx, "init")
	return k, &buf
}

const mib = 1024 * 1024

// scenario: create a memory object, map it into the caller's own space,
// unmap it, then close the memory object handle. The space retains no
// residual mapping and the handle no longer resolves.
func TestScenarioCreateMapUnmapClose(t *testing.T) {
	k, _ := newKernel()

	memArgs := &kernel.CreateArgs{Type: kernel.ObjectMemory, MemObj: kernel.CreateMemObjArgs{Size: 4096}}
	require.True(t, k.Dispatch(ctx, kernel.ScCreate, memArgs).Ok())

	mapArgs := &kernel.MapArgs{Space: defs.HandleSpaceSelf, MemObj: memArgs.MemObj.MemObjHandle, Size: 4096}
	require.True(t, k.Dispatch(ctx, kernel.ScMap, mapArgs).Ok())
	assert.NotZero(t, mapArgs.Vaddr)

	unmapArgs := &kernel.UnmapArgs{Space: defs.HandleSpaceSelf, Vaddr: mapArgs.Vaddr, Size: 4096}
	assert.True(t, k.Dispatch(ctx, kernel.ScUnmap, unmapArgs).Ok())

	closeArgs := &kernel.CloseArgs{Handle: memArgs.MemObj.MemObjHandle}
	assert.True(t, k.Dispatch(ctx, kernel.ScClose, closeArgs).Ok())

	// using the now-closed handle fails
	mapArgs2 := &kernel.MapArgs{Space: defs.HandleSpaceSelf, MemObj: memArgs.MemObj.MemObjHandle, Size: 4096}
	assert.Equal(t, defs.StatusBadHandle, k.Dispatch(ctx, kernel.ScMap, mapArgs2))
}

// scenario: a caller holding CapPMM can create a PMM-backed memory
// object; once it drops CapPMM the same request is rejected, and
// dropping a capability it no longer holds is rejected too.
func TestScenarioPMMCapabilityGating(t *testing.T) {
	k, _ := newKernel()

	pmmArgs := &kernel.CreateArgs{Type: kernel.ObjectMemory, MemObj: kernel.CreateMemObjArgs{Flags: defs.MemObjPMM, Addr: 0x1000, Size: 4096}}
	require.True(t, k.Dispatch(ctx, kernel.ScCreate, pmmArgs).Ok())

	dropArgs := &kernel.DropArgs{Task: defs.HandleTaskSelf, Cap: defs.CapPMM}
	require.True(t, k.Dispatch(ctx, kernel.ScDrop, dropArgs).Ok())

	pmmArgs2 := &kernel.CreateArgs{Type: kernel.ObjectMemory, MemObj: kernel.CreateMemObjArgs{Flags: defs.MemObjPMM, Addr: 0x2000, Size: 4096}}
	assert.Equal(t, defs.StatusBadCapability, k.Dispatch(ctx, kernel.ScCreate, pmmArgs2))

	// dropping a capability already absent is rejected, not silently accepted
	assert.Equal(t, defs.StatusBadCapability, k.Dispatch(ctx, kernel.ScDrop, dropArgs))
}

// scenario: a capability, once dropped, cannot be recovered by any syscall.
func TestScenarioCapabilityDropIsIrreversible(t *testing.T) {
	k, _ := newKernel()

	drop := &kernel.DropArgs{Task: defs.HandleTaskSelf, Cap: defs.CapTask}
	require.True(t, k.Dispatch(ctx, kernel.ScDrop, drop).Ok())

	create := &kernel.CreateArgs{Type: kernel.ObjectSpace}
	assert.Equal(t, defs.StatusBadCapability, k.Dispatch(ctx, kernel.ScCreate, create))
}

// scenario: an unresolvable handle yields BAD_HANDLE.
func TestScenarioBadHandle(t *testing.T) {
	k, _ := newKernel()

	mapArgs := &kernel.MapArgs{Space: defs.HandleSpaceSelf, MemObj: 999999, Size: 4096}
	assert.Equal(t, defs.StatusBadHandle, k.Dispatch(ctx, kernel.ScMap, mapArgs))
}

// scenario: a handle of the wrong kind is rejected just like an unknown one.
func TestScenarioKindMismatch(t *testing.T) {
	k, _ := newKernel()

	spaceArgs := &kernel.CreateArgs{Type: kernel.ObjectSpace}
	require.True(t, k.Dispatch(ctx, kernel.ScCreate, spaceArgs).Ok())

	// pass the space handle where a memory object is expected
	mapArgs := &kernel.MapArgs{Space: defs.HandleSpaceSelf, MemObj: spaceArgs.Space.SpaceHandle, Size: 4096}
	assert.Equal(t, defs.StatusBadHandle, k.Dispatch(ctx, kernel.ScMap, mapArgs))
}

// sys_create(Task) must OR the caller-supplied flags with FlagUser
// rather than discarding them.
func TestCreateTaskPreservesCallerFlags(t *testing.T) {
	k, _ := newKernel()

	const callerFlag uint32 = 0x4
	taskArgs := &kernel.CreateArgs{
		Type: kernel.ObjectTask,
		Task: kernel.CreateTaskArgs{Name: "child", Space: defs.HandleSpaceSelf, Caps: defs.CapTask, Flags: callerFlag},
	}
	require.True(t, k.Dispatch(ctx, kernel.ScCreate, taskArgs).Ok())

	holder := object.GlobalLookup(taskArgs.Task.TaskHandle, object.KindTask)
	require.NotNil(t, holder)
	defer holder.Base().Deref()

	child := holder.(*proc.Task)
	assert.Equal(t, proc.Flags(callerFlag)|proc.FlagUser, child.Flags())
}

// scenario: dispatching an out-of-range syscall number is rejected before
// any per-task state is touched.
func TestScenarioUnknownSyscall(t *testing.T) {
	k, _ := newKernel()
	status := k.Dispatch(ctx, kernel.Syscall(1000), nil)
	assert.Equal(t, defs.StatusBadSyscall, status)
}

func TestSysCloseOnUnknownHandleAlwaysSucceeds(t *testing.T) {
	k, _ := newKernel()
	assert.True(t, k.Dispatch(ctx, kernel.ScClose, &kernel.CloseArgs{Handle: 123456}).Ok())
}

func TestSysIpcAndIrqAreStubs(t *testing.T) {
	k, _ := newKernel()
	assert.Equal(t, defs.StatusNotImplemented, k.Dispatch(ctx, kernel.ScIpc, &kernel.IpcArgs{}))

	drop := &kernel.DropArgs{Task: defs.HandleTaskSelf, Cap: defs.CapIRQ}
	require.True(t, k.Dispatch(ctx, kernel.ScDrop, drop).Ok())
	assert.Equal(t, defs.StatusBadCapability, k.Dispatch(ctx, kernel.ScIrq, &kernel.IrqArgs{}))
}

func TestFailedSyscallsAreLogged(t *testing.T) {
	k, buf := newKernel()
	k.Dispatch(ctx, kernel.ScMap, &kernel.MapArgs{Space: defs.HandleSpaceSelf, MemObj: 42, Size: 4096})
	assert.Contains(t, buf.String(), "BAD_HANDLE")
}

// concurrent dispatch from independent contexts must not race or
// corrupt shared statistics.
func TestConcurrentDispatchAcrossContexts(t *testing.T) {
	var buf bytes.Buffer
	var mu sync.Mutex
	log := hostlog.NewDefault(&syncBuf{buf: &buf, mu: &mu}, 4096)
	k := kernel.New(sched.Null{}, log, 0, 64*mib)

	const n = 16
	for i := 0; i < n; i++ {
		k.Boot(tinfo.ContextID(i), "worker")
	}

	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			c := tinfo.ContextID(i)
			args := &kernel.CreateArgs{Type: kernel.ObjectSpace}
			if status := k.Dispatch(c, kernel.ScCreate, args); !status.Ok() {
				t.Errorf("unexpected status %s", status)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(n), k.Stats.Calls[kernel.ScCreate].Load())
}

type syncBuf struct {
	buf *bytes.Buffer
	mu  *sync.Mutex
}

func (s *syncBuf) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}
