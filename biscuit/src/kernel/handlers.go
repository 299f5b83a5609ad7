package kernel

import (
	"fmt"

	"defs"
	"domain"
	"mem"
	"object"
	"proc"
	"ustr"
	"vm"
)

func sysLog(k *Kernel, current *proc.Task, a interface{}) defs.Status {
	args := a.(*LogArgs)

	k.Log.Lock()
	defer k.Log.Unlock()
	fmt.Fprintf(k.Log, "%s(%d) ", current.Name.String(), current.Base().Handle())
	k.Log.Write(args.Message)

	return defs.StatusSuccess
}

func sysDebug(k *Kernel, current *proc.Task, a interface{}) defs.Status {
	args := a.(*DebugArgs)
	k.Diag.WithField("task", current.Name.String()).Infof("debug: %d", args.Val)
	return defs.StatusSuccess
}

func sysMap(k *Kernel, current *proc.Task, a interface{}) defs.Status {
	args := a.(*MapArgs)

	space, status := k.resolveSpace(current, args.Space)
	if !status.Ok() {
		return status
	}
	defer space.Base().Deref()

	holder := current.Domain.Lookup(args.MemObj, object.KindMemory)
	if holder == nil {
		return defs.StatusBadHandle
	}
	memObj := holder.(*mem.MemObj)
	defer memObj.Base().Deref()

	vaddr, status := space.Map(memObj, args.Offset, args.Size, args.Vaddr)
	if !status.Ok() {
		return status
	}
	args.Vaddr = vaddr
	return defs.StatusSuccess
}

func sysUnmap(k *Kernel, current *proc.Task, a interface{}) defs.Status {
	args := a.(*UnmapArgs)

	space, status := k.resolveSpace(current, args.Space)
	if !status.Ok() {
		return status
	}
	defer space.Base().Deref()

	space.Unmap(args.Vaddr, args.Size)
	return defs.StatusSuccess
}

func sysCreateTask(k *Kernel, current *proc.Task, args *CreateTaskArgs) defs.Status {
	space, status := k.resolveSpace(current, args.Space)
	if !status.Ok() {
		return status
	}
	defer space.Base().Deref()

	if !k.Limits.Tasks.Take() {
		return defs.StatusLimitReached
	}

	childDomain := domain.New(k.allocHandle())
	caps := current.Caps() & args.Caps
	flags := proc.Flags(args.Flags) | proc.FlagUser
	task := proc.New(k.allocHandle(), ustr.MkUstrSlice([]byte(args.Name)), space, caps,
		flags, childDomain, k.Limits.Tasks.Give)

	current.Domain.Add(task)
	args.TaskHandle = task.Base().Handle()
	task.Base().Deref()

	return defs.StatusSuccess
}

func sysCreateMemObj(k *Kernel, current *proc.Task, args *CreateMemObjArgs) defs.Status {
	var memObj *mem.MemObj

	if args.Flags&defs.MemObjPMM != 0 {
		if !current.HasCap(defs.CapPMM) {
			return defs.StatusBadCapability
		}
		memObj = mem.NewPMM(k.allocHandle(), mem.PhysRange{Addr: args.Addr, Size: args.Size})
	} else {
		var status defs.Status
		memObj, status = mem.NewOwning(k.allocHandle(), k.Pmm, args.Size)
		if !status.Ok() {
			return status
		}
	}

	current.Domain.Add(memObj)
	args.MemObjHandle = memObj.Base().Handle()
	memObj.Base().Deref()

	return defs.StatusSuccess
}

func sysCreateSpace(k *Kernel, current *proc.Task, args *CreateSpaceArgs) defs.Status {
	space := vm.New(k.allocHandle(), args.Flags)

	current.Domain.Add(space)
	args.SpaceHandle = space.Base().Handle()
	space.Base().Deref()

	return defs.StatusSuccess
}

func sysCreate(k *Kernel, current *proc.Task, a interface{}) defs.Status {
	args := a.(*CreateArgs)

	if !current.HasCap(defs.CapTask) {
		return defs.StatusBadCapability
	}

	switch args.Type {
	case ObjectTask:
		return sysCreateTask(k, current, &args.Task)
	case ObjectSpace:
		return sysCreateSpace(k, current, &args.Space)
	case ObjectMemory:
		return sysCreateMemObj(k, current, &args.MemObj)
	default:
		return defs.StatusBadArguments
	}
}

func sysStart(k *Kernel, current *proc.Task, a interface{}) defs.Status {
	args := a.(*StartArgs)

	holder := current.Domain.Lookup(args.Task, object.KindTask)
	if holder == nil {
		return defs.StatusBadHandle
	}
	task := holder.(*proc.Task)
	defer task.Base().Deref()

	k.Sched.Start(task, args.IP, args.SP, args.Args)
	return defs.StatusSuccess
}

func sysExit(k *Kernel, current *proc.Task, a interface{}) defs.Status {
	args := a.(*ExitArgs)

	task, status := k.resolveTask(current, args.Task)
	if !status.Ok() {
		return status
	}
	defer task.Base().Deref()

	k.Sched.Stop(task, args.ExitValue)
	return defs.StatusSuccess
}

func sysIpc(k *Kernel, current *proc.Task, a interface{}) defs.Status {
	return defs.StatusNotImplemented
}

func sysIrq(k *Kernel, current *proc.Task, a interface{}) defs.Status {
	if !current.HasCap(defs.CapIRQ) {
		return defs.StatusBadCapability
	}
	return defs.StatusNotImplemented
}

func sysDrop(k *Kernel, current *proc.Task, a interface{}) defs.Status {
	args := a.(*DropArgs)

	task, status := k.resolveTask(current, args.Task)
	if !status.Ok() {
		return status
	}
	defer task.Base().Deref()

	if !task.HasCap(args.Cap) {
		return defs.StatusBadCapability
	}
	task.DropCap(args.Cap)

	return defs.StatusSuccess
}

func sysClose(k *Kernel, current *proc.Task, a interface{}) defs.Status {
	args := a.(*CloseArgs)
	current.Domain.Remove(args.Handle)
	return defs.StatusSuccess
}
