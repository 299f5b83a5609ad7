// Command brutal boots a single-context instance of the kernel's
// object/handle subsystem and runs a handful of syscalls against it,
// as a smoke test of the wiring end to end.
package main

import (
	"fmt"
	"os"

	"defs"
	"kernel"
	"sched"
	"tinfo"

	"hostlog"
)

const bootContext tinfo.ContextID = 0

func main() {
	log := hostlog.NewDefault(os.Stdout, 64*1024)
	k := kernel.New(sched.Null{}, log, 0, 256*1024*1024)

	k.Boot(bootContext, "init")

	memArgs := &kernel.CreateArgs{
		Type: kernel.ObjectMemory,
		MemObj: kernel.CreateMemObjArgs{
			Size: 4096,
		},
	}
	if status := k.Dispatch(bootContext, kernel.ScCreate, memArgs); !status.Ok() {
		fmt.Fprintf(os.Stderr, "create mem obj: %s\n", status)
		os.Exit(1)
	}

	mapArgs := &kernel.MapArgs{
		Space:  defs.HandleSpaceSelf,
		MemObj: memArgs.MemObj.MemObjHandle,
		Size:   4096,
	}
	if status := k.Dispatch(bootContext, kernel.ScMap, mapArgs); !status.Ok() {
		fmt.Fprintf(os.Stderr, "map: %s\n", status)
		os.Exit(1)
	}

	fmt.Printf("mapped at %#x\n", mapArgs.Vaddr)
	fmt.Print(k.Stats.String())
}
