// Package defs holds the flat value types shared across the kernel's
// object/handle subsystem and syscall boundary: status codes, handles
// and capability bits.
package defs

/// Status is the uniform result code returned by every syscall
/// handler and by the dispatcher itself. There is no separate
/// exception/errno channel; every failure is representable as a
/// Status value.
type Status int

const (
	StatusSuccess Status = iota
	StatusBadSyscall
	StatusBadHandle
	StatusBadCapability
	StatusBadArguments
	StatusNotImplemented
	StatusNoMemory
	StatusRangeConflict
	StatusAlignmentFault
	StatusLimitReached
)

var statusNames = [...]string{
	StatusSuccess:        "SUCCESS",
	StatusBadSyscall:     "BAD_SYSCALL",
	StatusBadHandle:      "BAD_HANDLE",
	StatusBadCapability:  "BAD_CAPABILITY",
	StatusBadArguments:   "BAD_ARGUMENTS",
	StatusNotImplemented: "NOT_IMPLEMENTED",
	StatusNoMemory:       "NO_MEMORY",
	StatusRangeConflict:  "RANGE_CONFLICT",
	StatusAlignmentFault: "ALIGNMENT_FAULT",
	StatusLimitReached:   "LIMIT_REACHED",
}

/// String renders a Status the way it appears in host log lines.
func (s Status) String() string {
	if int(s) >= 0 && int(s) < len(statusNames) && statusNames[s] != "" {
		return statusNames[s]
	}
	return "UNKNOWN_STATUS"
}

/// Ok reports whether s represents success.
func (s Status) Ok() bool {
	return s == StatusSuccess
}
