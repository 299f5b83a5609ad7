package defs

/// Handle identifies an object within a domain's handle table. It is
/// a plain signed 32-bit value; negative values are reserved
/// sentinels resolved specially by the dispatcher rather than looked
/// up in any table.
type Handle int32

const (
	/// HandleNone is never a valid object handle; the kernel never
	/// allocates it.
	HandleNone Handle = 0

	/// HandleSpaceSelf asks the dispatcher to resolve to the calling
	/// task's own address space instead of looking a handle up.
	HandleSpaceSelf Handle = -1

	/// HandleTaskSelf asks the dispatcher to resolve to the calling
	/// task itself instead of looking a handle up.
	HandleTaskSelf Handle = -2
)
