package stats

import (
	"strconv"
	"sync/atomic"
)

/// Counter_t is a concurrency-safe statistical counter.
type Counter_t int64

/// Inc increments the counter.
func (c *Counter_t) Inc() {
	atomic.AddInt64((*int64)(c), 1)
}

/// Load returns the current value.
func (c *Counter_t) Load() int64 {
	return atomic.LoadInt64((*int64)(c))
}

/// SyscallStats tracks per-syscall invocation and failure counts,
/// indexed by syscall number. Many tasks dispatch concurrently, so
/// every slot is updated with atomics.
type SyscallStats struct {
	Calls  []Counter_t
	Errors []Counter_t
}

/// NewSyscallStats allocates counters for n syscall numbers.
func NewSyscallStats(n int) *SyscallStats {
	return &SyscallStats{
		Calls:  make([]Counter_t, n),
		Errors: make([]Counter_t, n),
	}
}

/// Record charges one invocation of syscall sc, and a failure if ok is
/// false.
func (s *SyscallStats) Record(sc int, ok bool) {
	s.Calls[sc].Inc()
	if !ok {
		s.Errors[sc].Inc()
	}
}

/// String dumps per-syscall counters for debugging.
func (s *SyscallStats) String() string {
	out := ""
	for i := range s.Calls {
		c := s.Calls[i].Load()
		if c == 0 {
			continue
		}
		out += "\n\t#" + strconv.Itoa(i) + ": calls=" + strconv.FormatInt(c, 10) +
			" errors=" + strconv.FormatInt(s.Errors[i].Load(), 10)
	}
	return out + "\n"
}
