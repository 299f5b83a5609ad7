// Package hostlog provides the kernel's host logging sink: sys_log
// writes through a Writer, and the dispatcher logs every non-success
// syscall result through the same Writer.
package hostlog

import (
	"io"
	"sync"

	"circbuf"

	"github.com/sirupsen/logrus"
)

/// Writer is the narrow interface the kernel depends on for host
/// logging. The host log implementation itself (where bytes ultimately
/// land: a serial console, a file, a test harness buffer) is an
/// external collaborator named only by this interface.
type Writer interface {
	sync.Locker
	io.Writer
}

/// Default is a Writer that tees every write to an underlying
/// io.Writer (stdout in production, a bytes.Buffer in tests) while
/// retaining the most recent bytes in a ring buffer for post-mortem
/// dumps, and emits a structured entry for every write so host-side
/// log aggregation sees the same stream a production deployment would.
type Default struct {
	mu   sync.Mutex
	out  io.Writer
	ring circbuf.Circbuf_t
	log  *logrus.Logger
}

/// NewDefault wraps out, retaining the last ringSize bytes written.
func NewDefault(out io.Writer, ringSize int) *Default {
	d := &Default{out: out, log: logrus.New()}
	d.ring.Cb_init(ringSize)
	return d
}

func (d *Default) Lock()   { d.mu.Lock() }
func (d *Default) Unlock() { d.mu.Unlock() }

/// Write implements io.Writer. Callers that need atomicity across
/// several writes (e.g. sys_log's "prefix then payload" pair) take the
/// Writer's own Lock around both.
func (d *Default) Write(p []byte) (int, error) {
	d.ring.Write(p)
	d.log.WithField("bytes", len(p)).Debug("host log write")
	return d.out.Write(p)
}

/// Recent returns a copy of the bytes currently retained in the ring
/// buffer, oldest first.
func (d *Default) Recent() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ring.Snapshot()
}
