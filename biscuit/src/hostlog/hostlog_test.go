package hostlog_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"hostlog"
)

func TestWriteTeesToUnderlyingWriter(t *testing.T) {
	var buf bytes.Buffer
	d := hostlog.NewDefault(&buf, 64)

	d.Lock()
	n, err := d.Write([]byte("hello"))
	d.Unlock()

	assert.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", buf.String())
}

func TestRecentReflectsRingRetention(t *testing.T) {
	var buf bytes.Buffer
	d := hostlog.NewDefault(&buf, 4)

	d.Lock()
	d.Write([]byte("abcdef"))
	d.Unlock()

	assert.Equal(t, "cdef", string(d.Recent()))
}
