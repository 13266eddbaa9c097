package monitor

import (
	"bytes"
	"context"
	"io"
	"sync/atomic"

	"github.com/nullsector/judged/pkg/types"
)

// OutputMonitor wraps a sandbox's stdout pipe, buffering up to limit
// bytes and then attempting exactly one more read. A successful
// extra-byte read is the OLE trigger; the boundary is intentionally
// the (limit+1)-th byte, not the limit-th, so output of precisely
// limit bytes never trips it.
type OutputMonitor struct {
	limit    uint64
	src      io.Reader
	buf      bytes.Buffer
	exceeded atomic.Bool
}

// NewOutput wraps src, capping the buffered copy at limit bytes.
func NewOutput(limit uint64, src io.Reader) *OutputMonitor {
	return &OutputMonitor{
		limit: limit,
		src:   src,
	}
}

// WaitExhaust drains src up to limit bytes, then tries to read one
// more byte. If that succeeds it returns ReasonOutput immediately. If
// src is already at EOF within the limit, the call blocks until ctx is
// done and returns ctx.Err() — callers race this against the process
// exit and other monitors, so never tripping here just means another
// branch of the race wins. Must be called exactly once per sandbox
// run.
func (m *OutputMonitor) WaitExhaust(ctx context.Context) (types.ExhaustReason, error) {
	if _, err := io.CopyN(&m.buf, m.src, int64(m.limit)); err != nil && err != io.EOF {
		select {
		case <-ctx.Done():
			return types.ReasonNone, ctx.Err()
		default:
		}
	}

	one := make([]byte, 1)
	if n, err := m.src.Read(one); err == nil && n > 0 {
		m.exceeded.Store(true)
		return types.ReasonOutput, nil
	}

	<-ctx.Done()
	return types.ReasonNone, ctx.Err()
}

// TakeBuffer returns and clears the buffered stdout captured so far,
// truncated to at most limit bytes regardless of whether OLE tripped.
func (m *OutputMonitor) TakeBuffer() []byte {
	b := m.buf.Bytes()
	out := make([]byte, len(b))
	copy(out, b)
	m.buf.Reset()
	return out
}

// Exceeded reports whether the (limit+1)-th byte was ever observed.
func (m *OutputMonitor) Exceeded() bool {
	return m.exceeded.Load()
}

// Len reports the number of bytes currently buffered, without
// consuming them.
func (m *OutputMonitor) Len() int {
	return m.buf.Len()
}
