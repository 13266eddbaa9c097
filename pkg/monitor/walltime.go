package monitor

import (
	"context"
	"time"

	"github.com/nullsector/judged/pkg/types"
)

// WalltimeMonitor trips ReasonWalltime once dur has elapsed since it
// was armed.
type WalltimeMonitor struct {
	dur   time.Duration
	start time.Time
}

// NewWalltime builds a walltime monitor for the given budget. The
// clock starts on the first call to WaitExhaust.
func NewWalltime(dur time.Duration) *WalltimeMonitor {
	return &WalltimeMonitor{dur: dur}
}

// WaitExhaust blocks until dur elapses or ctx is done.
func (m *WalltimeMonitor) WaitExhaust(ctx context.Context) (types.ExhaustReason, error) {
	m.start = time.Now()
	timer := time.NewTimer(m.dur)
	defer timer.Stop()
	select {
	case <-timer.C:
		return types.ReasonWalltime, nil
	case <-ctx.Done():
		return types.ReasonNone, ctx.Err()
	}
}

// Elapsed reports the wall time observed since arming, or zero if
// WaitExhaust was never called.
func (m *WalltimeMonitor) Elapsed() time.Duration {
	if m.start.IsZero() {
		return 0
	}
	return time.Since(m.start)
}
