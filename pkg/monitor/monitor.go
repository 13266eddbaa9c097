package monitor

import (
	"context"
	"io"
	"time"

	"github.com/nullsector/judged/pkg/cgroup"
	"github.com/nullsector/judged/pkg/types"
)

// Monitor is the per-sandbox supervisor: it owns a cgroup handle, an
// output counter, and a wall-time deadline, and polls all three on a
// fixed accuracy interval until one trips or the context ends.
type Monitor struct {
	cg       cgroup.Cgroup
	cpuLimit types.Cpu
	memLimit types.Memory
	output   *OutputMonitor
	walltime *WalltimeMonitor
	accuracy time.Duration

	lastStat types.Stats
}

// New builds a monitor over cg, budgeted to cpuLimit/memLimit/walltime
// and counting stdout through output, polling every accuracy interval.
func New(cg cgroup.Cgroup, cpuLimit types.Cpu, memLimit types.Memory, walltime time.Duration, outputLimit uint64, stdout io.Reader, accuracy time.Duration) *Monitor {
	return &Monitor{
		cg:       cg,
		cpuLimit: cpuLimit,
		memLimit: memLimit,
		output:   NewOutput(outputLimit, stdout),
		walltime: NewWalltime(walltime),
		accuracy: accuracy,
	}
}

// WaitExhaust races the CPU/memory poll loop, the output monitor, and
// the wall-time deadline, returning the first to trip. A cancelled ctx
// is reported as ReasonNone, meaning "no exhaustion detected" — the
// caller treats that the same as the child having exited on its own.
func (m *Monitor) WaitExhaust(ctx context.Context) (types.ExhaustReason, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		reason types.ExhaustReason
		err    error
	}
	results := make(chan result, 3)

	go func() {
		reason, err := m.pollCPUAndMemory(ctx)
		results <- result{reason, err}
	}()
	go func() {
		reason, err := m.output.WaitExhaust(ctx)
		results <- result{reason, err}
	}()
	go func() {
		reason, err := m.walltime.WaitExhaust(ctx)
		results <- result{reason, err}
	}()

	for i := 0; i < 3; i++ {
		r := <-results
		if r.err != nil {
			continue
		}
		if r.reason != types.ReasonNone {
			return r.reason, nil
		}
	}
	return types.ReasonNone, ctx.Err()
}

// pollCPUAndMemory ticks every accuracy interval, checking the
// cgroup's OOM flag first (an OOM kill always wins over a mere
// over-budget reading, since the kernel has already acted) and then
// comparing observed CPU/memory totals against budget.
func (m *Monitor) pollCPUAndMemory(ctx context.Context) (types.ExhaustReason, error) {
	ticker := time.NewTicker(m.accuracy)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return types.ReasonNone, ctx.Err()
		case <-ticker.C:
			oom, err := m.cg.OOMKilled()
			if err == nil && oom {
				return types.ReasonMemory, nil
			}

			cpu, err := m.cg.CPU()
			if err == nil {
				m.lastStat.CPU = cpu
				if m.cpuLimit.OutOfBudget(cpu) {
					return types.ReasonCPU, nil
				}
			}

			mem, err := m.cg.Memory()
			if err == nil {
				if mem.Total > m.lastStat.Memory.Total {
					m.lastStat.Memory = mem
				}
				if mem.Total > m.memLimit.Total {
					return types.ReasonMemory, nil
				}
			}
		}
	}
}

// Stat returns the last observed CPU statistics and the peak observed
// memory reading; on exhaustion this reflects the observation at the
// moment the trigger fired.
func (m *Monitor) Stat() types.Stats {
	stat := m.lastStat
	stat.Output = uint64(m.output.Len())
	stat.Walltime = m.walltime.Elapsed()
	return stat
}

// TakeStdout returns and clears the buffered stdout bytes, for the
// jailed process to attach to the corpse it returns exactly once.
func (m *Monitor) TakeStdout() []byte {
	return m.output.TakeBuffer()
}
