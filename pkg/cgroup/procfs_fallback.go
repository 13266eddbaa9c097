package cgroup

import (
	"fmt"
	"time"

	"github.com/nullsector/judged/pkg/types"
	"github.com/prometheus/procfs"
)

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// procfsCPU reads /proc/<pid>/stat as a last-resort cpu accounting
// source when a v1 host has no cpuacct controller mounted. It cannot
// distinguish kernel from user time the way cpuacct.stat can, so
// Kernel is left zero and Total carries the combined utime+stime.
func procfsCPU(pid int) (types.Cpu, error) {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return types.Cpu{}, fmt.Errorf("opening procfs: %w", err)
	}
	proc, err := fs.Proc(pid)
	if err != nil {
		return types.Cpu{}, fmt.Errorf("reading /proc/%d: %w", pid, err)
	}
	stat, err := proc.Stat()
	if err != nil {
		return types.Cpu{}, fmt.Errorf("reading /proc/%d/stat: %w", pid, err)
	}
	total := stat.CPUTime()
	return types.Cpu{Total: secondsToDuration(total)}, nil
}
