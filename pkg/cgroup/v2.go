package cgroup

import (
	"fmt"
	"time"

	cgroupsv2 "github.com/containerd/cgroups/v2"
	"github.com/nullsector/judged/pkg/types"
)

func durationFromUsec(usec uint64) time.Duration {
	return time.Duration(usec) * time.Microsecond
}

// v2Cgroup is the unified-hierarchy backend, the primary, fully
// specified dialect per the platform's cgroup-v2 requirement.
type v2Cgroup struct {
	manager *cgroupsv2.Manager
}

func newV2(root, name string, limits Limits) (Cgroup, error) {
	swap := int64(0)
	res := &cgroupsv2.Resources{
		Memory: &cgroupsv2.Memory{
			Max:  ptrInt64(int64(limits.MemoryMax)),
			Swap: &swap,
		},
		CPU: &cgroupsv2.CPU{
			Max:    cgroupsv2.NewCPUMax(&limits.CPUQuota, &limits.CPUPeriod),
			Weight: nil,
		},
	}
	group := "/" + root + "/" + name
	manager, err := cgroupsv2.NewManager("/sys/fs/cgroup", group, res)
	if err != nil {
		return nil, fmt.Errorf("creating cgroup2 manager for %s: %w", group, err)
	}
	return &v2Cgroup{manager: manager}, nil
}

func ptrInt64(v int64) *int64 { return &v }

func (c *v2Cgroup) Attach(pid int) error {
	return c.manager.AddProc(uint64(pid))
}

func (c *v2Cgroup) CPU() (types.Cpu, error) {
	stat, err := c.manager.Stat()
	if err != nil {
		return types.Cpu{}, err
	}
	if stat.CPU == nil {
		return types.Cpu{}, nil
	}
	kernel := durationFromUsec(stat.CPU.SystemUsec)
	user := durationFromUsec(stat.CPU.UserUsec)
	total := durationFromUsec(stat.CPU.UsageUsec)
	return types.Cpu{Kernel: kernel, User: user, Total: total}, nil
}

func (c *v2Cgroup) Memory() (types.Memory, error) {
	stat, err := c.manager.Stat()
	if err != nil {
		return types.Memory{}, err
	}
	if stat.Memory == nil {
		return types.Memory{}, nil
	}
	kernel := stat.Memory.KernelStack + stat.Memory.Slab
	total := stat.Memory.Usage
	user := uint64(0)
	if total > kernel {
		user = total - kernel
	}
	return types.Memory{Kernel: kernel, User: user, Total: total}, nil
}

func (c *v2Cgroup) OOMKilled() (bool, error) {
	stat, err := c.manager.Stat()
	if err != nil {
		return false, err
	}
	if stat.MemoryEvents == nil {
		return false, nil
	}
	return stat.MemoryEvents.OomKill > 0, nil
}

func (c *v2Cgroup) KillAll() error {
	return c.manager.Kill()
}

func (c *v2Cgroup) Delete() error {
	return c.manager.Delete()
}
