package cgroup

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	cgroupsv1 "github.com/containerd/cgroups"
	specs "github.com/opencontainers/runtime-spec/specs-go"

	"github.com/nullsector/judged/pkg/types"
)

// v1Cgroup is the compatibility backend for hosts without a unified
// cgroup2 mount, or when accounting is forced to cpuacct.
type v1Cgroup struct {
	control cgroupsv1.Cgroup
	oomed   atomic.Bool
	pid     atomic.Int64
}

func newV1(root, name string, limits Limits) (Cgroup, error) {
	memLimit := int64(limits.MemoryMax)
	swap := int64(0)
	resources := &specs.LinuxResources{
		Memory: &specs.LinuxMemory{
			Limit: &memLimit,
			Swap:  &swap,
		},
		CPU: &specs.LinuxCPU{
			Period:          &limits.CPUPeriod,
			Quota:           &limits.CPUQuota,
			RealtimePeriod:  &limits.RTPeriod,
			RealtimeRuntime: &limits.RTRuntime,
		},
	}
	path := "/" + root + "/" + name
	control, err := cgroupsv1.New(cgroupsv1.V1, cgroupsv1.StaticPath(path), resources)
	if err != nil {
		return nil, fmt.Errorf("creating cgroup1 %s: %w", path, err)
	}
	cg := &v1Cgroup{control: control}
	cg.watchOOM()
	return cg, nil
}

// watchOOM registers an OOM eventfd and flips oomed when the kernel
// kills a task for exceeding memory.limit_in_bytes. v1 has no
// cgroup-wide "kill everything" primitive, so the monitor relies on
// this flag rather than a cgroup.events counter.
func (c *v1Cgroup) watchOOM() {
	fd, err := c.control.OOMEventFD()
	if err != nil {
		return
	}
	go func() {
		f := os.NewFile(fd, "oom-event")
		defer f.Close()
		buf := make([]byte, 8)
		if _, err := f.Read(buf); err == nil {
			c.oomed.Store(true)
		}
	}()
}

func (c *v1Cgroup) Attach(pid int) error {
	c.pid.Store(int64(pid))
	return c.control.Add(cgroupsv1.Process{Pid: pid})
}

// CPU reads cpuacct.stat through the cgroup controller. Some rootless
// or partially-mounted v1 hosts have no cpuacct controller attached at
// all, in which case it falls back to /proc/<pid>/stat accounting,
// which reports only a combined kernel+user total (no separate
// kernel/user split).
func (c *v1Cgroup) CPU() (types.Cpu, error) {
	stat, err := c.control.Stat()
	if err == nil && stat.CPU != nil && stat.CPU.Usage != nil {
		return types.Cpu{
			Kernel: time.Duration(stat.CPU.Usage.Kernel),
			User:   time.Duration(stat.CPU.Usage.User),
			Total:  time.Duration(stat.CPU.Usage.Total),
		}, nil
	}
	if pid := c.pid.Load(); pid != 0 {
		if cpu, fbErr := procfsCPU(int(pid)); fbErr == nil {
			return cpu, nil
		}
	}
	if err != nil {
		return types.Cpu{}, err
	}
	return types.Cpu{}, nil
}

func (c *v1Cgroup) Memory() (types.Memory, error) {
	stat, err := c.control.Stat()
	if err != nil {
		return types.Memory{}, err
	}
	if stat.Memory == nil {
		return types.Memory{}, nil
	}
	kernel := stat.Memory.Kernel.Usage
	total := stat.Memory.Usage.Usage
	user := uint64(0)
	if total > kernel {
		user = total - kernel
	}
	return types.Memory{Kernel: kernel, User: user, Total: total}, nil
}

func (c *v1Cgroup) OOMKilled() (bool, error) {
	return c.oomed.Load(), nil
}

func (c *v1Cgroup) KillAll() error {
	// v1 has no atomic cgroup.kill; the jailed process terminates its
	// own tree via SIGKILL-on-drop, so this is a best-effort sweep of
	// whatever tasks remain.
	procs, err := c.control.Processes(cgroupsv1.Devices, true)
	if err != nil {
		return err
	}
	var firstErr error
	for _, p := range procs {
		if err := killPid(p.Pid); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *v1Cgroup) Delete() error {
	return c.control.Delete()
}

func killPid(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Kill()
}
