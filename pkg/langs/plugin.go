package langs

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/nullsector/judged/pkg/cgroup"
	"github.com/nullsector/judged/pkg/metrics"
	"github.com/nullsector/judged/pkg/rootfs"
	"github.com/nullsector/judged/pkg/semaphore"
	"github.com/nullsector/judged/pkg/types"
)

// Jailer is the subset of pkg/jail.Run a Plugin needs; factored out so
// tests can stub it without spawning real processes.
type Jailer interface {
	Run(ctx context.Context, cfg JailConfig, stdin []byte) (types.Corpse, error)
}

// JailConfig mirrors jail.Config's fields a Plugin needs to populate;
// kept separate so this package does not import pkg/jail directly and
// force a real namespace spawn in unit tests.
type JailConfig struct {
	RootfsPath  string
	Argv        []string
	Cgroup      cgroup.Cgroup
	CPULimit    types.Cpu
	MemLimit    types.Memory
	OutputLimit uint64
	Walltime    time.Duration
	Accuracy    time.Duration
	Rootless    bool
}

// Plugin is one loaded language: its parsed spec and the shared,
// read-only rootfs template every sandbox of this language mounts
// from.
type Plugin struct {
	ID       string
	spec     Spec
	template *rootfs.Template
}

// Load parses dir/spec.toml and dir/rootfs.tar (or rootfs.tar.zst)
// into a Plugin.
func Load(dir string) (*Plugin, error) {
	spec, err := loadSpec(dir)
	if err != nil {
		return nil, err
	}
	archive := filepath.Join(dir, "rootfs.tar")
	if _, statErr := os.Stat(archive); os.IsNotExist(statErr) {
		archive += ".zst"
	}
	tmpl, err := rootfs.LoadTemplate(archive)
	if err != nil {
		return nil, err
	}
	return &Plugin{ID: spec.ID, spec: spec, template: tmpl}, nil
}

// Info is the language summary exposed by JudgerInfo.
type Info struct {
	ID        string
	Name      string
	Extension string
	Info      string
}

// Describe returns p's public Info.
func (p *Plugin) Describe() Info {
	return Info{ID: p.spec.ID, Name: p.spec.Name, Extension: p.spec.Extension, Info: p.spec.Info}
}

// Runner is a compiled program ready to be run against test cases. It
// owns the mounted rootfs for the lifetime of one request; Close
// unmounts it and releases its memory permit.
type Runner struct {
	plugin  *Plugin
	jailer  Jailer
	cgroups *cgroup.Controller
	mount   *rootfs.MountHandle
	fs      *rootfs.Filesystem
	permit  *semaphore.Permit
	tmpRoot string
	accuracy time.Duration
	rootless bool
}

// Compile builds a fresh Filesystem from the plugin's template,
// writes source at the plugin's source path, mounts it, and runs the
// compile command under compile_limits. A non-nil Runner is returned
// only when the compile process both ran to completion and exited
// zero; a nil Runner with a nil error is reported as a CompileError by
// the caller, and a non-nil error (setup or sandbox failure) as a
// SystemError.
func (p *Plugin) Compile(ctx context.Context, jailer Jailer, ctl *cgroup.Controller, tmpRoot string, permit *semaphore.Permit, source []byte, rootless bool, accuracy time.Duration) (*Runner, types.Corpse, error) {
	setupTimer := metrics.NewTimer()
	limit := p.spec.CompileLimit()

	fs := rootfs.NewFilesystem(p.template, permit.Bytes())
	if err := rootfs.InsertSource(fs, p.spec.File, source, permit); err != nil {
		return nil, types.Corpse{}, err
	}

	mount, err := rootfs.Mount(fs, tmpRoot)
	if err != nil {
		return nil, types.Corpse{}, err
	}

	cg, err := ctl.Create(cgroup.Limits{
		MemoryMax: limit.KernelMem + limit.UserMem,
		CPUPeriod: 100_000,
		CPUQuota:  quotaFor(limit.CPUTime, 100_000),
	})
	if err != nil {
		_ = mount.Unmount()
		return nil, types.Corpse{}, err
	}
	setupTimer.ObserveDuration(metrics.SandboxSetupDuration)

	corpse, err := jailer.Run(ctx, JailConfig{
		RootfsPath:  mount.Path(),
		Argv:        p.spec.Compile.Command,
		Cgroup:      cg,
		CPULimit:    types.Cpu{Total: limit.CPUTime},
		MemLimit:    types.Memory{Kernel: limit.KernelMem, User: limit.UserMem, Total: limit.KernelMem + limit.UserMem},
		OutputLimit: limit.OutputLimit,
		Walltime:    limit.Walltime,
		Accuracy:    accuracy,
		Rootless:    rootless,
	}, nil)
	_ = cg.Delete()
	if err != nil {
		_ = mount.Unmount()
		return nil, types.Corpse{}, err
	}
	splitCompilerLog(p.ID, corpse.Stdout)

	if !corpse.Succeeded() {
		_ = mount.Unmount()
		return nil, corpse, nil
	}

	return &Runner{
		plugin:   p,
		jailer:   jailer,
		cgroups:  ctl,
		mount:    mount,
		fs:       fs,
		permit:   permit,
		tmpRoot:  tmpRoot,
		accuracy: accuracy,
		rootless: rootless,
	}, corpse, nil
}

// Run executes the runner's program once against input under the
// per-request cpu/memory budget, folded with the plugin's base
// allowance and multipliers per §4.6.
func (r *Runner) Run(ctx context.Context, cpu time.Duration, memBytes uint64, input []byte) (types.Corpse, error) {
	base := r.plugin.spec.JudgeBase()
	cpuLimit, memLimit := base.JudgeLimit(cpu, memBytes)

	cg, err := r.cgroups.Create(cgroup.Limits{
		MemoryMax: memLimit.Total,
		CPUPeriod: 100_000,
		CPUQuota:  quotaFor(cpuLimit.Total, 100_000),
	})
	if err != nil {
		return types.Corpse{}, err
	}
	defer cg.Delete()

	return r.jailer.Run(ctx, JailConfig{
		RootfsPath:  r.mount.Path(),
		Argv:        r.plugin.spec.Judge.Command,
		Cgroup:      cg,
		CPULimit:    cpuLimit,
		MemLimit:    memLimit,
		OutputLimit: base.OutputLimit,
		Walltime:    base.Walltime,
		Accuracy:    r.accuracy,
		Rootless:    r.rootless,
	}, input)
}

// Assert classifies a corpse against an expected output under rule,
// per §4.6's mapping table.
func Assert(corpse types.Corpse, expected []byte, rule types.MatchRule) types.Verdict {
	v := types.Verdict{
		CPUTimeNs:   uint64(corpse.Stats.CPU.Total),
		MemoryBytes: corpse.Stats.Memory.Total,
	}
	switch corpse.Reason {
	case types.ReasonCPU:
		v.Code = types.TimeLimitExceeded
		return v
	case types.ReasonMemory:
		v.Code = types.MemoryLimitExceeded
		return v
	case types.ReasonOutput:
		v.Code = types.OutputLimitExceeded
		return v
	case types.ReasonWalltime:
		v.Code = types.RealTimeLimitExceeded
		return v
	}
	if corpse.ExitCode != 0 {
		v.Code = types.RuntimeError
		return v
	}
	if matches(corpse.Stdout, expected, rule) {
		v.Code = types.Accepted
	} else {
		v.Code = types.WrongAnswer
	}
	return v
}

// Close unmounts the runner's rootfs and releases its memory permit.
// Safe to call once; idempotent on the permit side via Permit.Release.
func (r *Runner) Close() error {
	r.permit.Release()
	return r.mount.Unmount()
}

// quotaFor converts a cpu-time budget into a cgroup cpu.max quota for
// the given period, both in microseconds terms understood by the v1
// and v2 backends. The quota never exceeds one full core per period
// (periodUs itself); a budget smaller than one period throttles the
// process to that fraction of a core from its very first tick, rather
// than leaving the total-time budget to the monitor alone.
func quotaFor(budget time.Duration, periodUs uint64) int64 {
	if budget <= 0 {
		return -1
	}
	budgetUs := budget.Microseconds()
	if budgetUs > int64(periodUs) {
		return int64(periodUs)
	}
	return budgetUs
}
