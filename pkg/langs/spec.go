// Package langs loads per-language plugin specs from disk and drives
// the compile-then-run lifecycle of one submitted program against a
// plugin's rootfs template.
package langs

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/nullsector/judged/pkg/types"
)

// Defaults for any limit field a plugin author leaves unset.
const (
	defaultKernelMem    = 256 << 20
	defaultUserMem      = 256 << 20
	defaultRTTime       = 700 * time.Millisecond
	defaultCPUTime      = 10 * time.Second
	defaultWalltime     = 300 * time.Second
	defaultOutputLimit  = 32 << 20
	defaultMemMultiplier = 1.0
	defaultCPUMultiplier = 1.0
)

// CompileSpec is the [compile] table of a plugin's spec.toml.
type CompileSpec struct {
	Command      []string `toml:"command"`
	KernelMem    int64    `toml:"kernel_mem"`
	UserMem      int64    `toml:"user_mem"`
	Memory       int64    `toml:"memory"`
	RTTimeMs     int64    `toml:"rt_time"`
	CPUTimeMs    int64    `toml:"cpu_time"`
	TimeMs       int64    `toml:"time"`
	OutputLimit  int64    `toml:"output_limit"`
	WalltimeMs   int64    `toml:"walltime"`
}

// JudgeSpec is the [judge] table of a plugin's spec.toml.
type JudgeSpec struct {
	Command          []string `toml:"command"`
	KernelMem        int64    `toml:"kernel_mem"`
	RTTimeMs         int64    `toml:"rt_time"`
	MemoryMultiplier float64  `toml:"memory_multiplier"`
	CPUMultiplier    float64  `toml:"cpu_multiplier"`
	WalltimeMs       int64    `toml:"walltime"`
	OutputLimit      int64    `toml:"output"`
}

// Spec is one plugin's fully parsed spec.toml, before default-filling.
type Spec struct {
	ID        string    `toml:"id"`
	Name      string    `toml:"name"`
	Extension string    `toml:"extension"`
	Info      string    `toml:"info"`
	File      string    `toml:"file"`
	Compile   CompileSpec `toml:"compile"`
	Judge     JudgeSpec   `toml:"judge"`
}

// EffectiveCompileLimit is the fully defaulted compile-stage limit,
// ready to hand to C5.
type EffectiveCompileLimit struct {
	KernelMem   uint64
	UserMem     uint64
	CPUTime     time.Duration
	RTTime      time.Duration
	OutputLimit uint64
	Walltime    time.Duration
}

// EffectiveJudgeBase is the fully defaulted, per-request-independent
// portion of the run-stage limit.
type EffectiveJudgeBase struct {
	KernelMem        uint64
	RTTime           time.Duration
	MemoryMultiplier float64
	CPUMultiplier    float64
	OutputLimit      uint64
	Walltime         time.Duration
}

// loadSpec parses dir/spec.toml, rejecting unknown fields per §6.
func loadSpec(dir string) (Spec, error) {
	data, err := os.ReadFile(filepath.Join(dir, "spec.toml"))
	if err != nil {
		return Spec{}, fmt.Errorf("reading spec.toml: %w", err)
	}

	var spec Spec
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&spec); err != nil {
		return Spec{}, fmt.Errorf("parsing spec.toml: %w", err)
	}
	if err := spec.validate(); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

func (s Spec) validate() error {
	if s.ID == "" {
		return fmt.Errorf("langs: spec missing id")
	}
	if s.Name == "" {
		return fmt.Errorf("langs: spec %s missing name", s.ID)
	}
	if s.File == "" {
		return fmt.Errorf("langs: spec %s missing file", s.ID)
	}
	if len(s.Compile.Command) == 0 {
		return fmt.Errorf("langs: spec %s missing compile.command", s.ID)
	}
	if len(s.Judge.Command) == 0 {
		return fmt.Errorf("langs: spec %s missing judge.command", s.ID)
	}
	return nil
}

// CompileLimit returns the default-filled compile-stage limit.
func (s Spec) CompileLimit() EffectiveCompileLimit {
	c := s.Compile
	cpu := defaultCPUTime
	if c.CPUTimeMs > 0 {
		cpu = time.Duration(c.CPUTimeMs) * time.Millisecond
	}
	rt := defaultRTTime
	if c.RTTimeMs > 0 {
		rt = time.Duration(c.RTTimeMs) * time.Millisecond
	}
	wall := defaultWalltime
	switch {
	case c.WalltimeMs > 0:
		wall = time.Duration(c.WalltimeMs) * time.Millisecond
	case c.TimeMs > 0:
		wall = time.Duration(c.TimeMs) * time.Millisecond
	}
	kernel := uint64(defaultKernelMem)
	if c.KernelMem > 0 {
		kernel = uint64(c.KernelMem)
	}
	user := uint64(defaultUserMem)
	switch {
	case c.UserMem > 0:
		user = uint64(c.UserMem)
	case c.Memory > 0:
		user = uint64(c.Memory)
	}
	output := uint64(defaultOutputLimit)
	if c.OutputLimit > 0 {
		output = uint64(c.OutputLimit)
	}
	return EffectiveCompileLimit{
		KernelMem:   kernel,
		UserMem:     user,
		CPUTime:     cpu,
		RTTime:      rt,
		OutputLimit: output,
		Walltime:    wall,
	}
}

// JudgeBase returns the default-filled, per-request-independent
// portion of the run-stage limit.
func (s Spec) JudgeBase() EffectiveJudgeBase {
	j := s.Judge
	kernel := uint64(defaultKernelMem)
	if j.KernelMem > 0 {
		kernel = uint64(j.KernelMem)
	}
	rt := defaultRTTime
	if j.RTTimeMs > 0 {
		rt = time.Duration(j.RTTimeMs) * time.Millisecond
	}
	wall := defaultWalltime
	if j.WalltimeMs > 0 {
		wall = time.Duration(j.WalltimeMs) * time.Millisecond
	}
	output := uint64(defaultOutputLimit)
	if j.OutputLimit > 0 {
		output = uint64(j.OutputLimit)
	}
	memMult := defaultMemMultiplier
	if j.MemoryMultiplier > 0 {
		memMult = j.MemoryMultiplier
	}
	cpuMult := defaultCPUMultiplier
	if j.CPUMultiplier > 0 {
		cpuMult = j.CPUMultiplier
	}
	return EffectiveJudgeBase{
		KernelMem:        kernel,
		RTTime:           rt,
		MemoryMultiplier: memMult,
		CPUMultiplier:    cpuMult,
		OutputLimit:      output,
		Walltime:         wall,
	}
}

// JudgeLimit resolves the run-stage limit for one request's per-case
// cpu/memory budget. The multiplier applies only to the user portion
// of memory and to the cpu budget; kernel memory is a constant
// allowance independent of the request (Open Question (a)).
func (b EffectiveJudgeBase) JudgeLimit(cpu time.Duration, memBytes uint64) (types.Cpu, types.Memory) {
	scaledCPU := time.Duration(float64(cpu) * b.CPUMultiplier)
	scaledUser := uint64(float64(memBytes) * b.MemoryMultiplier)
	return types.Cpu{Total: scaledCPU},
		types.Memory{Kernel: b.KernelMem, User: scaledUser, Total: b.KernelMem + scaledUser}
}
