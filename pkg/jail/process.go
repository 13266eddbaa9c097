package jail

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/nullsector/judged/pkg/cgroup"
	"github.com/nullsector/judged/pkg/log"
	"github.com/nullsector/judged/pkg/monitor"
	"github.com/nullsector/judged/pkg/types"
)

// absoluteTimeout is the hard ceiling on one sandbox run regardless of
// the request's own walltime budget; reaching it is always SystemError.
const absoluteTimeout = time.Hour

// scrubbedPath is the only environment variable a jailed child
// inherits.
const scrubbedPath = "PATH=/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin"

// Config describes one jailed run.
type Config struct {
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

// Run spawns cfg.Argv[0] chrooted into cfg.RootfsPath under fresh
// namespaces and attached to cfg.Cgroup, writes stdin, captures stdout
// up to cfg.OutputLimit, and returns the corpse once the three-way
// race resolves: child exit vs monitor exhaustion vs a hard one-hour
// absolute timeout.
func Run(ctx context.Context, cfg Config, stdin []byte) (types.Corpse, error) {
	if len(cfg.Argv) == 0 {
		return types.Corpse{}, fmt.Errorf("jail: empty argv")
	}

	cmd := exec.Command(cfg.Argv[0], cfg.Argv[1:]...)
	cmd.Env = []string{scrubbedPath}
	cmd.SysProcAttr = sysProcAttr(cfg.RootfsPath, cfg.Rootless)

	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		return types.Corpse{}, fmt.Errorf("jail: stdin pipe: %w", err)
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return types.Corpse{}, fmt.Errorf("jail: stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return types.Corpse{}, fmt.Errorf("jail: spawn failed: %w", err)
	}

	if err := cfg.Cgroup.Attach(cmd.Process.Pid); err != nil {
		_ = cmd.Process.Kill()
		return types.Corpse{}, fmt.Errorf("jail: cgroup attach failed: %w", err)
	}

	// A program may legally ignore its stdin; write errors here are
	// not a run failure.
	go func() {
		defer stdinPipe.Close()
		_, _ = stdinPipe.Write(stdin)
	}()

	mon := monitor.New(cfg.Cgroup, cfg.CPULimit, cfg.MemLimit, effectiveWalltime(cfg.Walltime), cfg.OutputLimit, stdoutPipe, cfg.Accuracy)

	runCtx, cancel := context.WithTimeout(ctx, absoluteTimeout)
	defer cancel()

	exitCh := make(chan error, 1)
	go func() { exitCh <- cmd.Wait() }()

	monCh := make(chan types.ExhaustReason, 1)
	go func() {
		reason, err := mon.WaitExhaust(runCtx)
		if err != nil {
			reason = types.ReasonNone
		}
		monCh <- reason
	}()

	reason, hitAbsoluteTimeout := raceExitAndMonitor(runCtx, exitCh, monCh)

	_ = cfg.Cgroup.KillAll()

	if oom, err := cfg.Cgroup.OOMKilled(); err == nil && oom {
		reason = types.ReasonMemory
	}

	stat := mon.Stat()
	stdout := mon.TakeStdout()

	if hitAbsoluteTimeout {
		log.Error("jailed process hit the absolute 1-hour ceiling")
		return types.Corpse{Reason: types.ReasonNone, Stdout: stdout, Stats: stat}, fmt.Errorf("jail: absolute timeout exceeded")
	}

	if reason != types.ReasonNone {
		return types.Corpse{Reason: reason, Stdout: stdout, Stats: stat}, nil
	}

	code := -1
	if cmd.ProcessState != nil {
		code = cmd.ProcessState.ExitCode()
	}
	return types.Corpse{ExitCode: code, Reason: types.ReasonNone, Stdout: stdout, Stats: stat}, nil
}

// raceExitAndMonitor implements the three-way race between child
// exit, monitor exhaustion, and the context's own absolute deadline.
// After the race resolves it gives the process ~100ms to flush before
// the caller kills the cgroup.
func raceExitAndMonitor(ctx context.Context, exitCh <-chan error, monCh <-chan types.ExhaustReason) (reason types.ExhaustReason, hitAbsoluteTimeout bool) {
	select {
	case <-exitCh:
		time.Sleep(100 * time.Millisecond)
		select {
		case reason = <-monCh:
		default:
		}
		return reason, false
	case reason = <-monCh:
		time.Sleep(100 * time.Millisecond)
		if reason != types.ReasonNone {
			return reason, false
		}
		// Monitor returned with no trip, meaning ctx ended: either the
		// caller cancelled, or the absolute timeout fired.
		select {
		case <-exitCh:
			return types.ReasonNone, false
		default:
			return types.ReasonNone, ctx.Err() == context.DeadlineExceeded
		}
	}
}

func effectiveWalltime(requested time.Duration) time.Duration {
	if requested <= 0 || requested > absoluteTimeout {
		return absoluteTimeout
	}
	return requested
}
