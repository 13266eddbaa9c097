package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/nullsector/judged/pkg/cgroup"
	"github.com/nullsector/judged/pkg/judgeerr"
	"github.com/nullsector/judged/pkg/langs"
	"github.com/nullsector/judged/pkg/log"
	"github.com/nullsector/judged/pkg/metrics"
	"github.com/nullsector/judged/pkg/semaphore"
	"github.com/nullsector/judged/pkg/types"
)

// outputLimitHeadroom is reserved alongside a request's declared
// memory limit because the plugin (and therefore its exact output
// budget) is not yet resolved at admission time; it is sized to the
// §4.6 default output limit so the common case never under-reserves.
const outputLimitHeadroom = 32 << 20

// Pipeline wires C1 (semaphore), C8 (registry) and C6 (plugin
// compile/run) into the per-request orchestration described in the
// judger pipeline contract.
type Pipeline struct {
	registry *langs.Registry
	sem      *semaphore.Semaphore
	cgroups  *cgroup.Controller
	jailer   langs.Jailer
	tmpRoot  string
	accuracy time.Duration
	rootless bool
}

// New builds a Pipeline. tmpRoot is the parent directory sandbox
// mounts are created under (runtime.temp); accuracy is the monitor's
// polling interval (runtime.accuracy).
func New(registry *langs.Registry, sem *semaphore.Semaphore, cgroups *cgroup.Controller, jailer langs.Jailer, tmpRoot string, accuracy time.Duration, rootless bool) *Pipeline {
	return &Pipeline{
		registry: registry,
		sem:      sem,
		cgroups:  cgroups,
		jailer:   jailer,
		tmpRoot:  tmpRoot,
		accuracy: accuracy,
		rootless: rootless,
	}
}

// Judge resolves req's language, compiles its source, and returns a
// channel that yields one case-started frame and one result frame per
// test case, in order, closing when the request completes or ctx is
// cancelled. An error returned directly (rather than as a frame) means
// no sandbox work was ever started: unknown language, impossible
// memory request, or an exhausted waiter queue.
func (p *Pipeline) Judge(ctx context.Context, req types.Request) (<-chan types.Frame, error) {
	plugin, err := p.registry.Lookup(req.LanguageID)
	if err != nil {
		return nil, err
	}

	reserve := req.MemoryLimit + outputLimitHeadroom
	permit, err := p.sem.Acquire(ctx, reserve)
	if err != nil {
		switch {
		case errors.Is(err, semaphore.ErrImpossible):
			metrics.SemaphoreRejectedTotal.WithLabelValues("impossible").Inc()
			return nil, judgeerr.ImpossibleMemory(reserve, p.sem.Capacity())
		case errors.Is(err, semaphore.ErrTooManyWaiters):
			metrics.SemaphoreRejectedTotal.WithLabelValues("too_many_waiters").Inc()
			return nil, judgeerr.Internal(judgeerr.ReasonNone, err)
		default:
			return nil, err
		}
	}

	frames := make(chan types.Frame)
	go p.run(ctx, plugin, req, permit, frames)
	return frames, nil
}

func (p *Pipeline) run(ctx context.Context, plugin *langs.Plugin, req types.Request, permit *semaphore.Permit, frames chan<- types.Frame) {
	defer close(frames)

	compileTimer := metrics.NewTimer()
	runner, compileCorpse, err := plugin.Compile(ctx, p.jailer, p.cgroups, p.tmpRoot, permit, req.Source, p.rootless, p.accuracy)
	compileTimer.ObserveDurationVec(metrics.PipelineCompileDuration, req.LanguageID)
	if err != nil {
		permit.Release()
		metrics.PipelineCompileFailuresTotal.WithLabelValues(req.LanguageID).Inc()
		pipelineLog := log.WithComponent("pipeline")
		pipelineLog.Error().Err(err).Str("language_id", req.LanguageID).Msg("compile step failed")
		sendResult(ctx, frames, 1, types.Verdict{Code: types.SystemError})
		return
	}
	if runner == nil {
		permit.Release()
		metrics.PipelineCompileFailuresTotal.WithLabelValues(req.LanguageID).Inc()
		sendResult(ctx, frames, 1, types.Verdict{Code: types.CompileError, CPUTimeNs: uint64(compileCorpse.Stats.CPU.Total), MemoryBytes: compileCorpse.Stats.Memory.Total})
		return
	}
	defer runner.Close()

	metrics.SandboxesActive.Inc()
	defer metrics.SandboxesActive.Dec()

	for i, tc := range req.TestCases {
		caseIndex := i + 1
		select {
		case <-ctx.Done():
			return
		case frames <- types.Frame{CaseIndex: caseIndex}:
		}

		caseTimer := metrics.NewTimer()
		corpse, err := runner.Run(ctx, time.Duration(req.CPULimit), req.MemoryLimit, tc.Input)
		caseTimer.ObserveDurationVec(metrics.PipelineCaseDuration, req.LanguageID)
		if err != nil {
			log.WithCase(caseIndex).Error().Err(err).Msg("sandbox run failed")
			sendResult(ctx, frames, caseIndex, types.Verdict{Code: types.SystemError})
			return
		}
		recordExhaustion(corpse.Reason)
		metrics.SandboxRunDuration.WithLabelValues(corpse.Reason.String()).Observe(corpse.Stats.Walltime.Seconds())

		verdict := langs.Assert(corpse, tc.ExpectedOutput, req.MatchRule)
		if verdict.Code == types.Accepted {
			verdict.Score = tc.Score
		}
		metrics.PipelineCasesTotal.WithLabelValues(verdict.Code.String()).Inc()
		if !sendResult(ctx, frames, caseIndex, verdict) {
			return
		}
	}
}

// recordExhaustion increments the sandbox exhaustion counters for a
// case run's monitor verdict, if the monitor tripped at all.
func recordExhaustion(reason types.ExhaustReason) {
	if reason == types.ReasonNone {
		return
	}
	metrics.SandboxExhaustedTotal.WithLabelValues(reason.String()).Inc()
	if reason == types.ReasonMemory {
		metrics.SandboxOOMKillsTotal.Inc()
	}
}

// sendResult delivers a result frame for case i, returning false if
// ctx ended before delivery.
func sendResult(ctx context.Context, frames chan<- types.Frame, i int, verdict types.Verdict) bool {
	select {
	case <-ctx.Done():
		return false
	case frames <- types.Frame{CaseIndex: i, Result: &verdict}:
		return true
	}
}
