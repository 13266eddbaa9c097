// Package types holds the core data model shared across judged's
// components: requests, test cases, corpses, and verdicts.
package types

import "time"

// MatchRule selects how a captured stdout is compared against the
// expected output of a test case.
type MatchRule int

const (
	MatchExact MatchRule = iota
	MatchIgnoreTrailingWhitespace
	MatchIgnoreAllWhitespace
)

// TestCase is one (input, expected output) pair of a judge request.
type TestCase struct {
	Input          []byte
	ExpectedOutput []byte
	Score          int32
}

// Request is one judge call: a language, a source program, and an
// ordered sequence of test cases sharing one match rule and per-case
// resource limits.
type Request struct {
	LanguageID string
	Source     []byte
	MatchRule  MatchRule
	TestCases  []TestCase

	// MemoryLimit and CPULimit are per test case; MemoryLimit is bytes,
	// CPULimit is nanoseconds.
	MemoryLimit uint64
	CPULimit    uint64
}

// VerdictCode is the final classification of one test case.
type VerdictCode int

const (
	Accepted VerdictCode = iota
	WrongAnswer
	TimeLimitExceeded
	MemoryLimitExceeded
	OutputLimitExceeded
	RealTimeLimitExceeded
	RuntimeError
	CompileError
	SystemError
)

func (v VerdictCode) String() string {
	switch v {
	case Accepted:
		return "AC"
	case WrongAnswer:
		return "WA"
	case TimeLimitExceeded:
		return "TLE"
	case MemoryLimitExceeded:
		return "MLE"
	case OutputLimitExceeded:
		return "OLE"
	case RealTimeLimitExceeded:
		return "RealTLE"
	case RuntimeError:
		return "RE"
	case CompileError:
		return "CE"
	case SystemError:
		return "SE"
	default:
		return "UNKNOWN"
	}
}

// Verdict is what the pipeline produces for one test case.
type Verdict struct {
	Code        VerdictCode
	CPUTimeNs   uint64
	MemoryBytes uint64
	Score       int32 // only meaningful when Code == Accepted
}

// Cpu is a cpu-time budget or observation, kernel+user split.
type Cpu struct {
	Kernel time.Duration
	User   time.Duration
	Total  time.Duration
}

// OutOfBudget reports whether the observed usage has exceeded the
// budget represented by b.
func (b Cpu) OutOfBudget(observed Cpu) bool {
	return observed.Total > b.Total
}

// Memory is a memory budget or observation, kernel+user split, in
// bytes.
type Memory struct {
	Kernel uint64
	User   uint64
	Total  uint64
}

// ExhaustReason tags why a monitor tripped.
type ExhaustReason int

const (
	ReasonNone ExhaustReason = iota
	ReasonCPU
	ReasonMemory
	ReasonOutput
	ReasonWalltime
)

func (r ExhaustReason) String() string {
	switch r {
	case ReasonCPU:
		return "cpu"
	case ReasonMemory:
		return "memory"
	case ReasonOutput:
		return "output"
	case ReasonWalltime:
		return "walltime"
	default:
		return "none"
	}
}

// Stats is the resource usage observed for one sandbox run.
type Stats struct {
	CPU      Cpu
	Memory   Memory
	Output   uint64
	Walltime time.Duration
}

// Corpse is the terminal record of one jailed process run.
type Corpse struct {
	// ExitCode is valid only when Reason == ReasonNone.
	ExitCode int
	Reason   ExhaustReason
	Stdout   []byte
	Stats    Stats
}

// Succeeded reports whether the process both ran to completion and
// exited with status zero.
func (c Corpse) Succeeded() bool {
	return c.Reason == ReasonNone && c.ExitCode == 0
}

// Frame is one streamed unit of a judge response: either a
// case-started marker (Result is nil) or the terminal verdict for the
// most recently started case.
type Frame struct {
	CaseIndex int
	Result    *Verdict
}
