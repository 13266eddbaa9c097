// Package proto holds judged's wire messages and its Judge gRPC
// service, generated by hand from judge.proto rather than protoc:
// this checkout has no protobuf compiler available, so the messages
// are plain Go structs carried over grpc-go's codec plugin point
// instead of the protobuf wire format proper. See codec.go.
package proto

// MatchRule mirrors judge.proto's MatchRule enum.
type MatchRule int32

const (
	MatchRule_EXACT_SAME                 MatchRule = 0
	MatchRule_IGNORE_TRAILING_WHITESPACE MatchRule = 1
	MatchRule_IGNORE_ALL_WHITESPACE      MatchRule = 2
)

// VerdictCode mirrors judge.proto's VerdictCode enum.
type VerdictCode int32

const (
	VerdictCode_AC       VerdictCode = 0
	VerdictCode_WA       VerdictCode = 1
	VerdictCode_TLE      VerdictCode = 2
	VerdictCode_MLE      VerdictCode = 3
	VerdictCode_OLE      VerdictCode = 4
	VerdictCode_REAL_TLE VerdictCode = 5
	VerdictCode_RE       VerdictCode = 6
	VerdictCode_CE       VerdictCode = 7
	VerdictCode_SE       VerdictCode = 8
)

// TestCase is one (input, expected output, score) triple of a
// JudgeRequest.
type TestCase struct {
	Input  []byte `json:"input,omitempty"`
	Output []byte `json:"output,omitempty"`
	Score  int32  `json:"score,omitempty"`
}

// JudgeRequest is the Judge RPC's request message.
type JudgeRequest struct {
	LanguageID string     `json:"language_id"`
	Code       []byte     `json:"code"`
	Memory     uint64     `json:"memory"`
	Time       uint64     `json:"time"`
	Rule       MatchRule  `json:"rule"`
	Tests      []TestCase `json:"tests"`
}

// CaseStarted marks that case Index has begun running.
type CaseStarted struct {
	Index uint32 `json:"index"`
}

// CaseResult is the terminal verdict for case Index.
type CaseResult struct {
	Index       uint32      `json:"index"`
	Code        VerdictCode `json:"code"`
	TimeNs      uint64      `json:"time_ns"`
	MemoryBytes uint64      `json:"memory_bytes"`
	Score       int32       `json:"score,omitempty"`
}

// JudgeResponse is a sum type: exactly one of CaseStarted or Result is
// set on any given frame.
type JudgeResponse struct {
	CaseStarted *CaseStarted `json:"case_started,omitempty"`
	Result      *CaseResult  `json:"result,omitempty"`
}

// JudgerInfoRequest carries no fields; JudgerInfo takes no arguments.
type JudgerInfoRequest struct{}

// LanguageInfo is one entry of JudgerInfoResponse's language list.
type LanguageInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Extension string `json:"extension"`
	Info      string `json:"info"`
}

// JudgerInfoResponse reports this installation's loaded languages and
// capacity.
type JudgerInfoResponse struct {
	Languages      []LanguageInfo `json:"languages"`
	MemoryCapacity uint64         `json:"memory_capacity"`
	AccuracyNs     uint64         `json:"accuracy_ns"`
	CPUFactor      float64        `json:"cpu_factor"`
}
