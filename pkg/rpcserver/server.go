package rpcserver

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"

	"github.com/nullsector/judged/pkg/judgeerr"
	"github.com/nullsector/judged/pkg/langs"
	"github.com/nullsector/judged/pkg/log"
	"github.com/nullsector/judged/pkg/metrics"
	"github.com/nullsector/judged/pkg/pipeline"
	"github.com/nullsector/judged/pkg/semaphore"
	"github.com/nullsector/judged/pkg/types"
	"github.com/nullsector/judged/proto"
)

// Server implements proto.JudgeServer over one judger node's pipeline.
type Server struct {
	proto.UnimplementedJudgeServer

	pipeline  *pipeline.Pipeline
	registry  *langs.Registry
	sem       *semaphore.Semaphore
	accuracy  time.Duration
	cpuFactor float64

	grpc *grpc.Server
}

// Config is the set of values NewServer needs beyond the pipeline
// itself, mirroring the fields JudgerInfo reports.
type Config struct {
	Secret    string
	Accuracy  time.Duration
	CPUFactor float64
}

// NewServer builds a Server and its backing grpc.Server, wiring the
// shared-secret auth interceptor on both the unary and the streaming
// path.
func NewServer(p *pipeline.Pipeline, registry *langs.Registry, sem *semaphore.Semaphore, cfg Config) *Server {
	s := &Server{
		pipeline:  p,
		registry:  registry,
		sem:       sem,
		accuracy:  cfg.Accuracy,
		cpuFactor: cfg.CPUFactor,
	}

	s.grpc = grpc.NewServer(
		grpc.UnaryInterceptor(AuthInterceptor(cfg.Secret)),
		grpc.StreamInterceptor(StreamAuthInterceptor(cfg.Secret)),
	)
	proto.RegisterJudgeServer(s.grpc, s)

	return s
}

// Serve blocks accepting connections on addr until the listener or
// the grpc.Server stops.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("rpcserver: listen %s: %w", addr, err)
	}
	return s.grpc.Serve(lis)
}

// GracefulStop drains in-flight RPCs before returning.
func (s *Server) GracefulStop() {
	s.grpc.GracefulStop()
}

// Judge implements the server-streamed judge RPC: it decodes the
// wire request, drives the pipeline, and forwards every frame until
// the pipeline closes its channel or the stream's context ends.
func (s *Server) Judge(req *proto.JudgeRequest, stream proto.Judge_JudgeServer) error {
	requestLog := log.WithRequestID(uuid.NewString())
	requestLog.Info().Str("language_id", req.LanguageID).Int("cases", len(req.Tests)).Msg("judge request received")

	timer := metrics.NewTimer()
	metrics.RPCStreamsActive.Inc()
	defer metrics.RPCStreamsActive.Dec()

	frames, err := s.pipeline.Judge(stream.Context(), decodeRequest(req))
	if err != nil {
		requestLog.Error().Err(err).Msg("judge request rejected before compile")
		metrics.RPCRequestsTotal.WithLabelValues("Judge", "rejected").Inc()
		timer.ObserveDurationVec(metrics.RPCRequestDuration, "Judge")
		return judgeerr.ToStatus(err)
	}

	for frame := range frames {
		if err := stream.Send(encodeFrame(frame)); err != nil {
			requestLog.Error().Err(err).Msg("failed to stream judge frame")
			metrics.RPCRequestsTotal.WithLabelValues("Judge", "stream_error").Inc()
			timer.ObserveDurationVec(metrics.RPCRequestDuration, "Judge")
			return err
		}
	}
	metrics.RPCRequestsTotal.WithLabelValues("Judge", "ok").Inc()
	timer.ObserveDurationVec(metrics.RPCRequestDuration, "Judge")
	return nil
}

// JudgerInfo reports the loaded languages and this installation's
// capacity and polling accuracy.
func (s *Server) JudgerInfo(ctx context.Context, _ *proto.JudgerInfoRequest) (*proto.JudgerInfoResponse, error) {
	timer := metrics.NewTimer()
	defer func() {
		metrics.RPCRequestsTotal.WithLabelValues("JudgerInfo", "ok").Inc()
		timer.ObserveDurationVec(metrics.RPCRequestDuration, "JudgerInfo")
	}()

	languages := s.registry.List()
	out := make([]proto.LanguageInfo, 0, len(languages))
	for _, l := range languages {
		out = append(out, proto.LanguageInfo{ID: l.ID, Name: l.Name, Extension: l.Extension, Info: l.Info})
	}

	return &proto.JudgerInfoResponse{
		Languages:      out,
		MemoryCapacity: s.sem.Capacity(),
		AccuracyNs:     uint64(s.accuracy.Nanoseconds()),
		CPUFactor:      s.cpuFactor,
	}, nil
}

func decodeRequest(req *proto.JudgeRequest) types.Request {
	cases := make([]types.TestCase, 0, len(req.Tests))
	for _, tc := range req.Tests {
		cases = append(cases, types.TestCase{Input: tc.Input, ExpectedOutput: tc.Output, Score: tc.Score})
	}
	return types.Request{
		LanguageID:  req.LanguageID,
		Source:      req.Code,
		MatchRule:   decodeMatchRule(req.Rule),
		TestCases:   cases,
		MemoryLimit: req.Memory,
		CPULimit:    req.Time,
	}
}

func decodeMatchRule(r proto.MatchRule) types.MatchRule {
	switch r {
	case proto.MatchRule_IGNORE_TRAILING_WHITESPACE:
		return types.MatchIgnoreTrailingWhitespace
	case proto.MatchRule_IGNORE_ALL_WHITESPACE:
		return types.MatchIgnoreAllWhitespace
	default:
		return types.MatchExact
	}
}

func encodeFrame(frame types.Frame) *proto.JudgeResponse {
	if frame.Result == nil {
		return &proto.JudgeResponse{CaseStarted: &proto.CaseStarted{Index: uint32(frame.CaseIndex)}}
	}
	return &proto.JudgeResponse{Result: &proto.CaseResult{
		Index:       uint32(frame.CaseIndex),
		Code:        encodeVerdictCode(frame.Result.Code),
		TimeNs:      frame.Result.CPUTimeNs,
		MemoryBytes: frame.Result.MemoryBytes,
		Score:       frame.Result.Score,
	}}
}

func encodeVerdictCode(code types.VerdictCode) proto.VerdictCode {
	switch code {
	case types.Accepted:
		return proto.VerdictCode_AC
	case types.WrongAnswer:
		return proto.VerdictCode_WA
	case types.TimeLimitExceeded:
		return proto.VerdictCode_TLE
	case types.MemoryLimitExceeded:
		return proto.VerdictCode_MLE
	case types.OutputLimitExceeded:
		return proto.VerdictCode_OLE
	case types.RealTimeLimitExceeded:
		return proto.VerdictCode_REAL_TLE
	case types.RuntimeError:
		return proto.VerdictCode_RE
	case types.CompileError:
		return proto.VerdictCode_CE
	default:
		return proto.VerdictCode_SE
	}
}
