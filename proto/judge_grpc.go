package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	Judge_Judge_FullMethodName      = "/judged.Judge/Judge"
	Judge_JudgerInfo_FullMethodName = "/judged.Judge/JudgerInfo"
)

// JudgeClient is the client API for the Judge service.
type JudgeClient interface {
	Judge(ctx context.Context, in *JudgeRequest, opts ...grpc.CallOption) (Judge_JudgeClient, error)
	JudgerInfo(ctx context.Context, in *JudgerInfoRequest, opts ...grpc.CallOption) (*JudgerInfoResponse, error)
}

type judgeClient struct {
	cc grpc.ClientConnInterface
}

// NewJudgeClient wraps a gRPC connection as a JudgeClient.
func NewJudgeClient(cc grpc.ClientConnInterface) JudgeClient {
	return &judgeClient{cc}
}

func (c *judgeClient) Judge(ctx context.Context, in *JudgeRequest, opts ...grpc.CallOption) (Judge_JudgeClient, error) {
	stream, err := c.cc.NewStream(ctx, &Judge_ServiceDesc.Streams[0], Judge_Judge_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &judgeJudgeClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// Judge_JudgeClient is the stream handle returned by Judge.
type Judge_JudgeClient interface {
	Recv() (*JudgeResponse, error)
	grpc.ClientStream
}

type judgeJudgeClient struct {
	grpc.ClientStream
}

func (x *judgeJudgeClient) Recv() (*JudgeResponse, error) {
	m := new(JudgeResponse)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *judgeClient) JudgerInfo(ctx context.Context, in *JudgerInfoRequest, opts ...grpc.CallOption) (*JudgerInfoResponse, error) {
	out := new(JudgerInfoResponse)
	err := c.cc.Invoke(ctx, Judge_JudgerInfo_FullMethodName, in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// JudgeServer is the server API for the Judge service.
type JudgeServer interface {
	Judge(*JudgeRequest, Judge_JudgeServer) error
	JudgerInfo(context.Context, *JudgerInfoRequest) (*JudgerInfoResponse, error)
	mustEmbedUnimplementedJudgeServer()
}

// UnimplementedJudgeServer must be embedded by any real implementation
// to satisfy forward compatibility with added RPCs.
type UnimplementedJudgeServer struct{}

func (UnimplementedJudgeServer) Judge(*JudgeRequest, Judge_JudgeServer) error {
	return status.Errorf(codes.Unimplemented, "method Judge not implemented")
}

func (UnimplementedJudgeServer) JudgerInfo(context.Context, *JudgerInfoRequest) (*JudgerInfoResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method JudgerInfo not implemented")
}

func (UnimplementedJudgeServer) mustEmbedUnimplementedJudgeServer() {}

// RegisterJudgeServer registers srv with s.
func RegisterJudgeServer(s grpc.ServiceRegistrar, srv JudgeServer) {
	s.RegisterService(&Judge_ServiceDesc, srv)
}

func _Judge_Judge_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(JudgeRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(JudgeServer).Judge(m, &judgeJudgeServer{stream})
}

// Judge_JudgeServer is the stream handle a JudgeServer implementation
// sends response frames on.
type Judge_JudgeServer interface {
	Send(*JudgeResponse) error
	grpc.ServerStream
}

type judgeJudgeServer struct {
	grpc.ServerStream
}

func (x *judgeJudgeServer) Send(m *JudgeResponse) error {
	return x.ServerStream.SendMsg(m)
}

func _Judge_JudgerInfo_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(JudgerInfoRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(JudgeServer).JudgerInfo(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Judge_JudgerInfo_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(JudgeServer).JudgerInfo(ctx, req.(*JudgerInfoRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// Judge_ServiceDesc is the grpc.ServiceDesc for the Judge service.
var Judge_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "judged.Judge",
	HandlerType: (*JudgeServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "JudgerInfo",
			Handler:    _Judge_JudgerInfo_Handler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Judge",
			Handler:       _Judge_Judge_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "judge.proto",
}
