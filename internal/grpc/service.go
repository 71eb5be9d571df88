package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "judging.v1.Scoreboard"

// Full method names
const (
	MethodGetScoreboard        = "/" + ServiceName + "/GetScoreboard"
	MethodGetHonorableMentions = "/" + ServiceName + "/GetHonorableMentions"
	MethodGetVotingStatus      = "/" + ServiceName + "/GetVotingStatus"
	MethodRefresh              = "/" + ServiceName + "/Refresh"
	MethodWatchScoreboard      = "/" + ServiceName + "/WatchScoreboard"
)

// ScoreboardServer is the server API of judging.v1.Scoreboard. Messages
// are protobuf well-known types so no generated code is needed: snapshots
// travel as Struct values with the same field names as the JSON API.
type ScoreboardServer interface {
	GetScoreboard(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetHonorableMentions(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	GetVotingStatus(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	Refresh(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	WatchScoreboard(*emptypb.Empty, Scoreboard_WatchScoreboardServer) error
}

// Scoreboard_WatchScoreboardServer is the server side of the snapshot stream
type Scoreboard_WatchScoreboardServer interface {
	Send(*structpb.Struct) error
	grpc.ServerStream
}

type watchScoreboardServer struct {
	grpc.ServerStream
}

func (x *watchScoreboardServer) Send(m *structpb.Struct) error {
	return x.ServerStream.SendMsg(m)
}

// RegisterScoreboardServer registers srv on s
func RegisterScoreboardServer(s grpc.ServiceRegistrar, srv ScoreboardServer) {
	s.RegisterService(&ScoreboardServiceDesc, srv)
}

func unaryHandler[Resp any](method string, call func(ScoreboardServer, context.Context, *emptypb.Empty) (Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(emptypb.Empty)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ScoreboardServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ScoreboardServer), ctx, req.(*emptypb.Empty))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func watchScoreboardHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(ScoreboardServer).WatchScoreboard(in, &watchScoreboardServer{stream})
}

// ScoreboardServiceDesc describes judging.v1.Scoreboard
var ScoreboardServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ScoreboardServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetScoreboard", Handler: unaryHandler(MethodGetScoreboard, ScoreboardServer.GetScoreboard)},
		{MethodName: "GetHonorableMentions", Handler: unaryHandler(MethodGetHonorableMentions, ScoreboardServer.GetHonorableMentions)},
		{MethodName: "GetVotingStatus", Handler: unaryHandler(MethodGetVotingStatus, ScoreboardServer.GetVotingStatus)},
		{MethodName: "Refresh", Handler: unaryHandler(MethodRefresh, ScoreboardServer.Refresh)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "WatchScoreboard", Handler: watchScoreboardHandler, ServerStreams: true},
	},
}

// ScoreboardClient is the client API of judging.v1.Scoreboard
type ScoreboardClient struct {
	cc grpc.ClientConnInterface
}

// NewScoreboardClient creates a client on cc
func NewScoreboardClient(cc grpc.ClientConnInterface) *ScoreboardClient {
	return &ScoreboardClient{cc: cc}
}

func (c *ScoreboardClient) GetScoreboard(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	err := c.cc.Invoke(ctx, MethodGetScoreboard, &emptypb.Empty{}, out, opts...)
	return out, err
}

func (c *ScoreboardClient) GetHonorableMentions(ctx context.Context, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	err := c.cc.Invoke(ctx, MethodGetHonorableMentions, &emptypb.Empty{}, out, opts...)
	return out, err
}

func (c *ScoreboardClient) GetVotingStatus(ctx context.Context, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	err := c.cc.Invoke(ctx, MethodGetVotingStatus, &emptypb.Empty{}, out, opts...)
	return out, err
}

func (c *ScoreboardClient) Refresh(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	err := c.cc.Invoke(ctx, MethodRefresh, &emptypb.Empty{}, out, opts...)
	return out, err
}

// ScoreboardWatcher receives snapshots from WatchScoreboard
type ScoreboardWatcher struct {
	grpc.ClientStream
}

// Recv blocks for the next snapshot
func (w *ScoreboardWatcher) Recv() (*structpb.Struct, error) {
	m := new(structpb.Struct)
	if err := w.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *ScoreboardClient) WatchScoreboard(ctx context.Context, opts ...grpc.CallOption) (*ScoreboardWatcher, error) {
	stream, err := c.cc.NewStream(ctx, &ScoreboardServiceDesc.Streams[0], MethodWatchScoreboard, opts...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(&emptypb.Empty{}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &ScoreboardWatcher{stream}, nil
}
