package grpc

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/danielpache7/hackathon-AlphaRamos/internal/logger"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/models"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/pubsub"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/scoreboard"
)

// Board is the scoreboard the service reads from
type Board interface {
	Snapshot() *scoreboard.Snapshot
	Refresh(ctx context.Context) (*scoreboard.Snapshot, error)
}

// StatusReader reads the voting gate
type StatusReader interface {
	GetVotingStatus(ctx context.Context) (models.VotingStatus, error)
}

// Subscriber is the bus the watch stream listens on
type Subscriber interface {
	Subscribe() chan pubsub.Event
	Unsubscribe(chan pubsub.Event)
}

// Server implements the gRPC judging.v1.Scoreboard service
type Server struct {
	board  Board
	store  StatusReader
	pubsub Subscriber
}

// NewServer creates a new gRPC server
func NewServer(board Board, store StatusReader, ps Subscriber) *Server {
	return &Server{
		board:  board,
		store:  store,
		pubsub: ps,
	}
}

// NewGRPCServer returns a grpc.Server with the scoreboard service registered
// and request logging installed
func NewGRPCServer(srv ScoreboardServer) *grpc.Server {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(logUnary))
	RegisterScoreboardServer(s, srv)
	return s
}

func logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	if err != nil {
		logger.Warn("gRPC: call failed", "method", info.FullMethod, "code", status.Code(err).String(), "error", err)
	} else {
		logger.Debug("gRPC: call", "method", info.FullMethod)
	}
	return resp, err
}

var errNotReady = status.Error(codes.Unavailable, "scoreboard not ready")

// GetScoreboard returns the latest snapshot
func (s *Server) GetScoreboard(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
	snap := s.board.Snapshot()
	if snap == nil {
		return nil, errNotReady
	}
	return snapshotToStruct(snap)
}

// GetHonorableMentions returns the per-criterion winners of the latest snapshot
func (s *Server) GetHonorableMentions(ctx context.Context, req *emptypb.Empty) (*structpb.ListValue, error) {
	snap := s.board.Snapshot()
	if snap == nil {
		return nil, errNotReady
	}

	var items []any
	if err := roundTrip(snap.Results.HonorableMentions, &items); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode mentions: %v", err)
	}
	list, err := structpb.NewList(items)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode mentions: %v", err)
	}
	return list, nil
}

// GetVotingStatus reads the gate from the store
func (s *Server) GetVotingStatus(ctx context.Context, req *emptypb.Empty) (*wrapperspb.StringValue, error) {
	st, err := s.store.GetVotingStatus(ctx)
	if err != nil {
		logger.Error("gRPC: Failed to read voting status", "error", err)
		return nil, status.Error(codes.Unavailable, "failed to read voting status")
	}
	return wrapperspb.String(string(st)), nil
}

// Refresh recomputes the scoreboard now
func (s *Server) Refresh(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
	snap, err := s.board.Refresh(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Unavailable, "refresh failed: %v", err)
	}
	return snapshotToStruct(snap)
}

// WatchScoreboard streams the current snapshot and every newer one
func (s *Server) WatchScoreboard(req *emptypb.Empty, stream Scoreboard_WatchScoreboardServer) error {
	logger.Debug("gRPC: New client connected to scoreboard stream")
	eventChan := s.pubsub.Subscribe()
	defer s.pubsub.Unsubscribe(eventChan)

	var sent uint64
	send := func() error {
		snap := s.board.Snapshot()
		if snap == nil || (sent != 0 && snap.Seq <= sent) {
			return nil
		}
		msg, err := snapshotToStruct(snap)
		if err != nil {
			return err
		}
		if err := stream.Send(msg); err != nil {
			logger.Error("gRPC: Failed to send snapshot to stream", "error", err)
			return err
		}
		sent = snap.Seq
		return nil
	}

	if err := send(); err != nil {
		return err
	}

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				return nil
			}
			if event.Type != pubsub.EventScoreboardUpdated {
				continue
			}
			if err := send(); err != nil {
				return err
			}
		case <-stream.Context().Done():
			logger.Debug("gRPC: Client disconnected from scoreboard stream")
			return nil
		}
	}
}

func snapshotToStruct(snap *scoreboard.Snapshot) (*structpb.Struct, error) {
	var m map[string]any
	if err := roundTrip(snap, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode snapshot: %v", err)
	}
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode snapshot: %v", err)
	}
	return st, nil
}

// roundTrip converts v into the generic JSON shapes structpb accepts
func roundTrip(v, out any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
