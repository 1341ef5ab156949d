package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name
const ServiceName = "caixinha.ledger.v1.LedgerService"

// Method names of LedgerService
const (
	MethodDeposit         = "Deposit"
	MethodWithdraw        = "Withdraw"
	MethodTransferOut     = "TransferOut"
	MethodCreateBox       = "CreateBox"
	MethodDepositToBox    = "DepositToBox"
	MethodWithdrawFromBox = "WithdrawFromBox"
	MethodGetSnapshot     = "GetSnapshot"
	MethodGetSummary      = "GetSummary"
	MethodHistory         = "History"
	MethodGetTransaction  = "GetTransaction"
)

// LedgerServiceServer is the server API for LedgerService.
// Requests and responses are google.protobuf.Struct messages.
type LedgerServiceServer interface {
	Deposit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Withdraw(context.Context, *structpb.Struct) (*structpb.Struct, error)
	TransferOut(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateBox(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DepositToBox(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WithdrawFromBox(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSnapshot(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSummary(context.Context, *structpb.Struct) (*structpb.Struct, error)
	History(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetTransaction(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(LedgerServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(LedgerServiceServer), ctx, in)
			}

			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + name,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(LedgerServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// LedgerServiceDesc describes LedgerService for grpc.Server.RegisterService
var LedgerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler(MethodDeposit, LedgerServiceServer.Deposit),
		unaryHandler(MethodWithdraw, LedgerServiceServer.Withdraw),
		unaryHandler(MethodTransferOut, LedgerServiceServer.TransferOut),
		unaryHandler(MethodCreateBox, LedgerServiceServer.CreateBox),
		unaryHandler(MethodDepositToBox, LedgerServiceServer.DepositToBox),
		unaryHandler(MethodWithdrawFromBox, LedgerServiceServer.WithdrawFromBox),
		unaryHandler(MethodGetSnapshot, LedgerServiceServer.GetSnapshot),
		unaryHandler(MethodGetSummary, LedgerServiceServer.GetSummary),
		unaryHandler(MethodHistory, LedgerServiceServer.History),
		unaryHandler(MethodGetTransaction, LedgerServiceServer.GetTransaction),
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterLedgerServiceServer registers srv on s
func RegisterLedgerServiceServer(s grpc.ServiceRegistrar, srv LedgerServiceServer) {
	s.RegisterService(&LedgerServiceDesc, srv)
}

// LedgerServiceClient calls LedgerService over a client connection
type LedgerServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewLedgerServiceClient creates a client on cc
func NewLedgerServiceClient(cc grpc.ClientConnInterface) *LedgerServiceClient {
	return &LedgerServiceClient{cc: cc}
}

// Call invokes method with req. fields is converted with structpb.NewStruct.
func (c *LedgerServiceClient) Call(ctx context.Context, method string, fields map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}

	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
