package runner

import (
	"context"

	"google.golang.org/grpc"
)

// Handler is the business logic a runner server executes for each Request.
type Handler func(ctx context.Context, req *Request) (*Response, error)

// serviceName matches the fully-qualified name a .proto file would declare;
// kept as a plain constant since there is no generated package to import it
// from.
const serviceName = "opereon.runner.Runner"

func runHandler(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
	req := new(Request)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(Handler)(ctx, req)
}

// serviceDesc is the hand-written equivalent of what protoc-gen-go-grpc
// would emit for a service with one unary "Run" method.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Run", Handler: runHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "internal/exec/runner/protocol.go",
}

// RegisterRunnerServer registers h as the Run method implementation on s.
func RegisterRunnerServer(s *grpc.Server, h Handler) {
	s.RegisterService(&serviceDesc, h)
}
