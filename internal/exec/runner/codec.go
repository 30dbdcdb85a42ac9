package runner

import "encoding/json"

// jsonCodec lets grpc carry Request/Response as plain JSON instead of
// protobuf-generated message types. The example pack has nothing protoc
// emits from (no .proto file, no generated *.pb.go anywhere for a runner
// service), and this environment never invokes the Go/protoc toolchain, so
// a hand-rolled grpc.ServiceDesc over a JSON codec is the grounded way to
// exercise google.golang.org/grpc without fabricating generated code.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
