package proto

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// jsonCodec registers under the name grpc-go's own encoding/proto
// package uses ("proto"), so it transparently replaces the protobuf
// wire codec for this process without any per-call ForceCodec
// plumbing at the server or client. It trades real protobuf binary
// compatibility for a codec that works with plain Go structs, which
// is the trade this module makes in the absence of a protoc
// toolchain.
type jsonCodec struct{}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return "proto"
}
