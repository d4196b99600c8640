package orderrpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content subtype of the order API.
const CodecName = "json"

func init() {
	encoding.RegisterCodec(Codec{})
}

// Codec carries order API messages as JSON so decimals keep their exact string form.
type Codec struct{}

func (Codec) Marshal(value any) ([]byte, error) {
	return json.Marshal(value)
}

func (Codec) Unmarshal(data []byte, value any) error {
	return json.Unmarshal(data, value)
}

func (Codec) Name() string {
	return CodecName
}
