package api

import "encoding/json"

// Codec marshals wishlist.v1 messages as JSON. It is registered under the
// name "json" so clients and servers negotiate application/json and
// application/connect+json.
type Codec struct{}

// Name implements connect.Codec.
func (Codec) Name() string { return "json" }

// Marshal implements connect.Codec.
func (Codec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

// Unmarshal implements connect.Codec.
func (Codec) Unmarshal(data []byte, msg any) error {
	return json.Unmarshal(data, msg)
}
