package docstore

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Normalize returns a deep copy of doc restricted to the JSON value domain
// (nil, bool, float64, string, []any, map[string]any). Every backend stores
// normalized documents, so a value reads back the same regardless of driver.
// time.Time values are written as RFC 3339 strings.
func Normalize(doc Document) (Document, error) {
	if doc == nil {
		return Document{}, nil
	}
	s, err := structpb.NewStruct(plainMap(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to normalize document: %w", err)
	}
	return Document(s.AsMap()), nil
}

// Marshal encodes a document body for storage.
func Marshal(doc Document) ([]byte, error) {
	s, err := structpb.NewStruct(plainMap(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return protojson.Marshal(s)
}

// Unmarshal decodes a document body written by Marshal.
func Unmarshal(data []byte) (Document, error) {
	var s structpb.Struct
	if err := protojson.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return Document(s.AsMap()), nil
}

// Merge returns base with fields applied on top. Neither argument is modified.
func Merge(base, fields Document) Document {
	out := make(Document, len(base)+len(fields))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func plainMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = plain(v)
	}
	return out
}

// plain converts the Go types callers commonly build documents from into the
// shapes structpb accepts. Anything else is passed through for structpb to
// accept or reject.
func plain(v any) any {
	switch v := v.(type) {
	case Document:
		return plainMap(v)
	case map[string]any:
		return plainMap(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = plain(e)
		}
		return out
	case []string:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = e
		}
		return out
	case []Document:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = plainMap(e)
		}
		return out
	case []map[string]any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = plainMap(e)
		}
		return out
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	default:
		return v
	}
}
