package service

import (
	"context"

	"connectrpc.com/connect"

	"github.com/mmynk/wishlist/internal/stream"
)

// forward sends every snapshot of s to out until the client disconnects or
// s ends. s is released before forward returns.
func forward[T, M any](ctx context.Context, s *stream.Stream[T], out *connect.ServerStream[M], convert func(T) *M) error {
	defer s.Close()

	for v := range s.C() {
		if err := out.Send(convert(v)); err != nil {
			return err
		}
	}

	if ctx.Err() != nil {
		return nil
	}
	if err := s.Err(); err != nil {
		return connect.NewError(connect.CodeUnavailable, err)
	}
	return nil
}
