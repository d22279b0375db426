package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/wishlist/internal/auth"
	"github.com/mmynk/wishlist/internal/middleware"
	"github.com/mmynk/wishlist/internal/syncer"
	"github.com/mmynk/wishlist/pkg/api"
	"github.com/mmynk/wishlist/pkg/api/apiconnect"
)

// ProfileService implements the ProfileService RPC interface.
type ProfileService struct {
	apiconnect.UnimplementedProfileServiceHandler
	users      *syncer.UserSync
	jwtManager *auth.JWTManager
	logger     *slog.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(users *syncer.UserSync, jwtManager *auth.JWTManager, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		users:      users,
		jwtManager: jwtManager,
		logger:     logger,
	}
}

// WhoAmI returns the authenticated principal.
func (s *ProfileService) WhoAmI(ctx context.Context, req *connect.Request[api.WhoAmIRequest]) (*connect.Response[api.WhoAmIResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	return connect.NewResponse(&api.WhoAmIResponse{
		UserId: userID,
		Email:  middleware.GetEmail(ctx),
	}), nil
}

// WatchProfile streams the caller's profile, with resolved friends, until the
// client goes away.
func (s *ProfileService) WatchProfile(ctx context.Context, req *connect.Request[api.WatchProfileRequest], out *connect.ServerStream[api.WatchProfileResponse]) error {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	s.logger.Info("WatchProfile started", "user_id", userID)

	profiles, err := s.users.Subscribe(ctx, userID)
	if err != nil {
		s.logger.Error("WatchProfile subscribe failed", "user_id", userID, "error", err)
		return connect.NewError(connect.CodeInternal, err)
	}

	return forward(ctx, profiles, out, api.FromProfile)
}

// SignOut revokes the caller's token.
func (s *ProfileService) SignOut(ctx context.Context, req *connect.Request[api.SignOutRequest]) (*connect.Response[api.SignOutResponse], error) {
	claims := middleware.GetClaims(ctx)
	if claims == nil {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	if err := s.jwtManager.Revoke(claims); err != nil {
		s.logger.Error("SignOut failed", "user_id", claims.UserID, "error", err)
		if errors.Is(err, auth.ErrInvalidToken) {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("User signed out", "user_id", claims.UserID)
	return connect.NewResponse(&api.SignOutResponse{}), nil
}
