// Package apiconnect holds the Connect clients and handlers for the
// wishlist.v1 services. All of them speak JSON through api.Codec.
package apiconnect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/wishlist/pkg/api"
)

const (
	// ProfileServiceName is the fully-qualified name of the ProfileService service.
	ProfileServiceName = "wishlist.v1.ProfileService"
	// WishlistServiceName is the fully-qualified name of the WishlistService service.
	WishlistServiceName = "wishlist.v1.WishlistService"
)

// Fully-qualified procedure names, usable as HTTP paths.
const (
	ProfileServiceWhoAmIProcedure         = "/wishlist.v1.ProfileService/WhoAmI"
	ProfileServiceWatchProfileProcedure   = "/wishlist.v1.ProfileService/WatchProfile"
	ProfileServiceSignOutProcedure        = "/wishlist.v1.ProfileService/SignOut"
	WishlistServiceWatchWishlistProcedure = "/wishlist.v1.WishlistService/WatchWishlist"
	WishlistServiceCreateItemProcedure    = "/wishlist.v1.WishlistService/CreateItem"
	WishlistServiceUpdateItemProcedure    = "/wishlist.v1.WishlistService/UpdateItem"
	WishlistServiceDeleteItemProcedure    = "/wishlist.v1.WishlistService/DeleteItem"
)

// ProfileServiceClient is a client for the wishlist.v1.ProfileService service.
type ProfileServiceClient interface {
	WhoAmI(context.Context, *connect.Request[api.WhoAmIRequest]) (*connect.Response[api.WhoAmIResponse], error)
	WatchProfile(context.Context, *connect.Request[api.WatchProfileRequest]) (*connect.ServerStreamForClient[api.WatchProfileResponse], error)
	SignOut(context.Context, *connect.Request[api.SignOutRequest]) (*connect.Response[api.SignOutResponse], error)
}

// NewProfileServiceClient constructs a client for the wishlist.v1.ProfileService
// service. baseURL is the service root, e.g. http://localhost:8080.
func NewProfileServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) ProfileServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(api.Codec{})}, opts...)
	return &profileServiceClient{
		whoAmI: connect.NewClient[api.WhoAmIRequest, api.WhoAmIResponse](
			httpClient,
			baseURL+ProfileServiceWhoAmIProcedure,
			opts...,
		),
		watchProfile: connect.NewClient[api.WatchProfileRequest, api.WatchProfileResponse](
			httpClient,
			baseURL+ProfileServiceWatchProfileProcedure,
			opts...,
		),
		signOut: connect.NewClient[api.SignOutRequest, api.SignOutResponse](
			httpClient,
			baseURL+ProfileServiceSignOutProcedure,
			opts...,
		),
	}
}

type profileServiceClient struct {
	whoAmI       *connect.Client[api.WhoAmIRequest, api.WhoAmIResponse]
	watchProfile *connect.Client[api.WatchProfileRequest, api.WatchProfileResponse]
	signOut      *connect.Client[api.SignOutRequest, api.SignOutResponse]
}

func (c *profileServiceClient) WhoAmI(ctx context.Context, req *connect.Request[api.WhoAmIRequest]) (*connect.Response[api.WhoAmIResponse], error) {
	return c.whoAmI.CallUnary(ctx, req)
}

func (c *profileServiceClient) WatchProfile(ctx context.Context, req *connect.Request[api.WatchProfileRequest]) (*connect.ServerStreamForClient[api.WatchProfileResponse], error) {
	return c.watchProfile.CallServerStream(ctx, req)
}

func (c *profileServiceClient) SignOut(ctx context.Context, req *connect.Request[api.SignOutRequest]) (*connect.Response[api.SignOutResponse], error) {
	return c.signOut.CallUnary(ctx, req)
}

// ProfileServiceHandler is an implementation of the wishlist.v1.ProfileService service.
type ProfileServiceHandler interface {
	WhoAmI(context.Context, *connect.Request[api.WhoAmIRequest]) (*connect.Response[api.WhoAmIResponse], error)
	WatchProfile(context.Context, *connect.Request[api.WatchProfileRequest], *connect.ServerStream[api.WatchProfileResponse]) error
	SignOut(context.Context, *connect.Request[api.SignOutRequest]) (*connect.Response[api.SignOutResponse], error)
}

// NewProfileServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewProfileServiceHandler(svc ProfileServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(api.Codec{})}, opts...)
	whoAmIHandler := connect.NewUnaryHandler(
		ProfileServiceWhoAmIProcedure,
		svc.WhoAmI,
		opts...,
	)
	watchProfileHandler := connect.NewServerStreamHandler(
		ProfileServiceWatchProfileProcedure,
		svc.WatchProfile,
		opts...,
	)
	signOutHandler := connect.NewUnaryHandler(
		ProfileServiceSignOutProcedure,
		svc.SignOut,
		opts...,
	)
	return "/" + ProfileServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case ProfileServiceWhoAmIProcedure:
			whoAmIHandler.ServeHTTP(w, r)
		case ProfileServiceWatchProfileProcedure:
			watchProfileHandler.ServeHTTP(w, r)
		case ProfileServiceSignOutProcedure:
			signOutHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// UnimplementedProfileServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedProfileServiceHandler struct{}

func (UnimplementedProfileServiceHandler) WhoAmI(context.Context, *connect.Request[api.WhoAmIRequest]) (*connect.Response[api.WhoAmIResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("wishlist.v1.ProfileService.WhoAmI is not implemented"))
}

func (UnimplementedProfileServiceHandler) WatchProfile(context.Context, *connect.Request[api.WatchProfileRequest], *connect.ServerStream[api.WatchProfileResponse]) error {
	return connect.NewError(connect.CodeUnimplemented, errors.New("wishlist.v1.ProfileService.WatchProfile is not implemented"))
}

func (UnimplementedProfileServiceHandler) SignOut(context.Context, *connect.Request[api.SignOutRequest]) (*connect.Response[api.SignOutResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("wishlist.v1.ProfileService.SignOut is not implemented"))
}

// WishlistServiceClient is a client for the wishlist.v1.WishlistService service.
type WishlistServiceClient interface {
	WatchWishlist(context.Context, *connect.Request[api.WatchWishlistRequest]) (*connect.ServerStreamForClient[api.WatchWishlistResponse], error)
	CreateItem(context.Context, *connect.Request[api.CreateItemRequest]) (*connect.Response[api.CreateItemResponse], error)
	UpdateItem(context.Context, *connect.Request[api.UpdateItemRequest]) (*connect.Response[api.UpdateItemResponse], error)
	DeleteItem(context.Context, *connect.Request[api.DeleteItemRequest]) (*connect.Response[api.DeleteItemResponse], error)
}

// NewWishlistServiceClient constructs a client for the
// wishlist.v1.WishlistService service.
func NewWishlistServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) WishlistServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(api.Codec{})}, opts...)
	return &wishlistServiceClient{
		watchWishlist: connect.NewClient[api.WatchWishlistRequest, api.WatchWishlistResponse](
			httpClient,
			baseURL+WishlistServiceWatchWishlistProcedure,
			opts...,
		),
		createItem: connect.NewClient[api.CreateItemRequest, api.CreateItemResponse](
			httpClient,
			baseURL+WishlistServiceCreateItemProcedure,
			opts...,
		),
		updateItem: connect.NewClient[api.UpdateItemRequest, api.UpdateItemResponse](
			httpClient,
			baseURL+WishlistServiceUpdateItemProcedure,
			opts...,
		),
		deleteItem: connect.NewClient[api.DeleteItemRequest, api.DeleteItemResponse](
			httpClient,
			baseURL+WishlistServiceDeleteItemProcedure,
			opts...,
		),
	}
}

type wishlistServiceClient struct {
	watchWishlist *connect.Client[api.WatchWishlistRequest, api.WatchWishlistResponse]
	createItem    *connect.Client[api.CreateItemRequest, api.CreateItemResponse]
	updateItem    *connect.Client[api.UpdateItemRequest, api.UpdateItemResponse]
	deleteItem    *connect.Client[api.DeleteItemRequest, api.DeleteItemResponse]
}

func (c *wishlistServiceClient) WatchWishlist(ctx context.Context, req *connect.Request[api.WatchWishlistRequest]) (*connect.ServerStreamForClient[api.WatchWishlistResponse], error) {
	return c.watchWishlist.CallServerStream(ctx, req)
}

func (c *wishlistServiceClient) CreateItem(ctx context.Context, req *connect.Request[api.CreateItemRequest]) (*connect.Response[api.CreateItemResponse], error) {
	return c.createItem.CallUnary(ctx, req)
}

func (c *wishlistServiceClient) UpdateItem(ctx context.Context, req *connect.Request[api.UpdateItemRequest]) (*connect.Response[api.UpdateItemResponse], error) {
	return c.updateItem.CallUnary(ctx, req)
}

func (c *wishlistServiceClient) DeleteItem(ctx context.Context, req *connect.Request[api.DeleteItemRequest]) (*connect.Response[api.DeleteItemResponse], error) {
	return c.deleteItem.CallUnary(ctx, req)
}

// WishlistServiceHandler is an implementation of the wishlist.v1.WishlistService service.
type WishlistServiceHandler interface {
	WatchWishlist(context.Context, *connect.Request[api.WatchWishlistRequest], *connect.ServerStream[api.WatchWishlistResponse]) error
	CreateItem(context.Context, *connect.Request[api.CreateItemRequest]) (*connect.Response[api.CreateItemResponse], error)
	UpdateItem(context.Context, *connect.Request[api.UpdateItemRequest]) (*connect.Response[api.UpdateItemResponse], error)
	DeleteItem(context.Context, *connect.Request[api.DeleteItemRequest]) (*connect.Response[api.DeleteItemResponse], error)
}

// NewWishlistServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewWishlistServiceHandler(svc WishlistServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(api.Codec{})}, opts...)
	watchWishlistHandler := connect.NewServerStreamHandler(
		WishlistServiceWatchWishlistProcedure,
		svc.WatchWishlist,
		opts...,
	)
	createItemHandler := connect.NewUnaryHandler(
		WishlistServiceCreateItemProcedure,
		svc.CreateItem,
		opts...,
	)
	updateItemHandler := connect.NewUnaryHandler(
		WishlistServiceUpdateItemProcedure,
		svc.UpdateItem,
		opts...,
	)
	deleteItemHandler := connect.NewUnaryHandler(
		WishlistServiceDeleteItemProcedure,
		svc.DeleteItem,
		opts...,
	)
	return "/" + WishlistServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case WishlistServiceWatchWishlistProcedure:
			watchWishlistHandler.ServeHTTP(w, r)
		case WishlistServiceCreateItemProcedure:
			createItemHandler.ServeHTTP(w, r)
		case WishlistServiceUpdateItemProcedure:
			updateItemHandler.ServeHTTP(w, r)
		case WishlistServiceDeleteItemProcedure:
			deleteItemHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// UnimplementedWishlistServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedWishlistServiceHandler struct{}

func (UnimplementedWishlistServiceHandler) WatchWishlist(context.Context, *connect.Request[api.WatchWishlistRequest], *connect.ServerStream[api.WatchWishlistResponse]) error {
	return connect.NewError(connect.CodeUnimplemented, errors.New("wishlist.v1.WishlistService.WatchWishlist is not implemented"))
}

func (UnimplementedWishlistServiceHandler) CreateItem(context.Context, *connect.Request[api.CreateItemRequest]) (*connect.Response[api.CreateItemResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("wishlist.v1.WishlistService.CreateItem is not implemented"))
}

func (UnimplementedWishlistServiceHandler) UpdateItem(context.Context, *connect.Request[api.UpdateItemRequest]) (*connect.Response[api.UpdateItemResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("wishlist.v1.WishlistService.UpdateItem is not implemented"))
}

func (UnimplementedWishlistServiceHandler) DeleteItem(context.Context, *connect.Request[api.DeleteItemRequest]) (*connect.Response[api.DeleteItemResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("wishlist.v1.WishlistService.DeleteItem is not implemented"))
}
