// Package server assembles the HTTP surface: the Connect services behind
// their interceptors, metrics, health and the static browser bundle.
package server

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/wishlist/internal/auth"
	"github.com/mmynk/wishlist/internal/docstore"
	"github.com/mmynk/wishlist/internal/metrics"
	"github.com/mmynk/wishlist/internal/middleware"
	"github.com/mmynk/wishlist/internal/service"
	"github.com/mmynk/wishlist/internal/syncer"
	"github.com/mmynk/wishlist/pkg/api/apiconnect"
)

// Deps are the long-lived dependencies of the HTTP surface.
type Deps struct {
	Store             docstore.Store
	JWTManager        *auth.JWTManager
	Metrics           *metrics.Metrics
	Logger            *slog.Logger
	FriendConcurrency int
	// StaticPath is the directory holding the browser bundle. Empty disables
	// static file serving.
	StaticPath string
}

// NewHandler returns the root handler. It does not wrap it in h2c.
func NewHandler(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := []syncer.Option{
		syncer.WithLogger(logger),
		syncer.WithMetrics(d.Metrics),
		syncer.WithFriendConcurrency(d.FriendConcurrency),
	}
	users := syncer.NewUserSync(d.Store, opts...)
	items := syncer.NewWishlistSync(d.Store, opts...)

	interceptors := connect.WithInterceptors(
		middleware.MetricsInterceptor(d.Metrics),
		middleware.RequireAuth(d.JWTManager),
		middleware.LoggingInterceptor(),
	)

	mux := http.NewServeMux()

	// Register Connect services
	profilePath, profileHandler := apiconnect.NewProfileServiceHandler(
		service.NewProfileService(users, d.JWTManager, logger),
		interceptors,
	)
	mux.Handle(profilePath, profileHandler)

	wishlistPath, wishlistHandler := apiconnect.NewWishlistServiceHandler(
		service.NewWishlistService(users, items),
		interceptors,
	)
	mux.Handle(wishlistPath, wishlistHandler)

	mux.Handle("/metrics", d.Metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	if d.StaticPath != "" {
		mux.Handle("/", staticHandler(d.StaticPath))
	}

	return loggingMiddleware(corsMiddleware(mux))
}

// staticHandler serves the browser bundle, falling back to index.html for
// unknown paths.
func staticHandler(staticDir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Unknown Connect procedures are not pages.
		if strings.HasPrefix(r.URL.Path, "/wishlist.v1.") {
			http.NotFound(w, r)
			return
		}

		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}

		filePath := filepath.Join(staticDir, filepath.Clean(urlPath))

		// Check if file exists
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
			return
		}

		http.ServeFile(w, r, filePath)
	})
}

// loggingMiddleware logs all non-RPC requests. RPCs are logged by the
// Connect interceptor with the caller attached.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/wishlist.v1.") || r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		next.ServeHTTP(w, r)

		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
