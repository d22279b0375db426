package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docopt/docopt-go"

	"github.com/mmynk/wishlist/internal/auth"
	"github.com/mmynk/wishlist/internal/client"
	"github.com/mmynk/wishlist/internal/config"
	"github.com/mmynk/wishlist/internal/storage"
	"github.com/mmynk/wishlist/pkg/logging"
)

const WishlistCtlVersion = "0.1.0"

const usage = `Wishlist control.

Store commands use STORE_DRIVER, DB_PATH and REDIS_ADDR. Client commands talk
to WISHLIST_URL and authenticate with --token or WISHLIST_TOKEN.

Usage:
    wishlistctl seed <fixture>
    wishlistctl token <uid> [--email=<email>] [--ttl=<ttl>]
    wishlistctl whoami [--token=<token>]
    wishlistctl profile [--token=<token>]
    wishlistctl watch [<owner>] [--token=<token>]
    wishlistctl add <title> [<description>] [--token=<token>]
    wishlistctl edit <id> <title> [<description>] [--token=<token>]
    wishlistctl rm <id> [--token=<token>]
    wishlistctl signout [--token=<token>]

Options:
    -h --help          Show this screen.
    --version          Show version.
    --email=<email>    Email claim for the minted token.
    --ttl=<ttl>        Token lifetime, e.g. 1h. Defaults to TOKEN_TTL.
    --token=<token>    Bearer token for client commands.`

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], WishlistCtlVersion)
	if err != nil {
		panic(err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logging.SetupWithLevel(logging.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := dispatch(ctx, cfg, opts); err != nil {
		slog.Error("Command failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, cfg *config.Config, opts docopt.Opts) error {
	if seed_, _ := opts.Bool("seed"); seed_ {
		return seed(ctx, cfg, opts)
	} else if token_, _ := opts.Bool("token"); token_ {
		return token(cfg, opts)
	} else if whoami_, _ := opts.Bool("whoami"); whoami_ {
		return whoami(ctx, cfg, opts)
	} else if profile_, _ := opts.Bool("profile"); profile_ {
		return profile(ctx, cfg, opts)
	} else if watch_, _ := opts.Bool("watch"); watch_ {
		return watch(ctx, cfg, opts)
	} else if add_, _ := opts.Bool("add"); add_ {
		return add(ctx, cfg, opts)
	} else if edit_, _ := opts.Bool("edit"); edit_ {
		return edit(ctx, cfg, opts)
	} else if rm_, _ := opts.Bool("rm"); rm_ {
		return rm(ctx, cfg, opts)
	} else if signout_, _ := opts.Bool("signout"); signout_ {
		return signout(ctx, cfg, opts)
	}
	return fmt.Errorf("no command given")
}

func seed(ctx context.Context, cfg *config.Config, opts docopt.Opts) error {
	path, _ := opts.String("<fixture>")

	f, err := loadFixture(path)
	if err != nil {
		return err
	}

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	users, items, err := f.apply(ctx, store, time.Now())
	if err != nil {
		return err
	}
	fmt.Printf("seeded %d users and %d items from %s\n", users, items, path)
	return nil
}

// token mints a bearer token for uid. Sign-in itself is outside this
// service, so this is how operators and tests obtain one.
func token(cfg *config.Config, opts docopt.Opts) error {
	if err := cfg.RequireSecret(); err != nil {
		return err
	}
	uid, _ := opts.String("<uid>")
	email, _ := opts.String("--email")

	ttl := cfg.TokenTTL
	if s, err := opts.String("--ttl"); err == nil && s != "" {
		ttl, err = time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid --ttl: %w", err)
		}
	}

	signed, err := auth.NewJWTManager(cfg.JWTSecret, ttl, nil).Generate(uid, email)
	if err != nil {
		return err
	}
	fmt.Println(signed)
	return nil
}

func newClient(cfg *config.Config, opts docopt.Opts) (*client.Client, error) {
	tok := cfg.Token
	if s, err := opts.String("--token"); err == nil && s != "" {
		tok = s
	}
	if tok == "" {
		return nil, fmt.Errorf("no token: pass --token or set WISHLIST_TOKEN")
	}
	return client.New(http.DefaultClient, cfg.ServerURL, tok), nil
}
