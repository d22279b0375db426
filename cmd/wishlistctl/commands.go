package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/docopt/docopt-go"

	"github.com/mmynk/wishlist/internal/config"
	"github.com/mmynk/wishlist/internal/models"
)

func whoami(ctx context.Context, cfg *config.Config, opts docopt.Opts) error {
	c, err := newClient(cfg, opts)
	if err != nil {
		return err
	}
	uid, email, err := c.Profiles.WhoAmI(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s <%s>\n", uid, email)
	return nil
}

func profile(ctx context.Context, cfg *config.Config, opts docopt.Opts) error {
	c, err := newClient(cfg, opts)
	if err != nil {
		return err
	}
	s, err := c.Profiles.Subscribe(ctx, "")
	if err != nil {
		return err
	}
	defer s.Close()

	for p := range s.C() {
		printProfile(os.Stdout, p)
	}
	return ignoreCancel(ctx, s.Err())
}

func watch(ctx context.Context, cfg *config.Config, opts docopt.Opts) error {
	owner, _ := opts.String("<owner>")

	c, err := newClient(cfg, opts)
	if err != nil {
		return err
	}
	s, err := c.Wishlists.Subscribe(ctx, owner)
	if err != nil {
		return err
	}
	defer s.Close()

	for w := range s.C() {
		printWishlist(os.Stdout, w)
	}
	return ignoreCancel(ctx, s.Err())
}

func add(ctx context.Context, cfg *config.Config, opts docopt.Opts) error {
	title, _ := opts.String("<title>")
	description, _ := opts.String("<description>")

	c, err := newClient(cfg, opts)
	if err != nil {
		return err
	}
	id, err := c.Wishlists.Create(ctx, "", title, description)
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

func edit(ctx context.Context, cfg *config.Config, opts docopt.Opts) error {
	id, _ := opts.String("<id>")
	title, _ := opts.String("<title>")
	description, _ := opts.String("<description>")

	c, err := newClient(cfg, opts)
	if err != nil {
		return err
	}
	return c.Wishlists.Update(ctx, id, title, description)
}

func rm(ctx context.Context, cfg *config.Config, opts docopt.Opts) error {
	id, _ := opts.String("<id>")

	c, err := newClient(cfg, opts)
	if err != nil {
		return err
	}
	return c.Wishlists.Delete(ctx, id)
}

func signout(ctx context.Context, cfg *config.Config, opts docopt.Opts) error {
	c, err := newClient(cfg, opts)
	if err != nil {
		return err
	}
	return c.Profiles.SignOut(ctx)
}

// ignoreCancel treats an interrupted watch as a clean exit.
func ignoreCancel(ctx context.Context, err error) error {
	if err != nil && ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printProfile(w io.Writer, p models.Profile) {
	fmt.Fprintf(w, "%s (%s) <%s>\n", displayName(p.User.Username, p.User.ID), p.User.ID, p.User.Email)
	for _, f := range p.Friends {
		fmt.Fprintf(w, "  friend %s (%s)\n", displayName(f.Username, f.ID), f.ID)
	}
}

func printWishlist(w io.Writer, list models.Wishlist) {
	fmt.Fprintf(w, "%s: %d items\n", list.OwnerID, len(list.Items))
	for _, item := range list.Items {
		line := fmt.Sprintf("  %s  %s", item.ID, item.Title)
		if item.Description != "" {
			line += " - " + item.Description
		}
		if !item.CreatedAt.IsZero() {
			line += "  (" + item.CreatedAt.Local().Format(time.DateTime) + ")"
		}
		fmt.Fprintln(w, line)
	}
}

func displayName(username, id string) string {
	if strings.TrimSpace(username) == "" {
		return id
	}
	return username
}
