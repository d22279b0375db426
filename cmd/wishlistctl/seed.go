package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mmynk/wishlist/internal/docstore"
	"github.com/mmynk/wishlist/internal/schema"
)

// fixture is a YAML file of users and wishlist items to load into a store.
type fixture struct {
	Users []fixtureUser `yaml:"users"`
	Items []fixtureItem `yaml:"items"`
}

type fixtureUser struct {
	UID      string   `yaml:"uid"`
	Email    string   `yaml:"email"`
	Username string   `yaml:"username"`
	Friends  []string `yaml:"friends"`
}

type fixtureItem struct {
	// ID is optional; the store assigns one when empty.
	ID          string `yaml:"id"`
	Owner       string `yaml:"user"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

func loadFixture(path string) (*fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseFixture(data)
}

func parseFixture(data []byte) (*fixture, error) {
	var f fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	if err := f.validate(time.Now()); err != nil {
		return nil, err
	}
	return &f, nil
}

func (u fixtureUser) document(now time.Time) docstore.Document {
	friends := make([]any, len(u.Friends))
	for i, id := range u.Friends {
		friends[i] = id
	}
	return docstore.Document{
		schema.FieldUID:       u.UID,
		schema.FieldEmail:     u.Email,
		schema.FieldUsername:  u.Username,
		schema.FieldFriends:   friends,
		schema.FieldCreatedAt: now.UTC().Format(time.RFC3339Nano),
	}
}

func (it fixtureItem) document(now time.Time) docstore.Document {
	return docstore.Document{
		schema.FieldOwner:       it.Owner,
		schema.FieldTitle:       it.Title,
		schema.FieldDescription: it.Description,
		schema.FieldCreatedAt:   now.UTC().Format(time.RFC3339Nano),
	}
}

// validate runs every record through the same checks the syncers apply, so
// a fixture never seeds documents the service would drop.
func (f *fixture) validate(now time.Time) error {
	for i, u := range f.Users {
		if u.UID == "" {
			return fmt.Errorf("users[%d]: uid is required", i)
		}
		if _, err := schema.ParseUser(u.document(now)); err != nil {
			return fmt.Errorf("users[%d]: %w", i, err)
		}
	}
	for i, it := range f.Items {
		if it.Owner == "" {
			return fmt.Errorf("items[%d]: user is required", i)
		}
		id := it.ID
		if id == "" {
			// Assigned by the store on apply.
			id = "pending"
		}
		if _, err := schema.ParseWishlistItem(docstore.Snapshot{ID: id, Data: it.document(now)}); err != nil {
			return fmt.Errorf("items[%d]: %w", i, err)
		}
	}
	return nil
}

// apply writes the fixture. Users and items with an id replace any existing
// document; items without one are added.
func (f *fixture) apply(ctx context.Context, store docstore.Store, now time.Time) (users, items int, err error) {
	for _, u := range f.Users {
		if err := store.Set(ctx, schema.Users, u.UID, u.document(now)); err != nil {
			return users, items, fmt.Errorf("failed to seed user %s: %w", u.UID, err)
		}
		users++
	}
	for _, it := range f.Items {
		if it.ID == "" {
			_, err = store.Add(ctx, schema.WishlistItems, it.document(now))
		} else {
			err = store.Set(ctx, schema.WishlistItems, it.ID, it.document(now))
		}
		if err != nil {
			return users, items, fmt.Errorf("failed to seed item %q: %w", it.Title, err)
		}
		items++
	}
	return users, items, nil
}
