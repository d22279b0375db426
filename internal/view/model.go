// Package view holds the headless state behind the wishlist screen: whose
// list is shown, the friend search, the expanded item, the add/edit modal and
// supporter chips. A renderer reads immutable Frames and forwards user
// intents to the Model's methods.
package view

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mmynk/wishlist/internal/models"
	"github.com/mmynk/wishlist/internal/stream"
	"github.com/mmynk/wishlist/internal/supporters"
	"github.com/mmynk/wishlist/internal/syncer"
)

var (
	// ErrBlankTitle is returned by Submit when the title is blank.
	ErrBlankTitle = errors.New("title must not be blank")
	// ErrModalClosed is returned by Submit when no modal is open.
	ErrModalClosed = errors.New("no item is being added or edited")
	// ErrNotStarted is returned by operations that need Start first.
	ErrNotStarted = errors.New("view not started")
	// ErrNotOwnItem is returned when deleting an item that is not one of the
	// principal's items on the list being shown.
	ErrNotOwnItem = errors.New("item is not on your wishlist")
)

// ProfileSource streams a user's profile.
type ProfileSource interface {
	Subscribe(ctx context.Context, userID string) (*stream.Stream[models.Profile], error)
}

// WishlistStore streams wishlists and performs item mutations. Both the
// in-process syncer and the remote client implement it.
type WishlistStore interface {
	syncer.WishlistSource
	Create(ctx context.Context, ownerID, title, description string) (string, error)
	Update(ctx context.Context, itemID, title, description string) error
	Delete(ctx context.Context, itemID string) error
}

// ModalMode says what the item modal is doing.
type ModalMode int

const (
	ModalClosed ModalMode = iota
	ModalAdding
	ModalEditing
)

// Modal is the state of the add/edit dialog.
type Modal struct {
	Mode        ModalMode
	ItemID      string
	Title       string
	Description string
}

// Model is one signed-in user's view session. It is safe for concurrent use.
type Model struct {
	principal string
	profiles  ProfileSource
	wishlists WishlistStore
	board     *supporters.Board
	logger    *slog.Logger

	mu       sync.Mutex
	profile  *models.Profile
	selected string
	wishlist models.Wishlist
	query    string
	expanded string
	modal    Modal
	lastErr  error

	changes       chan struct{}
	profileStream *stream.Stream[models.Profile]
	follower      *syncer.Follower
	wg            sync.WaitGroup
}

// New creates a view for principal. board holds this session's supporter
// annotations.
func New(principal string, profiles ProfileSource, wishlists WishlistStore, board *supporters.Board, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.Default()
	}
	return &Model{
		principal: principal,
		profiles:  profiles,
		wishlists: wishlists,
		board:     board,
		logger:    logger.With("user_id", principal),
		changes:   make(chan struct{}, 1),
	}
}

// Start subscribes to the principal's profile and own wishlist.
func (m *Model) Start(ctx context.Context) error {
	profiles, err := m.profiles.Subscribe(ctx, m.principal)
	if err != nil {
		return err
	}

	follower := syncer.NewFollower(m.wishlists)
	if err := follower.Switch(ctx, m.principal); err != nil {
		profiles.Close()
		return err
	}

	m.mu.Lock()
	m.profileStream = profiles
	m.follower = follower
	m.mu.Unlock()

	m.wg.Add(2)
	go func() {
		defer m.wg.Done()
		for p := range profiles.C() {
			m.applyProfile(p)
		}
		if err := profiles.Err(); err != nil {
			m.fail("Profile stream ended", err)
		}
	}()
	go func() {
		defer m.wg.Done()
		for w := range follower.C() {
			m.applyWishlist(w)
		}
	}()

	return nil
}

// Close releases both subscriptions and waits for them to stop.
func (m *Model) Close() {
	m.mu.Lock()
	profiles, follower := m.profileStream, m.follower
	m.mu.Unlock()

	if profiles != nil {
		profiles.Close()
	}
	if follower != nil {
		follower.Close()
	}
	m.wg.Wait()
}

// Changes signals that the frame may have changed. Signals coalesce.
func (m *Model) Changes() <-chan struct{} {
	return m.changes
}

func (m *Model) notify() {
	select {
	case m.changes <- struct{}{}:
	default:
	}
}

func (m *Model) applyProfile(p models.Profile) {
	m.mu.Lock()
	m.profile = &p
	m.mu.Unlock()
	m.notify()
}

func (m *Model) applyWishlist(w models.Wishlist) {
	m.mu.Lock()
	if w.OwnerID != m.ownerLocked() {
		m.mu.Unlock()
		return
	}
	m.wishlist = w
	if _, ok := w.Find(m.expanded); !ok {
		m.expanded = ""
	}
	m.mu.Unlock()
	m.notify()
}

func (m *Model) ownerLocked() string {
	if m.selected != "" {
		return m.selected
	}
	return m.principal
}

// fail logs err and records it for display.
func (m *Model) fail(msg string, err error) {
	m.logger.Error(msg, "error", err)
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
	m.notify()
}

// SelectSelf shows the principal's own list.
func (m *Model) SelectSelf(ctx context.Context) error {
	return m.follow(ctx, "")
}

// SelectFriend shows friendID's list.
func (m *Model) SelectFriend(ctx context.Context, friendID string) error {
	if friendID == m.principal {
		friendID = ""
	}
	return m.follow(ctx, friendID)
}

func (m *Model) follow(ctx context.Context, selected string) error {
	m.mu.Lock()
	follower := m.follower
	if follower == nil {
		m.mu.Unlock()
		return ErrNotStarted
	}
	m.selected = selected
	owner := m.ownerLocked()
	if m.wishlist.OwnerID != owner {
		m.wishlist = models.Wishlist{OwnerID: owner}
		m.expanded = ""
	}
	m.mu.Unlock()
	m.notify()

	if err := follower.Switch(ctx, owner); err != nil {
		m.fail("Failed to switch wishlist", err)
		return err
	}
	return nil
}

// SetQuery sets the friend search text.
func (m *Model) SetQuery(q string) {
	m.mu.Lock()
	m.query = q
	m.mu.Unlock()
	m.notify()
}

// FilteredFriends returns the resolved friends whose username contains the
// trimmed query, ignoring case.
func (m *Model) FilteredFriends() []models.Friend {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filteredFriendsLocked()
}

func (m *Model) filteredFriendsLocked() []models.Friend {
	if m.profile == nil {
		return []models.Friend{}
	}
	q := strings.ToLower(strings.TrimSpace(m.query))
	out := make([]models.Friend, 0, len(m.profile.Friends))
	for _, f := range m.profile.Friends {
		if strings.Contains(strings.ToLower(f.Username), q) {
			out = append(out, f)
		}
	}
	return out
}

// ToggleItem expands itemID, or collapses it if it is already expanded.
// At most one item is expanded.
func (m *Model) ToggleItem(itemID string) {
	m.mu.Lock()
	if m.expanded == itemID {
		m.expanded = ""
	} else {
		m.expanded = itemID
	}
	m.mu.Unlock()
	m.notify()
}

// OpenAdd opens an empty modal for a new item.
func (m *Model) OpenAdd() {
	m.mu.Lock()
	m.modal = Modal{Mode: ModalAdding}
	m.mu.Unlock()
	m.notify()
}

// OpenEdit opens the modal prefilled with one of the principal's items.
// Reports false if the item is not on the list being shown or is not the
// principal's.
func (m *Model) OpenEdit(itemID string) bool {
	m.mu.Lock()
	item, ok := m.wishlist.Find(itemID)
	if !ok || item.Owner != m.principal {
		m.mu.Unlock()
		return false
	}
	m.modal = Modal{
		Mode:        ModalEditing,
		ItemID:      item.ID,
		Title:       item.Title,
		Description: item.Description,
	}
	m.mu.Unlock()
	m.notify()
	return true
}

// CloseModal discards the modal and its fields.
func (m *Model) CloseModal() {
	m.mu.Lock()
	m.modal = Modal{}
	m.mu.Unlock()
	m.notify()
}

// SetTitle updates the modal's title field.
func (m *Model) SetTitle(title string) {
	m.mu.Lock()
	m.modal.Title = title
	m.mu.Unlock()
	m.notify()
}

// SetDescription updates the modal's description field.
func (m *Model) SetDescription(description string) {
	m.mu.Lock()
	m.modal.Description = description
	m.mu.Unlock()
	m.notify()
}

// CanSubmit reports whether the modal is open with a non-blank title.
func (m *Model) CanSubmit() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return canSubmit(m.modal)
}

func canSubmit(modal Modal) bool {
	return modal.Mode != ModalClosed && strings.TrimSpace(modal.Title) != ""
}

// Submit creates or updates the item in the modal and closes it. The list is
// not updated locally; the change arrives through the subscription. On error
// the modal stays open and the error is recorded.
func (m *Model) Submit(ctx context.Context) error {
	m.mu.Lock()
	modal := m.modal
	m.mu.Unlock()

	if modal.Mode == ModalClosed {
		return ErrModalClosed
	}
	if !canSubmit(modal) {
		return ErrBlankTitle
	}

	var err error
	switch modal.Mode {
	case ModalAdding:
		_, err = m.wishlists.Create(ctx, m.principal, modal.Title, modal.Description)
	case ModalEditing:
		err = m.wishlists.Update(ctx, modal.ItemID, modal.Title, modal.Description)
	}
	if err != nil {
		m.fail("Failed to save item", err)
		return err
	}

	m.mu.Lock()
	if m.modal == modal {
		m.modal = Modal{}
	}
	m.lastErr = nil
	m.mu.Unlock()
	m.notify()
	return nil
}

// DeleteItem removes one of the principal's items. The item must be on the
// list being shown and owned by the principal.
func (m *Model) DeleteItem(ctx context.Context, itemID string) error {
	m.mu.Lock()
	item, ok := m.wishlist.Find(itemID)
	m.mu.Unlock()
	if !ok || item.Owner != m.principal {
		m.fail("Refusing to delete item", fmt.Errorf("%w: %s", ErrNotOwnItem, itemID))
		return ErrNotOwnItem
	}

	if err := m.wishlists.Delete(ctx, itemID); err != nil {
		m.fail("Failed to delete item", err)
		return err
	}
	return nil
}

// ToggleSupport adds or removes the principal as a supporter of itemID.
// Only items on the friend's list being shown can be supported. Reports
// whether the principal supports the item afterwards.
func (m *Model) ToggleSupport(itemID string) bool {
	m.mu.Lock()
	_, ok := m.wishlist.Find(itemID)
	if m.selected == "" || m.wishlist.OwnerID != m.selected || !ok {
		m.mu.Unlock()
		return false
	}
	name := m.supporterNameLocked()
	m.mu.Unlock()

	supporting := m.board.Toggle(itemID, name)
	m.notify()
	return supporting
}

func (m *Model) supporterNameLocked() string {
	if m.profile != nil && m.profile.User.Username != "" {
		return m.profile.User.Username
	}
	return m.principal
}

// LastError returns the most recent mutation or stream error, or nil.
func (m *Model) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// ClearError dismisses the recorded error.
func (m *Model) ClearError() {
	m.mu.Lock()
	m.lastErr = nil
	m.mu.Unlock()
	m.notify()
}
