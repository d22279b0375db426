package view

import (
	"slices"

	"github.com/mmynk/wishlist/internal/models"
)

// ItemView is one row of the list.
type ItemView struct {
	Item       models.WishlistItem
	Expanded   bool
	Supporters []string
	// Supporting is true when the principal is among Supporters.
	Supporting bool
}

// Frame is everything a renderer needs. It shares no memory with the Model.
type Frame struct {
	// Loaded is false until the first profile snapshot arrives.
	Loaded bool
	Me     models.User

	Query   string
	Friends []models.Friend

	// Selected is the friend being viewed, nil for the principal's own list.
	Selected *models.Friend
	Owner    string
	Items    []ItemView

	Modal     Modal
	CanSubmit bool
	LastError string
}

// ViewingOwn reports whether the frame shows the principal's own list.
func (f Frame) ViewingOwn() bool {
	return f.Selected == nil
}

// Frame returns a snapshot of the current state.
func (m *Model) Frame() Frame {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := m.supporterNameLocked()

	f := Frame{
		Query:     m.query,
		Friends:   m.filteredFriendsLocked(),
		Owner:     m.ownerLocked(),
		Modal:     m.modal,
		CanSubmit: canSubmit(m.modal),
		Items:     make([]ItemView, 0, len(m.wishlist.Items)),
	}

	if m.profile != nil {
		f.Loaded = true
		f.Me = m.profile.User
		f.Me.Friends = slices.Clone(m.profile.User.Friends)
		f.Me.Wishlist = slices.Clone(m.profile.User.Wishlist)
	}

	if m.selected != "" {
		selected := models.Friend{ID: m.selected}
		if m.profile != nil {
			for _, friend := range m.profile.Friends {
				if friend.ID == m.selected {
					selected = friend
					break
				}
			}
		}
		f.Selected = &selected
	}

	if m.wishlist.OwnerID == f.Owner {
		for _, item := range m.wishlist.Items {
			names := m.board.List(item.ID)
			f.Items = append(f.Items, ItemView{
				Item:       item,
				Expanded:   item.ID == m.expanded,
				Supporters: names,
				Supporting: slices.Contains(names, name),
			})
		}
	}

	if m.lastErr != nil {
		f.LastError = m.lastErr.Error()
	}
	return f
}
