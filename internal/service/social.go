package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"marketplace-service/internal/model"
	"marketplace-service/internal/realtime"
	"marketplace-service/internal/repository"

	"github.com/google/uuid"
)

// Favorites keeps vendor bookmarks on suppliers
type Favorites struct {
	repo     repository.Repository
	notifier Notifier
	profiles *ProfileResolver
}

func NewFavorites(repo repository.Repository, notifier Notifier, profiles *ProfileResolver) *Favorites {
	return &Favorites{repo: repo, notifier: notifier, profiles: profiles}
}

// vendor resolves the caller, who must be a vendor
func (f *Favorites) vendor(ctx context.Context) (*model.Profile, error) {
	profile, err := f.profiles.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if err := RequireRole(profile, model.UserTypeVendor); err != nil {
		return nil, err
	}
	return profile, nil
}

// Add bookmarks a supplier. Adding an existing bookmark succeeds.
func (f *Favorites) Add(ctx context.Context, supplierID uuid.UUID) (err error) {
	defer observe("favorite_add", &err)

	profile, err := f.vendor(ctx)
	if err != nil {
		return err
	}
	if _, err := f.repo.GetSupplier(ctx, supplierID); err != nil {
		return storeErr("select supplier", err)
	}

	fav := &model.Favorite{VendorID: profile.ID, SupplierID: supplierID}
	if err := f.repo.AddFavorite(ctx, fav); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil
		}
		return storeErr("insert favorite", err)
	}

	publish(f.notifier, realtime.TableFavorites, realtime.EventInsert, fav.ID, profile.ID)
	return nil
}

// List returns the caller's bookmarks with supplier details, newest first
func (f *Favorites) List(ctx context.Context) ([]model.Favorite, error) {
	profile, err := f.profiles.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	favorites, err := f.repo.ListFavorites(ctx, profile.ID)
	if err != nil {
		return nil, storeErr("select favorites", err)
	}
	return favorites, nil
}

// Remove deletes a bookmark. Removing a missing bookmark succeeds.
func (f *Favorites) Remove(ctx context.Context, supplierID uuid.UUID) (err error) {
	defer observe("favorite_remove", &err)

	profile, err := f.vendor(ctx)
	if err != nil {
		return err
	}
	fav, err := f.repo.DeleteFavorite(ctx, profile.ID, supplierID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return storeErr("delete favorite", err)
	}

	publish(f.notifier, realtime.TableFavorites, realtime.EventDelete, fav.ID, profile.ID)
	return nil
}

// MessageInput is a message to send
type MessageInput struct {
	ReceiverID uuid.UUID  `json:"receiver_id"`
	OrderID    *uuid.UUID `json:"order_id,omitempty"`
	Message    string     `json:"message"`
}

// Messages carries free text between profiles
type Messages struct {
	repo     repository.Repository
	notifier Notifier
	profiles *ProfileResolver
}

func NewMessages(repo repository.Repository, notifier Notifier, profiles *ProfileResolver) *Messages {
	return &Messages{repo: repo, notifier: notifier, profiles: profiles}
}

// Send stores a message from the caller to another profile
func (m *Messages) Send(ctx context.Context, in MessageInput) (msg *model.Message, err error) {
	defer observe("message_send", &err)

	sender, err := m.profiles.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(in.Message)
	if text == "" {
		return nil, invalid("message", "is required")
	}
	if in.ReceiverID == uuid.Nil {
		return nil, invalid("receiver_id", "is required")
	}
	if _, err := m.repo.GetProfile(ctx, in.ReceiverID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid("receiver_id", "unknown profile")
		}
		return nil, storeErr("select profile", err)
	}
	if in.OrderID != nil {
		order, err := m.repo.GetOrder(ctx, *in.OrderID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, invalid("order_id", "unknown order")
			}
			return nil, storeErr("select order", err)
		}
		if !order.HasParty(sender.ID) {
			return nil, fmt.Errorf("%w: not a party to this order", ErrForbidden)
		}
	}

	msg = &model.Message{
		SenderID:   sender.ID,
		ReceiverID: in.ReceiverID,
		OrderID:    in.OrderID,
		Message:    text,
	}
	if err := m.repo.CreateMessage(ctx, msg); err != nil {
		return nil, storeErr("insert message", err)
	}

	publish(m.notifier, realtime.TableMessages, realtime.EventInsert, msg.ID, sender.ID, in.ReceiverID)
	return msg, nil
}

// List returns the caller's sent and received messages, oldest first,
// optionally limited to one order
func (m *Messages) List(ctx context.Context, orderID *uuid.UUID) ([]model.Message, error) {
	profile, err := m.profiles.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	messages, err := m.repo.ListMessages(ctx, profile.ID, orderID)
	if err != nil {
		return nil, storeErr("select messages", err)
	}
	return messages, nil
}

// MarkRead flags a message received by the caller as read
func (m *Messages) MarkRead(ctx context.Context, id uuid.UUID) error {
	profile, err := m.profiles.Resolve(ctx)
	if err != nil {
		return err
	}
	if err := m.repo.MarkMessageRead(ctx, id, profile.ID); err != nil {
		return storeErr("update message", err)
	}

	publish(m.notifier, realtime.TableMessages, realtime.EventUpdate, id, profile.ID)
	return nil
}
