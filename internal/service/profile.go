package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"marketplace-service/internal/model"
	"marketplace-service/internal/realtime"
	"marketplace-service/internal/repository"
	"marketplace-service/pkg/logger"

	"go.uber.org/zap"
)

// ProfileInput is the editable part of a profile
type ProfileInput struct {
	FullName     string         `json:"full_name"`
	BusinessName string         `json:"business_name"`
	Phone        string         `json:"phone"`
	Address      string         `json:"address"`
	City         string         `json:"city"`
	State        string         `json:"state"`
	Pincode      string         `json:"pincode"`
	AvatarURL    string         `json:"avatar_url"`
	UserType     model.UserType `json:"user_type"`
}

func (in *ProfileInput) normalize() {
	in.FullName = strings.TrimSpace(in.FullName)
	in.BusinessName = strings.TrimSpace(in.BusinessName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.City = strings.TrimSpace(in.City)
	in.State = strings.TrimSpace(in.State)
	in.Pincode = strings.TrimSpace(in.Pincode)
}

func (in *ProfileInput) apply(p *model.Profile) {
	p.FullName = in.FullName
	p.BusinessName = in.BusinessName
	p.Phone = in.Phone
	p.Address = in.Address
	p.City = in.City
	p.State = in.State
	p.Pincode = in.Pincode
	p.AvatarURL = in.AvatarURL
}

// ProfileResolver maps the request identity to its profile. Nothing is
// cached; every operation resolves again.
type ProfileResolver struct {
	repo     repository.Repository
	notifier Notifier
}

func NewProfileResolver(repo repository.Repository, notifier Notifier) *ProfileResolver {
	return &ProfileResolver{repo: repo, notifier: notifier}
}

// Resolve returns the profile of the identity on ctx
func (r *ProfileResolver) Resolve(ctx context.Context) (*model.Profile, error) {
	identity, ok := IdentityFrom(ctx)
	if !ok {
		return nil, ErrNotAuthenticated
	}

	profile, err := r.repo.FindProfileByUserID(ctx, identity)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProfileMissing
	}
	if err != nil {
		return nil, storeErr("select profile", err)
	}
	return profile, nil
}

// RequireRole fails with ErrForbidden unless the profile has the given role
func RequireRole(p *model.Profile, role model.UserType) error {
	if p.UserType != role {
		return fmt.Errorf("%w: %s role required", ErrForbidden, role)
	}
	return nil
}

// Register creates the profile of the identity on ctx
func (r *ProfileResolver) Register(ctx context.Context, in ProfileInput) (profile *model.Profile, err error) {
	defer observe("profile_register", &err)

	identity, ok := IdentityFrom(ctx)
	if !ok {
		return nil, ErrNotAuthenticated
	}

	in.normalize()
	if in.FullName == "" {
		return nil, invalid("full_name", "is required")
	}
	if !in.UserType.Valid() {
		return nil, invalid("user_type", "must be vendor or supplier")
	}

	profile = &model.Profile{UserID: identity, UserType: in.UserType}
	in.apply(profile)
	if err := r.repo.CreateProfile(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("profile for identity: %w", ErrConflict)
		}
		return nil, storeErr("insert profile", err)
	}

	logger.FromCtx(ctx).Info("Profile registered",
		zap.String("profile_id", profile.ID.String()),
		zap.String("user_type", string(profile.UserType)))
	publish(r.notifier, realtime.TableProfiles, realtime.EventInsert, profile.ID)
	return profile, nil
}

// UpdateOwn changes the caller's profile. The user type is fixed at signup.
func (r *ProfileResolver) UpdateOwn(ctx context.Context, in ProfileInput) (profile *model.Profile, err error) {
	defer observe("profile_update", &err)

	profile, err = r.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	in.normalize()
	if in.FullName == "" {
		return nil, invalid("full_name", "is required")
	}
	if in.UserType != "" && in.UserType != profile.UserType {
		return nil, invalid("user_type", "cannot be changed")
	}

	in.apply(profile)
	if err := r.repo.UpdateProfile(ctx, profile); err != nil {
		return nil, storeErr("update profile", err)
	}

	publish(r.notifier, realtime.TableProfiles, realtime.EventUpdate, profile.ID)
	return profile, nil
}
