package http

import (
	"context"

	"github.com/studyhaven/studyhaven-backend/internal/auth/domain"
)

// ProfileService is the part of the auth service behind /me.
type ProfileService interface {
	GetProfile(ctx context.Context, uid string) (*domain.User, error)
	UpdateProfile(ctx context.Context, uid string, req *domain.UpdateUserRequest) (*domain.User, error)
}

type Handler struct {
	profiles ProfileService
}

func New(profiles ProfileService) *Handler {
	return &Handler{profiles: profiles}
}

// updateProfileReq is the PUT /me body. Absent fields are left unchanged;
// preferences are merged key by key.
type updateProfileReq struct {
	DisplayName *string        `json:"display_name,omitempty"`
	AvatarURL   *string        `json:"avatar_url,omitempty"`
	Timezone    *string        `json:"timezone,omitempty"`
	Preferences map[string]any `json:"preferences,omitempty"`
}

func (r updateProfileReq) toDomain() *domain.UpdateUserRequest {
	return &domain.UpdateUserRequest{
		DisplayName: r.DisplayName,
		AvatarURL:   r.AvatarURL,
		Timezone:    r.Timezone,
		Preferences: r.Preferences,
	}
}
