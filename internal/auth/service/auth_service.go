package service

import (
	"context"
	"strings"
	"time"

	"github.com/studyhaven/studyhaven-backend/internal/auth/domain"
)

type UserStore interface {
	GetByFirebaseUID(ctx context.Context, uid string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

type AuthService struct {
	userRepo UserStore
}

func NewAuthService(userRepo UserStore) *AuthService {
	return &AuthService{
		userRepo: userRepo,
	}
}

// GetProfile retrieves a user by Firebase UID
func (s *AuthService) GetProfile(ctx context.Context, uid string) (*domain.User, error) {
	return s.userRepo.GetByFirebaseUID(ctx, uid)
}

// UpdateProfile updates user information. Preferences are merged key by key;
// a nil value removes the key.
func (s *AuthService) UpdateProfile(ctx context.Context, uid string, req *domain.UpdateUserRequest) (*domain.User, error) {
	user, err := s.userRepo.GetByFirebaseUID(ctx, uid)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		user.DisplayName = &name
	}
	if req.AvatarURL != nil {
		user.AvatarURL = req.AvatarURL
	}
	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			return nil, domain.ErrInvalidTimezone
		}
		user.Timezone = *req.Timezone
	}

	if len(req.Preferences) > 0 {
		if user.Preferences == nil {
			user.Preferences = make(map[string]interface{})
		}
		for k, v := range req.Preferences {
			if v == nil {
				delete(user.Preferences, k)
				continue
			}
			user.Preferences[k] = v
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}
