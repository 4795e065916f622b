package auth

import (
	"context"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"

	"github.com/studyhaven/studyhaven-backend/internal/auth/domain"
)

// EmailLookup is satisfied by *firebase auth.Client.
type EmailLookup interface {
	GetUserByEmail(ctx context.Context, email string) (*fbauth.UserRecord, error)
}

// Directory resolves accounts by email through the Firebase admin API.
type Directory struct {
	client EmailLookup
}

func NewDirectory(client EmailLookup) *Directory {
	return &Directory{client: client}
}

func (d *Directory) LookupByEmail(ctx context.Context, email string) (*domain.DirectoryUser, error) {
	rec, err := d.client.GetUserByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if fbauth.IsUserNotFound(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	if rec == nil || rec.UserInfo == nil {
		return nil, domain.ErrUserNotFound
	}
	return &domain.DirectoryUser{
		UID:         rec.UID,
		Email:       rec.Email,
		DisplayName: rec.DisplayName,
	}, nil
}
