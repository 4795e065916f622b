package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	authdomain "github.com/studyhaven/studyhaven-backend/internal/auth/domain"
	"github.com/studyhaven/studyhaven-backend/internal/logging"
	"github.com/studyhaven/studyhaven-backend/internal/workspaces/domain"
)

type WorkspaceStore interface {
	Create(ctx context.Context, ws *domain.Workspace) error
	Get(ctx context.Context, userID, id string) (*domain.Workspace, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Workspace, error)
	Update(ctx context.Context, ws *domain.Workspace) error
	Delete(ctx context.Context, id string) error
	ListMembers(ctx context.Context, workspaceID string) ([]domain.Member, error)
	MemberRole(ctx context.Context, workspaceID, userID string) (domain.Role, error)
	AddMember(ctx context.Context, workspaceID, userID string, role domain.Role, invitedBy string) error
	UpdateRole(ctx context.Context, workspaceID, userID string, role domain.Role) error
	RemoveMember(ctx context.Context, workspaceID, userID string) error
}

// Directory finds accounts by email.
type Directory interface {
	LookupByEmail(ctx context.Context, email string) (*authdomain.DirectoryUser, error)
}

// UserEnsurer makes sure a local user row exists for an invitee.
type UserEnsurer interface {
	EnsureUser(ctx context.Context, u authdomain.SyncUser) error
}

type WorkspaceService struct {
	workspaces WorkspaceStore
	directory  Directory
	users      UserEnsurer
	now        func() time.Time
}

func NewWorkspaceService(workspaces WorkspaceStore, directory Directory, users UserEnsurer) *WorkspaceService {
	return &WorkspaceService{
		workspaces: workspaces,
		directory:  directory,
		users:      users,
		now:        time.Now,
	}
}

func (s *WorkspaceService) Create(ctx context.Context, userID string, in domain.WorkspaceInput) (*domain.Workspace, error) {
	name, desc, err := validateWorkspace(in)
	if err != nil {
		return nil, err
	}
	ws := &domain.Workspace{
		ID:          uuid.NewString(),
		Name:        name,
		Description: desc,
		OwnerID:     userID,
	}
	if err := s.workspaces.Create(ctx, ws); err != nil {
		return nil, err
	}
	return ws, nil
}

func (s *WorkspaceService) List(ctx context.Context, userID string) ([]domain.Workspace, error) {
	return s.workspaces.ListForUser(ctx, userID)
}

func (s *WorkspaceService) Get(ctx context.Context, userID, id string) (*domain.Workspace, error) {
	return Authorize(ctx, s.workspaces, userID, id, domain.RoleViewer)
}

func (s *WorkspaceService) Update(ctx context.Context, userID, id string, in domain.WorkspaceInput) (*domain.Workspace, error) {
	ws, err := Authorize(ctx, s.workspaces, userID, id, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	name, desc, err := validateWorkspace(in)
	if err != nil {
		return nil, err
	}
	ws.Name, ws.Description = name, desc
	if err := s.workspaces.Update(ctx, ws); err != nil {
		return nil, err
	}
	return ws, nil
}

func (s *WorkspaceService) Delete(ctx context.Context, userID, id string) error {
	if _, err := Authorize(ctx, s.workspaces, userID, id, domain.RoleOwner); err != nil {
		return err
	}
	return s.workspaces.Delete(ctx, id)
}

func (s *WorkspaceService) Members(ctx context.Context, userID, id string) ([]domain.Member, error) {
	if _, err := Authorize(ctx, s.workspaces, userID, id, domain.RoleViewer); err != nil {
		return nil, err
	}
	return s.workspaces.ListMembers(ctx, id)
}

// Invite adds the account registered under req.Email. Only the owner may
// grant admin.
func (s *WorkspaceService) Invite(ctx context.Context, userID, id string, req domain.InviteRequest) (*domain.Member, error) {
	ws, err := Authorize(ctx, s.workspaces, userID, id, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if !req.Role.Assignable() {
		return nil, domain.ErrInvalidRole
	}
	if req.Role == domain.RoleAdmin && ws.Role != domain.RoleOwner {
		return nil, domain.ErrForbidden
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.ErrInvalidEmail
	}

	account, err := s.directory.LookupByEmail(ctx, email)
	if errors.Is(err, authdomain.ErrUserNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if account.UID == userID {
		return nil, domain.ErrAlreadyMember
	}

	// The invitee may never have signed in here; members reference users.
	if err := s.users.EnsureUser(ctx, authdomain.SyncUser{
		FirebaseUID: account.UID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
	}); err != nil {
		return nil, err
	}
	if err := s.workspaces.AddMember(ctx, id, account.UID, req.Role, userID); err != nil {
		return nil, err
	}

	logging.NewLogger(ctx).LogInfof("invite_member", "added %s to workspace %s as %s", account.UID, id, req.Role)
	return &domain.Member{
		UserID:      account.UID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		Role:        req.Role,
		InvitedBy:   userID,
		JoinedAt:    s.now().UTC(),
	}, nil
}

// ChangeRole sets target's role. Admin grants and changes to existing
// admins are reserved for the owner.
func (s *WorkspaceService) ChangeRole(ctx context.Context, userID, id, target string, role domain.Role) error {
	ws, err := Authorize(ctx, s.workspaces, userID, id, domain.RoleAdmin)
	if err != nil {
		return err
	}
	if !role.Assignable() {
		return domain.ErrInvalidRole
	}
	current, err := s.workspaces.MemberRole(ctx, id, target)
	if err != nil {
		return err
	}
	if current == domain.RoleOwner {
		return domain.ErrOwnerImmutable
	}
	if (role == domain.RoleAdmin || current == domain.RoleAdmin) && ws.Role != domain.RoleOwner {
		return domain.ErrForbidden
	}
	return s.workspaces.UpdateRole(ctx, id, target, role)
}

// RemoveMember removes target, or lets a member leave when target is
// themselves. The owner can never be removed.
func (s *WorkspaceService) RemoveMember(ctx context.Context, userID, id, target string) error {
	min := domain.RoleAdmin
	if target == userID {
		min = domain.RoleViewer
	}
	ws, err := Authorize(ctx, s.workspaces, userID, id, min)
	if err != nil {
		return err
	}

	current, err := s.workspaces.MemberRole(ctx, id, target)
	if err != nil {
		return err
	}
	if current == domain.RoleOwner {
		return domain.ErrOwnerImmutable
	}
	if target != userID && current == domain.RoleAdmin && ws.Role != domain.RoleOwner {
		return domain.ErrForbidden
	}
	return s.workspaces.RemoveMember(ctx, id, target)
}

type WorkspaceGetter interface {
	Get(ctx context.Context, userID, id string) (*domain.Workspace, error)
}

// Authorize loads the workspace for userID and checks the caller holds at
// least min.
func Authorize(ctx context.Context, store WorkspaceGetter, userID, id string, min domain.Role) (*domain.Workspace, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	ws, err := store.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !ws.Role.AtLeast(min) {
		return nil, domain.ErrForbidden
	}
	return ws, nil
}

func validateWorkspace(in domain.WorkspaceInput) (string, string, error) {
	name := strings.TrimSpace(in.Name)
	desc := strings.TrimSpace(in.Description)
	if name == "" || utf8.RuneCountInString(name) > domain.MaxNameLen ||
		utf8.RuneCountInString(desc) > domain.MaxDescriptionLen {
		return "", "", domain.ErrInvalidWorkspace
	}
	return name, desc, nil
}
