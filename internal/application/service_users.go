package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bps3275/sinora/internal/domain"
	"github.com/bps3275/sinora/internal/ports"
	"github.com/google/uuid"
)

func (s *Service) ListUsers(ctx context.Context) ([]UserProfile, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]UserProfile, 0, len(users))
	for _, user := range users {
		items = append(items, toUserProfile(user))
	}
	return items, nil
}

// ChangeRole lets an admin promote or demote another user.
func (s *Service) ChangeRole(ctx context.Context, actor ports.AuthClaims, userID int64, role string) error {
	if actor.Role != domain.RoleAdmin {
		return domain.ErrForbidden
	}
	role = strings.ToLower(strings.TrimSpace(role))
	if !domain.ValidRole(role) {
		return fmt.Errorf("%w: role must be admin or user", domain.ErrInvalidInput)
	}
	if actor.UserID == userID && role != domain.RoleAdmin {
		return fmt.Errorf("%w: admins cannot demote themselves", domain.ErrForbidden)
	}
	var revoked []domain.Session
	err := s.uow.RunInTransaction(ctx, func(ctx context.Context, tx ports.TxRepositories) error {
		target, err := tx.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if target.RoleName == role {
			return nil
		}
		now := s.nowFn()
		if err := tx.Users.UpdateRole(ctx, userID, role, now); err != nil {
			return err
		}
		// Existing tokens still carry the old role.
		revoked, err = tx.Sessions.RevokeAllByUser(ctx, userID, uuid.Nil, now)
		return err
	})
	if err != nil {
		return err
	}
	s.mirrorRevocations(ctx, revoked)
	return nil
}

// EnsureAdmin creates an admin account or promotes and re-keys an existing one.
func (s *Service) EnsureAdmin(ctx context.Context, rawNIP, name, password string) (UserProfile, bool, error) {
	nip, err := domain.NormalizeNIP(rawNIP)
	if err != nil {
		return UserProfile{}, false, err
	}
	if err := domain.ValidatePassword(password); err != nil {
		return UserProfile{}, false, err
	}
	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return UserProfile{}, false, fmt.Errorf("hash password: %w", err)
	}

	now := s.nowFn()
	existing, err := s.users.GetByNIP(ctx, nip)
	switch {
	case err == nil:
		var revoked []domain.Session
		err := s.uow.RunInTransaction(ctx, func(ctx context.Context, tx ports.TxRepositories) error {
			if err := tx.Users.UpdatePassword(ctx, existing.ID, passwordHash, now); err != nil {
				return err
			}
			if err := tx.Users.UpdateRole(ctx, existing.ID, domain.RoleAdmin, now); err != nil {
				return err
			}
			var err error
			revoked, err = tx.Sessions.RevokeAllByUser(ctx, existing.ID, uuid.Nil, now)
			return err
		})
		if err != nil {
			return UserProfile{}, false, err
		}
		s.mirrorRevocations(ctx, revoked)
		existing.RoleName = domain.RoleAdmin
		return toUserProfile(existing), false, nil
	case !errors.Is(err, domain.ErrNotFound):
		return UserProfile{}, false, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return UserProfile{}, false, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	var created domain.User
	err = s.uow.RunInTransaction(ctx, func(ctx context.Context, tx ports.TxRepositories) error {
		user, err := tx.Users.Create(ctx, domain.User{
			NIP:          nip,
			Name:         name,
			PasswordHash: passwordHash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}, domain.RoleAdmin)
		if err != nil {
			return err
		}
		created = user
		return s.enqueue(ctx, tx, eventTypeUserRegistered, fmt.Sprint(user.ID), map[string]any{
			"user_id": user.ID,
			"nip":     user.NIP,
			"role":    domain.RoleAdmin,
		})
	})
	if err != nil {
		return UserProfile{}, false, err
	}
	return toUserProfile(created), true, nil
}
