package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bps3275/sinora/internal/domain"
	"github.com/bps3275/sinora/internal/ports"
	"github.com/google/uuid"
)

const maxNameLength = 100

func (s *Service) Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	nip, err := domain.NormalizeNIP(req.NIP)
	if err != nil {
		return RegisterResponse{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return RegisterResponse{}, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if len(name) > maxNameLength {
		return RegisterResponse{}, fmt.Errorf("%w: name must be at most %d characters", domain.ErrInvalidInput, maxNameLength)
	}
	if err := domain.ValidatePassword(req.Password); err != nil {
		return RegisterResponse{}, err
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return RegisterResponse{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.nowFn()
	var created domain.User
	err = s.uow.RunInTransaction(ctx, func(ctx context.Context, tx ports.TxRepositories) error {
		user, err := tx.Users.Create(ctx, domain.User{
			NIP:          nip,
			Name:         name,
			PasswordHash: passwordHash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}, domain.RoleUser)
		if err != nil {
			return err
		}
		created = user
		return s.enqueue(ctx, tx, eventTypeUserRegistered, strconv.FormatInt(user.ID, 10), map[string]any{
			"user_id": user.ID,
			"nip":     user.NIP,
		})
	})
	if err != nil {
		return RegisterResponse{}, err
	}
	return RegisterResponse{UserID: created.ID}, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	nip, err := domain.NormalizeNIP(req.NIP)
	if err != nil {
		return LoginResponse{}, err
	}
	if req.Password == "" {
		return LoginResponse{}, fmt.Errorf("%w: password is required", domain.ErrInvalidInput)
	}

	lockKey := "login:" + nip
	if s.lockouts != nil {
		lockState, err := s.lockouts.Get(ctx, lockKey)
		if err == nil && lockState.LockedUntil != nil && lockState.LockedUntil.After(s.nowFn()) {
			return LoginResponse{}, domain.ErrAccountLocked
		}
	}

	user, err := s.users.GetByNIP(ctx, nip)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return LoginResponse{}, err
		}
		logger().InfoContext(ctx, "login rejected",
			"operation", "login",
			"outcome", "failure",
			"reason", "USER_NOT_FOUND",
			"ip_address", req.IPAddress,
		)
		return LoginResponse{}, domain.ErrInvalidCredentials
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		logger().InfoContext(ctx, "login rejected",
			"operation", "login",
			"outcome", "failure",
			"reason", "INVALID_PASSWORD",
			"user_id", user.ID,
			"ip_address", req.IPAddress,
		)
		if s.lockouts != nil {
			state, err := s.lockouts.RecordFailure(ctx, lockKey, s.nowFn(), s.cfg.FailedLoginThreshold, s.cfg.LockoutDuration)
			if err == nil && state.LockedUntil != nil && state.LockedUntil.After(s.nowFn()) {
				return LoginResponse{}, domain.ErrAccountLocked
			}
		}
		return LoginResponse{}, domain.ErrInvalidCredentials
	}

	if s.lockouts != nil {
		_ = s.lockouts.Clear(ctx, lockKey)
	}

	now := s.nowFn()
	session, err := s.sessions.Create(ctx, ports.SessionCreateParams{
		UserID:    user.ID,
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
	})
	if err != nil {
		return LoginResponse{}, fmt.Errorf("create session: %w", err)
	}

	expiresAt := now.Add(s.cfg.TokenTTL)
	if session.ExpiresAt.Before(expiresAt) {
		expiresAt = session.ExpiresAt
	}
	token, err := s.tokenSigner.Sign(ports.AuthClaims{
		UserID:    user.ID,
		NIP:       user.NIP,
		Name:      user.Name,
		Role:      user.RoleName,
		SessionID: session.SessionID,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return LoginResponse{}, fmt.Errorf("sign token: %w", err)
	}

	logger().InfoContext(ctx, "login succeeded",
		"operation", "login",
		"outcome", "success",
		"user_id", user.ID,
		"session_id", session.SessionID,
	)
	return LoginResponse{
		Token:     token,
		SessionID: session.SessionID.String(),
		ExpiresIn: int64(expiresAt.Sub(now).Seconds()),
		User:      toUserProfile(user),
	}, nil
}

// ValidateToken verifies token integrity and current session validity. The
// returned role is read from the users table, not the token.
func (s *Service) ValidateToken(ctx context.Context, token string) (ports.AuthClaims, error) {
	claims, err := s.tokenSigner.ParseAndValidate(token)
	if err != nil {
		return ports.AuthClaims{}, domain.ErrUnauthorized
	}
	if s.revocations != nil {
		if revoked, _ := s.revocations.IsRevoked(ctx, claims.SessionID); revoked {
			return ports.AuthClaims{}, domain.ErrSessionRevoked
		}
	}
	session, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		return ports.AuthClaims{}, domain.ErrUnauthorized
	}
	if session.UserID != claims.UserID {
		return ports.AuthClaims{}, domain.ErrUnauthorized
	}
	if session.RevokedAt != nil {
		return ports.AuthClaims{}, domain.ErrSessionRevoked
	}
	if session.ExpiresAt.Before(s.nowFn()) {
		return ports.AuthClaims{}, domain.ErrSessionExpired
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return ports.AuthClaims{}, domain.ErrUnauthorized
	}
	claims.Role = user.RoleName
	return claims, nil
}

func (s *Service) Logout(ctx context.Context, claims ports.AuthClaims) error {
	now := s.nowFn()
	if err := s.sessions.RevokeByID(ctx, claims.SessionID, now); err != nil {
		return err
	}
	s.markRevoked(ctx, claims.SessionID.String(), func() error {
		return s.revocations.MarkRevoked(ctx, claims.SessionID, claims.ExpiresAt)
	})
	return nil
}

func (s *Service) Me(ctx context.Context, claims ports.AuthClaims) (UserProfile, error) {
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return UserProfile{}, err
	}
	return toUserProfile(user), nil
}

func (s *Service) ChangePassword(ctx context.Context, claims ports.AuthClaims, req ChangePasswordRequest) error {
	if req.OldPassword == "" {
		return fmt.Errorf("%w: old_password is required", domain.ErrInvalidInput)
	}
	if err := domain.ValidatePassword(req.NewPassword); err != nil {
		return err
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return err
	}
	if err := s.hasher.Compare(user.PasswordHash, req.OldPassword); err != nil {
		return fmt.Errorf("%w: old password is incorrect", domain.ErrForbidden)
	}
	passwordHash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.replacePassword(ctx, user.ID, passwordHash, claims.SessionID)
}

// CheckNIP starts the forgot-password flow and hands back a one-time reset token.
func (s *Service) CheckNIP(ctx context.Context, rawNIP, ipAddress string) (CheckNIPResponse, error) {
	nip, err := domain.NormalizeNIP(rawNIP)
	if err != nil {
		return CheckNIPResponse{}, err
	}
	if err := s.enforceRateLimit(ctx, "reset:nip:"+nip, s.cfg.ResetRateLimit, s.cfg.ResetRateLimitWindow); err != nil {
		return CheckNIPResponse{}, err
	}
	if ipAddress != "" {
		if err := s.enforceRateLimit(ctx, "reset:ip:"+ipAddress, s.cfg.ResetRateLimit*5, s.cfg.ResetRateLimitWindow); err != nil {
			return CheckNIPResponse{}, err
		}
	}
	if s.resetTokens == nil {
		return CheckNIPResponse{}, errors.New("reset token store is not configured")
	}

	user, err := s.users.GetByNIP(ctx, nip)
	if err != nil {
		return CheckNIPResponse{}, err
	}

	token := randomHex(32)
	if err := s.resetTokens.Put(ctx, hashToken(token), user.ID, s.cfg.ResetTokenTTL); err != nil {
		return CheckNIPResponse{}, fmt.Errorf("store reset token: %w", err)
	}
	return CheckNIPResponse{
		ResetToken: token,
		ExpiresIn:  int64(s.cfg.ResetTokenTTL.Seconds()),
	}, nil
}

func (s *Service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if strings.TrimSpace(req.ResetToken) == "" {
		return fmt.Errorf("%w: reset_token is required", domain.ErrInvalidInput)
	}
	if err := domain.ValidatePassword(req.NewPassword); err != nil {
		return err
	}
	if s.resetTokens == nil {
		return errors.New("reset token store is not configured")
	}

	userID, ok, err := s.resetTokens.Consume(ctx, hashToken(req.ResetToken))
	if err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}
	if !ok {
		return domain.ErrUnauthorized
	}

	passwordHash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.replacePassword(ctx, userID, passwordHash, uuid.Nil)
}

// replacePassword stores the new hash and revokes every other session in one transaction.
func (s *Service) replacePassword(ctx context.Context, userID int64, passwordHash string, keep uuid.UUID) error {
	var revoked []domain.Session
	err := s.uow.RunInTransaction(ctx, func(ctx context.Context, tx ports.TxRepositories) error {
		now := s.nowFn()
		if err := tx.Users.UpdatePassword(ctx, userID, passwordHash, now); err != nil {
			return err
		}
		var err error
		revoked, err = tx.Sessions.RevokeAllByUser(ctx, userID, keep, now)
		return err
	})
	if err != nil {
		return err
	}
	s.mirrorRevocations(ctx, revoked)
	return nil
}

// mirrorRevocations copies committed revocations into the cache.
func (s *Service) mirrorRevocations(ctx context.Context, revoked []domain.Session) {
	for _, session := range revoked {
		session := session
		s.markRevoked(ctx, session.SessionID.String(), func() error {
			return s.revocations.MarkRevoked(ctx, session.SessionID, session.ExpiresAt)
		})
	}
}

// markRevoked best-effort mirrors a revocation into the cache; the database stays authoritative.
func (s *Service) markRevoked(ctx context.Context, sessionID string, mark func() error) {
	if s.revocations == nil {
		return
	}
	if err := mark(); err != nil {
		logger().WarnContext(ctx, "session revocation marker not stored",
			"operation", "mark_revoked",
			"outcome", "warning",
			"session_id", sessionID,
			"error", err,
		)
	}
}

func toUserProfile(user domain.User) UserProfile {
	return UserProfile{
		ID:   user.ID,
		NIP:  user.NIP,
		Name: user.Name,
		Role: user.RoleName,
	}
}
