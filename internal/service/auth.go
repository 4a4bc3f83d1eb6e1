package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/iliyamo/cinema-reservation-api/internal/model"
	"github.com/iliyamo/cinema-reservation-api/internal/repository"
	"github.com/iliyamo/cinema-reservation-api/internal/utils"
)

// AuthConfig carries the token and hashing settings.
type AuthConfig struct {
	JWTSecret      string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int
}

// Session is the result of a successful sign-in: the user together with
// a fresh access token and refresh token.
type Session struct {
	User    *model.User
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

// RegisterInput is the data needed to open a USER account.
type RegisterInput struct {
	Email       string
	Password    string
	FullName    string
	PhoneNumber *string
}

// AuthService registers users and issues, rotates and revokes tokens.
// Refresh tokens are stored as SHA-256 hashes only.
type AuthService struct {
	users  UserStore
	tokens TokenStore
	cfg    AuthConfig
	logger *slog.Logger
}

func NewAuthService(users UserStore, tokens TokenStore, cfg AuthConfig, logger *slog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, cfg: cfg, logger: logger}
}

// Register creates a USER account and signs it in.  Registration never
// grants ADMIN.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{
		Email:        normalizeEmail(in.Email),
		PasswordHash: hash,
		Role:         model.RoleUser,
		FullName:     strings.TrimSpace(in.FullName),
		PhoneNumber:  in.PhoneNumber,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, conflict("Email already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return s.issue(ctx, u)
}

// Login verifies the credentials and returns a new token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, unauthorized("Invalid credentials")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) || !u.IsActive {
		return nil, unauthorized("Invalid credentials")
	}
	return s.issue(ctx, u)
}

// Refresh validates a refresh token, revokes it and issues a new pair.
func (s *AuthService) Refresh(ctx context.Context, raw string) (*Session, error) {
	u, hash, err := s.redeem(ctx, raw)
	if err != nil {
		return nil, err
	}
	if err := s.revoke(ctx, hash); err != nil {
		return nil, err
	}
	return s.issue(ctx, u)
}

// RefreshAccess returns a new access token without rotating the
// refresh token.
func (s *AuthService) RefreshAccess(ctx context.Context, raw string) (utils.AccessToken, error) {
	u, _, err := s.redeem(ctx, raw)
	if err != nil {
		return utils.AccessToken{}, err
	}
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, u.ID, u.Role, s.cfg.AccessTTLMin)
	if err != nil {
		return utils.AccessToken{}, fmt.Errorf("issue access token: %w", err)
	}
	return access, nil
}

// Logout revokes a single refresh token when raw is given, otherwise
// every refresh token of userID.
func (s *AuthService) Logout(ctx context.Context, raw string, userID uint64) error {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		return s.revoke(ctx, utils.HashRefreshRaw(raw))
	}
	if userID == 0 {
		return invalid("Provide Authorization header or refresh_token")
	}
	if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}

// Me returns the account of the caller.
func (s *AuthService) Me(ctx context.Context, p model.Principal) (*model.User, error) {
	u, err := s.users.GetByID(ctx, p.ID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, notFound("User not found")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

// SetRole grants role to user id.  An admin cannot change their own
// role, so the last admin cannot lock everyone out by accident.  Tokens
// already issued keep their role until they expire; the next refresh
// picks up the new one.
func (s *AuthService) SetRole(ctx context.Context, actor model.Principal, id uint64, role string) (*model.User, error) {
	if role != model.RoleUser && role != model.RoleAdmin {
		return nil, invalid("Role must be %s or %s", model.RoleUser, model.RoleAdmin)
	}
	if actor.ID == id {
		return nil, conflict("Admins cannot change their own role")
	}
	if err := s.users.SetRole(ctx, id, role); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, notFound("User not found")
		}
		return nil, fmt.Errorf("set role: %w", err)
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	s.logger.Info("user role changed", "user_id", id, "role", role, "by", actor.ID)
	return u, nil
}

// EnsureAdmin makes sure an ADMIN account exists for email, creating
// it with password or promoting an existing account.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	u, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if u.Role == model.RoleAdmin {
			return nil
		}
		if err := s.users.SetRole(ctx, u.ID, model.RoleAdmin); err != nil {
			return fmt.Errorf("promote admin: %w", err)
		}
		s.logger.Info("promoted existing user to admin", "user_id", u.ID)
		return nil
	case !errors.Is(err, repository.ErrUserNotFound):
		return fmt.Errorf("load admin: %w", err)
	}

	hash, err := utils.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	admin := &model.User{
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		FullName:     "Administrator",
		IsActive:     true,
	}
	if err := s.users.Create(ctx, admin); err != nil && !errors.Is(err, repository.ErrEmailExists) {
		return fmt.Errorf("create admin: %w", err)
	}
	s.logger.Info("seeded admin account", "email", admin.Email)
	return nil
}

func (s *AuthService) redeem(ctx context.Context, raw string) (*model.User, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, "", invalid("refresh_token required")
	}
	hash := utils.HashRefreshRaw(raw)
	userID, err := s.tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrTokenInvalid) {
			return nil, "", unauthorized("Invalid refresh token")
		}
		return nil, "", fmt.Errorf("validate refresh token: %w", err)
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", unauthorized("Invalid refresh token")
		}
		return nil, "", fmt.Errorf("load user: %w", err)
	}
	if !u.IsActive {
		return nil, "", unauthorized("Account disabled")
	}
	return u, hash, nil
}

// revoke fails with Unauthorized when the token was already revoked,
// including by a concurrent refresh of the same token.
func (s *AuthService) revoke(ctx context.Context, hash string) error {
	if err := s.tokens.RevokeByHash(ctx, hash); err != nil {
		if errors.Is(err, repository.ErrTokenInvalid) {
			return unauthorized("Invalid refresh token")
		}
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (s *AuthService) issue(ctx context.Context, u *model.User) (*Session, error) {
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, u.ID, u.Role, s.cfg.AccessTTLMin)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshTTLDays)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	if err := s.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}
	return &Session{User: u, Access: access, Refresh: refresh}, nil
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }
