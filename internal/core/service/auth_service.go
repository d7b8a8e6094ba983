package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/recetar/recetar-api/internal/core/domain"
	"github.com/recetar/recetar-api/internal/core/ports"
)

// AuthConfig holds the session policy of the auth flow.
type AuthConfig struct {
	// SessionTTL bounds tokens issued on login and refresh.
	SessionTTL time.Duration
	// ServiceTokenTTL bounds tokens issued by GetToken; zero issues tokens
	// without expiry.
	ServiceTokenTTL time.Duration
	// AppDomain is the public base URL recovery links point to.
	AppDomain string
	// RecoveryMailTimeout bounds the synchronous recovery mail, retries
	// included. It must stay below the HTTP write timeout.
	RecoveryMailTimeout time.Duration
}

const defaultRecoveryMailTimeout = 10 * time.Second

// AuthService implements registration, login and the session lifecycle.
type AuthService struct {
	users    ports.UserRepository
	roles    ports.RoleRepository
	tokens   *TokenService
	notifier ports.Notifier
	throttle ports.RecoveryThrottle
	validate *validator.Validate
	cfg      AuthConfig
	log      zerolog.Logger
}

// NewAuthService wires the auth flow. throttle may be nil to disable recovery
// rate limiting.
func NewAuthService(
	users ports.UserRepository,
	roles ports.RoleRepository,
	tokens *TokenService,
	notifier ports.Notifier,
	throttle ports.RecoveryThrottle,
	cfg AuthConfig,
	log zerolog.Logger,
) *AuthService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.RecoveryMailTimeout <= 0 {
		cfg.RecoveryMailTimeout = defaultRecoveryMailTimeout
	}
	return &AuthService{
		users:    users,
		roles:    roles,
		tokens:   tokens,
		notifier: notifier,
		throttle: throttle,
		validate: validator.New(),
		cfg:      cfg,
		log:      log,
	}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.RoleType = strings.TrimSpace(in.RoleType)

	v := &domain.ValidationError{}
	if in.Username == "" {
		v.Add("username", "username is required")
	}
	if in.Email == "" {
		v.Add("email", "email is required")
	} else if s.validate.Var(in.Email, "email") != nil {
		v.Add("email", "email must be a valid email")
	}
	if in.Password == "" {
		v.Add("password", "password is required")
	}
	if in.RoleType == "" {
		v.Add("roleType", "roleType is required")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	password, err := domain.NewPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	role, err := s.roles.FindOrCreate(ctx, in.RoleType)
	if err != nil {
		return nil, fmt.Errorf("register: resolve role: %w", err)
	}

	now := time.Now().UTC()
	created, err := s.users.Create(ctx, &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		Password:     password,
		Enrollment:   in.Enrollment,
		Cuil:         in.Cuil,
		BusinessName: in.BusinessName,
		RoleIDs:      []string{role.ID},
		RoleNames:    []string{role.Name},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if _, ok := domain.AsValidationError(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("register: create user: %w", err)
	}

	// The user already exists at this point; a failed back-reference leaves the
	// role without this member but must not fail the registration.
	if err := s.roles.AddUser(ctx, role.ID, created.ID); err != nil {
		s.log.Error().Err(err).Str("user_id", created.ID).Str("role", role.Name).Msg("failed to link user to role")
	}

	if err := s.notifier.NewUser(ctx, created); err != nil {
		s.log.Warn().Err(err).Str("user_id", created.ID).Msg("new user notification not scheduled")
	}

	s.log.Info().Str("user_id", created.ID).Str("role", role.Name).Msg("user registered")
	return created, nil
}

func (s *AuthService) Authenticate(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", fmt.Errorf("authenticate: %w", err)
	}

	if !user.Password.Verify(password) {
		return "", domain.ErrInvalidCredentials
	}
	return user.ID, nil
}

// Login issues a fresh token pair for a user already authenticated upstream.
func (s *AuthService) Login(ctx context.Context, userID string) (*domain.TokenPair, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrSessionExpired
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	refresh := s.tokens.IssueRefreshToken()
	if err := s.users.SetRefreshToken(ctx, user.ID, refresh); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrSessionExpired
		}
		return nil, fmt.Errorf("login: persist refresh token: %w", err)
	}

	return s.pairFor(user, refresh)
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// rotated out whether or not the caller uses the new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if refreshToken == "" {
		return nil, domain.ErrSessionExpired
	}

	next := s.tokens.IssueRefreshToken()
	user, err := s.users.RotateRefreshToken(ctx, refreshToken, next)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrSessionExpired
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}

	return s.pairFor(user, next)
}

func (s *AuthService) pairFor(user *domain.User, refresh string) (*domain.TokenPair, error) {
	token, err := s.tokens.IssueSessionToken(user.ID, user.Username, user.BusinessName, user.RoleNames, s.cfg.SessionTTL)
	if err != nil {
		return nil, err
	}
	return &domain.TokenPair{SessionToken: token, RefreshToken: refresh}, nil
}

// Logout clears the refresh token. Unknown or empty tokens are a no-op.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.users.ClearRefreshToken(ctx, refreshToken); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if newPassword == "" {
		return domain.NewValidationError("newPassword", "newPassword is required")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.Password.Verify(oldPassword) {
		return domain.ErrInvalidCredentials
	}

	password, err := domain.NewPassword(newPassword)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return s.users.UpdatePassword(ctx, user.ID, password)
}

// RequestPasswordRecovery stores a one-time recovery token and mails the link.
// It reports false when no user has that username.
func (s *AuthService) RequestPasswordRecovery(ctx context.Context, username string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, domain.NewValidationError("usuario", "usuario is required")
	}

	if s.throttle != nil {
		allowed, err := s.throttle.Allow(ctx, username)
		if err != nil {
			s.log.Warn().Err(err).Str("username", username).Msg("recovery throttle unavailable, continuing")
		} else if !allowed {
			return false, domain.ErrTooManyRequests
		}
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("recovery: %w", err)
	}

	token := uuid.NewString()
	if err := s.users.SetRecoveryToken(ctx, user.ID, token); err != nil {
		return false, fmt.Errorf("recovery: persist token: %w", err)
	}
	user.RecoveryToken = token

	link := strings.TrimRight(s.cfg.AppDomain, "/") + "/auth/recovery-password/" + token
	mailCtx, cancel := context.WithTimeout(ctx, s.cfg.RecoveryMailTimeout)
	defer cancel()
	if err := s.notifier.PasswordRecovery(mailCtx, user, link); err != nil {
		return false, fmt.Errorf("recovery: send mail: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("recovery mail sent")
	return true, nil
}

func (s *AuthService) RecoverPassword(ctx context.Context, token, newPassword string) error {
	v := &domain.ValidationError{}
	if token == "" {
		v.Add("authenticationToken", "authenticationToken is required")
	}
	if newPassword == "" {
		v.Add("newPassword", "newPassword is required")
	}
	if err := v.OrNil(); err != nil {
		return err
	}

	password, err := domain.NewPassword(newPassword)
	if err != nil {
		return fmt.Errorf("recover password: %w", err)
	}
	return s.users.ConsumeRecoveryToken(ctx, token, password)
}

// UpdateUser applies the mutable fields of patch. Fields outside
// domain.UserSchema, or left empty, are ignored.
func (s *AuthService) UpdateUser(ctx context.Context, id string, patch map[string]any) (*domain.UserProfile, error) {
	changes := domain.UserSchema.Patch(patch)

	if email, ok := changes["email"]; ok && s.validate.Var(email, "email") != nil {
		return nil, domain.NewValidationError("email", "email must be a valid email")
	}
	if plain, ok := changes["password"]; ok {
		password, err := domain.NewPassword(plain)
		if err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
		changes["password"] = password.Hash()
	}

	var (
		user *domain.User
		err  error
	)
	if len(changes) == 0 {
		user, err = s.users.FindByID(ctx, id)
	} else {
		user, err = s.users.Update(ctx, id, changes)
	}
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

func (s *AuthService) FindUsers(ctx context.Context, q domain.UserQuery) ([]*domain.UserProfile, error) {
	out := []*domain.UserProfile{}
	if q.IsEmpty() {
		return out, nil
	}

	users, err := s.users.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	for _, u := range users {
		out = append(out, u.Sanitized())
	}
	return out, nil
}

// AssignRole replaces the user's roles with roleID. An unknown role leaves the
// user unchanged.
func (s *AuthService) AssignRole(ctx context.Context, userID, roleID string) (*domain.User, error) {
	role, err := s.roles.FindByID(ctx, roleID)
	switch {
	case errors.Is(err, domain.ErrRoleNotFound):
		s.log.Debug().Str("role_id", roleID).Msg("assign role: unknown role ignored")
	case err != nil:
		return nil, fmt.Errorf("assign role: %w", err)
	default:
		if err := s.users.SetRoles(ctx, userID, []string{role.ID}); err != nil {
			return nil, err
		}
		if err := s.roles.AddUser(ctx, role.ID, userID); err != nil {
			s.log.Error().Err(err).Str("user_id", userID).Str("role", role.Name).Msg("failed to link user to role")
		}
	}

	return s.users.FindByID(ctx, userID)
}

// GetToken issues a session token for username without checking a password.
// Callers must be gated to trusted operators.
func (s *AuthService) GetToken(ctx context.Context, username string) (string, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	return s.tokens.IssueSessionToken(user.ID, user.Username, user.BusinessName, user.RoleNames, s.cfg.ServiceTokenTTL)
}
