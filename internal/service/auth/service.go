package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
	"golang.org/x/crypto/bcrypt"

	"github.com/medpal/assist-api/internal/model"
	"github.com/medpal/assist-api/internal/repository"
	"github.com/medpal/assist-api/pkg/auth"
	apperrors "github.com/medpal/assist-api/pkg/errors"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailRegistered    = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrMalformedEmail     = errors.New("malformed email address")
	ErrRateLimited        = errors.New("too many attempts, try again later")
)

const (
	maxLoginAttempts = 5
	lockoutDuration  = 15 * time.Minute
	bcryptCost       = 12
	minPasswordLen   = 6

	sessionCacheTTL     = 5 * time.Minute
	sessionCacheCleanup = 15 * time.Minute
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// IdentityListener receives the current identity on login and nil on
// logout.
type IdentityListener func(identity *model.Identity)

type Service struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	jwtSvc    auth.JWTService
	sessions  *cache.Cache

	mu        sync.Mutex
	listeners []IdentityListener
}

func NewService(userRepo repository.UserRepository, tokenRepo repository.TokenRepository, jwtSvc auth.JWTService) *Service {
	return &Service{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		jwtSvc:    jwtSvc,
		sessions:  cache.New(sessionCacheTTL, sessionCacheCleanup),
	}
}

// Subscribe registers a listener for identity transitions. Listeners run
// synchronously in registration order.
func (s *Service) Subscribe(fn IdentityListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Service) notify(identity *model.Identity) {
	s.mu.Lock()
	listeners := make([]IdentityListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(identity)
	}
}

func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if !emailPattern.MatchString(req.Email) {
		return nil, ErrMalformedEmail
	}
	if len(req.Password) < minPasswordLen {
		return nil, ErrWeakPassword
	}
	if req.Name == "" {
		return nil, apperrors.Validation("name is required")
	}

	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check email registration: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailRegistered
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		Name:         req.Name,
		Status:       string(model.UserStatusActive),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.Status == string(model.UserStatusLocked) {
		if user.LastLoginAt != nil && time.Since(*user.LastLoginAt) < lockoutDuration {
			return nil, ErrRateLimited
		}
		user.Status = string(model.UserStatusActive)
		user.LoginAttempts = 0
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		user.LoginAttempts++
		now := time.Now()
		user.LastLoginAt = &now

		if user.LoginAttempts >= maxLoginAttempts {
			user.Status = string(model.UserStatusLocked)
		}

		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to update login attempts: %w", err)
		}

		return nil, ErrInvalidCredentials
	}

	user.LoginAttempts = 0
	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update login timestamp: %w", err)
	}

	accessToken, err := s.jwtSvc.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.notify(&model.Identity{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	})

	return &model.TokenResponse{
		AccessToken: accessToken,
		User:        user,
	}, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err == nil && claims != nil {
		s.sessions.Delete(token)
		if err := s.tokenRepo.InvalidateToken(ctx, token, time.Now().Add(24*time.Hour)); err != nil {
			return fmt.Errorf("failed to revoke token: %w", err)
		}
	}

	s.notify(nil)
	return nil
}

// ValidateToken checks the token signature and revocation status,
// returning the authenticated identity. Validated sessions are cached.
func (s *Service) ValidateToken(ctx context.Context, token string) (*model.Identity, error) {
	if cached, found := s.sessions.Get(token); found {
		return cached.(*model.Identity), nil
	}

	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return nil, apperrors.Unauthorized(err)
	}

	revoked, err := s.tokenRepo.IsTokenInvalidated(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return nil, apperrors.Unauthorized(errors.New("token revoked"))
	}

	identity := &model.Identity{
		UserID: claims.UserID,
		Email:  claims.Email,
		Name:   claims.Name,
	}
	s.sessions.Set(token, identity, cache.DefaultExpiration)

	return identity, nil
}
