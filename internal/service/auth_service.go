package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"sweetshop/internal/auth"
	apperrors "sweetshop/internal/errors"
	"sweetshop/internal/model"
	"sweetshop/internal/repository"
)

const bcryptCost = 10

// AuthService handles registration, login and token issuance.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (token string, user *model.User, err error)
	Login(ctx context.Context, email, password string) (token string, user *model.User, err error)
	Provision(ctx context.Context, name, email, password string, role model.Role) (*model.User, error)
	CurrentUser(ctx context.Context, userID string) (*model.User, error)
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
	}
}

// Register creates a User-role account and returns a token for it.
func (s *authService) Register(ctx context.Context, name, email, password string) (string, *model.User, error) {
	user, err := s.Provision(ctx, name, email, password, model.RoleUser)
	if err != nil {
		return "", nil, err
	}

	token, err := s.issue(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Provision creates an account with an explicit role. Registration goes through here
// with RoleUser; admins are only created out of band.
func (s *authService) Provision(ctx context.Context, name, email, password string, role model.Role) (*model.User, error) {
	if blank(name) || blank(email) || password == "" {
		return nil, apperrors.ErrValidation
	}
	if _, err := model.ParseRole(string(role)); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	// Check if user already exists
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, apperrors.ErrConflict
	}
	if err != nil && !errors.Is(err, repository.ErrRecordNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration; the unique index decides.
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, apperrors.ErrConflict
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials. Unknown email and wrong password are indistinguishable
// to the caller, including in how much hashing work is done.
func (s *authService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	if blank(email) || password == "" {
		return "", nil, apperrors.ErrValidation
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrRecordNotFound) {
			return "", nil, fmt.Errorf("find user: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(s.placeholderHash(), []byte(password))
		return "", nil, apperrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.issue(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// CurrentUser loads the account behind a verified identity.
func (s *authService) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *authService) issue(user *model.User) (string, error) {
	token, err := s.jwtService.GenerateToken(auth.Identity{UserID: user.ID, Role: user.Role})
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

func (s *authService) placeholderHash() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("placeholder-password"), bcryptCost)
	})
	return s.dummyHash
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
