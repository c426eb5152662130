package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/samirrijal/geolocator/internal/core/domain"
	"github.com/samirrijal/geolocator/internal/core/ports"
)

// Session is an issued login token.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *domain.User `json:"user"`
}

// ProfileUpdate holds the optional fields of a profile change.
type ProfileUpdate struct {
	Username *string
	Password *string
}

// UserService handles registration, login and profile management.
type UserService struct {
	users  ports.UserRepository
	tokens ports.TokenIssuer
	cost   int
	now    func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(users ports.UserRepository, tokens ports.TokenIssuer) *UserService {
	return &UserService{users: users, tokens: tokens, cost: bcrypt.DefaultCost, now: time.Now}
}

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *UserService) WithHashCost(cost int) *UserService {
	s.cost = cost
	return s
}

func normalizeUsername(u string) string {
	return strings.TrimSpace(u)
}

func validateUsername(u string) error {
	if len(u) < 3 || len(u) > 24 {
		return domain.ErrInvalidUsername
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return domain.ErrInvalidUsername
		}
	}
	return nil
}

func validatePassword(p string) error {
	if len(p) < 8 || len(p) > 100 {
		return domain.ErrInvalidPassword
	}
	return nil
}

// Register creates a player with a zeroed aggregate.
func (s *UserService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username = normalizeUsername(username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login checks credentials and issues a token. Unknown users and wrong
// passwords return the same error.
func (s *UserService) Login(ctx context.Context, username, password string) (*Session, error) {
	u, err := s.users.GetByUsername(ctx, normalizeUsername(username))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, exp, err := s.tokens.Issue(u.ID, u.Username)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Token: token, ExpiresAt: exp, User: u}, nil
}

// Profile returns the user with the given ID.
func (s *UserService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateProfile changes the username and/or password.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.Username != nil {
		name := normalizeUsername(*upd.Username)
		if err := validateUsername(name); err != nil {
			return nil, err
		}
		u.Username = name
	}
	if upd.Password != nil {
		if err := validatePassword(*upd.Password); err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*upd.Password), s.cost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = string(hash)
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
