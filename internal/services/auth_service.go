package services

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

type AuthStore interface {
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	AddUser(ctx context.Context, u *User) error
}

type TokenSigner func(uid, email string, ttl time.Duration) (string, error)

type AuthService struct {
	store     AuthStore
	now       func() time.Time
	idGen     func() string
	signToken TokenSigner
	tokenTTL  time.Duration
	cost      int
}

type AuthResult struct {
	Token string `json:"-"`
	User  *User  `json:"user"`
}

func NewAuthService(store AuthStore, signer TokenSigner, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &AuthService{
		store:     store,
		now:       func() time.Time { return time.Now().UTC() },
		idGen:     newID,
		signToken: signer,
		tokenTTL:  ttl,
		cost:      bcrypt.DefaultCost,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, NewInvalidError("email/password required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, NewInvalidError("invalid email")
	}
	if len(password) < minPasswordLen {
		return nil, NewInvalidError("password too short")
	}
	existing, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewConflictError("email exists")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}
	u := &User{ID: s.idGen(), Email: email, Name: strings.TrimSpace(name), PassHash: hash, CreatedAt: s.now()}
	if err := s.store.AddUser(ctx, u); err != nil {
		return nil, err
	}
	return s.issue(u)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, NewInvalidError("email/password required")
	}
	u, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(u.PassHash, []byte(password)); err != nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	return s.issue(u)
}

// Me resolves the user behind an authenticated request.
func (s *AuthService) Me(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NewNotFoundError("user not found")
	}
	return u, nil
}

func (s *AuthService) TokenTTL() time.Duration {
	return s.tokenTTL
}

func (s *AuthService) issue(u *User) (*AuthResult, error) {
	if s.signToken == nil {
		return nil, NewInvalidError("token signer not configured")
	}
	token, err := s.signToken(u.ID, u.Email, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: u}, nil
}
