package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"blog/internal/models"
	"blog/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultSessionTTL is the lifetime of a session token.
const DefaultSessionTTL = 24 * time.Hour

var ErrInvalidSession = errors.New("invalid session")

// RevocationStore records revoked session ids. *cache.Store satisfies it.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Session is a signed session token and its expiry.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// AuthService handles business logic for authentication and sessions.
type AuthService struct {
	userRepo    repositories.UserRepository
	jwtSecret   []byte
	tokenDurat  time.Duration
	revocations RevocationStore
	now         func() time.Time
}

// NewAuthService creates a new AuthService. A zero tokenDuration uses
// DefaultSessionTTL; revocations may be nil.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, tokenDuration time.Duration, revocations RevocationStore) *AuthService {
	if tokenDuration <= 0 {
		tokenDuration = DefaultSessionTTL
	}
	return &AuthService{
		userRepo:    userRepo,
		jwtSecret:   []byte(jwtSecret),
		tokenDurat:  tokenDuration,
		revocations: revocations,
		now:         time.Now,
	}
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// compared against when the username is unknown
func timingDummyHash() []byte {
	dummyHashOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
		if err != nil {
			panic(fmt.Sprintf("generate dummy hash: %v", err))
		}
		dummyHash = h
	})
	return dummyHash
}

// HashPassword bcrypt-hashes a plaintext password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyLogin checks a username and password. Unknown users and wrong
// passwords both yield models.ErrInvalidCredentials.
func (s *AuthService) VerifyLogin(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(timingDummyHash(), []byte(password))
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}
	return user, nil
}

// CreateUserSession issues a signed session token for userID.
func (s *AuthService) CreateUserSession(userID string) (*Session, error) {
	issued := s.now()
	expires := issued.Add(s.tokenDurat)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Subject:   userID,
		Id:        uuid.NewString(),
		IssuedAt:  issued.Unix(),
		ExpiresAt: expires.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &Session{Token: tokenString, ExpiresAt: expires}, nil
}

// ValidateToken parses and validates a session token, returning its claims.
// Revoked tokens are rejected; a failing revocation lookup is logged and ignored.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*jwt.StandardClaims, error) {
	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidSession
	}

	if s.revocations != nil && claims.Id != "" {
		revoked, err := s.revocations.IsRevoked(ctx, claims.Id)
		if err != nil {
			log.Printf("Revocation lookup failed for session %s: %v", claims.Id, err)
		} else if revoked {
			return nil, fmt.Errorf("%w: revoked", ErrInvalidSession)
		}
	}
	return claims, nil
}

// GetUserID returns the user id of a valid session token, or "" otherwise.
func (s *AuthService) GetUserID(ctx context.Context, tokenString string) string {
	if tokenString == "" {
		return ""
	}
	claims, err := s.ValidateToken(ctx, tokenString)
	if err != nil {
		return ""
	}
	return claims.Subject
}

// Logout revokes a session token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	if tokenString == "" || s.revocations == nil {
		return nil
	}
	claims, err := s.ValidateToken(ctx, tokenString)
	if err != nil {
		return nil
	}
	ttl := time.Until(time.Unix(claims.ExpiresAt, 0))
	if err := s.revocations.Revoke(ctx, claims.Id, ttl); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// BootstrapAdmin creates a user with a hashed password.
func (s *AuthService) BootstrapAdmin(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, errors.New("username and password are required")
	}
	hashed, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{Username: username, PasswordHash: hashed}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	log.Printf("Created user %s (ID: %s)", user.Username, user.ID)
	return user, nil
}
