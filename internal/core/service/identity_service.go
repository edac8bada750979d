package service

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/trueque/marketplace/internal/core/domain"
	"github.com/trueque/marketplace/internal/core/ports"
)

// IdentityService implements registration, login, logout, and token
// verification. Issued tokens are recorded in the TokenStore so logout can
// revoke them before JWT expiry.
type IdentityService struct {
	users     ports.UserRepository
	tokens    ports.TokenStore
	jwtSecret string
	tokenTTL  time.Duration
	logger    zerolog.Logger
}

func NewIdentityService(users ports.UserRepository, tokens ports.TokenStore, jwtSecret string, tokenTTL time.Duration, logger zerolog.Logger) *IdentityService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &IdentityService{users: users, tokens: tokens, jwtSecret: jwtSecret, tokenTTL: tokenTTL, logger: logger}
}

func (s *IdentityService) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, string, error) {
	if input.Name == "" || input.Email == "" || input.Password == "" {
		return nil, "", domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Name:         input.Name,
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: string(hash),
		Role:         domain.RoleMember,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(ctx, created)
	if err != nil {
		return nil, "", err
	}
	return created, token, nil
}

func (s *IdentityService) Login(ctx context.Context, creds ports.Credentials) (*domain.User, string, error) {
	if creds.Email == "" || creds.Password == "" {
		return nil, "", domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(creds.Email)))
	if err != nil {
		return nil, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)) != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Logout revokes the token server side. Best effort: a dead token store must
// not keep the client signed in, so failures are logged and swallowed.
func (s *IdentityService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.tokens.Revoke(ctx, token); err != nil {
		s.logger.Warn().Err(err).Msg("token revocation failed")
	}
	return nil
}

// Verify checks signature, expiry, and revocation, then loads the account.
func (s *IdentityService) Verify(ctx context.Context, token string) (*domain.User, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !tkn.Valid {
		return nil, domain.ErrInvalidCredentials
	}

	active, err := s.tokens.IsActive(ctx, token)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, domain.ErrInvalidCredentials
	}

	sub, _ := claims["sub"].(string)
	user, err := s.users.FindByID(ctx, sub)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (s *IdentityService) issueToken(ctx context.Context, user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  user.Role,
		"exp":   time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}

	if err := s.tokens.Save(ctx, signed, user.ID); err != nil {
		return "", err
	}
	return signed, nil
}
