package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/TemirB/storefront-api/internal/config"
	"github.com/TemirB/storefront-api/internal/domain"
)

//go:generate mockgen -source internal/application/auth/auth.go -destination=internal/application/auth/auth_mock_test.go -package=auth

type Store interface {
	CreateUser(ctx context.Context, u *domain.User) error
	UserByEmail(ctx context.Context, email string) (*domain.User, error)
	UserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, upd domain.ProfileUpdate) (*domain.User, error)
}

const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

var errInvalidCredentials = fmt.Errorf("%w: invalid credentials", domain.ErrNotFound)

type Tokens struct {
	Access           string
	Refresh          string
	RefreshExpiresAt time.Time
}

type Profile struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	Phone     *string   `json:"phone"`
	Address   *string   `json:"address"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type claims struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

type Service struct {
	store  Store
	cfg    config.Auth
	cost   int
	logger *zap.Logger
}

func NewService(store Store, cfg config.Auth, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		cfg:    cfg,
		cost:   bcrypt.DefaultCost,
		logger: logger,
	}
}

func (s *Service) Register(ctx context.Context, email, password string, name *string) (Profile, Tokens, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return Profile{}, Tokens{}, fmt.Errorf("hash password: %w", err)
	}

	u := &domain.User{
		ID:           uuid.New(),
		Email:        normalizeEmail(email),
		PasswordHash: string(hash),
		Name:         name,
		Role:         domain.RoleUser,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return Profile{}, Tokens{}, err
	}
	s.logger.Info("User registered", zap.String("user_id", u.ID.String()))

	t, err := s.issue(u.ID)
	if err != nil {
		return Profile{}, Tokens{}, err
	}
	return toProfile(u), t, nil
}

// Login never tells an unknown email apart from a wrong password.
func (s *Service) Login(ctx context.Context, email, password string) (Profile, Tokens, error) {
	u, err := s.store.UserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return Profile{}, Tokens{}, errInvalidCredentials
	}
	if err != nil {
		return Profile{}, Tokens{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Profile{}, Tokens{}, errInvalidCredentials
	}

	t, err := s.issue(u.ID)
	if err != nil {
		return Profile{}, Tokens{}, err
	}
	return toProfile(u), t, nil
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *Service) Refresh(ctx context.Context, refresh string) (Tokens, error) {
	id, err := s.parse(refresh, kindRefresh)
	if err != nil {
		return Tokens{}, err
	}
	if _, err := s.store.UserByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Tokens{}, fmt.Errorf("%w: user no longer exists", domain.ErrUnauthorized)
		}
		return Tokens{}, err
	}
	return s.issue(id)
}

// Authenticate resolves an access token to a user id.
func (s *Service) Authenticate(token string) (uuid.UUID, error) {
	return s.parse(token, kindAccess)
}

func (s *Service) Profile(ctx context.Context, id uuid.UUID) (Profile, error) {
	u, err := s.store.UserByID(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	return toProfile(u), nil
}

func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, upd domain.ProfileUpdate) (Profile, error) {
	if upd.Empty() {
		return Profile{}, fmt.Errorf("%w: nothing to update", domain.ErrBadRequest)
	}
	u, err := s.store.UpdateProfile(ctx, id, upd)
	if err != nil {
		return Profile{}, err
	}
	return toProfile(u), nil
}

func (s *Service) issue(id uuid.UUID) (Tokens, error) {
	now := time.Now()
	access, err := s.sign(id, kindAccess, now.Add(s.cfg.AccessTTL))
	if err != nil {
		return Tokens{}, err
	}
	refreshExp := now.Add(s.cfg.RefreshTTL)
	refresh, err := s.sign(id, kindRefresh, refreshExp)
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{Access: access, Refresh: refresh, RefreshExpiresAt: refreshExp}, nil
}

func (s *Service) sign(id uuid.UUID, kind string, exp time.Time) (string, error) {
	c := claims{
		ID:   id.String(),
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return tok, nil
}

func (s *Service) parse(raw, kind string) (uuid.UUID, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if c.Kind != kind {
		return uuid.Nil, fmt.Errorf("%w: wrong token kind", domain.ErrUnauthorized)
	}
	id, err := uuid.Parse(c.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", domain.ErrUnauthorized)
	}
	return id, nil
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

func toProfile(u *domain.User) Profile {
	return Profile{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Phone:     u.Phone,
		Address:   u.Address,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}
