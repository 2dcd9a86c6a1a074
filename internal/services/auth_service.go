package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"livedesk/internal/config"
	"livedesk/internal/domain"
	"livedesk/internal/repository"
	livedesk_errors "livedesk/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	users     repository.UserRepository
	jwtSecret []byte
	accessTTL time.Duration
}

func NewAuthService(users repository.UserRepository, cfg config.AuthConfig) *AuthService {
	return &AuthService{
		users:     users,
		jwtSecret: []byte(cfg.JWTSecret),
		accessTTL: time.Duration(cfg.AccessTTLHours) * time.Hour,
	}
}

type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
	Role        domain.UserRole
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResponse struct {
	AccessToken string   `json:"access_token"`
	ExpiresIn   int64    `json:"expires_in"`
	User        UserInfo `json:"user"`
}

type UserInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Role        string `json:"role"`
}

type AccessClaims struct {
	UserID string `json:"sub"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResponse, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.DisplayName = strings.TrimSpace(in.DisplayName)

	if in.Email == "" || in.DisplayName == "" || len(in.Password) < 8 {
		return AuthResponse{}, livedesk_errors.ErrInvalidInput
	}
	switch in.Role {
	case "":
		in.Role = domain.UserRoleCustomer
	case domain.UserRoleCustomer, domain.UserRoleAgent:
	default:
		// ADMIN and SYSTEM accounts are provisioned out of band.
		return AuthResponse{}, livedesk_errors.ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return AuthResponse{}, err
	}

	newUser := domain.User{
		ID:           uuid.New(),
		Email:        &in.Email,
		DisplayName:  in.DisplayName,
		PasswordHash: string(hash),
		Role:         in.Role,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := s.users.Create(ctx, &newUser); err != nil {
		return AuthResponse{}, err
	}

	return s.issueToken(newUser)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (AuthResponse, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || in.Password == "" {
		return AuthResponse{}, livedesk_errors.ErrInvalidInput
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, livedesk_errors.ErrNotFound) {
			return AuthResponse{}, livedesk_errors.ErrUnauthorized
		}
		return AuthResponse{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		return AuthResponse{}, livedesk_errors.ErrUnauthorized
	}

	// Agents marked away come back online by signing in.
	if !u.IsActive {
		if err := s.users.SetActive(ctx, u.ID, true); err != nil {
			return AuthResponse{}, err
		}
		u.IsActive = true
	}

	return s.issueToken(u)
}

func (s *AuthService) issueToken(u domain.User) (AuthResponse, error) {
	now := time.Now()
	claims := AccessClaims{
		UserID: u.ID.String(),
		Role:   string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return AuthResponse{}, err
	}

	info := UserInfo{
		ID:          u.ID.String(),
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
	}
	if u.Email != nil {
		info.Email = *u.Email
	}

	return AuthResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.accessTTL.Seconds()),
		User:        info,
	}, nil
}

// ParseAccessToken verifies the signature and expiry and returns the claims.
func (s *AuthService) ParseAccessToken(tokenString string) (AccessClaims, error) {
	var claims AccessClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, livedesk_errors.ErrUnauthorized
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return AccessClaims{}, livedesk_errors.ErrUnauthorized
	}
	return claims, nil
}
