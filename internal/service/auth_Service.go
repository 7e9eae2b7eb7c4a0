package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Marga-Ghale/ora-roster-backend/internal/config"
)

// ============================================
// Auth Service
// ============================================

// AuthService validates the bearer tokens that identify the acting member.
// Tokens are issued by the chat bridge; GenerateToken exists for development
// and tests.
type AuthService interface {
	ValidateToken(token string) (*jwt.Token, error)
	GetUserIDFromToken(token *jwt.Token) (string, error)
	// Authenticate validates token and returns its subject.
	Authenticate(token string) (string, error)
	GenerateToken(userID string) (string, error)
}

type authService struct {
	cfg *config.Config
	now func() time.Time
}

func NewAuthService(cfg *config.Config) AuthService {
	return &authService{cfg: cfg, now: time.Now}
}

func (s *authService) ValidateToken(tokenString string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	return token, nil
}

func (s *authService) GetUserIDFromToken(token *jwt.Token) (string, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return "", ErrInvalidToken
	}
	return userID, nil
}

func (s *authService) Authenticate(tokenString string) (string, error) {
	token, err := s.ValidateToken(tokenString)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}
	return s.GetUserIDFromToken(token)
}

func (s *authService) GenerateToken(userID string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": now.Add(time.Hour * time.Duration(s.cfg.JWTExpiry)).Unix(),
		"iat": now.Unix(),
	})
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
