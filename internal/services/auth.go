package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const adminTokenTTL = 24 * time.Hour

// AuthService issues tokens for the admin HTTP API. There is exactly one
// account: the configured administrator, with a bcrypt password hash.
type AuthService struct {
	adminID      int64
	passwordHash []byte
	jwtSecret    []byte
	now          func() time.Time
}

func NewAuthService(adminID int64, passwordHash, jwtSecret string) *AuthService {
	return &AuthService{
		adminID:      adminID,
		passwordHash: []byte(passwordHash),
		jwtSecret:    []byte(jwtSecret),
		now:          time.Now,
	}
}

func (s *AuthService) Login(password string) (string, error) {
	if len(s.passwordHash) == 0 {
		return "", ErrLoginDisabled
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredential
	}
	return s.GenerateToken()
}

func (s *AuthService) GenerateToken() (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"admin_id": s.adminID,
		"exp":      now.Add(adminTokenTTL).Unix(),
		"iat":      now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken returns the administrator id carried by a valid token.
func (s *AuthService) ValidateToken(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return 0, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("invalid claims")
	}

	adminID, ok := claims["admin_id"].(float64)
	if !ok {
		return 0, errors.New("invalid admin_id in token")
	}
	if int64(adminID) != s.adminID {
		return 0, ErrPermissionDenied
	}

	return int64(adminID), nil
}
