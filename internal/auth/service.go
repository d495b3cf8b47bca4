package auth

import (
	"time"

	"github.com/moosoltadiwa/localpay-connect/internal/config"
	"github.com/moosoltadiwa/localpay-connect/internal/identity"
)

// Service issues access tokens for authenticated users.
type Service struct {
	cfg config.Config
}

// NewService builds an auth service.
func NewService(cfg config.Config) *Service {
	return &Service{cfg: cfg}
}

// Token is an issued access token and its lifetime in seconds.
type Token struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Issue signs an access token for the user.
func (s *Service) Issue(user identity.User) (Token, error) {
	now := time.Now()
	exp := now.Add(s.cfg.AccessTokenTTL)
	claims := map[string]any{
		"sub":   user.ID,
		"email": user.Email,
		"adm":   user.IsAdmin,
		"iat":   now.Unix(),
		"exp":   exp.Unix(),
	}
	signed, err := SignHS256(claims, []byte(s.cfg.JWTSecret))
	if err != nil {
		return Token{}, err
	}
	return Token{AccessToken: signed, ExpiresIn: int64(exp.Sub(now).Seconds())}, nil
}
