package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidAPIKey = errors.New("invalid api key")
	ErrInvalidToken  = errors.New("invalid token")
)

const (
	tokenTTL   = 24 * time.Hour
	bcryptCost = 12
)

// Service exchanges a shared API key for short-lived bearer tokens.
type Service struct {
	apiKeyHash []byte
	jwtSecret  []byte
	now        func() time.Time
}

// NewService creates a token service. An empty jwtSecret disables auth.
func NewService(apiKeyHash, jwtSecret string) *Service {
	return &Service{
		apiKeyHash: []byte(apiKeyHash),
		jwtSecret:  []byte(jwtSecret),
		now:        time.Now,
	}
}

// Enabled reports whether requests must carry a token.
func (s *Service) Enabled() bool {
	return len(s.jwtSecret) > 0
}

type TokenResult struct {
	Token     string    `json:"token"`
	Subject   string    `json:"subject"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// HashAPIKey returns the bcrypt hash to configure as API_KEY_HASH.
func HashAPIKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash api key: %w", err)
	}
	return string(hash), nil
}

// Exchange checks apiKey and issues a token for client. An empty client name
// gets a random subject.
func (s *Service) Exchange(apiKey, client string) (*TokenResult, error) {
	if len(s.apiKeyHash) == 0 {
		return nil, ErrInvalidAPIKey
	}
	if err := bcrypt.CompareHashAndPassword(s.apiKeyHash, []byte(apiKey)); err != nil {
		return nil, ErrInvalidAPIKey
	}
	if client == "" {
		client = uuid.NewString()
	}
	return s.issueToken(client)
}

func (s *Service) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("parse token: %w", errors.Join(ErrInvalidToken, err))
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("invalid token subject: %w", ErrInvalidToken)
	}
	return subject, nil
}

func (s *Service) issueToken(subject string) (*TokenResult, error) {
	now := s.now()
	expires := now.Add(tokenTTL)
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": expires.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &TokenResult{Token: signed, Subject: subject, ExpiresAt: time.Unix(expires.Unix(), 0).UTC()}, nil
}
