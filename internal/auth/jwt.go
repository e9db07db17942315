package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// StateConfig конфигурация подписанного OAuth state
type StateConfig struct {
	SecretKey []byte
	TTL       time.Duration
	Issuer    string
}

// StateClaims JWT claims для параметра state OAuth-рукопожатия
type StateClaims struct {
	Nonce    string `json:"nonce"`
	Provider string `json:"provider"`
	jwt.RegisteredClaims
}

// StateService выпускает и проверяет state токены (HS256)
type StateService struct {
	config *StateConfig
}

// NewStateService создает новый сервис state токенов
func NewStateService(config *StateConfig) *StateService {
	if config.TTL <= 0 {
		config.TTL = 10 * time.Minute
	}
	return &StateService{
		config: config,
	}
}

// GenerateState создает state токен для провайдера со случайным nonce
func (s *StateService) GenerateState(provider string) (string, error) {
	now := time.Now()
	claims := StateClaims{
		Nonce:    uuid.NewString(),
		Provider: provider,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TTL)),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.config.SecretKey)
}

// ValidateState проверяет подпись, срок действия и провайдера
func (s *StateService) ValidateState(tokenString, provider string) (*StateClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &StateClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.config.SecretKey, nil
	}, jwt.WithIssuer(s.config.Issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*StateClaims)
	if !ok || !token.Valid || claims.Provider != provider || claims.Nonce == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
