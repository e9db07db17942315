package auth

import (
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultBcryptCost стандартная сложность bcrypt
	DefaultBcryptCost = 12

	// bcrypt учитывает только первые 72 байта
	maxPasswordLength = 72
)

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidUsername = errors.New("invalid username")

	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,64}$`)
)

// PasswordService сервис для работы с паролями
type PasswordService struct {
	cost int
}

// NewPasswordService создает новый сервис для работы с паролями
func NewPasswordService() *PasswordService {
	return &PasswordService{
		cost: DefaultBcryptCost,
	}
}

// NewPasswordServiceWithCost создает новый сервис с заданной сложностью
func NewPasswordServiceWithCost(cost int) *PasswordService {
	return &PasswordService{
		cost: cost,
	}
}

// HashPassword хеширует пароль с использованием bcrypt (соль генерируется bcrypt)
func (s *PasswordService) HashPassword(password string) (string, error) {
	if len(password) == 0 {
		return "", ErrInvalidPassword
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}

	return string(hashedBytes), nil
}

// VerifyPassword проверяет соответствие пароля и хеша за постоянное время
func (s *PasswordService) VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// IsValidPassword проверяет валидность пароля по базовым критериям
func IsValidPassword(password string) error {
	if len(password) == 0 {
		return fmt.Errorf("%w: must not be empty", ErrInvalidPassword)
	}

	if len(password) > maxPasswordLength {
		return fmt.Errorf("%w: must be no more than %d bytes long", ErrInvalidPassword, maxPasswordLength)
	}

	return nil
}

// IsValidUsername проверяет формат локального username.
// Двоеточие запрещено: оно зарезервировано для OAuth-пользователей ("github:123").
func IsValidUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("%w: use 1-64 letters, digits, '.', '_' or '-'", ErrInvalidUsername)
	}
	return nil
}
