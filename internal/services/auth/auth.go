// Package auth содержит логику бизнес-уровня для регистрации и аутентификации
// пользователей: проверку учётных данных, выдачу JWT и открытие сессии.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/user-directory/internal/lib/jwt"
	"github.com/magabrotheeeer/user-directory/internal/lib/password"
	"github.com/magabrotheeeer/user-directory/internal/models"
)

// ErrInvalidCredentials возвращается при неверной паре username/password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrAccountBlocked возвращается при попытке входа в заблокированную учётную запись.
var ErrAccountBlocked = errors.New("account is blocked")

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя и возвращает его uid.
	CreateUser(ctx context.Context, user models.User) (string, error)
	// GetUserByUsername возвращает пользователя по имени или ошибку, если не найден.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// TouchLastLogin обновляет отметку последнего входа.
	TouchLastLogin(ctx context.Context, uid string) error
}

// SessionOpener открывает сессию пользователя на срок жизни токена.
type SessionOpener interface {
	Open(ctx context.Context, useruid string, ttl time.Duration) error
}

// Service отвечает за регистрацию, авторизацию и валидацию JWT.
type Service struct {
	users    UserRepository
	jwtMaker jwt.Maker
	sessions SessionOpener
	tokenTTL time.Duration
}

// New создает новый экземпляр Service.
func New(users UserRepository, jwtMaker jwt.Maker, sessions SessionOpener, tokenTTL time.Duration) *Service {
	return &Service{
		users:    users,
		jwtMaker: jwtMaker,
		sessions: sessions,
		tokenTTL: tokenTTL,
	}
}

// Register создает нового пользователя с хэшированием пароля и дефолтной ролью "user".
func (s *Service) Register(ctx context.Context, req models.DummyCreateUser) (string, error) {
	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return "", err
	}
	user := models.User{
		UID:              uuid.New().String(),
		Username:         req.Username,
		Email:            req.Email,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		PasswordHash:     hashed,
		Role:             "user", // дефолтная роль при регистрации
		ConcurrencyStamp: uuid.New().String(),
		RegistrationTime: time.Now().UTC(),
	}
	return s.users.CreateUser(ctx, user)
}

// Login проверяет пароль пользователя, отказывает заблокированным учётным
// записям, генерирует JWT и открывает сессию на срок жизни токена.
func (s *Service) Login(ctx context.Context, username, rawPassword string) (token, role, useruid string, err error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return "", "", "", ErrInvalidCredentials
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", "", "", ErrInvalidCredentials
	}
	if user.IsBlocked {
		return "", "", "", ErrAccountBlocked
	}
	token, err = s.jwtMaker.GenerateToken(user.Username, user.Role, user.UID)
	if err != nil {
		return "", "", "", err
	}
	if err = s.sessions.Open(ctx, user.UID, s.tokenTTL); err != nil {
		return "", "", "", err
	}
	if err = s.users.TouchLastLogin(ctx, user.UID); err != nil {
		return "", "", "", err
	}
	return token, user.Role, user.UID, nil
}

// ValidateToken проверяет JWT и возвращает данные пользователя из claims.
func (s *Service) ValidateToken(_ context.Context, token string) (*jwt.CustomClaims, error) {
	return s.jwtMaker.ParseToken(token)
}
