// Package sessions реализует хранилище активных сессий на основе Redis.
//
// Сессия создаётся при входе пользователя и живёт не дольше выданного токена.
// Завершение сессии (sign-out) — удаление ключа session:<uid>; middleware
// перестаёт пропускать запросы с ещё валидным JWT сразу после удаления.
package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/user-directory/internal/config"
)

// Store инкапсулирует соединение с Redis для работы с сессиями.
type Store struct {
	DB *redis.Client
}

// InitServer создаёт подключение к Redis и проверяет его доступность.
func InitServer(ctx context.Context, cfg config.RedisConnection) (*Store, error) {
	const op = "sessions.InitServer"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Store{DB: db}, nil
}

func sessionKey(useruid string) string {
	return fmt.Sprintf("session:%s", useruid)
}

// Open открывает сессию пользователя на срок жизни токена.
func (s *Store) Open(ctx context.Context, useruid string, ttl time.Duration) error {
	const op = "sessions.Open"
	if err := s.DB.Set(ctx, sessionKey(useruid), "1", ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// IsActive сообщает, открыта ли сессия пользователя.
func (s *Store) IsActive(ctx context.Context, useruid string) (bool, error) {
	const op = "sessions.IsActive"
	_, err := s.DB.Get(ctx, sessionKey(useruid)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// Invalidate завершает сессию пользователя. Команда "завершить сессию uid X"
// для сервиса модерации.
func (s *Store) Invalidate(ctx context.Context, useruid string) error {
	const op = "sessions.Invalidate"
	if err := s.DB.Del(ctx, sessionKey(useruid)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
