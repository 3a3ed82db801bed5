// Package userdirectory собирает приложение: хранилище, миграции, сессии,
// события модерации, сервисы и HTTP-сервер.
package userdirectory

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/user-directory/internal/config"
	"github.com/magabrotheeeer/user-directory/internal/events"
	"github.com/magabrotheeeer/user-directory/internal/lib/jwt"
	"github.com/magabrotheeeer/user-directory/internal/migrations"
	"github.com/magabrotheeeer/user-directory/internal/services/auth"
	userservice "github.com/magabrotheeeer/user-directory/internal/services/user"
	"github.com/magabrotheeeer/user-directory/internal/sessions"
	"github.com/magabrotheeeer/user-directory/internal/storage/repository"
)

// App хранит собранные зависимости и HTTP-сервер приложения.
type App struct {
	server   *http.Server
	logger   *slog.Logger
	db       *repository.Storage
	sessions *sessions.Store
	amqpConn *amqp.Connection
}

// New создаёт приложение: подключает PostgreSQL, применяет миграции,
// поднимает Redis и RabbitMQ, собирает сервисы и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	sessionStore, err := sessions.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	amqpConn, err := events.Connect(cfg.AddressRabbitMQ, cfg.ConnectRetries, cfg.RetryDelay)
	if err != nil {
		return nil, err
	}
	amqpCh, err := events.SetupChannel(amqpConn, events.GetModerationQueues())
	if err != nil {
		return nil, err
	}
	publisher := events.NewPublisher(amqpCh)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	authService := auth.New(db, jwtMaker, sessionStore, cfg.TokenTTL)
	userService := userservice.New(db, sessionStore, publisher, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, jwtMaker, sessionStore, authService, userService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:   srv,
		logger:   logger,
		db:       db,
		sessions: sessionStore,
		amqpConn: amqpConn,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его по отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		_ = a.amqpConn.Close()
		_ = a.sessions.DB.Close()
		_ = a.db.DB.Close()
		return err
	}
}
