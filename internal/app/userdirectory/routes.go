// Package userdirectory предоставляет маршруты для основного приложения.
package userdirectory

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/user-directory/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/user-directory/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/user-directory/internal/http/handlers/user/block"
	"github.com/magabrotheeeer/user-directory/internal/http/handlers/user/create"
	"github.com/magabrotheeeer/user-directory/internal/http/handlers/user/list"
	"github.com/magabrotheeeer/user-directory/internal/http/handlers/user/read"
	"github.com/magabrotheeeer/user-directory/internal/http/handlers/user/removeconfirm"
	"github.com/magabrotheeeer/user-directory/internal/http/handlers/user/removeselected"
	"github.com/magabrotheeeer/user-directory/internal/http/handlers/user/unblock"
	"github.com/magabrotheeeer/user-directory/internal/http/handlers/user/update"
	"github.com/magabrotheeeer/user-directory/internal/http/middlewarectx"
	"github.com/magabrotheeeer/user-directory/internal/lib/jwt"
	authservice "github.com/magabrotheeeer/user-directory/internal/services/auth"
	userservice "github.com/magabrotheeeer/user-directory/internal/services/user"
	"github.com/magabrotheeeer/user-directory/internal/sessions"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, jwtMaker jwt.Maker,
	sessionStore *sessions.Store, authService *authservice.Service, userService *userservice.Service) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, authService).ServeHTTP)
		r.Post("/login", login.New(logger, authService).ServeHTTP)

		// Группа с JWT аутентификацией и проверкой сессии
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, sessionStore, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Get("/users", list.New(logger, userService).ServeHTTP)
			r.Post("/users", create.New(logger, userService).ServeHTTP)
			r.Get("/users/{uid}", read.New(logger, userService).ServeHTTP)
			r.Put("/users/{uid}", update.New(logger, userService).ServeHTTP)
			r.Get("/users/{uid}/delete", removeconfirm.New(logger, userService).ServeHTTP)
			r.Post("/users/block", block.New(logger, userService).ServeHTTP)
			r.Post("/users/unblock", unblock.New(logger, userService).ServeHTTP)
			r.Post("/users/delete", removeselected.New(logger, userService).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
