// Package removeconfirm реализует HTTP-обработчик страницы подтверждения удаления:
// возвращает данные учётной записи, которую клиент собирается удалить.
package removeconfirm

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/user-directory/internal/http/response"
	"github.com/magabrotheeeer/user-directory/internal/lib/sl"
	"github.com/magabrotheeeer/user-directory/internal/models"
	"github.com/magabrotheeeer/user-directory/internal/services/user"
)

// Handler обрабатывает HTTP-запросы подтверждения удаления.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики чтения пользователя.
type Service interface {
	GetByID(ctx context.Context, uid string) (*models.User, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Данные пользователя для подтверждения удаления
// @Tags Users
// @Produce  json
// @Param uid path string true "Уникальный идентификатор пользователя"
// @Success 200 {object} map[string]any "Данные удаляемого пользователя"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /users/{uid}/delete [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.removeconfirm"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid := chi.URLParam(r, "uid")

	u, err := h.service.GetByID(r.Context(), uid)
	if user.IsNotFound(err) {
		log.Error("user not found", slog.String("uid", uid))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("user not found"))
		return
	}
	if err != nil {
		log.Error("failed to read user", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to read user"))
		return
	}

	log.Info("read user for delete confirmation", slog.String("uid", uid))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"user": models.NewUserView(u),
	}))
}
