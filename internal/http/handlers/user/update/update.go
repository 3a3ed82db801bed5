// Package update реализует HTTP-обработчик редактирования учётной записи.
//
// uid в URL обязан совпадать с uid в теле запроса. Конфликт параллельного
// редактирования различается с исчезновением строки: первый отдаёт 409,
// второе — 404. Конфликт не повторяется автоматически, клиент отправляет
// форму заново.
package update

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/user-directory/internal/http/response"
	"github.com/magabrotheeeer/user-directory/internal/lib/sl"
	"github.com/magabrotheeeer/user-directory/internal/models"
	"github.com/magabrotheeeer/user-directory/internal/services/user"
)

// Handler обрабатывает HTTP-запросы на редактирование пользователя.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики редактирования пользователя.
type Service interface {
	Edit(ctx context.Context, uid string, req models.DummyUpdateUser) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Редактировать пользователя
// @Tags Users
// @Accept  json
// @Produce  json
// @Param uid path string true "Уникальный идентификатор пользователя"
// @Param request body models.DummyUpdateUser true "Новые данные учётной записи"
// @Success 200 {object} response.Response "Успешное обновление"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден или uid не совпадает"
// @Failure 409 {object} response.ErrorResponse "Конфликт параллельного редактирования"
// @Failure 422 {object} response.Response "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /users/{uid} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.update"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid := chi.URLParam(r, "uid")

	var req models.DummyUpdateUser
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", slog.String("uid", req.UID))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	log.Info("all fields are validated")

	err := h.service.Edit(r.Context(), uid, req)
	switch {
	case user.IsNotFound(err):
		log.Error("user not found", slog.String("uid", uid))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("user not found"))
		return
	case user.IsConcurrencyConflict(err):
		log.Error("concurrency conflict", slog.String("uid", uid))
		w.WriteHeader(http.StatusConflict)
		render.JSON(w, r, response.Error("user was modified by another request, please reload and retry"))
		return
	case err != nil:
		log.Error("failed to update user", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to update user"))
		return
	}

	log.Info("updated user", slog.String("uid", uid))
	render.JSON(w, r, response.OK())
}
