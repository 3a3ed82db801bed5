// Package unblock реализует HTTP-обработчик пакетной разблокировки пользователей.
//
// Тело запроса — JSON-массив uid. Разблокировка никогда не завершает сессий,
// даже при разблокировке самого себя.
package unblock

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/user-directory/internal/http/middlewarectx"
	"github.com/magabrotheeeer/user-directory/internal/http/response"
	"github.com/magabrotheeeer/user-directory/internal/lib/sl"
	"github.com/magabrotheeeer/user-directory/internal/models"
)

// Handler обрабатывает HTTP-запросы пакетной разблокировки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики пакетной разблокировки.
type Service interface {
	UnblockUsers(ctx context.Context, callerUID string, uids []string) (models.BatchResult, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Разблокировать пользователей
// @Description Снимает блокировку с пользователей из массива uid.
// @Tags Moderation
// @Accept  json
// @Produce  json
// @Param request body []string true "Массив uid пользователей"
// @Success 200 {object} response.Batch "Результат операции"
// @Router /users/unblock [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.unblock"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var uids []string
	if err := json.NewDecoder(r.Body).Decode(&uids); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.JSON(w, r, response.BatchResult(false, "No users selected for unblocking."))
		return
	}

	callerUID, _ := r.Context().Value(middlewarectx.UserUID).(string)

	result, err := h.service.UnblockUsers(r.Context(), callerUID, uids)
	if err != nil {
		log.Error("failed to unblock users", sl.Err(err))
		render.JSON(w, r, response.BatchResult(false, "Failed to unblock users."))
		return
	}

	log.Info("unblock users finished", slog.Bool("success", result.Success))
	render.JSON(w, r, response.BatchResult(result.Success, result.Message))
}
