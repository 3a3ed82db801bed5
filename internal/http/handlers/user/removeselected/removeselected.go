// Package removeselected реализует HTTP-обработчик пакетного удаления пользователей.
//
// Тело запроса — JSON-массив uid. Пустой список и список без единого
// совпадения дают различимые сообщения. Если вызывающий удалил сам себя,
// его сессия завершается до фиксации удаления и возвращается отдельное
// сообщение о выходе из системы.
package removeselected

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

// Handler обрабатывает HTTP-запросы пакетного удаления.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики пакетного удаления.
type Service interface {
	DeleteSelected(ctx context.Context, callerUID string, uids []string) (models.BatchResult, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Удалить выбранных пользователей
// @Description Удаляет пользователей из массива uid одной операцией.
// @Tags Moderation
// @Accept  json
// @Produce  json
// @Param request body []string true "Массив uid пользователей"
// @Success 200 {object} response.Batch "Результат операции"
// @Router /users/delete [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.removeselected"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var uids []string
	if err := json.NewDecoder(r.Body).Decode(&uids); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.JSON(w, r, response.BatchResult(false, "No users selected for deletion."))
		return
	}

	callerUID, _ := r.Context().Value(middlewarectx.UserUID).(string)

	result, err := h.service.DeleteSelected(r.Context(), callerUID, uids)
	if err != nil {
		log.Error("failed to delete users", sl.Err(err))
		render.JSON(w, r, response.BatchResult(false, "Failed to delete users."))
		return
	}

	log.Info("delete users finished",
		slog.Bool("success", result.Success),
		slog.Bool("signed_out_caller", result.SignedOutCaller),
	)
	render.JSON(w, r, response.BatchResult(result.Success, result.Message))
}
