// Package block реализует HTTP-обработчик пакетной блокировки пользователей.
//
// Тело запроса — JSON-массив uid. Ответ всегда HTTP 200 с {success, message};
// все отказы сообщаются внутри тела, чтобы клиент мог показать сообщение.
// Если вызывающий заблокировал сам себя, его сессия завершается.
package block

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

// Handler обрабатывает HTTP-запросы пакетной блокировки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики пакетной блокировки.
type Service interface {
	BlockUsers(ctx context.Context, callerUID string, uids []string) (models.BatchResult, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Заблокировать пользователей
// @Description Блокирует пользователей из массива uid. Неизвестные uid пропускаются.
// @Tags Moderation
// @Accept  json
// @Produce  json
// @Param request body []string true "Массив uid пользователей"
// @Success 200 {object} response.Batch "Результат операции"
// @Router /users/block [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.block"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var uids []string
	if err := json.NewDecoder(r.Body).Decode(&uids); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.JSON(w, r, response.BatchResult(false, "No users selected for blocking."))
		return
	}

	callerUID, _ := r.Context().Value(middlewarectx.UserUID).(string)

	result, err := h.service.BlockUsers(r.Context(), callerUID, uids)
	if err != nil {
		log.Error("failed to block users", sl.Err(err))
		render.JSON(w, r, response.BatchResult(false, "Failed to block users."))
		return
	}

	log.Info("block users finished",
		slog.Bool("success", result.Success),
		slog.Bool("signed_out_caller", result.SignedOutCaller),
	)
	render.JSON(w, r, response.BatchResult(result.Success, result.Message))
}
