// Package user содержит бизнес-логику справочника пользователей и модерации:
// просмотр и редактирование учётных записей, пакетную блокировку, разблокировку
// и удаление с завершением собственной сессии вызывающего.
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/user-directory/internal/events"
	"github.com/magabrotheeeer/user-directory/internal/lib/password"
	"github.com/magabrotheeeer/user-directory/internal/lib/sl"
	"github.com/magabrotheeeer/user-directory/internal/models"
	"github.com/magabrotheeeer/user-directory/internal/storage/repository"
)

// UserRepository определяет методы для работы с пользователями в хранилище.
// Контракт атомарности: FindUsersByUIDs + SaveUsers (или RemoveUsers) внутри
// одной операции модерации выполняются как единое сохранение.
type UserRepository interface {
	// ListUsers возвращает все учётные записи в порядке хранилища.
	ListUsers(ctx context.Context) ([]*models.User, error)
	// GetUser возвращает пользователя по uid или repository.ErrUserNotFound.
	GetUser(ctx context.Context, uid string) (*models.User, error)
	// CreateUser сохраняет нового пользователя и возвращает его uid.
	CreateUser(ctx context.Context, user models.User) (string, error)
	// UpdateUser обновляет строку при совпадении штампа и возвращает число изменённых строк.
	UpdateUser(ctx context.Context, user models.User, oldStamp string) (int64, error)
	// UserExists проверяет существование пользователя по uid.
	UserExists(ctx context.Context, uid string) (bool, error)
	// FindUsersByUIDs возвращает пользователей по списку uid, неизвестные uid пропускаются.
	FindUsersByUIDs(ctx context.Context, uids []string) ([]*models.User, error)
	// SaveUsers записывает флаги блокировки одной транзакцией.
	SaveUsers(ctx context.Context, users []*models.User) error
	// RemoveUsers удаляет пользователей по списку uid и возвращает число удалённых строк.
	RemoveUsers(ctx context.Context, uids []string) (int64, error)
}

// SessionInvalidator выполняет команду "завершить сессию пользователя uid X".
type SessionInvalidator interface {
	Invalidate(ctx context.Context, useruid string) error
}

// EventPublisher публикует события модерации для аудита.
type EventPublisher interface {
	Publish(event events.ModerationEvent) error
}

// Service реализует операции справочника пользователей и модерации.
type Service struct {
	repo     UserRepository
	sessions SessionInvalidator
	events   EventPublisher
	log      *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo UserRepository, sessions SessionInvalidator, eventsPub EventPublisher, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		sessions: sessions,
		events:   eventsPub,
		log:      log,
	}
}

// ListAll возвращает все учётные записи. Порядок определяется хранилищем
// и не гарантируется стабильным.
func (s *Service) ListAll(ctx context.Context) ([]*models.User, error) {
	return s.repo.ListUsers(ctx)
}

// GetByID возвращает пользователя по uid. Пустой uid равнозначен отсутствию строки.
func (s *Service) GetByID(ctx context.Context, uid string) (*models.User, error) {
	if uid == "" {
		return nil, repository.ErrUserNotFound
	}
	return s.repo.GetUser(ctx, uid)
}

// Create создает нового пользователя: хэширует пароль, назначает uid,
// штамп версии и время регистрации, возвращает uid созданной записи.
func (s *Service) Create(ctx context.Context, req models.DummyCreateUser) (string, error) {
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
		Role:             "user",
		IsBlocked:        false,
		ConcurrencyStamp: uuid.New().String(),
		RegistrationTime: time.Now().UTC(),
	}
	newUID, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		return "", err
	}
	s.log.Info("created new user", slog.String("uid", newUID))
	return newUID, nil
}

// Edit обновляет учётную запись. uid из URL обязан совпадать с uid в теле,
// иначе возвращается ErrUserNotFound без обращения к хранилищу.
// При нуле изменённых строк существование перепроверяется: исчезнувшая строка —
// ErrUserNotFound, иначе конфликт версий передается вызывающему без повтора.
func (s *Service) Edit(ctx context.Context, uid string, req models.DummyUpdateUser) error {
	if uid == "" || uid != req.UID {
		return repository.ErrUserNotFound
	}

	user := models.User{
		UID:              req.UID,
		Username:         req.Username,
		Email:            req.Email,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		IsBlocked:        req.IsBlocked,
		ConcurrencyStamp: uuid.New().String(),
	}
	rows, err := s.repo.UpdateUser(ctx, user, req.ConcurrencyStamp)
	if err != nil {
		return err
	}
	if rows == 0 {
		exists, err := s.repo.UserExists(ctx, uid)
		if err != nil {
			return err
		}
		if !exists {
			return repository.ErrUserNotFound
		}
		return repository.ErrConcurrencyConflict
	}
	s.log.Info("updated user", slog.String("uid", uid))
	return nil
}

// BlockUsers блокирует пользователей из списка uids. Неизвестные uid молча
// пропускаются, уже заблокированные строки не трогаются. Если вызывающий
// оказался среди найденных строк, его сессия завершается.
// В сообщении указывается число найденных строк, а не число переходов.
func (s *Service) BlockUsers(ctx context.Context, callerUID string, uids []string) (models.BatchResult, error) {
	if len(uids) == 0 {
		return models.BatchResult{Success: false, Message: "No users selected for blocking."}, nil
	}

	users, err := s.repo.FindUsersByUIDs(ctx, uids)
	if err != nil {
		return models.BatchResult{}, err
	}

	for _, u := range users {
		if !u.IsBlocked {
			u.IsBlocked = true
			u.ConcurrencyStamp = uuid.New().String()
		}
	}
	if err := s.repo.SaveUsers(ctx, users); err != nil {
		return models.BatchResult{}, err
	}

	signedOut := false
	if callerUID != "" && containsUser(users, callerUID) {
		if err := s.sessions.Invalidate(ctx, callerUID); err != nil {
			return models.BatchResult{}, err
		}
		signedOut = true
	}

	s.publish("user.blocked", users, callerUID)
	s.log.Info("blocked users", slog.Int("count", len(users)))
	return models.BatchResult{
		Success:         true,
		Message:         fmt.Sprintf("%d user(s) blocked successfully.", len(users)),
		SignedOutCaller: signedOut,
	}, nil
}

// UnblockUsers снимает блокировку с пользователей из списка uids.
// Сессии никогда не завершаются, даже при разблокировке самого себя.
func (s *Service) UnblockUsers(ctx context.Context, callerUID string, uids []string) (models.BatchResult, error) {
	if len(uids) == 0 {
		return models.BatchResult{Success: false, Message: "No users selected for unblocking."}, nil
	}

	users, err := s.repo.FindUsersByUIDs(ctx, uids)
	if err != nil {
		return models.BatchResult{}, err
	}

	for _, u := range users {
		if u.IsBlocked {
			u.IsBlocked = false
			u.ConcurrencyStamp = uuid.New().String()
		}
	}
	if err := s.repo.SaveUsers(ctx, users); err != nil {
		return models.BatchResult{}, err
	}

	s.publish("user.unblocked", users, callerUID)
	s.log.Info("unblocked users", slog.Int("count", len(users)))
	return models.BatchResult{
		Success: true,
		Message: fmt.Sprintf("%d user(s) unblocked successfully.", len(users)),
	}, nil
}

// DeleteSelected удаляет пользователей из списка uids. Пустой список и список
// без единого совпадения дают различимые неуспешные результаты. Если вызывающий
// среди найденных строк, его сессия завершается до фиксации удаления.
func (s *Service) DeleteSelected(ctx context.Context, callerUID string, uids []string) (models.BatchResult, error) {
	if len(uids) == 0 {
		return models.BatchResult{Success: false, Message: "No users selected for deletion."}, nil
	}

	users, err := s.repo.FindUsersByUIDs(ctx, uids)
	if err != nil {
		return models.BatchResult{}, err
	}
	if len(users) == 0 {
		return models.BatchResult{Success: false, Message: "No valid users found for deletion."}, nil
	}

	signedOut := false
	if callerUID != "" && containsUser(users, callerUID) {
		if err := s.sessions.Invalidate(ctx, callerUID); err != nil {
			return models.BatchResult{}, err
		}
		signedOut = true
	}

	foundUIDs := make([]string, 0, len(users))
	for _, u := range users {
		foundUIDs = append(foundUIDs, u.UID)
	}
	removed, err := s.repo.RemoveUsers(ctx, foundUIDs)
	if err != nil {
		return models.BatchResult{}, err
	}

	s.publish("user.deleted", users, callerUID)
	s.log.Info("deleted users", slog.Int64("count", removed))

	// Сообщение зависит от присутствия вызывающего в исходном списке uids,
	// а завершение сессии — от присутствия среди найденных строк.
	if callerUID != "" && containsUID(uids, callerUID) {
		return models.BatchResult{
			Success:         true,
			Message:         "Your account has been deleted. You have been logged out.",
			SignedOutCaller: signedOut,
		}, nil
	}
	return models.BatchResult{
		Success:         true,
		Message:         fmt.Sprintf("%d user(s) deleted successfully.", removed),
		SignedOutCaller: signedOut,
	}, nil
}

func (s *Service) publish(action string, users []*models.User, actorUID string) {
	if s.events == nil {
		return
	}
	affected := make([]string, 0, len(users))
	for _, u := range users {
		affected = append(affected, u.UID)
	}
	event := events.ModerationEvent{
		Action:     action,
		UserUIDs:   affected,
		ActorUID:   actorUID,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.events.Publish(event); err != nil {
		s.log.Warn("failed to publish moderation event", slog.String("action", action), sl.Err(err))
	}
}

func containsUser(users []*models.User, uid string) bool {
	for _, u := range users {
		if u.UID == uid {
			return true
		}
	}
	return false
}

func containsUID(uids []string, uid string) bool {
	for _, id := range uids {
		if id == uid {
			return true
		}
	}
	return false
}

// IsNotFound сообщает, что ошибка означает отсутствие пользователя.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrUserNotFound)
}

// IsConcurrencyConflict сообщает, что ошибка означает конфликт версий строки.
func IsConcurrencyConflict(err error) bool {
	return errors.Is(err, repository.ErrConcurrencyConflict)
}
