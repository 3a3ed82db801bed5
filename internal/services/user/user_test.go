package user

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/user-directory/internal/events"
	"github.com/magabrotheeeer/user-directory/internal/lib/password"
	"github.com/magabrotheeeer/user-directory/internal/models"
	"github.com/magabrotheeeer/user-directory/internal/storage/repository"
)

// MockRepo реализует интерфейс UserRepository
type MockRepo struct {
	mock.Mock
}

func (m *MockRepo) ListUsers(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockRepo) GetUser(ctx context.Context, uid string) (*models.User, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockRepo) CreateUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *MockRepo) UpdateUser(ctx context.Context, user models.User, oldStamp string) (int64, error) {
	args := m.Called(ctx, user, oldStamp)
	return int64(args.Int(0)), args.Error(1)
}

func (m *MockRepo) UserExists(ctx context.Context, uid string) (bool, error) {
	args := m.Called(ctx, uid)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepo) FindUsersByUIDs(ctx context.Context, uids []string) ([]*models.User, error) {
	args := m.Called(ctx, uids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockRepo) SaveUsers(ctx context.Context, users []*models.User) error {
	args := m.Called(ctx, users)
	return args.Error(0)
}

func (m *MockRepo) RemoveUsers(ctx context.Context, uids []string) (int64, error) {
	args := m.Called(ctx, uids)
	return int64(args.Int(0)), args.Error(1)
}

// MockSessions реализует интерфейс SessionInvalidator
type MockSessions struct {
	mock.Mock
}

func (m *MockSessions) Invalidate(ctx context.Context, useruid string) error {
	args := m.Called(ctx, useruid)
	return args.Error(0)
}

// MockPublisher реализует интерфейс EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(event events.ModerationEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

func newTestService(repo *MockRepo, sessions *MockSessions, publisher *MockPublisher) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(repo, sessions, publisher, logger)
}

func TestBlockUsers(t *testing.T) {
	tests := []struct {
		name            string
		callerUID       string
		uids            []string
		setupMocks      func(repo *MockRepo, sessions *MockSessions, publisher *MockPublisher)
		wantSuccess     bool
		wantMessage     string
		wantSignedOut   bool
		wantErr         bool
		skipStorageCall bool
	}{
		{
			name:            "пустой список uid",
			callerUID:       "caller",
			uids:            nil,
			setupMocks:      func(_ *MockRepo, _ *MockSessions, _ *MockPublisher) {},
			wantSuccess:     false,
			wantMessage:     "No users selected for blocking.",
			skipStorageCall: true,
		},
		{
			name:      "блокировка двух пользователей, неизвестный uid пропускается",
			callerUID: "u1",
			uids:      []string{"u1", "u2", "missing"},
			setupMocks: func(repo *MockRepo, sessions *MockSessions, publisher *MockPublisher) {
				fetched := []*models.User{
					{UID: "u1", IsBlocked: false},
					{UID: "u2", IsBlocked: false},
				}
				repo.On("FindUsersByUIDs", mock.Anything, []string{"u1", "u2", "missing"}).Return(fetched, nil)
				repo.On("SaveUsers", mock.Anything, mock.MatchedBy(func(users []*models.User) bool {
					return len(users) == 2 && users[0].IsBlocked && users[1].IsBlocked
				})).Return(nil)
				sessions.On("Invalidate", mock.Anything, "u1").Return(nil)
				publisher.On("Publish", mock.MatchedBy(func(e events.ModerationEvent) bool {
					return e.Action == "user.blocked" && len(e.UserUIDs) == 2
				})).Return(nil)
			},
			wantSuccess:   true,
			wantMessage:   "2 user(s) blocked successfully.",
			wantSignedOut: true,
		},
		{
			name:      "повторная блокировка идемпотентна, счетчик равен найденным строкам",
			callerUID: "admin",
			uids:      []string{"u1", "u2"},
			setupMocks: func(repo *MockRepo, sessions *MockSessions, publisher *MockPublisher) {
				fetched := []*models.User{
					{UID: "u1", IsBlocked: true, ConcurrencyStamp: "stamp-1"},
					{UID: "u2", IsBlocked: true, ConcurrencyStamp: "stamp-2"},
				}
				repo.On("FindUsersByUIDs", mock.Anything, []string{"u1", "u2"}).Return(fetched, nil)
				repo.On("SaveUsers", mock.Anything, mock.MatchedBy(func(users []*models.User) bool {
					// уже заблокированные строки не трогаются, штампы не меняются
					return users[0].ConcurrencyStamp == "stamp-1" && users[1].ConcurrencyStamp == "stamp-2"
				})).Return(nil)
				publisher.On("Publish", mock.Anything).Return(nil)
			},
			wantSuccess: true,
			wantMessage: "2 user(s) blocked successfully.",
		},
		{
			name:      "uid вызывающего нет в хранилище, сессия не завершается",
			callerUID: "ghost",
			uids:      []string{"ghost", "u2"},
			setupMocks: func(repo *MockRepo, sessions *MockSessions, publisher *MockPublisher) {
				fetched := []*models.User{
					{UID: "u2", IsBlocked: false},
				}
				repo.On("FindUsersByUIDs", mock.Anything, []string{"ghost", "u2"}).Return(fetched, nil)
				repo.On("SaveUsers", mock.Anything, mock.Anything).Return(nil)
				publisher.On("Publish", mock.Anything).Return(nil)
			},
			wantSuccess: true,
			wantMessage: "1 user(s) blocked successfully.",
		},
		{
			name:      "вызывающий уже заблокирован, сессия все равно завершается",
			callerUID: "u1",
			uids:      []string{"u1"},
			setupMocks: func(repo *MockRepo, sessions *MockSessions, publisher *MockPublisher) {
				fetched := []*models.User{
					{UID: "u1", IsBlocked: true},
				}
				repo.On("FindUsersByUIDs", mock.Anything, []string{"u1"}).Return(fetched, nil)
				repo.On("SaveUsers", mock.Anything, mock.Anything).Return(nil)
				sessions.On("Invalidate", mock.Anything, "u1").Return(nil)
				publisher.On("Publish", mock.Anything).Return(nil)
			},
			wantSuccess:   true,
			wantMessage:   "1 user(s) blocked successfully.",
			wantSignedOut: true,
		},
		{
			name:      "ошибка хранилища",
			callerUID: "admin",
			uids:      []string{"u1"},
			setupMocks: func(repo *MockRepo, _ *MockSessions, _ *MockPublisher) {
				repo.On("FindUsersByUIDs", mock.Anything, []string{"u1"}).Return(nil, errors.New("db error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepo)
			sessions := new(MockSessions)
			publisher := new(MockPublisher)
			tt.setupMocks(repo, sessions, publisher)

			svc := newTestService(repo, sessions, publisher)
			result, err := svc.BlockUsers(context.Background(), tt.callerUID, tt.uids)

			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSuccess, result.Success)
			assert.Equal(t, tt.wantMessage, result.Message)
			assert.Equal(t, tt.wantSignedOut, result.SignedOutCaller)

			if tt.skipStorageCall {
				repo.AssertNotCalled(t, "FindUsersByUIDs", mock.Anything, mock.Anything)
			}
			repo.AssertExpectations(t)
			sessions.AssertExpectations(t)
			publisher.AssertExpectations(t)
		})
	}
}

func TestUnblockUsers(t *testing.T) {
	t.Run("разблокировка самого себя не завершает сессию", func(t *testing.T) {
		repo := new(MockRepo)
		sessions := new(MockSessions)
		publisher := new(MockPublisher)

		fetched := []*models.User{
			{UID: "u1", IsBlocked: true},
		}
		repo.On("FindUsersByUIDs", mock.Anything, []string{"u1"}).Return(fetched, nil)
		repo.On("SaveUsers", mock.Anything, mock.MatchedBy(func(users []*models.User) bool {
			return len(users) == 1 && !users[0].IsBlocked
		})).Return(nil)
		publisher.On("Publish", mock.MatchedBy(func(e events.ModerationEvent) bool {
			return e.Action == "user.unblocked"
		})).Return(nil)

		svc := newTestService(repo, sessions, publisher)
		result, err := svc.UnblockUsers(context.Background(), "u1", []string{"u1"})

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "1 user(s) unblocked successfully.", result.Message)
		assert.False(t, result.SignedOutCaller)
		sessions.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
	})

	t.Run("пустой список uid", func(t *testing.T) {
		repo := new(MockRepo)
		svc := newTestService(repo, new(MockSessions), new(MockPublisher))

		result, err := svc.UnblockUsers(context.Background(), "u1", []string{})

		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "No users selected for unblocking.", result.Message)
		repo.AssertNotCalled(t, "FindUsersByUIDs", mock.Anything, mock.Anything)
	})
}

func TestDeleteSelected(t *testing.T) {
	t.Run("пустой список uid", func(t *testing.T) {
		repo := new(MockRepo)
		svc := newTestService(repo, new(MockSessions), new(MockPublisher))

		result, err := svc.DeleteSelected(context.Background(), "admin", nil)

		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "No users selected for deletion.", result.Message)
		repo.AssertNotCalled(t, "FindUsersByUIDs", mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "RemoveUsers", mock.Anything, mock.Anything)
	})

	t.Run("ни один uid не найден", func(t *testing.T) {
		repo := new(MockRepo)
		repo.On("FindUsersByUIDs", mock.Anything, []string{"missing"}).Return([]*models.User{}, nil)
		svc := newTestService(repo, new(MockSessions), new(MockPublisher))

		result, err := svc.DeleteSelected(context.Background(), "admin", []string{"missing"})

		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "No valid users found for deletion.", result.Message)
		repo.AssertNotCalled(t, "RemoveUsers", mock.Anything, mock.Anything)
	})

	t.Run("удаление чужих учетных записей", func(t *testing.T) {
		repo := new(MockRepo)
		sessions := new(MockSessions)
		publisher := new(MockPublisher)

		fetched := []*models.User{
			{UID: "u1"},
			{UID: "u2"},
		}
		repo.On("FindUsersByUIDs", mock.Anything, []string{"u1", "u2"}).Return(fetched, nil)
		repo.On("RemoveUsers", mock.Anything, []string{"u1", "u2"}).Return(2, nil)
		publisher.On("Publish", mock.MatchedBy(func(e events.ModerationEvent) bool {
			return e.Action == "user.deleted"
		})).Return(nil)

		svc := newTestService(repo, sessions, publisher)
		result, err := svc.DeleteSelected(context.Background(), "admin", []string{"u1", "u2"})

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "2 user(s) deleted successfully.", result.Message)
		assert.False(t, result.SignedOutCaller)
		sessions.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
	})

	t.Run("удаление самого себя, сессия завершается до удаления", func(t *testing.T) {
		repo := new(MockRepo)
		sessions := new(MockSessions)
		publisher := new(MockPublisher)

		var order []string
		fetched := []*models.User{
			{UID: "u1"},
			{UID: "u2"},
		}
		repo.On("FindUsersByUIDs", mock.Anything, []string{"u1", "u2"}).Return(fetched, nil)
		sessions.On("Invalidate", mock.Anything, "u1").Run(func(_ mock.Arguments) {
			order = append(order, "invalidate")
		}).Return(nil)
		repo.On("RemoveUsers", mock.Anything, []string{"u1", "u2"}).Run(func(_ mock.Arguments) {
			order = append(order, "remove")
		}).Return(2, nil)
		publisher.On("Publish", mock.Anything).Return(nil)

		svc := newTestService(repo, sessions, publisher)
		result, err := svc.DeleteSelected(context.Background(), "u1", []string{"u1", "u2"})

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "Your account has been deleted. You have been logged out.", result.Message)
		assert.True(t, result.SignedOutCaller)
		assert.Equal(t, []string{"invalidate", "remove"}, order)
	})

	t.Run("uid вызывающего в запросе, но не в хранилище", func(t *testing.T) {
		// Сессия не завершается (вызывающего нет среди найденных строк),
		// но сообщение остается персональным: так делает оригинал.
		repo := new(MockRepo)
		sessions := new(MockSessions)
		publisher := new(MockPublisher)

		fetched := []*models.User{
			{UID: "u2"},
		}
		repo.On("FindUsersByUIDs", mock.Anything, []string{"ghost", "u2"}).Return(fetched, nil)
		repo.On("RemoveUsers", mock.Anything, []string{"u2"}).Return(1, nil)
		publisher.On("Publish", mock.Anything).Return(nil)

		svc := newTestService(repo, sessions, publisher)
		result, err := svc.DeleteSelected(context.Background(), "ghost", []string{"ghost", "u2"})

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "Your account has been deleted. You have been logged out.", result.Message)
		assert.False(t, result.SignedOutCaller)
		sessions.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
	})
}

func TestEdit(t *testing.T) {
	req := models.DummyUpdateUser{
		UID:              "u1",
		Username:         "user1",
		Email:            "user1@example.com",
		FirstName:        "Ivan",
		LastName:         "Petrov",
		ConcurrencyStamp: "old-stamp",
	}

	t.Run("uid не совпадает с телом запроса", func(t *testing.T) {
		repo := new(MockRepo)
		svc := newTestService(repo, new(MockSessions), new(MockPublisher))

		err := svc.Edit(context.Background(), "other", req)

		assert.True(t, IsNotFound(err))
		repo.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("успешное обновление", func(t *testing.T) {
		repo := new(MockRepo)
		repo.On("UpdateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
			return u.UID == "u1" && u.ConcurrencyStamp != "old-stamp"
		}), "old-stamp").Return(1, nil)

		svc := newTestService(repo, new(MockSessions), new(MockPublisher))
		err := svc.Edit(context.Background(), "u1", req)

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("строка исчезла во время редактирования", func(t *testing.T) {
		repo := new(MockRepo)
		repo.On("UpdateUser", mock.Anything, mock.Anything, "old-stamp").Return(0, nil)
		repo.On("UserExists", mock.Anything, "u1").Return(false, nil)

		svc := newTestService(repo, new(MockSessions), new(MockPublisher))
		err := svc.Edit(context.Background(), "u1", req)

		assert.True(t, IsNotFound(err))
	})

	t.Run("конфликт параллельного редактирования", func(t *testing.T) {
		repo := new(MockRepo)
		repo.On("UpdateUser", mock.Anything, mock.Anything, "old-stamp").Return(0, nil)
		repo.On("UserExists", mock.Anything, "u1").Return(true, nil)

		svc := newTestService(repo, new(MockSessions), new(MockPublisher))
		err := svc.Edit(context.Background(), "u1", req)

		assert.True(t, IsConcurrencyConflict(err))
	})
}

func TestCreate(t *testing.T) {
	t.Run("новый пользователь получает uid, штамп и время регистрации", func(t *testing.T) {
		repo := new(MockRepo)
		var saved models.User
		repo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
			saved = u
			return true
		})).Return("generated-uid", nil)

		svc := newTestService(repo, new(MockSessions), new(MockPublisher))
		uid, err := svc.Create(context.Background(), models.DummyCreateUser{
			Username:  "user1",
			Email:     "user1@example.com",
			Password:  "secret123",
			FirstName: "Ivan",
			LastName:  "Petrov",
		})

		require.NoError(t, err)
		assert.Equal(t, "generated-uid", uid)
		assert.False(t, saved.IsBlocked)
		assert.False(t, saved.RegistrationTime.IsZero())
		assert.Equal(t, "Ivan", saved.FirstName)
		assert.Equal(t, "Petrov", saved.LastName)
		_, err = uuid.Parse(saved.UID)
		assert.NoError(t, err)
		assert.NoError(t, password.CompareHash(saved.PasswordHash, "secret123"))
	})
}

func TestGetByID(t *testing.T) {
	t.Run("пустой uid", func(t *testing.T) {
		repo := new(MockRepo)
		svc := newTestService(repo, new(MockSessions), new(MockPublisher))

		_, err := svc.GetByID(context.Background(), "")

		assert.True(t, IsNotFound(err))
		repo.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
	})

	t.Run("пользователь найден", func(t *testing.T) {
		repo := new(MockRepo)
		repo.On("GetUser", mock.Anything, "u1").Return(&models.User{UID: "u1", FirstName: "Ivan"}, nil)
		svc := newTestService(repo, new(MockSessions), new(MockPublisher))

		u, err := svc.GetByID(context.Background(), "u1")

		require.NoError(t, err)
		assert.Equal(t, "Ivan", u.FirstName)
	})

	t.Run("пользователь отсутствует", func(t *testing.T) {
		repo := new(MockRepo)
		repo.On("GetUser", mock.Anything, "missing").Return(nil, repository.ErrUserNotFound)
		svc := newTestService(repo, new(MockSessions), new(MockPublisher))

		_, err := svc.GetByID(context.Background(), "missing")

		assert.True(t, IsNotFound(err))
	})
}
