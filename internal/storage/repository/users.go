package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/user-directory/internal/models"
)

// CreateUser сохраняет нового пользователя в базу данных и возвращает его UID.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO users (uid, username, email, first_name, last_name, password_hash,
			      role, is_blocked, concurrency_stamp, registration_time)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.UID, user.Username, user.Email, user.FirstName, user.LastName, user.PasswordHash,
		user.Role, user.IsBlocked, user.ConcurrencyStamp, user.RegistrationTime).Scan(&newUID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetUser возвращает пользователя по его UID или ErrUserNotFound.
func (s *Storage) GetUser(ctx context.Context, uid string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, username, email, first_name, last_name, password_hash,
			      role, is_blocked, concurrency_stamp, registration_time, last_login_time
			  FROM users
			  WHERE uid = $1`
	row := s.DB.QueryRowContext(ctx, query, uid)

	u, err := scanUser(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByUsername возвращает пользователя по его username или ErrUserNotFound.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, username, email, first_name, last_name, password_hash,
			      role, is_blocked, concurrency_stamp, registration_time, last_login_time
			  FROM users
			  WHERE username = $1`
	row := s.DB.QueryRowContext(ctx, query, username)

	u, err := scanUser(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// ListUsers возвращает все учётные записи. Порядок определяется хранилищем.
func (s *Storage) ListUsers(ctx context.Context) ([]*models.User, error) {
	const op = "storage.ListUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, username, email, first_name, last_name, password_hash,
			      role, is_blocked, concurrency_stamp, registration_time, last_login_time
			  FROM users`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// FindUsersByUIDs возвращает пользователей, чьи uid входят в список.
// Неизвестные uid молча пропускаются.
func (s *Storage) FindUsersByUIDs(ctx context.Context, uids []string) ([]*models.User, error) {
	const op = "storage.FindUsersByUIDs"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, username, email, first_name, last_name, password_hash,
			      role, is_blocked, concurrency_stamp, registration_time, last_login_time
			  FROM users
			  WHERE uid = ANY($1)`
	rows, err := s.DB.QueryContext(ctx, query, uids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SaveUsers записывает флаг блокировки и штамп версии для каждого пользователя
// одной транзакцией. Контракт атомарности пакетных операций модерации.
func (s *Storage) SaveUsers(ctx context.Context, users []*models.User) error {
	const op = "storage.SaveUsers"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `UPDATE users
			  SET is_blocked = $1,
			      concurrency_stamp = $2
			  WHERE uid = $3`
	for _, u := range users {
		if _, err = tx.ExecContext(ctx, query, u.IsBlocked, u.ConcurrencyStamp, u.UID); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RemoveUsers удаляет пользователей по списку uid одним запросом
// и возвращает количество удалённых строк.
func (s *Storage) RemoveUsers(ctx context.Context, uids []string) (int64, error) {
	const op = "storage.RemoveUsers"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM users WHERE uid = ANY($1)`
	result, err := s.DB.ExecContext(ctx, query, uids)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected, nil
}

// UpdateUser обновляет данные пользователя при совпадении штампа версии
// и возвращает количество изменённых строк. Ноль строк означает, что строка
// исчезла либо была изменена другим писателем; различает эти случаи сервис.
func (s *Storage) UpdateUser(ctx context.Context, user models.User, oldStamp string) (int64, error) {
	const op = "storage.UpdateUser"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET username = $1, email = $2, first_name = $3, last_name = $4,
			      is_blocked = $5, concurrency_stamp = $6
			  WHERE uid = $7 AND concurrency_stamp = $8`
	result, err := s.DB.ExecContext(ctx, query,
		user.Username, user.Email, user.FirstName, user.LastName,
		user.IsBlocked, user.ConcurrencyStamp, user.UID, oldStamp)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected, nil
}

// UserExists проверяет существование пользователя по uid.
func (s *Storage) UserExists(ctx context.Context, uid string) (bool, error) {
	const op = "storage.UserExists"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE uid = $1)`
	if err := s.DB.QueryRowContext(ctx, query, uid).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// TouchLastLogin обновляет отметку последнего входа пользователя.
func (s *Storage) TouchLastLogin(ctx context.Context, uid string) error {
	const op = "storage.TouchLastLogin"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users SET last_login_time = NOW() WHERE uid = $1`
	if _, err := s.DB.ExecContext(ctx, query, uid); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func scanUser(scan func(dest ...any) error) (*models.User, error) {
	u := &models.User{}
	var lastLoginTime sql.NullTime
	if err := scan(&u.UID, &u.Username, &u.Email, &u.FirstName, &u.LastName,
		&u.PasswordHash, &u.Role, &u.IsBlocked, &u.ConcurrencyStamp,
		&u.RegistrationTime, &lastLoginTime); err != nil {
		return nil, err
	}
	if lastLoginTime.Valid {
		u.LastLoginTime = &lastLoginTime.Time
	}
	return u, nil
}
