// Package models содержит доменную модель пользователя системы,
// включающую профиль, флаг блокировки и служебные поля учётной записи.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import "time"

// User представляет учётную запись пользователя системы.
// Поля PasswordHash и ConcurrencyStamp принадлежат подсистеме идентификации
// и обрабатываются как непрозрачные значения.
type User struct {
	UID              string     // Уникальный идентификатор пользователя, неизменяемый
	Username         string     // Имя пользователя (уникальное)
	Email            string     // Электронная почта
	FirstName        string     // Имя
	LastName         string     // Фамилия
	PasswordHash     string     // Хэш пароля пользователя
	Role             string     // Роль пользователя, admin или user
	IsBlocked        bool       // Флаг блокировки учётной записи
	ConcurrencyStamp string     // Штамп версии строки, меняется при каждой записи
	RegistrationTime time.Time  // Дата и время регистрации, выставляется один раз
	LastLoginTime    *time.Time // Дата и время последнего входа, nil если входов не было
}

// DummyCreateUser используется для приёма данных из JSON-запроса на создание
// пользователя, прежде чем конвертировать их в User.
type DummyCreateUser struct {
	Username  string `json:"username" validate:"required,min=3,max=50"` // Имя пользователя
	Email     string `json:"email" validate:"required,email"`           // Электронная почта
	Password  string `json:"password" validate:"required,min=6"`        // Пароль в открытом виде
	FirstName string `json:"first_name" validate:"required"`            // Имя
	LastName  string `json:"last_name" validate:"required"`             // Фамилия
}

// DummyUpdateUser используется для приёма данных из JSON-запроса на редактирование.
// UID обязан совпадать с идентификатором в URL, ConcurrencyStamp — со штампом,
// прочитанным клиентом перед редактированием.
type DummyUpdateUser struct {
	UID              string `json:"uid" validate:"required,uuid"`              // Идентификатор пользователя
	Username         string `json:"username" validate:"required,min=3,max=50"` // Имя пользователя
	Email            string `json:"email" validate:"required,email"`           // Электронная почта
	FirstName        string `json:"first_name" validate:"required"`            // Имя
	LastName         string `json:"last_name" validate:"required"`             // Фамилия
	IsBlocked        bool   `json:"is_blocked"`                                // Флаг блокировки
	ConcurrencyStamp string `json:"concurrency_stamp" validate:"required"`     // Штамп версии строки
}

// UserView представляет пользователя в JSON-ответах. Хэш пароля наружу
// не отдается, штамп версии нужен клиенту для последующего редактирования.
type UserView struct {
	UID              string     `json:"uid"`
	Username         string     `json:"username"`
	Email            string     `json:"email"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	Role             string     `json:"role"`
	IsBlocked        bool       `json:"is_blocked"`
	ConcurrencyStamp string     `json:"concurrency_stamp"`
	RegistrationTime time.Time  `json:"registration_time"`
	LastLoginTime    *time.Time `json:"last_login_time,omitempty"`
}

// NewUserView конвертирует доменную модель в представление для ответа.
func NewUserView(u *User) UserView {
	return UserView{
		UID:              u.UID,
		Username:         u.Username,
		Email:            u.Email,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Role:             u.Role,
		IsBlocked:        u.IsBlocked,
		ConcurrencyStamp: u.ConcurrencyStamp,
		RegistrationTime: u.RegistrationTime,
		LastLoginTime:    u.LastLoginTime,
	}
}

// BatchResult описывает итог пакетной операции модерации.
// Success и Message возвращаются клиенту как есть, SignedOutCaller отмечает,
// что сессия вызывающего была завершена.
type BatchResult struct {
	Success         bool
	Message         string
	SignedOutCaller bool
}
