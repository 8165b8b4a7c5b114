package domain

import (
	"strings"
	"time"
)

// Role задаёт роль пользователя для авторизации.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid проверяет, что роль относится к известному набору.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User — покупатель или администратор магазина.
// Поток оформления заказа только читает пользователя, никогда не мутирует.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate проверяет обязательные поля пользователя.
func (u *User) Validate() []error {
	var errs []error

	if strings.TrimSpace(u.Name) == "" {
		errs = append(errs, ErrUserNameRequired)
	}
	if !strings.Contains(u.Email, "@") {
		errs = append(errs, ErrUserEmailInvalid)
	}
	if !u.Role.Valid() {
		errs = append(errs, ErrUserRoleInvalid)
	}

	return errs
}
