package user

import (
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// Service управляет учётными записями пользователей.
// Пароли хранятся только как bcrypt-хэши.
type Service struct {
	users  domain.UserRepository
	logger *log.Entry
}

// NewService создаёт сервис пользователей.
func NewService(users domain.UserRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "user-service")
	}
	return &Service{users: users, logger: logger}
}

// RegisterRequest — входные данные регистрации.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// Register создаёт пользователя с bcrypt-хэшем пароля.
// Пустая роль трактуется как USER.
func (s *Service) Register(req RegisterRequest) (domain.User, error) {
	if req.Role == "" {
		req.Role = domain.RoleUser
	}
	if len(req.Password) < 6 {
		return domain.User{}, domain.ErrPasswordTooShort
	}

	user := domain.User{
		Name:  strings.TrimSpace(req.Name),
		Email: strings.ToLower(strings.TrimSpace(req.Email)),
		Role:  req.Role,
	}
	if errs := user.Validate(); len(errs) > 0 {
		return domain.User{}, errs[0]
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)

	if err := s.users.Create(&user); err != nil {
		return domain.User{}, err
	}

	s.logger.WithFields(log.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("user registered")

	return user, nil
}

// Authenticate сверяет пароль с хэшем. Возвращает ErrInvalidCredentials
// и для неизвестного email, и для неверного пароля, не различая их.
func (s *Service) Authenticate(email, password string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.User{}, domain.ErrInvalidCredentials
		}
		return domain.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, domain.ErrInvalidCredentials
	}

	return user, nil
}

// Get возвращает пользователя по идентификатору.
func (s *Service) Get(id int64) (domain.User, error) {
	return s.users.Get(id)
}

// List возвращает всех пользователей.
func (s *Service) List() ([]domain.User, error) {
	return s.users.List()
}

// UpdateRequest — изменяемые поля пользователя.
type UpdateRequest struct {
	Name  string
	Email string
	Role  domain.Role
}

// Update меняет имя, email и роль пользователя. Пустые поля не трогаются.
func (s *Service) Update(id int64, req UpdateRequest) (domain.User, error) {
	user, err := s.users.Get(id)
	if err != nil {
		return domain.User{}, err
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = name
	}
	if email := strings.ToLower(strings.TrimSpace(req.Email)); email != "" {
		user.Email = email
	}
	if req.Role != "" {
		user.Role = req.Role
	}
	if errs := user.Validate(); len(errs) > 0 {
		return domain.User{}, errs[0]
	}

	if err := s.users.Update(user); err != nil {
		return domain.User{}, err
	}

	return user, nil
}

// Delete удаляет пользователя.
func (s *Service) Delete(id int64) error {
	if err := s.users.Delete(id); err != nil {
		return err
	}
	s.logger.WithField("user_id", id).Info("user deleted")
	return nil
}
