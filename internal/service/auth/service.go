package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
	usersvc "github.com/vladislavdragonenkov/ecom/internal/service/user"
)

const defaultTokenTTL = 15 * time.Minute

// ErrTokenInvalid возвращается при просроченном или повреждённом токене.
var ErrTokenInvalid = errors.New("token is invalid or expired")

// Claims — полезная нагрузка access-токена.
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Service выпускает и проверяет JWT access-токены.
type Service struct {
	users    *usersvc.Service
	secret   []byte
	tokenTTL time.Duration
	logger   *log.Entry
}

// NewService создаёт сервис аутентификации. tokenTTL <= 0 трактуется
// как значение по умолчанию.
func NewService(users *usersvc.Service, secret string, tokenTTL time.Duration, logger *log.Entry) *Service {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	if logger == nil {
		logger = log.New().WithField("component", "auth-service")
	}
	return &Service{
		users:    users,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// Login проверяет учётные данные и возвращает подписанный токен.
func (s *Service) Login(email, password string) (string, domain.User, error) {
	user, err := s.users.Authenticate(email, password)
	if err != nil {
		return "", domain.User{}, err
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return "", domain.User{}, err
	}

	s.logger.WithField("user_id", user.ID).Info("user logged in")
	return token, user, nil
}

// IssueToken выпускает access-токен для пользователя.
func (s *Service) IssueToken(user domain.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: user.ID,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// VerifyToken разбирает и валидирует подпись и срок действия токена.
func (s *Service) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
