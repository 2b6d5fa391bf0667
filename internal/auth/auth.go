// Package auth разбирает Bearer JWT и сопоставляет токен пользователю каталога.
package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/DRSN-tech/catalog-backend/internal/cfg"
	"github.com/DRSN-tech/catalog-backend/internal/domain"
	"github.com/DRSN-tech/catalog-backend/internal/usecase"
	"github.com/DRSN-tech/catalog-backend/pkg/e"
	"github.com/golang-jwt/jwt/v5"
)

type userKey struct{}

// CtxWithUser кладёт аутентифицированного пользователя в контекст запроса.
func CtxWithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFromCtx возвращает аутентифицированного пользователя запроса.
func UserFromCtx(ctx context.Context) (*domain.User, error) {
	user, ok := ctx.Value(userKey{}).(*domain.User)
	if !ok {
		return nil, e.ErrUnauthorized
	}
	return user, nil
}

// Service проверяет JWT-токены (HS256) и возвращает пользователя,
// создавая запись при первом обращении.
type Service struct {
	users  usecase.UserRepository
	secret []byte
}

func NewService(users usecase.UserRepository, cfg *cfg.AuthCfg) *Service {
	return &Service{
		users:  users,
		secret: cfg.JWTSecret,
	}
}

// Authenticate разбирает заголовок Authorization ("Bearer <token>") и
// возвращает пользователя из claim sub.
func (s *Service) Authenticate(ctx context.Context, authHeader string) (*domain.User, error) {
	const op = "auth.Service.Authenticate"

	tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || tokenString == "" {
		return nil, e.Wrap(op, e.ErrUnauthorized)
	}

	username, err := s.parseToken(tokenString)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	user, err := s.users.GetOrCreate(ctx, username)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return user, nil
}

// parseToken проверяет подпись токена и извлекает username из claim sub.
func (s *Service) parseToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", e.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", e.ErrUnauthorized
	}

	username, err := claims.GetSubject()
	if err != nil || username == "" {
		return "", e.ErrUnauthorized
	}

	return username, nil
}
