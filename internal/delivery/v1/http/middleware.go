package http

import (
	"net/http"

	"github.com/DRSN-tech/catalog-backend/internal/auth"
	"github.com/DRSN-tech/catalog-backend/pkg/e"
	"github.com/DRSN-tech/catalog-backend/pkg/logger"
)

// AuthMiddleware проверяет Bearer JWT и кладёт пользователя в контекст
// запроса. Запрос без валидного токена отклоняется с 401.
func AuthMiddleware(svc *auth.Service, logger logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := svc.Authenticate(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				logger.Warnf("auth failed: %s %s: %v", r.Method, r.URL.Path, err)
				WriteError(w, e.ErrUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.CtxWithUser(r.Context(), user)))
		})
	}
}
