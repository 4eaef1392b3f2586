package middleware

import (
	"context"
	"net/http"

	apierrors "github.com/avgarcia/notes-service/internal/errors"
	"github.com/avgarcia/notes-service/internal/service"
	"github.com/google/uuid"
)

type ctxKey string

// ctxUserID — ключ контекста с идентификатором аутентифицированного пользователя.
const ctxUserID ctxKey = "user_id"

// Authenticator проверяет access-токен и возвращает идентификатор владельца.
// Реализуется service.Service.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (uuid.UUID, error)
}

// Auth защищает маршрут access-токеном из заголовка Authorization.
// Токен принимается как со схемой "Bearer ", так и без неё; любой дефект
// (нет заголовка, битая подпись, истёк, не тот тип) — единый 401.
func Auth(a Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("Authorization")
			if raw == "" {
				apierrors.WriteError(w, r, service.ErrInvalidToken)
				return
			}

			userID, err := a.Authenticate(r.Context(), raw)
			if err != nil {
				apierrors.WriteError(w, r, service.ErrInvalidToken)
				return
			}

			ctx := context.WithValue(r.Context(), ctxUserID, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID достаёт идентификатор пользователя, положенный Auth.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ctxUserID).(uuid.UUID)
	return id, ok
}
