// errors стандартизирует ответы об ошибках HTTP-слоя.
// На вход он принимает доменную ошибку (service/notes/context),
// а на выход даёт:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей.
//
// Отдельный формат — для ошибок валидации тела запроса: список пар
// {field, message}, чтобы фронт мог подсветить конкретные поля формы.
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/avgarcia/notes-service/internal/notes"
	"github.com/avgarcia/notes-service/internal/service"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// APIError — единый формат для фронта.
// Code — короткий стабильный код для машиночитаемой обработки на FE.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// FieldError — ошибка валидации одного поля запроса.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResponse — корневой объект в ответе 400 при ошибках валидации.
type ValidationResponse struct {
	Errors []FieldError `json:"errors"`
}

// ToHTTP конвертирует доменную ошибку в HTTP-статус и унифицированный
// ответ для фронта.
//
// Поведение:
//   - err == nil — это программная ошибка вызова: возвращаем 500/internal,
//     чтобы не послать "200 OK" с телом ошибки и не маскировать баг;
//   - все отказы по refresh-токену схлопнуты сервисом в одну ошибку и
//     наружу уходят одним 401/unauthenticated — без различения причин;
//   - прочее -> 500/internal (без утечки деталей).
func ToHTTP(err error) (int, ErrorResponse) {
	status, code, msg := base(err)
	return status, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	// Прокидываем request_id для фронта, чтобы он мог репортить баги с привязкой.
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	writeJSON(w, status, resp)
}

// WriteValidation пишет 400 со списком ошибок полей.
func WriteValidation(w http.ResponseWriter, errs []FieldError) {
	writeJSON(w, http.StatusBadRequest, ValidationResponse{Errors: errs})
}

// base — базовый маппинг доменных ошибок -> HTTP/FE-код/сообщение:
//   - ErrInvalidEmail (битый e-mail, прошедший мимо границы) -> 400
//   - ErrInvalidCredentials -> 401
//   - ErrInvalidToken (любой дефект refresh/access-токена) -> 401
//   - ErrEmailTaken -> 409
//   - notes.ErrNotFound -> 404
//   - notes.ErrForbidden -> 403
//   - context.Canceled -> 499 (клиент закрыл соединение)
//   - context.DeadlineExceeded -> 504 (таймаут запроса)
//   - прочее -> 500/internal
func base(err error) (int, string, string) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, "internal", "internal error"
	case stderrors.Is(err, service.ErrInvalidEmail):
		return http.StatusBadRequest, "invalid_argument", "invalid email format"
	case stderrors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "unauthenticated", "invalid credentials"
	case stderrors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized, "unauthenticated", "invalid token"
	case stderrors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, "already_exists", "email already registered"
	case stderrors.Is(err, notes.ErrNotFound):
		return http.StatusNotFound, "not_found", "not found"
	case stderrors.Is(err, notes.ErrForbidden):
		return http.StatusForbidden, "permission_denied", "permission denied"
	case stderrors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "canceled", "canceled"
	case stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
