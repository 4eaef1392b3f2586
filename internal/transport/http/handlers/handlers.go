// handlers реализует HTTP-обработчики сервиса: аутентификацию и заметки.
// Валидация формы запроса (формат полей) живёт здесь, на границе; бизнес-правила —
// в service/notes.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/avgarcia/notes-service/internal/notes"
	"github.com/avgarcia/notes-service/internal/service"
)

// Handlers агрегирует зависимости (бизнес-сервисы).
type Handlers struct {
	Auth  *service.Service
	Notes *notes.Service
}

func New(auth *service.Service, notes *notes.Service) *Handlers {
	return &Handlers{Auth: auth, Notes: notes}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}
