package models

import (
	"time"

	"github.com/google/uuid"
)

// Note — доменная модель заметки (MongoDB).
// Важно:
//   - ID — ObjectID MongoDB, наружу/вовнутрь конвертируется в string;
//   - OwnerID — субъект access-токена; никогда не берётся из тела запроса;
//   - Color — цвет карточки, непрозрачное число для клиента.
type Note struct {
	ID        string
	OwnerID   uuid.UUID
	Title     string
	Content   string
	Color     int64
	CreatedAt time.Time
}
