package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken — серверная запись о выданном refresh-токене.
// Сырой токен не хранится: только его детерминированный SHA-256 хэш,
// по которому выполняется точный поиск при ротации.
type RefreshToken struct {
	UserID    uuid.UUID
	TokenHash string
	CreatedAt time.Time
	// ExpiresAt — абсолютный срок жизни сессии: при ротации переносится
	// из потреблённой записи в новую без продления.
	ExpiresAt time.Time
}
