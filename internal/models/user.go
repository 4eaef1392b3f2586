package models

import (
	"time"

	"github.com/google/uuid"
)

// User — учётная запись пользователя.
// Создаётся при регистрации; ядро аутентификации её не изменяет.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
