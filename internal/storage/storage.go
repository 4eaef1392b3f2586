package storage

import (
	"context"
	"errors"
	"time"

	"github.com/avgarcia/notes-service/internal/models"

	"github.com/google/uuid"
)

var (
	// ErrNotFound — запись не найдена (пользователь/refresh-токен/заметка).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email/хэш refresh-токена).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// SaveUser создает нового пользователя в БД.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByEmail находит пользователя по email.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// RefreshTokenStorage выполняет операции над записями refresh-токенов.
type RefreshTokenStorage interface {
	// SaveRefreshToken сохраняет новую запись refresh-токена.
	SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error
	// RefreshTokenByUserAndHash находит запись по паре (владелец, хэш).
	RefreshTokenByUserAndHash(ctx context.Context, userID uuid.UUID, hash string) (*models.RefreshToken, error)
	// RotateRefreshToken атомарно потребляет запись (userID, oldHash) и
	// сохраняет замену next. Если записи уже нет (повторная или конкурентная
	// ротация) — ErrNotFound, и замена не сохраняется.
	RotateRefreshToken(ctx context.Context, userID uuid.UUID, oldHash string, next *models.RefreshToken) error
	// DeleteAllByUser удаляет все записи пользователя (новый вход отзывает
	// все ранее выданные refresh-токены).
	DeleteAllByUser(ctx context.Context, userID uuid.UUID) error
	// DeleteExpiredTokens удаляет все просроченные записи.
	DeleteExpiredTokens(ctx context.Context, now time.Time) error
}

// NoteStorage выполняет операции над заметками.
type NoteStorage interface {
	// SaveNote сохраняет новую заметку и возвращает её с заполненным ID.
	SaveNote(ctx context.Context, note *models.Note) (*models.Note, error)
	// NoteByID находит заметку по ID.
	NoteByID(ctx context.Context, id string) (*models.Note, error)
	// NotesByOwner возвращает все заметки владельца (новые сверху).
	NotesByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Note, error)
	// DeleteNote удаляет заметку по ID.
	DeleteNote(ctx context.Context, id string) error
}

// Storage задает контракт работы с БД аутентификации.
type Storage interface {
	UserStorage
	RefreshTokenStorage
	Close()
}
