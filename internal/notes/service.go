// notes содержит бизнес-логику заметок: создание, выборку по владельцу и
// удаление с проверкой владения. Владелец всегда берётся из access-токена
// (subject), а не из тела запроса.
package notes

import (
	"context"
	"errors"
	"fmt"

	"github.com/avgarcia/notes-service/internal/models"
	"github.com/avgarcia/notes-service/internal/pkg/log"
	"github.com/avgarcia/notes-service/internal/storage"
	"github.com/google/uuid"
)

var (
	// ErrNotFound — заметка не найдена. Транспорт: HTTP 404.
	ErrNotFound = errors.New("note not found")
	// ErrForbidden — заметка принадлежит другому пользователю.
	// Транспорт: HTTP 403.
	ErrForbidden = errors.New("note belongs to another user")
)

// Service описывает бизнес-логику заметок.
type Service struct {
	storage storage.NoteStorage
}

// New создаёт новый экземпляр Service.
func New(storage storage.NoteStorage) *Service {
	return &Service{storage: storage}
}

// Create сохраняет новую заметку от имени ownerID и возвращает её
// с заполненными ID и CreatedAt.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, title, content string, color int64) (*models.Note, error) {
	const op = "notes.service.Create"

	note := &models.Note{
		OwnerID: ownerID,
		Title:   title,
		Content: content,
		Color:   color,
	}

	saved, err := s.storage.SaveNote(ctx, note)
	if err != nil {
		log.From(ctx).Error("failed to save note", "op", op, "err", err)
		return nil, fmt.Errorf("%s: save note: %w", op, err)
	}

	return saved, nil
}

// ListByOwner возвращает все заметки владельца, новые сверху.
func (s *Service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Note, error) {
	const op = "notes.service.ListByOwner"

	list, err := s.storage.NotesByOwner(ctx, ownerID)
	if err != nil {
		log.From(ctx).Error("failed to list notes", "op", op, "err", err)
		return nil, fmt.Errorf("%s: list notes: %w", op, err)
	}

	return list, nil
}

// Delete удаляет заметку id от имени ownerID.
// Чужая заметка — ErrForbidden; несуществующая — ErrNotFound.
func (s *Service) Delete(ctx context.Context, ownerID uuid.UUID, id string) error {
	const op = "notes.service.Delete"

	lg := log.From(ctx)

	note, err := s.storage.NoteByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		lg.Error("failed to fetch note", "op", op, "err", err)
		return fmt.Errorf("%s: fetch note: %w", op, err)
	}

	if note.OwnerID != ownerID {
		lg.Warn("delete rejected: foreign note", "op", op, "note_id", id, "user_id", ownerID)
		return ErrForbidden
	}

	if err := s.storage.DeleteNote(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Гонка двух удалений: запись уже исчезла.
			return ErrNotFound
		}
		lg.Error("failed to delete note", "op", op, "err", err)
		return fmt.Errorf("%s: delete note: %w", op, err)
	}

	return nil
}
