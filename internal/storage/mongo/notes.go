package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avgarcia/notes-service/internal/models"
	"github.com/avgarcia/notes-service/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// noteDoc — представление заметки в коллекции.
// Доменная модель (models.Note) держит ID строкой, поэтому конвертация
// ObjectID выполняется только здесь.
type noteDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID   string             `bson:"owner_id"`
	Title     string             `bson:"title"`
	Content   string             `bson:"content"`
	Color     int64              `bson:"color"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (d noteDoc) toModel() models.Note {
	// owner_id пишется этим же пакетом из uuid.UUID — парсинг не может
	// провалиться на неповреждённых данных; на повреждённых вернётся uuid.Nil.
	owner, _ := uuid.Parse(d.OwnerID)

	return models.Note{
		ID:        d.ID.Hex(),
		OwnerID:   owner,
		Title:     d.Title,
		Content:   d.Content,
		Color:     d.Color,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

// SaveNote сохраняет новую заметку и возвращает её с заполненным ID.
func (m *Mongo) SaveNote(ctx context.Context, note *models.Note) (*models.Note, error) {
	const op = "storage/mongo/SaveNote"

	// MongoDB DateTime хранит миллисекунды.
	now := time.Now().UTC().Truncate(time.Millisecond)

	doc := noteDoc{
		OwnerID:   note.OwnerID.String(),
		Title:     note.Title,
		Content:   note.Content,
		Color:     note.Color,
		CreatedAt: now,
	}

	res, err := m.notes.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("%s: insert: %w", op, err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		// Mongo всегда возвращает ObjectID.
		return nil, fmt.Errorf("%s: inserted id type", op)
	}

	doc.ID = oid
	out := doc.toModel()

	return &out, nil
}

// NoteByID возвращает заметку по идентификатору.
// Некорректный формат id трактуется как «нет такой записи».
func (m *Mongo) NoteByID(ctx context.Context, id string) (*models.Note, error) {
	const op = "storage/mongo/NoteByID"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	var doc noteDoc
	if err := m.notes.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := doc.toModel()

	return &out, nil
}

// NotesByOwner возвращает все заметки владельца (новые сверху).
func (m *Mongo) NotesByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Note, error) {
	const op = "storage/mongo/NotesByOwner"

	filter := bson.D{{Key: "owner_id", Value: ownerID.String()}}
	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cur, err := m.notes.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	var items []models.Note
	for cur.Next(ctx) {
		var doc noteDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}

		items = append(items, doc.toModel())
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", op, err)
	}

	return items, nil
}

// DeleteNote удаляет заметку по ID.
// При отсутствии записи — storage.ErrNotFound.
func (m *Mongo) DeleteNote(ctx context.Context, id string) error {
	const op = "storage/mongo/DeleteNote"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	res, err := m.notes.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}
