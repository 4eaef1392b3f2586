package mongo

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/avgarcia/notes-service/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	notesCollection = "notes"
	defaultDBName   = "notes"
)

// Mongo — тонкий адаптер для подключения и коллекций MongoDB.
type Mongo struct {
	client *mongodriver.Client
	db     *mongodriver.Database
	notes  *mongodriver.Collection
}

// New подключается к MongoDB, проверяет соединение и обеспечивает индексацию.
func New(ctx context.Context, mongoURL string) (*Mongo, error) {
	if mongoURL == "" {
		return nil, fmt.Errorf("mongo: empty url")
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(mongoURL))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	dbName := databaseFromURI(mongoURL)
	db := cli.Database(dbName)

	m := &Mongo{
		client: cli,
		db:     db,
		notes:  db.Collection(notesCollection),
	}

	if err := m.ensureIndexes(ctx); err != nil {
		_ = m.Close(ctx)
		return nil, err
	}

	return m, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// ensureIndexes создает индексы, необходимые для заметок:
// выдача заметок владельца — owner_id + created_at(desc).
func (m *Mongo) ensureIndexes(ctx context.Context) error {
	models := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("owner_created_desc"),
		},
	}

	_, err := m.notes.Indexes().CreateMany(ctx, models)
	if err != nil {
		return fmt.Errorf("mongo ensure indexes: %w", err)
	}

	return nil
}

// databaseFromURI извлекает имя базы данных из URI-пути mongodb.
// Если оно отсутствует или не поддается расшифровке, возвращает значение по умолчанию.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}

	return defaultDBName
}

// Проверка на соответствие интерфейсу NoteStorage.
var _ storage.NoteStorage = (*Mongo)(nil)
