package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avgarcia/notes-service/internal/models"
	"github.com/avgarcia/notes-service/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SaveRefreshToken сохраняет новую запись refresh-токена.
func (s *Storage) SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	const op = "storage.postgres.SaveRefreshToken"

	query := `
        INSERT INTO refresh_tokens(user_id, token_hash, created_at, expires_at)
        VALUES ($1, $2, $3, $4)
    `

	_, err := s.db.Exec(ctx, query,
		token.UserID,
		token.TokenHash,
		token.CreatedAt,
		token.ExpiresAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RefreshTokenByUserAndHash находит запись по паре (владелец, хэш).
func (s *Storage) RefreshTokenByUserAndHash(ctx context.Context, userID uuid.UUID, hash string) (*models.RefreshToken, error) {
	const op = "storage.postgres.RefreshTokenByUserAndHash"

	query := `
        SELECT user_id, token_hash, created_at, expires_at
        FROM refresh_tokens
        WHERE user_id = $1 AND token_hash = $2
    `

	var token models.RefreshToken
	err := s.db.QueryRow(ctx, query, userID, hash).Scan(
		&token.UserID,
		&token.TokenHash,
		&token.CreatedAt,
		&token.ExpiresAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &token, nil
}

// RotateRefreshToken атомарно потребляет запись (userID, oldHash) и сохраняет
// замену next в одной транзакции.
//
// DELETE выступает как compare-and-delete: при конкурентных ротациях одного и
// того же токена строку удалит ровно одна транзакция, остальные увидят ноль
// затронутых строк и получат ErrNotFound. Откат транзакции гарантирует, что
// старая запись не исчезнет без долговечно сохранённой замены.
func (s *Storage) RotateRefreshToken(ctx context.Context, userID uuid.UUID, oldHash string, next *models.RefreshToken) error {
	const op = "storage.postgres.RotateRefreshToken"

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const del = `
        DELETE FROM refresh_tokens
        WHERE user_id = $1 AND token_hash = $2
    `

	cmdTag, err := tx.Exec(ctx, del, userID, oldHash)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	const ins = `
        INSERT INTO refresh_tokens(user_id, token_hash, created_at, expires_at)
        VALUES ($1, $2, $3, $4)
    `

	_, err = tx.Exec(ctx, ins,
		next.UserID,
		next.TokenHash,
		next.CreatedAt,
		next.ExpiresAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DeleteAllByUser удаляет все записи refresh-токенов пользователя.
func (s *Storage) DeleteAllByUser(ctx context.Context, userID uuid.UUID) error {
	const op = "storage.postgres.DeleteAllByUser"

	query := `
        DELETE FROM refresh_tokens
        WHERE user_id = $1
    `

	if _, err := s.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DeleteExpiredTokens удаляет все просроченные записи.
func (s *Storage) DeleteExpiredTokens(ctx context.Context, now time.Time) error {
	const op = "storage.postgres.DeleteExpiredTokens"

	query := `
        DELETE FROM refresh_tokens
        WHERE expires_at <= $1
    `

	if _, err := s.db.Exec(ctx, query, now); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
