package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/avgarcia/notes-service/internal/cache"
	"github.com/avgarcia/notes-service/internal/models"
	"github.com/avgarcia/notes-service/internal/pkg/log"
	"github.com/avgarcia/notes-service/internal/pkg/redact"
	"github.com/avgarcia/notes-service/internal/storage"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Register регистрирует нового пользователя.
//
// Алгоритм:
//  1. нормализуем e-mail (trim + нижний регистр) и проверяем формат;
//  2. проверяем занятость e-mail;
//  3. хэшируем пароль (bcrypt) и сохраняем пользователя.
//
// Регистрация не выпускает токены: клиент должен пройти вход отдельно.
//
// Возможные ошибки: ErrInvalidEmail, ErrEmailTaken.
func (s *Service) Register(ctx context.Context, email, password string) (*models.User, error) {
	const op = "service.auth.Register"

	lg := log.From(ctx)

	email, err := normalizeEmail(email)
	if err != nil {
		lg.Warn("invalid email format", "op", op)
		return nil, ErrInvalidEmail
	}

	if _, err := s.storage.UserByEmail(ctx, email); err == nil {
		lg.Warn("email already registered", "op", op, "email", redact.Email(email))
		return nil, ErrEmailTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		lg.Error("failed to check email", "op", op, "err", err)
		return nil, fmt.Errorf("%s: check email: %w", op, err)
	}

	hash, err := hashPassword(password)
	if err != nil {
		lg.Error("failed to hash password", "op", op, "err", err)
		return nil, fmt.Errorf("%s: hash password: %w", op, err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		// Гонка двух регистраций на один e-mail: уникальный индекс в БД —
		// финальный арбитр.
		if errors.Is(err, storage.ErrAlreadyExists) {
			lg.Warn("email already registered (race)", "op", op, "email", redact.Email(email))
			return nil, ErrEmailTaken
		}
		lg.Error("failed to save user", "op", op, "err", err)
		return nil, fmt.Errorf("%s: save user: %w", op, err)
	}

	lg.Info("user registered", "op", op, "user_id", user.ID)

	return user, nil
}

// Login аутентифицирует пользователя по паре e-mail/пароль и выпускает новую
// пару токенов. Все прежние refresh-токены пользователя отзываются: действует
// политика единственной активной сессии.
//
// Несуществующий пользователь и неверный пароль неразличимы снаружи — оба
// случая дают ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*models.TokenPair, error) {
	const op = "service.auth.Login"

	lg := log.From(ctx)

	email, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.storage.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("login failed: user not found", "op", op, "email", redact.Email(email))
			return nil, ErrInvalidCredentials
		}
		lg.Error("failed to fetch user", "op", op, "err", err)
		return nil, fmt.Errorf("%s: fetch user: %w", op, err)
	}

	if !checkPassword(user.PasswordHash, password) {
		lg.Warn("login failed: wrong password", "op", op, "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	if err := s.storage.DeleteAllByUser(ctx, user.ID); err != nil {
		lg.Error("failed to revoke previous sessions", "op", op, "err", err)
		return nil, fmt.Errorf("%s: revoke sessions: %w", op, err)
	}

	pair, expiresAt, err := s.issuePair(user.ID)
	if err != nil {
		lg.Error("failed to issue token pair", "op", op, "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	record := &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashRefreshToken(pair.RefreshToken),
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expiresAt,
	}
	if err := s.storage.SaveRefreshToken(ctx, record); err != nil {
		lg.Error("failed to save refresh token", "op", op, "err", err)
		return nil, fmt.Errorf("%s: save refresh token: %w", op, err)
	}

	s.cacheSet(ctx, record)

	lg.Info("user logged in", "op", op, "user_id", user.ID)

	return pair, nil
}

// Refresh атомарно ротирует refresh-токен и возвращает новую пару.
//
// Алгоритм:
//  1. проверяем подпись/тип/срок токена и извлекаем владельца;
//  2. убеждаемся, что владелец существует;
//  3. находим запись по дайджесту и переносим её срок истечения на замену:
//     ротация НЕ продлевает жизнь цепочки, начатой при входе;
//  4. в одной транзакции удаляем старую запись (compare-and-delete) и
//     вставляем замену — из N конкурентных запросов с одним токеном
//     успешен ровно один.
//
// Любой сбой на шагах 1–4 — ErrInvalidToken, без уточнения причины.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	const op = "service.auth.Refresh"

	lg := log.From(ctx)

	refreshToken = stripScheme(refreshToken)

	userID, err := s.verifyToken(refreshToken, tokenTypeRefresh)
	if err != nil {
		lg.Warn("refresh failed: token rejected", "op", op)
		return nil, ErrInvalidToken
	}

	if _, err := s.storage.UserByID(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("refresh failed: unknown user", "op", op, "user_id", userID)
			return nil, ErrInvalidToken
		}
		lg.Error("failed to fetch user", "op", op, "err", err)
		return nil, fmt.Errorf("%s: fetch user: %w", op, err)
	}

	oldHash := hashRefreshToken(refreshToken)

	// Кэш — быстрый отсев уже ротированных токенов; источник истины — БД.
	if s.rcache != nil {
		if entry, ok, err := s.rcache.Get(ctx, oldHash); err == nil && ok && entry.Revoked {
			lg.Warn("refresh failed: token already rotated (cache)", "op", op, "user_id", userID)
			return nil, ErrInvalidToken
		}
	}

	current, err := s.storage.RefreshTokenByUserAndHash(ctx, userID, oldHash)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("refresh failed: token not found", "op", op, "user_id", userID)
			return nil, ErrInvalidToken
		}
		lg.Error("failed to fetch refresh token", "op", op, "err", err)
		return nil, fmt.Errorf("%s: fetch refresh token: %w", op, err)
	}

	if !current.ExpiresAt.After(time.Now()) {
		lg.Warn("refresh failed: token expired", "op", op, "user_id", userID)
		return nil, ErrInvalidToken
	}

	pair, _, err := s.issuePair(userID)
	if err != nil {
		lg.Error("failed to issue token pair", "op", op, "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Замена наследует срок истечения потреблённой записи: цепочка живёт
	// столько, сколько отмерено при входе.
	next := &models.RefreshToken{
		UserID:    userID,
		TokenHash: hashRefreshToken(pair.RefreshToken),
		CreatedAt: time.Now().UTC(),
		ExpiresAt: current.ExpiresAt,
	}

	if err := s.storage.RotateRefreshToken(ctx, userID, oldHash, next); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Конкурентная ротация: другой запрос успел потребить токен
			// между выборкой и транзакцией.
			lg.Warn("refresh failed: token consumed concurrently", "op", op, "user_id", userID)
			return nil, ErrInvalidToken
		}
		lg.Error("failed to rotate refresh token", "op", op, "err", err)
		return nil, fmt.Errorf("%s: rotate refresh token: %w", op, err)
	}

	s.cacheRevoke(ctx, oldHash)
	s.cacheSet(ctx, next)

	lg.Info("tokens refreshed", "op", op, "user_id", userID)

	return pair, nil
}

// Authenticate проверяет access-токен и возвращает идентификатор владельца.
// Используется транспортным middleware для защищённых маршрутов.
func (s *Service) Authenticate(_ context.Context, accessToken string) (uuid.UUID, error) {
	return s.verifyToken(accessToken, tokenTypeAccess)
}

// issuePair выпускает пару access/refresh; вторым значением возвращает срок
// истечения refresh-токена для записи в хранилище.
func (s *Service) issuePair(userID uuid.UUID) (*models.TokenPair, time.Time, error) {
	now := time.Now()

	access, err := s.generateToken(userID, tokenTypeAccess, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("generate access token: %w", err)
	}

	refresh, err := s.generateToken(userID, tokenTypeRefresh, s.cfg.RefreshTokenTTL)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("generate refresh token: %w", err)
	}

	pair := &models.TokenPair{
		AccessToken:     access,
		RefreshToken:    refresh,
		AccessExpiresAt: now.Add(s.cfg.AccessTokenTTL),
	}

	return pair, now.Add(s.cfg.RefreshTokenTTL), nil
}

// cacheSet кладёт запись о выпущенном refresh-токене в кэш.
// Ошибки кэша не фатальны и только логируются.
func (s *Service) cacheSet(ctx context.Context, rec *models.RefreshToken) {
	if s.rcache == nil {
		return
	}

	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		return
	}

	entry := &cache.RefreshEntry{
		UserID:    rec.UserID,
		ExpiresAt: rec.ExpiresAt,
	}
	if err := s.rcache.Set(ctx, rec.TokenHash, entry, ttl); err != nil {
		log.From(ctx).Warn("refresh cache set failed", "err", err)
	}
}

// cacheRevoke помечает дайджест как ротированный.
func (s *Service) cacheRevoke(ctx context.Context, tokenHash string) {
	if s.rcache == nil {
		return
	}
	if err := s.rcache.MarkRevoked(ctx, tokenHash); err != nil {
		log.From(ctx).Warn("refresh cache revoke failed", "err", err)
	}
}

// hashPassword хэширует пароль bcrypt'ом со стоимостью по умолчанию.
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// checkPassword сверяет пароль с bcrypt-хэшем.
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// normalizeEmail приводит e-mail к каноничному виду (trim + нижний регистр)
// и проверяет формат по RFC 5322.
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}

	return email, nil
}
