// service содержит бизнес-логику аутентификации: регистрацию и вход
// пользователей, выпуск/проверку токенов и ротацию refresh-токенов поверх
// интерфейсов из пакета storage.
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин при условии,
//     что переданное хранилище (storage.Storage) потокобезопасно.
//   - Ошибки возвращаются и далее маппятся
//     транспортом на HTTP-статусы (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"

	"github.com/avgarcia/notes-service/internal/cache"
	"github.com/avgarcia/notes-service/internal/config"
	"github.com/avgarcia/notes-service/internal/storage"
)

var (
	// ErrInvalidCredentials — пара логин/пароль неверна или пользователь не найден.
	// Причины намеренно неразличимы. Транспорт: HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken — любой дефект токена: битый формат, неверная подпись,
	// не тот тип, истёкший срок, уже ротированный (потреблённый) refresh-токен
	// или отсутствующий владелец. Причины намеренно неразличимы, чтобы не
	// давать оракул атакующему. Транспорт: HTTP 401.
	ErrInvalidToken = errors.New("invalid refresh token")

	// ErrEmailTaken — e-mail уже занят другим пользователем.
	// Транспорт: HTTP 409.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidEmail — e-mail имеет некорректный формат.
	// Основная валидация живёт на границе (transport/http); здесь — защита
	// от вызова ядра в обход границы. Транспорт: HTTP 400.
	ErrInvalidEmail = errors.New("invalid email format")
)

// Service описывает бизнес-логику аутентификации.
type Service struct {
	storage storage.Storage
	cfg     config.AuthConfig
	rcache  cache.RefreshCache // может быть nil, если кэш не сконфигурирован
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, cfg config.AuthConfig) *Service {
	return &Service{
		storage: storage,
		cfg:     cfg,
	}
}

// SetRefreshCache устанавливает кэш refresh-токенов (опционально).
func (s *Service) SetRefreshCache(c cache.RefreshCache) {
	s.rcache = c
}
