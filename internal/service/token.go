package service

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Типы токенов, зашиваемые в claim "type". Access- и refresh-токены подписаны
// одним секретом, поэтому без типовой метки одно можно было бы выдать за другое.
const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// bearerScheme — префикс схемы Authorization, который клиенты могут
// присылать вместе с токеном.
const bearerScheme = "Bearer "

// tokenClaims — полезная нагрузка JWT: стандартные claims плюс тип токена.
type tokenClaims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// generateToken выпускает подписанный HS256 JWT заданного типа и срока жизни.
// Субъектом выступает идентификатор пользователя.
func (s *Service) generateToken(userID uuid.UUID, tokenType string, ttl time.Duration) (string, error) {
	const op = "service.token.generateToken"

	// jti делает каждый токен уникальным: iat/exp имеют секундную
	// гранулярность, и без него два токена, выпущенные в одну секунду,
	// были бы байт-в-байт одинаковыми (а значит — один дайджест в БД).
	now := time.Now()
	claims := tokenClaims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("%s: sign token: %w", op, err)
	}

	return signed, nil
}

// verifyToken проверяет подпись, срок жизни и тип токена и возвращает
// идентификатор субъекта. Любой дефект — битый формат, чужая подпись,
// неподдерживаемый алгоритм, истёкший exp, несовпадающий тип, некорректный
// subject — схлопывается в ErrInvalidToken без уточнения причины.
func (s *Service) verifyToken(raw, wantType string) (uuid.UUID, error) {
	claims := &tokenClaims{}

	_, err := jwt.ParseWithClaims(stripScheme(raw), claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(s.cfg.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	if claims.TokenType != wantType {
		return uuid.Nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	return userID, nil
}

// hashRefreshToken возвращает SHA-256-дайджест refresh-токена в base64
// (URL-safe, без паддинга). В БД храним только дайджест: утечка таблицы
// refresh_tokens не даёт предъявляемых токенов.
func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// stripScheme убирает префикс "Bearer " и окружающие пробелы.
// Токен нормализуется до разбора и до хеширования, чтобы один и тот же
// refresh-токен давал один дайджест независимо от того, прислали его
// со схемой или без.
func stripScheme(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, bearerScheme)
	return strings.TrimSpace(raw)
}
