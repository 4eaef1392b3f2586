package models

import "time"

// TokenPair — пара токенов, выдаваемая при входе и при ротации.
//
// Описание:
//   - AccessToken — короткоживущий JWT (type=access) для доступа к API;
//   - RefreshToken — долгоживущий JWT (type=refresh), отслеживаемый на
//     сервере через хэш (см. models.RefreshToken), что позволяет отзывать
//     его до естественного истечения;
//   - AccessExpiresAt — момент истечения access-токена (UTC).
type TokenPair struct {
	AccessToken     string
	RefreshToken    string
	AccessExpiresAt time.Time
}
