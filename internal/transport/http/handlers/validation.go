package handlers

import (
	"net/mail"
	"strings"
	"unicode"

	apierrors "github.com/avgarcia/notes-service/internal/errors"
)

// Политика пароля: минимум 8 символов, хотя бы одна буква и одна цифра.
const minPasswordLen = 8

// validateEmailField проверяет формат e-mail. Пустая строка и строка,
// не являющаяся адресом RFC 5322, — ошибки поля.
func validateEmailField(email string) []apierrors.FieldError {
	email = strings.TrimSpace(email)
	if email == "" {
		return []apierrors.FieldError{{Field: "email", Message: "must not be blank"}}
	}

	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return []apierrors.FieldError{{Field: "email", Message: "invalid email format"}}
	}

	return nil
}

// validatePasswordField проверяет политику пароля.
func validatePasswordField(password string) []apierrors.FieldError {
	var errs []apierrors.FieldError

	if len(password) < minPasswordLen {
		errs = append(errs, apierrors.FieldError{Field: "password", Message: "must be at least 8 characters"})
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasLetter {
		errs = append(errs, apierrors.FieldError{Field: "password", Message: "must contain at least one letter"})
	}
	if !hasDigit {
		errs = append(errs, apierrors.FieldError{Field: "password", Message: "must contain at least one digit"})
	}

	return errs
}

// requireField — проверка «поле не пустое» для произвольного поля.
func requireField(name, value string) []apierrors.FieldError {
	if strings.TrimSpace(value) == "" {
		return []apierrors.FieldError{{Field: name, Message: "must not be blank"}}
	}
	return nil
}

// invalidBody — единая ошибка для нечитаемого JSON-тела.
func invalidBody() []apierrors.FieldError {
	return []apierrors.FieldError{{Field: "body", Message: "invalid request body"}}
}
