package handlers

import (
	"net/http"
	"time"

	apierrors "github.com/avgarcia/notes-service/internal/errors"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPairResponse struct {
	AccessToken     string    `json:"access_token"`
	RefreshToken    string    `json:"refresh_token"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
}

// RegisterUser — POST /auth/register.
// 201 — пользователь создан; токены НЕ выпускаются: клиент идёт на /auth/login.
// 400 — ошибки валидации полей; 409 — e-mail занят.
func (h *Handlers) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteValidation(w, invalidBody())
		return
	}

	var fieldErrs []apierrors.FieldError
	fieldErrs = append(fieldErrs, validateEmailField(in.Email)...)
	fieldErrs = append(fieldErrs, validatePasswordField(in.Password)...)
	if len(fieldErrs) > 0 {
		apierrors.WriteValidation(w, fieldErrs)
		return
	}

	if _, err := h.Auth.Register(r.Context(), in.Email, in.Password); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	// Токены при регистрации не выдаются, тело пустое: клиент идёт на /auth/login.
	w.WriteHeader(http.StatusCreated)
}

// LoginUser — POST /auth/login.
// 200 — новая пара токенов (все прежние сессии пользователя отозваны).
// 400 — пустые поля; 401 — неверные учётные данные (причина не уточняется).
func (h *Handlers) LoginUser(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteValidation(w, invalidBody())
		return
	}

	var fieldErrs []apierrors.FieldError
	fieldErrs = append(fieldErrs, requireField("email", in.Email)...)
	fieldErrs = append(fieldErrs, requireField("password", in.Password)...)
	if len(fieldErrs) > 0 {
		apierrors.WriteValidation(w, fieldErrs)
		return
	}

	pair, err := h.Auth.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenPairResponse{
		AccessToken:     pair.AccessToken,
		RefreshToken:    pair.RefreshToken,
		AccessExpiresAt: pair.AccessExpiresAt,
	})
}

// RefreshToken — POST /auth/refresh.
// 200 — токен ротирован, новая пара; 400 — пустое поле;
// 401 — токен отклонён (все причины отказа неразличимы).
func (h *Handlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteValidation(w, invalidBody())
		return
	}

	if fieldErrs := requireField("refresh_token", in.RefreshToken); len(fieldErrs) > 0 {
		apierrors.WriteValidation(w, fieldErrs)
		return
	}

	pair, err := h.Auth.Refresh(r.Context(), in.RefreshToken)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenPairResponse{
		AccessToken:     pair.AccessToken,
		RefreshToken:    pair.RefreshToken,
		AccessExpiresAt: pair.AccessExpiresAt,
	})
}
