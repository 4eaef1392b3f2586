package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/avgarcia/notes-service/internal/config"
	"github.com/avgarcia/notes-service/internal/models"
	"github.com/avgarcia/notes-service/internal/notes"
	"github.com/avgarcia/notes-service/internal/service"
	"github.com/avgarcia/notes-service/internal/storage"
	"github.com/avgarcia/notes-service/mocks"
)

// Тесты HTTP-поверхности поверх httptest: сервисы собираются на gomock-моках
// хранилищ, проверяются коды ответов и формат тел (конверт ошибки, список
// ошибок валидации, пара токенов).

func testAuthCfg() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:       "http-test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	}
}

func newTestRouter(t *testing.T) (http.Handler, *mocks.MockStorage, *mocks.MockNoteStorage, *service.Service) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	st := mocks.NewMockStorage(ctrl)
	noteSt := mocks.NewMockNoteStorage(ctrl)

	authSvc := service.New(st, testAuthCfg())
	notesSvc := notes.New(noteSt)

	h := NewRouter(authSvc, notesSvc, Options{Timeout: 5 * time.Second})
	return h, st, noteSt, authSvc
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// decodeFieldErrors разбирает конверт {"errors":[{"field","message"}]}.
func decodeFieldErrors(t *testing.T, rec *httptest.ResponseRecorder) map[string]bool {
	t.Helper()

	var out struct {
		Errors []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.Errors)

	fields := make(map[string]bool, len(out.Errors))
	for _, e := range out.Errors {
		require.NotEmpty(t, e.Message)
		fields[e.Field] = true
	}
	return fields
}

// mustHash — bcrypt-хэш пароля для фикстур (минимальная стоимость).
func mustHash(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

// loginPair выпускает валидную пару токенов через Login на моках.
func loginPair(t *testing.T, svc *service.Service, st *mocks.MockStorage, uid uuid.UUID) *models.TokenPair {
	t.Helper()

	hash := mustHash(t, "password1")

	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").
		Return(&models.User{ID: uid, Email: "user@example.com", PasswordHash: hash}, nil)
	st.EXPECT().DeleteAllByUser(gomock.Any(), uid).Return(nil)
	st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).Return(nil)

	pair, err := svc.Login(context.Background(), "user@example.com", "password1")
	require.NoError(t, err)
	return pair
}

func TestHTTP_Register_Created(t *testing.T) {
	t.Parallel()

	h, st, _, _ := newTestRouter(t)

	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").Return(nil, storage.ErrNotFound)
	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).Return(nil)

	rec := doJSON(t, h, http.MethodPost, "/auth/register", "",
		map[string]string{"email": "User@Example.com", "password": "password1"})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Empty(t, rec.Body.Bytes())
}

func TestHTTP_Register_ValidationErrors(t *testing.T) {
	t.Parallel()

	h, _, _, _ := newTestRouter(t)

	// Битый e-mail и пароль без цифр — оба поля в списке ошибок.
	rec := doJSON(t, h, http.MethodPost, "/auth/register", "",
		map[string]string{"email": "not-an-email", "password": "passwords"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decodeFieldErrors(t, rec)
	require.True(t, fields["email"])
	require.True(t, fields["password"])
}

func TestHTTP_Register_ShortPassword(t *testing.T) {
	t.Parallel()

	h, _, _, _ := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/auth/register", "",
		map[string]string{"email": "user@example.com", "password": "a1"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decodeFieldErrors(t, rec)
	require.True(t, fields["password"])
}

func TestHTTP_Register_UnknownField(t *testing.T) {
	t.Parallel()

	h, _, _, _ := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/auth/register", "",
		map[string]string{"email": "user@example.com", "password": "password1", "extra": "x"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTP_Register_Conflict(t *testing.T) {
	t.Parallel()

	h, st, _, _ := newTestRouter(t)

	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").
		Return(&models.User{ID: uuid.New(), Email: "user@example.com"}, nil)

	rec := doJSON(t, h, http.MethodPost, "/auth/register", "",
		map[string]string{"email": "user@example.com", "password": "password1"})

	require.Equal(t, http.StatusConflict, rec.Code)

	var out struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, "already_exists", out.Error.Code)
}

func TestHTTP_Login_OK(t *testing.T) {
	t.Parallel()

	h, st, _, _ := newTestRouter(t)

	uid := uuid.New()
	hash := mustHash(t, "password1")

	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").
		Return(&models.User{ID: uid, Email: "user@example.com", PasswordHash: hash}, nil)
	st.EXPECT().DeleteAllByUser(gomock.Any(), uid).Return(nil)
	st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).Return(nil)

	rec := doJSON(t, h, http.MethodPost, "/auth/login", "",
		map[string]string{"email": "user@example.com", "password": "password1"})

	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		AccessToken     string    `json:"access_token"`
		RefreshToken    string    `json:"refresh_token"`
		AccessExpiresAt time.Time `json:"access_expires_at"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.AccessToken)
	require.NotEmpty(t, out.RefreshToken)
	require.True(t, out.AccessExpiresAt.After(time.Now()))
}

func TestHTTP_Login_WrongPassword_Unauthorized(t *testing.T) {
	t.Parallel()

	h, st, _, _ := newTestRouter(t)

	hash := mustHash(t, "password1")

	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").
		Return(&models.User{ID: uuid.New(), Email: "user@example.com", PasswordHash: hash}, nil)

	rec := doJSON(t, h, http.MethodPost, "/auth/login", "",
		map[string]string{"email": "user@example.com", "password": "wrongpass1"})

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHTTP_Login_BlankFields(t *testing.T) {
	t.Parallel()

	h, _, _, _ := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/auth/login",
		"", map[string]string{"email": " ", "password": ""})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decodeFieldErrors(t, rec)
	require.True(t, fields["email"])
	require.True(t, fields["password"])
}

func TestHTTP_Refresh_OK(t *testing.T) {
	t.Parallel()

	h, st, _, svc := newTestRouter(t)

	uid := uuid.New()
	pair := loginPair(t, svc, st, uid)

	st.EXPECT().UserByID(gomock.Any(), uid).Return(&models.User{ID: uid}, nil)
	st.EXPECT().RefreshTokenByUserAndHash(gomock.Any(), uid, gomock.Any()).
		Return(&models.RefreshToken{
			UserID:    uid,
			ExpiresAt: time.Now().UTC().Add(time.Hour),
		}, nil)
	st.EXPECT().RotateRefreshToken(gomock.Any(), uid, gomock.Any(), gomock.Any()).Return(nil)

	rec := doJSON(t, h, http.MethodPost, "/auth/refresh", "",
		map[string]string{"refresh_token": pair.RefreshToken})

	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		AccessToken     string    `json:"access_token"`
		RefreshToken    string    `json:"refresh_token"`
		AccessExpiresAt time.Time `json:"access_expires_at"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.AccessToken)
	require.NotEqual(t, pair.RefreshToken, out.RefreshToken)
	require.True(t, out.AccessExpiresAt.After(time.Now()))
}

func TestHTTP_Refresh_GarbageToken_Unauthorized(t *testing.T) {
	t.Parallel()

	h, _, _, _ := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/auth/refresh", "",
		map[string]string{"refresh_token": "not-a-jwt"})

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHTTP_Refresh_BlankToken(t *testing.T) {
	t.Parallel()

	h, _, _, _ := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/auth/refresh", "",
		map[string]string{"refresh_token": "  "})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decodeFieldErrors(t, rec)
	require.True(t, fields["refresh_token"])
}

func TestHTTP_Notes_RequireAuth(t *testing.T) {
	t.Parallel()

	h, _, _, _ := newTestRouter(t)

	rec := doJSON(t, h, http.MethodGet, "/notes", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/notes", "garbage-token",
		map[string]string{"title": "t"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHTTP_Notes_CreateListDelete(t *testing.T) {
	t.Parallel()

	h, st, noteSt, svc := newTestRouter(t)

	uid := uuid.New()
	pair := loginPair(t, svc, st, uid)
	noteID := "656f1d0000000000000000aa"

	noteSt.EXPECT().SaveNote(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n *models.Note) (*models.Note, error) {
			require.Equal(t, uid, n.OwnerID)
			out := *n
			out.ID = noteID
			out.CreatedAt = time.Now().UTC()
			return &out, nil
		})

	rec := doJSON(t, h, http.MethodPost, "/notes", pair.AccessToken,
		map[string]any{"title": "shopping", "content": "milk", "color": 123})
	require.Equal(t, http.StatusCreated, rec.Code)

	noteSt.EXPECT().NotesByOwner(gomock.Any(), uid).
		Return([]models.Note{{ID: noteID, OwnerID: uid, Title: "shopping"}}, nil)

	rec = doJSON(t, h, http.MethodGet, "/notes", pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Notes []struct {
			ID string `json:"id"`
		} `json:"notes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Notes, 1)
	require.Equal(t, noteID, list.Notes[0].ID)

	noteSt.EXPECT().NoteByID(gomock.Any(), noteID).
		Return(&models.Note{ID: noteID, OwnerID: uid}, nil)
	noteSt.EXPECT().DeleteNote(gomock.Any(), noteID).Return(nil)

	rec = doJSON(t, h, http.MethodDelete, "/notes/"+noteID, pair.AccessToken, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHTTP_Notes_DeleteForeign_Forbidden(t *testing.T) {
	t.Parallel()

	h, st, noteSt, svc := newTestRouter(t)

	uid := uuid.New()
	pair := loginPair(t, svc, st, uid)
	noteID := "656f1d0000000000000000bb"

	noteSt.EXPECT().NoteByID(gomock.Any(), noteID).
		Return(&models.Note{ID: noteID, OwnerID: uuid.New()}, nil)

	rec := doJSON(t, h, http.MethodDelete, "/notes/"+noteID, pair.AccessToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHTTP_Notes_DeleteMissing_NotFound(t *testing.T) {
	t.Parallel()

	h, st, noteSt, svc := newTestRouter(t)

	uid := uuid.New()
	pair := loginPair(t, svc, st, uid)

	noteSt.EXPECT().NoteByID(gomock.Any(), "missing").
		Return(nil, storage.ErrNotFound)

	rec := doJSON(t, h, http.MethodDelete, "/notes/missing", pair.AccessToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTP_Notes_BlankTitle(t *testing.T) {
	t.Parallel()

	h, st, _, svc := newTestRouter(t)

	uid := uuid.New()
	pair := loginPair(t, svc, st, uid)

	rec := doJSON(t, h, http.MethodPost, "/notes", pair.AccessToken,
		map[string]string{"title": "  "})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decodeFieldErrors(t, rec)
	require.True(t, fields["title"])
}

func TestHTTP_RequestID_Propagated(t *testing.T) {
	t.Parallel()

	h, _, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", bytes.NewBufferString(`{"refresh_token":"x"}`))
	req.Header.Set("X-Request-Id", "req-123")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, "req-123", rec.Header().Get("X-Request-Id"))

	var out struct {
		Error struct {
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, "req-123", out.Error.RequestID)
}
