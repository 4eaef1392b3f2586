package handlers

import (
	"net/http"
	"time"

	apierrors "github.com/avgarcia/notes-service/internal/errors"
	"github.com/avgarcia/notes-service/internal/models"
	"github.com/avgarcia/notes-service/internal/service"
	"github.com/avgarcia/notes-service/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

type createNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Color   int64  `json:"color"`
}

type noteResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Color     int64     `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

type notesListResponse struct {
	Notes []noteResponse `json:"notes"`
}

func noteToResponse(n *models.Note) noteResponse {
	return noteResponse{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		Color:     n.Color,
		CreatedAt: n.CreatedAt,
	}
}

// CreateNote — POST /notes (требует access-токен).
// 201 — заметка создана; 400 — пустой title; 401 — нет/битый токен.
func (h *Handlers) CreateNote(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.UserID(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	var in createNoteRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteValidation(w, invalidBody())
		return
	}

	if fieldErrs := requireField("title", in.Title); len(fieldErrs) > 0 {
		apierrors.WriteValidation(w, fieldErrs)
		return
	}

	note, err := h.Notes.Create(r.Context(), ownerID, in.Title, in.Content, in.Color)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, noteToResponse(note))
}

// ListNotes — GET /notes (требует access-токен).
// 200 — заметки владельца токена, новые сверху.
func (h *Handlers) ListNotes(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.UserID(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	list, err := h.Notes.ListByOwner(r.Context(), ownerID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out := notesListResponse{Notes: make([]noteResponse, 0, len(list))}
	for i := range list {
		out.Notes = append(out.Notes, noteToResponse(&list[i]))
	}

	writeJSON(w, http.StatusOK, out)
}

// DeleteNote — DELETE /notes/{id} (требует access-токен).
// 204 — удалена; 403 — чужая заметка; 404 — не найдена.
func (h *Handlers) DeleteNote(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.UserID(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	id := chi.URLParam(r, "id")

	if err := h.Notes.Delete(r.Context(), ownerID, id); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
