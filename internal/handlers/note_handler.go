package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"thrivepath/internal/models"
	"thrivepath/internal/service"
)

// NoteHandler serves a therapist's dated notes
type NoteHandler struct {
	noteService *service.NoteService
}

// NewNoteHandler creates a new note handler
func NewNoteHandler(noteService *service.NoteService) *NoteHandler {
	return &NoteHandler{noteService: noteService}
}

// ListByDate returns the caller's notes for the date in the path
func (h *NoteHandler) ListByDate(w http.ResponseWriter, r *http.Request) {
	date, err := models.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		respondWithError(w, r, http.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD", "", err)
		return
	}

	notes, err := h.noteService.ListByDate(r.Context(), currentAccount(r).ID, date)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to fetch notes")
		return
	}

	out := make([]noteResponse, 0, len(notes))
	for i := range notes {
		out = append(out, newNoteResponse(&notes[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// Create adds a note for the caller
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req noteCreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(w, r, err, msgInvalidBody)
		return
	}

	note, err := h.noteService.Create(r.Context(), currentAccount(r).ID, models.NoteCreate{
		SessionDate: req.SessionDate,
		NoteContent: req.NoteContent,
		NoteTitle:   req.NoteTitle,
		SessionTime: req.SessionTime,
	})
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to create note")
		return
	}
	writeJSON(w, http.StatusOK, newNoteResponse(note))
}

// ListDates returns every date on which the caller wrote a note
func (h *NoteHandler) ListDates(w http.ResponseWriter, r *http.Request) {
	dates, err := h.noteService.ListNoteDates(r.Context(), currentAccount(r).ID)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to fetch notes dates")
		return
	}

	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.String())
	}
	writeJSON(w, http.StatusOK, out)
}
