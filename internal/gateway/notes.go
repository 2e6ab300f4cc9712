package gateway

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/telepress/telepress/internal/store"
)

// listResponse wraps collection results.
type listResponse[T any] struct {
	Items []T `json:"items"`
}

// optFolderID distinguishes an absent folder_id from an explicit null in
// PATCH bodies. Absent leaves the note untouched; null clears the folder.
type optFolderID struct {
	set   bool
	value *int64
}

func (o *optFolderID) UnmarshalJSON(b []byte) error {
	o.set = true
	if string(b) == "null" {
		o.value = nil
		return nil
	}
	var v int64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("folder_id: %w", err)
	}
	o.value = &v
	return nil
}

type noteCreateBody struct {
	Title       string `json:"title"`
	FolderID    *int64 `json:"folder_id"`
	ContentHTML string `json:"content_html"`
}

type notePatchBody struct {
	Title       *string     `json:"title"`
	ContentHTML *string     `json:"content_html"`
	FolderID    optFolderID `json:"folder_id"`
	Pinned      *bool       `json:"is_pinned"`
	Deleted     *bool       `json:"is_deleted"`
}

func (b *notePatchBody) patch() store.NotePatch {
	p := store.NotePatch{
		Title:       b.Title,
		ContentHTML: b.ContentHTML,
		Pinned:      b.Pinned,
		Deleted:     b.Deleted,
	}
	if b.FolderID.set {
		n := sql.Null[int64]{}
		if b.FolderID.value != nil {
			n.Valid = true
			n.V = *b.FolderID.value
		}
		p.FolderID = &n
	}
	return p
}

// handleListNotes lists notes filtered by folder_id, q and include_deleted
// query parameters. Pinned notes sort first unless pinned_first=false.
func (g *Gateway) handleListNotes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := store.NoteFilter{
			Query:          q.Get("q"),
			IncludeDeleted: q.Get("include_deleted") == "true",
			PinnedFirst:    q.Get("pinned_first") != "false",
		}
		if raw := q.Get("folder_id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid folder_id")
				return
			}
			filter.FolderID = &id
		}

		notes, err := g.store.ListNotes(r.Context(), filter)
		if err != nil {
			g.logger.Error("listing notes", "error", err)
			writeError(w, http.StatusInternalServerError, "listing notes failed")
			return
		}
		if notes == nil {
			notes = []store.Note{}
		}

		writeJSON(w, http.StatusOK, listResponse[store.Note]{Items: notes})
	}
}

func (g *Gateway) handleCreateNote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body noteCreateBody
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}

		note, err := g.store.CreateNote(r.Context(), store.NoteDraft{
			Title:       body.Title,
			FolderID:    body.FolderID,
			ContentHTML: body.ContentHTML,
		})
		if err != nil {
			g.logger.Error("creating note", "error", err)
			writeError(w, http.StatusInternalServerError, "creating note failed")
			return
		}

		writeJSON(w, http.StatusCreated, note)
	}
}

func (g *Gateway) handleGetNote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid note id")
			return
		}

		note, err := g.store.GetNote(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "note not found")
			return
		}
		if err != nil {
			g.logger.Error("loading note", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "loading note failed")
			return
		}

		writeJSON(w, http.StatusOK, note)
	}
}

func (g *Gateway) handleUpdateNote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid note id")
			return
		}

		var body notePatchBody
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}

		note, err := g.store.UpdateNote(r.Context(), id, body.patch())
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "note not found")
			return
		}
		if err != nil {
			g.logger.Error("updating note", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "updating note failed")
			return
		}

		writeJSON(w, http.StatusOK, note)
	}
}

// handleDeleteNote soft-deletes by default. ?hard=true, or deleting a note
// already in the trash, removes the row permanently.
func (g *Gateway) handleDeleteNote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid note id")
			return
		}

		hard := r.URL.Query().Get("hard") == "true"
		if err := g.store.DeleteNote(r.Context(), id, hard); err != nil {
			g.logger.Error("deleting note", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "deleting note failed")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// handlePinNote toggles the pinned flag.
func (g *Gateway) handlePinNote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid note id")
			return
		}

		note, err := g.store.GetNote(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "note not found")
			return
		}
		if err != nil {
			g.logger.Error("loading note", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "loading note failed")
			return
		}

		pinned := !note.Pinned
		note, err = g.store.UpdateNote(r.Context(), id, store.NotePatch{Pinned: &pinned})
		if err != nil {
			g.logger.Error("pinning note", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "pinning note failed")
			return
		}

		writeJSON(w, http.StatusOK, note)
	}
}

// handleRestoreNote moves a trashed note back to its folder.
func (g *Gateway) handleRestoreNote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid note id")
			return
		}

		deleted := false
		note, err := g.store.UpdateNote(r.Context(), id, store.NotePatch{Deleted: &deleted})
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "note not found")
			return
		}
		if err != nil {
			g.logger.Error("restoring note", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "restoring note failed")
			return
		}

		writeJSON(w, http.StatusOK, note)
	}
}
