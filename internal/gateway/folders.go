package gateway

import (
	"errors"
	"net/http"
	"strings"

	"github.com/telepress/telepress/internal/store"
)

type folderCreateBody struct {
	Name string `json:"name"`
}

type folderPatchBody struct {
	Name    *string `json:"name"`
	Deleted *bool   `json:"is_deleted"`
}

func (g *Gateway) handleListFolders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeDeleted := r.URL.Query().Get("include_deleted") == "true"

		folders, err := g.store.ListFolders(r.Context(), includeDeleted)
		if err != nil {
			g.logger.Error("listing folders", "error", err)
			writeError(w, http.StatusInternalServerError, "listing folders failed")
			return
		}
		if folders == nil {
			folders = []store.Folder{}
		}

		writeJSON(w, http.StatusOK, listResponse[store.Folder]{Items: folders})
	}
}

func (g *Gateway) handleCreateFolder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body folderCreateBody
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
		if strings.TrimSpace(body.Name) == "" {
			writeError(w, http.StatusBadRequest, "folder name is required")
			return
		}

		folder, err := g.store.CreateFolder(r.Context(), body.Name)
		if err != nil {
			g.logger.Error("creating folder", "error", err)
			writeError(w, http.StatusInternalServerError, "creating folder failed")
			return
		}

		writeJSON(w, http.StatusCreated, folder)
	}
}

func (g *Gateway) handleUpdateFolder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid folder id")
			return
		}

		var body folderPatchBody
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}

		folder, err := g.store.UpdateFolder(r.Context(), id, store.FolderPatch{
			Name:    body.Name,
			Deleted: body.Deleted,
		})
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "folder not found")
			return
		}
		if err != nil {
			g.logger.Error("updating folder", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "updating folder failed")
			return
		}

		writeJSON(w, http.StatusOK, folder)
	}
}

// handleDeleteFolder soft-deletes by default. ?hard=true is refused with 409
// while the folder still holds active notes.
func (g *Gateway) handleDeleteFolder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid folder id")
			return
		}

		hard := r.URL.Query().Get("hard") == "true"
		err := g.store.DeleteFolder(r.Context(), id, hard)
		if errors.Is(err, store.ErrFolderNotEmpty) {
			writeError(w, http.StatusConflict, "folder has active notes")
			return
		}
		if err != nil {
			g.logger.Error("deleting folder", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "deleting folder failed")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
