package gateway

import (
	"io"
	"net/http"
)

// maxUploadBytes bounds a single uploaded file.
const maxUploadBytes = 32 << 20

// handleUpload accepts a multipart form with one "file" part, stores it
// under a random name, and returns its public URL.
func (g *Gateway) handleUpload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing file part")
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, http.StatusBadRequest, "reading upload failed")
			return
		}

		saved, err := g.media.Save(header.Filename, data)
		if err != nil {
			g.logger.Error("saving upload", "filename", header.Filename, "error", err)
			writeError(w, http.StatusInternalServerError, "saving upload failed")
			return
		}

		g.metrics.RecordUpload()
		g.logger.Info("file uploaded", "filename", header.Filename, "url", saved.URL, "size", len(data))
		writeJSON(w, http.StatusCreated, saved)
	}
}
