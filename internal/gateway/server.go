package gateway

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(g.metrics.instrument)

	// Public — no auth required.
	r.Get("/health", g.handleHealth())
	r.Handle("/metrics", promhttp.HandlerFor(g.metrics.registry, promhttp.HandlerOpts{}))

	// Uploaded files. Listings are refused: blob names are random and the
	// route is unauthenticated, so an index would enumerate every upload.
	fileServer := http.StripPrefix("/media/", http.FileServer(http.Dir(g.media.Dir())))
	r.Handle("/media/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	}))

	r.Route("/api", func(r chi.Router) {
		if g.cfg.Auth.IsConfigured() {
			r.Use(authMiddleware(g.cfg.Auth))
		}

		r.Route("/notes", func(r chi.Router) {
			r.Get("/", g.handleListNotes())
			r.Post("/", g.handleCreateNote())
			r.Get("/{id}", g.handleGetNote())
			r.Patch("/{id}", g.handleUpdateNote())
			r.Delete("/{id}", g.handleDeleteNote())
			r.Post("/{id}/pin", g.handlePinNote())
			r.Post("/{id}/restore", g.handleRestoreNote())
		})

		r.Route("/folders", func(r chi.Router) {
			r.Get("/", g.handleListFolders())
			r.Post("/", g.handleCreateFolder())
			r.Patch("/{id}", g.handleUpdateFolder())
			r.Delete("/{id}", g.handleDeleteFolder())
		})

		r.Post("/upload", g.handleUpload())

		r.Post("/publish/note/{id}", g.handlePublishNote())
		r.Post("/publish/preview", g.handlePreview())

		r.Get("/channels", g.handleListChannels())
		r.Post("/channels/verify", g.handleVerifyChannel())
	})

	return r
}
