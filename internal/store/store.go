// Package store persists notes and folders in SQLite. Deletes are soft by
// default; hard deletion is explicit or applies to already-trashed rows.
package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrFolderNotEmpty indicates a hard folder delete was refused because
	// the folder still holds active notes.
	ErrFolderNotEmpty = errors.New("store: folder has active notes")
)

// Note is one stored note.
type Note struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	FolderID    *int64    `json:"folder_id"`
	ContentHTML string    `json:"content_html"`
	Pinned      bool      `json:"is_pinned"`
	Deleted     bool      `json:"is_deleted"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Folder groups notes.
type Folder struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Deleted   bool      `json:"is_deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteDraft is the input for creating a note.
type NoteDraft struct {
	Title       string
	FolderID    *int64
	ContentHTML string
}

// NotePatch is a partial note update; nil fields are left unchanged.
// FolderID distinguishes "unchanged" (nil) from "cleared" (invalid Null).
type NotePatch struct {
	Title       *string
	ContentHTML *string
	FolderID    *sql.Null[int64]
	Pinned      *bool
	Deleted     *bool
}

// FolderPatch is a partial folder update; nil fields are left unchanged.
type FolderPatch struct {
	Name    *string
	Deleted *bool
}

// NoteFilter narrows a note listing.
type NoteFilter struct {
	FolderID       *int64
	Query          string
	IncludeDeleted bool
	PinnedFirst    bool
}

// Store wraps the SQLite database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks database liveness.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
