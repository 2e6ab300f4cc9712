package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// timeFormat uses fixed-width milliseconds to match SQLite's strftime
// default, keeping stored timestamps lexicographically comparable.
const timeFormat = "2006-01-02T15:04:05.000Z07:00"

const noteColumns = "id, title, folder_id, content_html, is_pinned, is_deleted, created_at, updated_at"

// CreateNote inserts a new note and returns it. An empty title defaults to
// "Untitled".
func (s *Store) CreateNote(ctx context.Context, draft NoteDraft) (Note, error) {
	title := draft.Title
	if title == "" {
		title = "Untitled"
	}

	var folderID sql.Null[int64]
	if draft.FolderID != nil {
		folderID = sql.Null[int64]{V: *draft.FolderID, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO notes (title, folder_id, content_html)
		VALUES (?, ?, ?)`,
		title, folderID, draft.ContentHTML,
	)
	if err != nil {
		return Note{}, fmt.Errorf("store: create note: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Note{}, fmt.Errorf("store: note id: %w", err)
	}
	return s.GetNote(ctx, id)
}

// GetNote fetches a note by id, deleted or not. Returns ErrNotFound when the
// row does not exist.
func (s *Store) GetNote(ctx context.Context, id int64) (Note, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+noteColumns+" FROM notes WHERE id = ?", id)
	note, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Note{}, ErrNotFound
	}
	if err != nil {
		return Note{}, fmt.Errorf("store: get note %d: %w", id, err)
	}
	return note, nil
}

// ListNotes returns notes matching the filter, most recently updated first.
// With PinnedFirst set, pinned notes sort ahead of the rest.
func (s *Store) ListNotes(ctx context.Context, filter NoteFilter) ([]Note, error) {
	var (
		where []string
		args  []any
	)

	if filter.FolderID != nil {
		where = append(where, "folder_id = ?")
		args = append(args, *filter.FolderID)
	}
	if !filter.IncludeDeleted {
		where = append(where, "is_deleted = 0")
	}
	if filter.Query != "" {
		where = append(where, "(title LIKE ? OR content_html LIKE ?)")
		like := "%" + filter.Query + "%"
		args = append(args, like, like)
	}

	query := "SELECT " + noteColumns + " FROM notes"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if filter.PinnedFirst {
		query += " ORDER BY is_pinned DESC, updated_at DESC"
	} else {
		query += " ORDER BY updated_at DESC"
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list notes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var notes []Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan note: %w", err)
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

// UpdateNote applies a partial update and returns the updated note.
func (s *Store) UpdateNote(ctx context.Context, id int64, patch NotePatch) (Note, error) {
	var (
		sets []string
		args []any
	)

	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.ContentHTML != nil {
		sets = append(sets, "content_html = ?")
		args = append(args, *patch.ContentHTML)
	}
	if patch.FolderID != nil {
		sets = append(sets, "folder_id = ?")
		args = append(args, *patch.FolderID)
	}
	if patch.Pinned != nil {
		sets = append(sets, "is_pinned = ?")
		args = append(args, *patch.Pinned)
	}
	if patch.Deleted != nil {
		sets = append(sets, "is_deleted = ?")
		args = append(args, *patch.Deleted)
	}

	if len(sets) == 0 {
		return s.GetNote(ctx, id)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC().Format(timeFormat))
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, "UPDATE notes SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return Note{}, fmt.Errorf("store: update note %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Note{}, ErrNotFound
	}
	return s.GetNote(ctx, id)
}

// DeleteNote soft-deletes by default. A hard delete, or deleting a note that
// is already in the trash, removes the row. Deleting an absent note is a
// no-op.
func (s *Store) DeleteNote(ctx context.Context, id int64, hard bool) error {
	note, err := s.GetNote(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if hard || note.Deleted {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id); err != nil {
			return fmt.Errorf("store: delete note %d: %w", id, err)
		}
		return nil
	}

	deleted := true
	_, err = s.UpdateNote(ctx, id, NotePatch{Deleted: &deleted})
	return err
}

// PurgeDeletedNotes hard-deletes trashed notes whose last update is older
// than the retention window. Returns the number of rows removed.
func (s *Store) PurgeDeletedNotes(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention).Format(timeFormat)

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM notes WHERE is_deleted = 1 AND updated_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("store: purge notes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: purge rows affected: %w", err)
	}
	return n, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanNote(sc scanner) (Note, error) {
	var (
		note      Note
		folderID  sql.Null[int64]
		createdAt string
		updatedAt string
	)
	if err := sc.Scan(&note.ID, &note.Title, &folderID, &note.ContentHTML,
		&note.Pinned, &note.Deleted, &createdAt, &updatedAt); err != nil {
		return Note{}, err
	}
	if folderID.Valid {
		note.FolderID = &folderID.V
	}

	var err error
	if note.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Note{}, fmt.Errorf("parse created_at: %w", err)
	}
	if note.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return Note{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return note, nil
}
