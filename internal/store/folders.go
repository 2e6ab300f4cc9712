package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const folderColumns = "id, name, is_deleted, created_at, updated_at"

// CreateFolder inserts a new folder and returns it.
func (s *Store) CreateFolder(ctx context.Context, name string) (Folder, error) {
	res, err := s.db.ExecContext(ctx, "INSERT INTO folders (name) VALUES (?)", name)
	if err != nil {
		return Folder{}, fmt.Errorf("store: create folder: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Folder{}, fmt.Errorf("store: folder id: %w", err)
	}
	return s.GetFolder(ctx, id)
}

// GetFolder fetches a folder by id. Returns ErrNotFound when absent.
func (s *Store) GetFolder(ctx context.Context, id int64) (Folder, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+folderColumns+" FROM folders WHERE id = ?", id)
	folder, err := scanFolder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Folder{}, ErrNotFound
	}
	if err != nil {
		return Folder{}, fmt.Errorf("store: get folder %d: %w", id, err)
	}
	return folder, nil
}

// ListFolders returns folders ordered by case-insensitive name.
func (s *Store) ListFolders(ctx context.Context, includeDeleted bool) ([]Folder, error) {
	query := "SELECT " + folderColumns + " FROM folders"
	if !includeDeleted {
		query += " WHERE is_deleted = 0"
	}
	query += " ORDER BY lower(name)"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: list folders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var folders []Folder
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan folder: %w", err)
		}
		folders = append(folders, folder)
	}
	return folders, rows.Err()
}

// UpdateFolder applies a partial update and returns the updated folder.
func (s *Store) UpdateFolder(ctx context.Context, id int64, patch FolderPatch) (Folder, error) {
	var (
		sets []string
		args []any
	)
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Deleted != nil {
		sets = append(sets, "is_deleted = ?")
		args = append(args, *patch.Deleted)
	}
	if len(sets) == 0 {
		return s.GetFolder(ctx, id)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC().Format(timeFormat))
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, "UPDATE folders SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return Folder{}, fmt.Errorf("store: update folder %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Folder{}, ErrNotFound
	}
	return s.GetFolder(ctx, id)
}

// DeleteFolder soft-deletes by default. A hard delete is refused with
// ErrFolderNotEmpty while the folder still holds non-deleted notes.
// Returns ErrNotFound for an absent folder.
func (s *Store) DeleteFolder(ctx context.Context, id int64, hard bool) error {
	if _, err := s.GetFolder(ctx, id); err != nil {
		return err
	}

	if !hard {
		deleted := true
		_, err := s.UpdateFolder(ctx, id, FolderPatch{Deleted: &deleted})
		return err
	}

	var active int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notes WHERE folder_id = ? AND is_deleted = 0", id).Scan(&active)
	if err != nil {
		return fmt.Errorf("store: count folder notes: %w", err)
	}
	if active > 0 {
		return ErrFolderNotEmpty
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM folders WHERE id = ?", id); err != nil {
		return fmt.Errorf("store: delete folder %d: %w", id, err)
	}
	return nil
}

func scanFolder(sc scanner) (Folder, error) {
	var (
		folder    Folder
		createdAt string
		updatedAt string
	)
	if err := sc.Scan(&folder.ID, &folder.Name, &folder.Deleted, &createdAt, &updatedAt); err != nil {
		return Folder{}, err
	}

	var err error
	if folder.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Folder{}, fmt.Errorf("parse created_at: %w", err)
	}
	if folder.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return Folder{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return folder, nil
}
