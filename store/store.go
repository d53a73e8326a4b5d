// server/store/store.go
package store

import (
	"context"

	"github.com/vinizap/notesync/server/domain"
)

// Store is a storage engine for folders, notes, share links and users.
// Atomic runs fn as a single unit of work: if fn returns an error, none of
// its writes are visible afterwards.
type Store interface {
	Atomic(ctx context.Context, fn func(r Repository) error) error
	Close()
}

// Repository is the set of record operations available inside a unit of
// work. Lookups of missing records return an error wrapping domain.ErrNotFound.
type Repository interface {
	GetFolder(ctx context.Context, id string) (*domain.Folder, error)
	ListFolders(ctx context.Context, f domain.FolderFilter) ([]*domain.Folder, error)
	InsertFolder(ctx context.Context, f *domain.Folder) error
	UpdateFolder(ctx context.Context, f *domain.Folder) error
	DeleteFolder(ctx context.Context, id string) error
	// AdjustNoteCount adds delta to a folder's note count, never going below zero.
	AdjustNoteCount(ctx context.Context, folderID string, delta int) error

	GetNote(ctx context.Context, id string) (*domain.Note, error)
	// ListNotes returns matching notes ordered by UpdatedAt, newest first.
	ListNotes(ctx context.Context, f domain.NoteFilter) ([]*domain.Note, error)
	InsertNote(ctx context.Context, n *domain.Note) error
	UpdateNote(ctx context.Context, n *domain.Note) error
	DeleteNote(ctx context.Context, id string) error

	GetShareLink(ctx context.Context, id string) (*domain.ShareLink, error)
	GetShareLinkByURL(ctx context.Context, url string) (*domain.ShareLink, error)
	ListShareLinks(ctx context.Context, noteID string) ([]*domain.ShareLink, error)
	// InsertShareLink returns domain.ErrConflict when the URL is taken.
	InsertShareLink(ctx context.Context, l *domain.ShareLink) error
	IncrementAccessCount(ctx context.Context, id string) error
	DeleteShareLink(ctx context.Context, id string) error
	DeleteShareLinksByNote(ctx context.Context, noteID string) (int, error)

	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	// InsertUser returns domain.ErrConflict when the username is taken.
	InsertUser(ctx context.Context, u *domain.User) error
}
