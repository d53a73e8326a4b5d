// server/store/memory.go
package store

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/vinizap/notesync/server/domain"
)

// Memory is an in-process Store. Units of work are serialized by a single
// mutex and rolled back from an undo log.
type Memory struct {
	mu      sync.Mutex
	folders map[string]*domain.Folder
	notes   map[string]*domain.Note
	links   map[string]*domain.ShareLink
	users   map[string]*domain.User
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		folders: make(map[string]*domain.Folder),
		notes:   make(map[string]*domain.Note),
		links:   make(map[string]*domain.ShareLink),
		users:   make(map[string]*domain.User),
	}
}

func (m *Memory) Atomic(ctx context.Context, fn func(r Repository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{m: m}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func (m *Memory) Close() {}

type memTx struct {
	m    *Memory
	undo []func()
}

func (tx *memTx) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
}

// put stores v under id (or removes id when v is nil) and records how to revert it.
func put[T any](tx *memTx, records map[string]*T, id string, v *T) {
	prev, existed := records[id]
	tx.undo = append(tx.undo, func() {
		if existed {
			records[id] = prev
		} else {
			delete(records, id)
		}
	})
	if v == nil {
		delete(records, id)
	} else {
		records[id] = v
	}
}

func cloneFolder(f *domain.Folder) *domain.Folder {
	c := *f
	c.ParentID = cloneString(f.ParentID)
	return &c
}

func cloneNote(n *domain.Note) *domain.Note {
	c := *n
	c.ParentID = cloneString(n.ParentID)
	c.Content = slices.Clone(n.Content)
	c.Tags = slices.Clone(n.Tags)
	return &c
}

func cloneLink(l *domain.ShareLink) *domain.ShareLink {
	c := *l
	if l.ExpiresAt != nil {
		t := *l.ExpiresAt
		c.ExpiresAt = &t
	}
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (tx *memTx) GetFolder(_ context.Context, id string) (*domain.Folder, error) {
	f, ok := tx.m.folders[id]
	if !ok {
		return nil, domain.NotFoundf("folder", id)
	}
	return cloneFolder(f), nil
}

func (tx *memTx) ListFolders(_ context.Context, filter domain.FolderFilter) ([]*domain.Folder, error) {
	var out []*domain.Folder
	for _, f := range tx.m.folders {
		if filter.OwnerID != "" && f.OwnerID != filter.OwnerID {
			continue
		}
		if filter.RootOnly {
			if f.ParentID != nil {
				continue
			}
		} else if filter.ParentID != nil && !sameParent(f.ParentID, filter.ParentID) {
			continue
		}
		out = append(out, cloneFolder(f))
	}
	slices.SortFunc(out, func(a, b *domain.Folder) int {
		return cmp.Or(cmp.Compare(a.Path, b.Path), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (tx *memTx) InsertFolder(_ context.Context, f *domain.Folder) error {
	if _, ok := tx.m.folders[f.ID]; ok {
		return domain.ErrConflict
	}
	put(tx, tx.m.folders, f.ID, cloneFolder(f))
	return nil
}

func (tx *memTx) UpdateFolder(_ context.Context, f *domain.Folder) error {
	if _, ok := tx.m.folders[f.ID]; !ok {
		return domain.NotFoundf("folder", f.ID)
	}
	put(tx, tx.m.folders, f.ID, cloneFolder(f))
	return nil
}

func (tx *memTx) DeleteFolder(_ context.Context, id string) error {
	if _, ok := tx.m.folders[id]; !ok {
		return domain.NotFoundf("folder", id)
	}
	put[domain.Folder](tx, tx.m.folders, id, nil)
	return nil
}

func (tx *memTx) AdjustNoteCount(_ context.Context, folderID string, delta int) error {
	f, ok := tx.m.folders[folderID]
	if !ok {
		return domain.NotFoundf("folder", folderID)
	}
	c := cloneFolder(f)
	c.NoteCount = max(0, c.NoteCount+delta)
	put(tx, tx.m.folders, folderID, c)
	return nil
}

func (tx *memTx) GetNote(_ context.Context, id string) (*domain.Note, error) {
	n, ok := tx.m.notes[id]
	if !ok {
		return nil, domain.NotFoundf("note", id)
	}
	return cloneNote(n), nil
}

func (tx *memTx) ListNotes(_ context.Context, filter domain.NoteFilter) ([]*domain.Note, error) {
	query := strings.ToLower(filter.Query)
	var out []*domain.Note
	for _, n := range tx.m.notes {
		if filter.OwnerID != "" && n.OwnerID != filter.OwnerID {
			continue
		}
		if filter.FolderID != "" && n.FolderID != filter.FolderID {
			continue
		}
		if filter.RootOnly {
			if n.ParentID != nil {
				continue
			}
		} else if filter.ParentID != nil && !sameParent(n.ParentID, filter.ParentID) {
			continue
		}
		if filter.Locked != nil && n.IsLocked != *filter.Locked {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(n.Title), query) &&
			!strings.Contains(strings.ToLower(n.PlainContent), query) {
			continue
		}
		out = append(out, cloneNote(n))
	}
	slices.SortFunc(out, func(a, b *domain.Note) int {
		return cmp.Or(b.UpdatedAt.Compare(a.UpdatedAt), b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (tx *memTx) InsertNote(_ context.Context, n *domain.Note) error {
	if _, ok := tx.m.notes[n.ID]; ok {
		return domain.ErrConflict
	}
	put(tx, tx.m.notes, n.ID, cloneNote(n))
	return nil
}

func (tx *memTx) UpdateNote(_ context.Context, n *domain.Note) error {
	if _, ok := tx.m.notes[n.ID]; !ok {
		return domain.NotFoundf("note", n.ID)
	}
	put(tx, tx.m.notes, n.ID, cloneNote(n))
	return nil
}

func (tx *memTx) DeleteNote(_ context.Context, id string) error {
	if _, ok := tx.m.notes[id]; !ok {
		return domain.NotFoundf("note", id)
	}
	put[domain.Note](tx, tx.m.notes, id, nil)
	return nil
}

func (tx *memTx) GetShareLink(_ context.Context, id string) (*domain.ShareLink, error) {
	l, ok := tx.m.links[id]
	if !ok {
		return nil, domain.NotFoundf("share link", id)
	}
	return cloneLink(l), nil
}

func (tx *memTx) GetShareLinkByURL(_ context.Context, url string) (*domain.ShareLink, error) {
	for _, l := range tx.m.links {
		if l.URL == url {
			return cloneLink(l), nil
		}
	}
	return nil, domain.NotFoundf("share link", url)
}

func (tx *memTx) ListShareLinks(_ context.Context, noteID string) ([]*domain.ShareLink, error) {
	var out []*domain.ShareLink
	for _, l := range tx.m.links {
		if l.NoteID == noteID {
			out = append(out, cloneLink(l))
		}
	}
	slices.SortFunc(out, func(a, b *domain.ShareLink) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (tx *memTx) InsertShareLink(_ context.Context, l *domain.ShareLink) error {
	for _, existing := range tx.m.links {
		if existing.ID == l.ID || existing.URL == l.URL {
			return domain.ErrConflict
		}
	}
	put(tx, tx.m.links, l.ID, cloneLink(l))
	return nil
}

func (tx *memTx) IncrementAccessCount(_ context.Context, id string) error {
	l, ok := tx.m.links[id]
	if !ok {
		return domain.NotFoundf("share link", id)
	}
	c := cloneLink(l)
	c.AccessCount++
	put(tx, tx.m.links, id, c)
	return nil
}

func (tx *memTx) DeleteShareLink(_ context.Context, id string) error {
	if _, ok := tx.m.links[id]; !ok {
		return domain.NotFoundf("share link", id)
	}
	put[domain.ShareLink](tx, tx.m.links, id, nil)
	return nil
}

func (tx *memTx) DeleteShareLinksByNote(_ context.Context, noteID string) (int, error) {
	var ids []string
	for id, l := range tx.m.links {
		if l.NoteID == noteID {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		put[domain.ShareLink](tx, tx.m.links, id, nil)
	}
	return len(ids), nil
}

func (tx *memTx) GetUser(_ context.Context, id string) (*domain.User, error) {
	u, ok := tx.m.users[id]
	if !ok {
		return nil, domain.NotFoundf("user", id)
	}
	c := *u
	return &c, nil
}

func (tx *memTx) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range tx.m.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, domain.NotFoundf("user", username)
}

func (tx *memTx) InsertUser(_ context.Context, u *domain.User) error {
	for _, existing := range tx.m.users {
		if existing.ID == u.ID || existing.Username == u.Username {
			return domain.ErrConflict
		}
	}
	c := *u
	put(tx, tx.m.users, u.ID, &c)
	return nil
}
