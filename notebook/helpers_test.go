// server/notebook/helpers_test.go
package notebook

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vinizap/notesync/server/domain"
	"github.com/vinizap/notesync/server/store"
)

const owner = "user-1"

type fixture struct {
	t   *testing.T
	ctx context.Context
	svc *Service
	st  *store.Memory
	now time.Time
}

// newFixture returns a service whose clock advances one second per reading,
// so update ordering is deterministic.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:   t,
		ctx: context.Background(),
		st:  store.NewMemory(),
		now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	f.svc = New(f.st, WithClock(func() time.Time {
		f.now = f.now.Add(time.Second)
		return f.now
	}))
	return f
}

func (f *fixture) folder(name string, parent *domain.Folder) *domain.Folder {
	f.t.Helper()
	in := FolderInput{Name: name}
	if parent != nil {
		in.ParentID = &parent.ID
	}
	folder, err := f.svc.CreateFolder(f.ctx, owner, in)
	require.NoError(f.t, err)
	return folder
}

func (f *fixture) note(title string, folder *domain.Folder, parent *domain.Note, content string) *domain.Note {
	f.t.Helper()
	in := NoteInput{Title: title, FolderID: folder.ID, Content: domain.StringContent(content)}
	if parent != nil {
		in.ParentID = &parent.ID
	}
	n, err := f.svc.CreateNote(f.ctx, owner, in)
	require.NoError(f.t, err)
	return n
}

func (f *fixture) reloadFolder(id string) *domain.Folder {
	f.t.Helper()
	folder, err := f.svc.GetFolder(f.ctx, owner, id)
	require.NoError(f.t, err)
	return folder
}

func (f *fixture) reloadNote(id string) *domain.Note {
	f.t.Helper()
	n, err := f.svc.GetNote(f.ctx, owner, id)
	require.NoError(f.t, err)
	return n
}

func (f *fixture) noteGone(id string) {
	f.t.Helper()
	_, err := f.svc.GetNote(f.ctx, owner, id)
	require.ErrorIs(f.t, err, domain.ErrNotFound)
}

func (f *fixture) folderGone(id string) {
	f.t.Helper()
	_, err := f.svc.GetFolder(f.ctx, owner, id)
	require.ErrorIs(f.t, err, domain.ErrNotFound)
}

// forceFolderParent and forceNoteParent rewrite parent links straight in the store, skipping the move
// checks, to build hierarchies that only concurrent writers could produce.
func (f *fixture) forceFolderParent(childID, parentID string) {
	f.t.Helper()
	err := f.st.Atomic(f.ctx, func(r store.Repository) error {
		c, err := r.GetFolder(f.ctx, childID)
		if err != nil {
			return err
		}
		c.ParentID = &parentID
		return r.UpdateFolder(f.ctx, c)
	})
	require.NoError(f.t, err)
}

func (f *fixture) forceNoteParent(childID, parentID string) {
	f.t.Helper()
	err := f.st.Atomic(f.ctx, func(r store.Repository) error {
		c, err := r.GetNote(f.ctx, childID)
		if err != nil {
			return err
		}
		c.ParentID = &parentID
		return r.UpdateNote(f.ctx, c)
	})
	require.NoError(f.t, err)
}
