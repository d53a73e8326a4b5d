// server/filesystem/exchange_test.go
package filesystem

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinizap/notesync/server/domain"
	"github.com/vinizap/notesync/server/notebook"
	"github.com/vinizap/notesync/server/store"
)

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := notebook.New(store.NewMemory())
	x := NewExchange(svc, zerolog.Nop())

	work, err := svc.CreateFolder(ctx, "alice", notebook.FolderInput{Name: "Work"})
	require.NoError(t, err)
	projects, err := svc.CreateFolder(ctx, "alice", notebook.FolderInput{Name: "Projects", ParentID: &work.ID})
	require.NoError(t, err)

	plan, err := svc.CreateNote(ctx, "alice", notebook.NoteInput{
		Title:    "Plan",
		FolderID: work.ID,
		Content:  domain.StringContent("first step\nsecond step"),
		Tags:     []string{"q3"},
	})
	require.NoError(t, err)
	_, err = svc.CreateNote(ctx, "alice", notebook.NoteInput{
		Title:          "Details",
		FolderID:       work.ID,
		ParentID:       &plan.ID,
		Content:        domain.StringContent("fine print"),
		IsLocked:       true,
		HasAttachments: true,
	})
	require.NoError(t, err)
	rich := json.RawMessage(`{"type":"doc","blocks":["a","b"]}`)
	richNote, err := svc.CreateNote(ctx, "alice", notebook.NoteInput{Title: "Rich", FolderID: projects.ID, Content: rich})
	require.NoError(t, err)

	dir := t.TempDir()
	sum, err := x.Export(ctx, "alice", dir)
	require.NoError(t, err)
	assert.Equal(t, Summary{Folders: 2, Notes: 3}, sum)
	assert.FileExists(t, filepath.Join(dir, "Work", plan.ID+".md"))
	assert.FileExists(t, filepath.Join(dir, "Work", "Projects", richNote.ID+".md"))

	sum, err = x.Import(ctx, "bob", dir, nil)
	require.NoError(t, err)
	assert.Equal(t, Summary{Folders: 2, Notes: 3}, sum)

	folders, err := svc.ListFolders(ctx, "bob", domain.FolderFilter{})
	require.NoError(t, err)
	require.Len(t, folders, 2)
	assert.Equal(t, "/Work", folders[0].Path)
	assert.Equal(t, 2, folders[0].NoteCount)
	assert.Equal(t, "/Work/Projects", folders[1].Path)
	assert.Equal(t, 1, folders[1].Level)

	notes, err := svc.ListNotes(ctx, "bob", domain.NoteFilter{})
	require.NoError(t, err)
	byTitle := map[string]*domain.Note{}
	for _, n := range notes {
		byTitle[n.Title] = n
	}
	require.Len(t, byTitle, 3)

	gotPlan := byTitle["Plan"]
	assert.NotEqual(t, plan.ID, gotPlan.ID)
	assert.Equal(t, "first step\nsecond step", gotPlan.PlainContent)
	assert.Equal(t, 4, gotPlan.WordCount)
	assert.Equal(t, []string{"q3"}, gotPlan.Tags)
	assert.Equal(t, folders[0].ID, gotPlan.FolderID)

	details := byTitle["Details"]
	require.NotNil(t, details.ParentID)
	assert.Equal(t, gotPlan.ID, *details.ParentID)
	assert.Equal(t, 1, details.Level)
	assert.True(t, details.IsLocked)
	assert.True(t, details.HasAttachments)

	gotRich := byTitle["Rich"]
	assert.JSONEq(t, string(rich), string(gotRich.Content))
	assert.Equal(t, folders[1].ID, gotRich.FolderID)
}

func TestImportUnderExistingFolder(t *testing.T) {
	ctx := context.Background()
	svc := notebook.New(store.NewMemory())
	x := NewExchange(svc, zerolog.Nop())

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Recipes"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Recipes", "soup.md"),
		[]byte("---\nid: soup\ntitle: Soup\ntags: [dinner]\n---\n\nBoil water.\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Recipes", "notes.txt"), []byte("ignored"), 0644))

	home, err := svc.CreateFolder(ctx, "alice", notebook.FolderInput{Name: "Home"})
	require.NoError(t, err)

	sum, err := x.Import(ctx, "alice", dir, &home.ID)
	require.NoError(t, err)
	assert.Equal(t, Summary{Folders: 1, Notes: 1}, sum)

	children, err := svc.ListFolders(ctx, "alice", domain.FolderFilter{ParentID: &home.ID})
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "/Home/Recipes", children[0].Path)

	notes, err := svc.ListNotes(ctx, "alice", domain.NoteFilter{FolderID: children[0].ID})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Soup", notes[0].Title)
	assert.Equal(t, "Boil water.", notes[0].PlainContent)
	assert.Equal(t, []string{"dinner"}, notes[0].Tags)
}

func TestReadNoteRejectsMissingFrontmatter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.md")
	require.NoError(t, os.WriteFile(path, []byte("# just markdown\n"), 0644))

	_, err := ReadNote(path)
	assert.Error(t, err)
}

func TestWriteNoteKeepsPlainBody(t *testing.T) {
	path := filepath.Join(t.TempDir(), "n.md")
	note := &domain.Note{ID: "n1", Title: "Hello", Tags: []string{}}
	note.SetContent(domain.StringContent("body text"))
	require.NoError(t, WriteNote(path, note))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "title: Hello")
	assert.Contains(t, string(data), "\n---\n\nbody text\n")
	assert.NotContains(t, string(data), "content:")

	got, err := ReadNote(path)
	require.NoError(t, err)
	assert.Equal(t, "n1", got.ID)
	assert.Equal(t, "body text", got.PlainContent)
}

func TestRoundTripKeepsDelimiterInValues(t *testing.T) {
	ctx := context.Background()
	svc := notebook.New(store.NewMemory())
	x := NewExchange(svc, zerolog.Nop())

	folder, err := svc.CreateFolder(ctx, "alice", notebook.FolderInput{Name: "Plans"})
	require.NoError(t, err)
	_, err = svc.CreateNote(ctx, "alice", notebook.NoteInput{
		Title:    "Q3 --- plan",
		FolderID: folder.ID,
		Content:  domain.StringContent("intro\n---\nafter the rule"),
	})
	require.NoError(t, err)
	rich := json.RawMessage(`{"text":"a --- b","sep":"---"}`)
	_, err = svc.CreateNote(ctx, "alice", notebook.NoteInput{Title: "Rich", FolderID: folder.ID, Content: rich})
	require.NoError(t, err)

	dir := t.TempDir()
	_, err = x.Export(ctx, "alice", dir)
	require.NoError(t, err)
	_, err = x.Import(ctx, "bob", dir, nil)
	require.NoError(t, err)

	notes, err := svc.ListNotes(ctx, "bob", domain.NoteFilter{})
	require.NoError(t, err)
	byTitle := map[string]*domain.Note{}
	for _, n := range notes {
		byTitle[n.Title] = n
	}
	require.Contains(t, byTitle, "Q3 --- plan")
	assert.Equal(t, "intro\n---\nafter the rule", byTitle["Q3 --- plan"].PlainContent)
	require.Contains(t, byTitle, "Rich")
	assert.JSONEq(t, string(rich), string(byTitle["Rich"].Content))
}

func TestSplitFrontmatter(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		header string
		body   string
		ok     bool
	}{
		{"regular", "---\ntitle: a --- b\n---\n\nbody\n", "\ntitle: a --- b", "\nbody\n", true},
		{"crlf", "---\r\ntitle: x\r\n---\r\nbody", "\ntitle: x", "body", true},
		{"empty header", "---\n---\nbody", "", "body", true},
		{"no body", "---\ntitle: x\n---", "\ntitle: x", "", true},
		{"no opening line", "title: x\n---\nbody", "", "", false},
		{"inline dashes only", "--- title: x ---", "", "", false},
		{"unterminated", "---\ntitle: x\n", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header, body, ok := splitFrontmatter([]byte(tt.data))
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.header, string(header))
			assert.Equal(t, tt.body, string(body))
		})
	}
}

func TestRoundTripKeepsSameNamedSiblings(t *testing.T) {
	ctx := context.Background()
	svc := notebook.New(store.NewMemory())
	x := NewExchange(svc, zerolog.Nop())

	for _, title := range []string{"first", "second"} {
		f, err := svc.CreateFolder(ctx, "alice", notebook.FolderInput{Name: "Work", Provider: "icloud"})
		require.NoError(t, err)
		_, err = svc.CreateNote(ctx, "alice", notebook.NoteInput{Title: title, FolderID: f.ID})
		require.NoError(t, err)
	}
	hidden, err := svc.CreateFolder(ctx, "alice", notebook.FolderInput{Name: ".archive"})
	require.NoError(t, err)
	_, err = svc.CreateNote(ctx, "alice", notebook.NoteInput{Title: "old", FolderID: hidden.ID})
	require.NoError(t, err)

	dir := t.TempDir()
	sum, err := x.Export(ctx, "alice", dir)
	require.NoError(t, err)
	assert.Equal(t, Summary{Folders: 3, Notes: 3}, sum)
	assert.DirExists(t, filepath.Join(dir, "Work"))
	assert.DirExists(t, filepath.Join(dir, "Work (2)"))
	assert.DirExists(t, filepath.Join(dir, "_.archive"))

	sum, err = x.Import(ctx, "bob", dir, nil)
	require.NoError(t, err)
	assert.Equal(t, Summary{Folders: 3, Notes: 3}, sum)

	folders, err := svc.ListFolders(ctx, "bob", domain.FolderFilter{})
	require.NoError(t, err)
	require.Len(t, folders, 3)
	names := map[string]int{}
	for _, f := range folders {
		names[f.Name]++
		assert.Equal(t, 1, f.NoteCount, f.Name)
		if f.Name == "Work" {
			assert.Equal(t, "icloud", f.Provider)
		}
	}
	assert.Equal(t, map[string]int{"Work": 2, ".archive": 1}, names)
}

func TestUniqueDirName(t *testing.T) {
	taken := map[string]bool{}
	assert.Equal(t, "Work", uniqueDirName(taken, "Work"))
	assert.Equal(t, "work (2)", uniqueDirName(taken, "work"))
	assert.Equal(t, "Work (3)", uniqueDirName(taken, "Work"))
	assert.Equal(t, "_..", uniqueDirName(taken, ".."))
}
