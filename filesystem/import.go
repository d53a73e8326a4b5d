// server/filesystem/import.go
package filesystem

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/vinizap/notesync/server/notebook"
)

// Import recreates the directory tree below rootDir for owner, placing its
// top-level directories under parentID (nil for the root). Imported records
// get fresh ids; note nesting is preserved through the frontmatter parent_id.
func (x *Exchange) Import(ctx context.Context, owner, rootDir string, parentID *string) (Summary, error) {
	var sum Summary
	names, err := ListFolders(rootDir)
	if err != nil {
		return sum, err
	}
	// exported note id -> imported note id
	ids := make(map[string]string)
	for _, name := range names {
		if err := x.importFolder(ctx, owner, filepath.Join(rootDir, name), parentID, ids, &sum); err != nil {
			return sum, err
		}
	}
	x.log.Info().Str("dir", rootDir).Int("folders", sum.Folders).Int("notes", sum.Notes).Msg("import finished")
	return sum, nil
}

func (x *Exchange) importFolder(ctx context.Context, owner, dir string, parentID *string, ids map[string]string, sum *Summary) error {
	meta, err := readFolderMeta(dir)
	if err != nil {
		return err
	}
	folder, err := x.notes.CreateFolder(ctx, owner, notebook.FolderInput{
		Name:     meta.Name,
		ParentID: parentID,
		Provider: meta.Provider,
	})
	if err != nil {
		return fmt.Errorf("import folder %s: %w", dir, err)
	}
	sum.Folders++

	notes, err := ListNotes(dir)
	if err != nil {
		return err
	}
	for _, n := range notes {
		in := notebook.NoteInput{
			Title:          n.Title,
			FolderID:       folder.ID,
			Content:        n.Content,
			Tags:           n.Tags,
			IsLocked:       n.IsLocked,
			HasAttachments: n.HasAttachments,
		}
		if n.ParentID != nil {
			if id, ok := ids[*n.ParentID]; ok {
				in.ParentID = &id
			} else {
				x.log.Warn().Str("note_id", n.ID).Str("parent_id", *n.ParentID).Msg("parent note not imported yet, importing as top-level note")
			}
		}
		created, err := x.notes.CreateNote(ctx, owner, in)
		if err != nil {
			return fmt.Errorf("import note %s: %w", n.ID, err)
		}
		ids[n.ID] = created.ID
		sum.Notes++
	}

	children, err := ListFolders(dir)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := x.importFolder(ctx, owner, filepath.Join(dir, child), &folder.ID, ids, sum); err != nil {
			return err
		}
	}
	return nil
}
