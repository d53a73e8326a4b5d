// server/filesystem/export.go

// Package filesystem exports an owner's notebook as a directory tree of
// markdown files with YAML frontmatter and imports such trees back.
// Folders map to directories and notes to <id>.md files. Each directory keeps
// the folder's real name in a metadata file.
package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/vinizap/notesync/server/domain"
	"github.com/vinizap/notesync/server/notebook"
)

type Summary struct {
	Folders int `json:"folders"`
	Notes   int `json:"notes"`
}

type Exchange struct {
	notes *notebook.Service
	log   zerolog.Logger
}

func NewExchange(notes *notebook.Service, log zerolog.Logger) *Exchange {
	return &Exchange{notes: notes, log: log.With().Str("component", "filesystem").Logger()}
}

// Export writes every folder and note of owner below rootDir.
func (x *Exchange) Export(ctx context.Context, owner, rootDir string) (Summary, error) {
	var sum Summary
	tree, err := x.notes.FolderTree(ctx, owner)
	if err != nil {
		return sum, err
	}
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return sum, err
	}
	taken := make(map[string]bool, len(tree))
	for _, node := range tree {
		if err := x.exportFolder(ctx, owner, rootDir, uniqueDirName(taken, node.Name), node, &sum); err != nil {
			return sum, err
		}
	}
	x.log.Info().Str("dir", rootDir).Int("folders", sum.Folders).Int("notes", sum.Notes).Msg("export finished")
	return sum, nil
}

func (x *Exchange) exportFolder(ctx context.Context, owner, parentDir, dirName string, node *domain.FolderNode, sum *Summary) error {
	dir := filepath.Join(parentDir, dirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if err := writeFolderMeta(dir, folderMeta{Name: node.Name, Provider: node.Provider}); err != nil {
		return fmt.Errorf("export folder %s: %w", node.ID, err)
	}
	sum.Folders++

	notes, err := x.notes.ListNotes(ctx, owner, domain.NoteFilter{FolderID: node.ID})
	if err != nil {
		return err
	}
	for _, n := range notes {
		if err := WriteNote(filepath.Join(dir, n.ID+noteExt), n); err != nil {
			return fmt.Errorf("export note %s: %w", n.ID, err)
		}
		sum.Notes++
	}

	taken := make(map[string]bool, len(node.Children))
	for _, child := range node.Children {
		if err := x.exportFolder(ctx, owner, dir, uniqueDirName(taken, child.Name), child, sum); err != nil {
			return err
		}
	}
	return nil
}
