// server/notebook/folders.go
package notebook

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vinizap/notesync/server/domain"
	"github.com/vinizap/notesync/server/store"
)

type FolderInput struct {
	Name     string
	ParentID *string
	Provider string
}

// ParentChange moves an entity. A nil ID moves it to the root.
type ParentChange struct {
	ID *string
}

type FolderUpdate struct {
	Name     *string
	Provider *string
	Parent   *ParentChange
}

func validFolderName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &domain.ValidationError{Field: "name", Message: "is required"}
	}
	if strings.Contains(name, "/") {
		return "", &domain.ValidationError{Field: "name", Message: "must not contain '/'"}
	}
	return name, nil
}

func ownedFolder(ctx context.Context, r store.Repository, owner, id string) (*domain.Folder, error) {
	f, err := r.GetFolder(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.OwnerID != owner {
		return nil, domain.NotFoundf("folder", id)
	}
	return f, nil
}

func (s *Service) GetFolder(ctx context.Context, owner, id string) (*domain.Folder, error) {
	var f *domain.Folder
	err := s.store.Atomic(ctx, func(r store.Repository) error {
		var err error
		f, err = ownedFolder(ctx, r, owner, id)
		return err
	})
	return f, err
}

func (s *Service) ListFolders(ctx context.Context, owner string, filter domain.FolderFilter) ([]*domain.Folder, error) {
	filter.OwnerID = owner
	var folders []*domain.Folder
	err := s.store.Atomic(ctx, func(r store.Repository) error {
		var err error
		folders, err = r.ListFolders(ctx, filter)
		return err
	})
	return folders, err
}

// FolderTree returns the owner's folders nested under their parents.
func (s *Service) FolderTree(ctx context.Context, owner string) ([]*domain.FolderNode, error) {
	folders, err := s.ListFolders(ctx, owner, domain.FolderFilter{})
	if err != nil {
		return nil, err
	}
	nodes := make(map[string]*domain.FolderNode, len(folders))
	for _, f := range folders {
		nodes[f.ID] = &domain.FolderNode{Folder: f, Children: []*domain.FolderNode{}}
	}
	roots := []*domain.FolderNode{}
	// folders arrive sorted by path, so children keep that order too
	for _, f := range folders {
		node := nodes[f.ID]
		if f.ParentID != nil {
			if parent, ok := nodes[*f.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots, nil
}

func (s *Service) CreateFolder(ctx context.Context, owner string, in FolderInput) (*domain.Folder, error) {
	if owner == "" {
		return nil, &domain.ValidationError{Field: "owner_id", Message: "is required"}
	}
	name, err := validFolderName(in.Name)
	if err != nil {
		return nil, err
	}

	var folder *domain.Folder
	err = s.store.Atomic(ctx, func(r store.Repository) error {
		var parent *domain.Folder
		if in.ParentID != nil && *in.ParentID != "" {
			p, err := ownedFolder(ctx, r, owner, *in.ParentID)
			if err != nil {
				return err
			}
			parent = p
		}

		now := s.clock()
		folder = &domain.Folder{
			ID:        s.newID(),
			OwnerID:   owner,
			Name:      name,
			Provider:  strings.TrimSpace(in.Provider),
			Path:      domain.FolderPath(parent, name),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if parent != nil {
			folder.ParentID = &parent.ID
			folder.Level = parent.Level + 1
		}
		return r.InsertFolder(ctx, folder)
	})
	s.metrics.Operation("create_folder", err)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("folder_id", folder.ID).Str("path", folder.Path).Msg("folder created")
	return folder, nil
}

// UpdateFolder renames or moves a folder. Moving or renaming recomputes the
// path and level of every folder below it.
func (s *Service) UpdateFolder(ctx context.Context, owner, id string, upd FolderUpdate) (*domain.Folder, error) {
	var folder *domain.Folder
	err := s.store.Atomic(ctx, func(r store.Repository) error {
		f, err := ownedFolder(ctx, r, owner, id)
		if err != nil {
			return err
		}

		if upd.Name != nil {
			name, err := validFolderName(*upd.Name)
			if err != nil {
				return err
			}
			f.Name = name
		}
		if upd.Provider != nil {
			f.Provider = strings.TrimSpace(*upd.Provider)
		}

		var parent *domain.Folder
		if upd.Parent != nil {
			if upd.Parent.ID != nil && *upd.Parent.ID != "" {
				parent, err = s.folderMoveTarget(ctx, r, f, *upd.Parent.ID)
				if err != nil {
					return err
				}
				f.ParentID = &parent.ID
			} else {
				f.ParentID = nil
			}
		} else if f.ParentID != nil {
			parent, err = r.GetFolder(ctx, *f.ParentID)
			if err != nil {
				return fmt.Errorf("parent of folder %s: %w", f.ID, err)
			}
		}

		oldPath, oldLevel := f.Path, f.Level
		f.Path = domain.FolderPath(parent, f.Name)
		f.Level = 0
		if parent != nil {
			f.Level = parent.Level + 1
		}
		f.UpdatedAt = s.clock()

		if err := r.UpdateFolder(ctx, f); err != nil {
			return err
		}
		if f.Path != oldPath || f.Level != oldLevel {
			if err := s.relevelFolders(ctx, r, f); err != nil {
				return err
			}
		}
		folder = f
		return nil
	})
	s.metrics.Operation("update_folder", err)
	if err != nil {
		return nil, err
	}
	return folder, nil
}

// folderMoveTarget resolves the new parent of f, rejecting moves into itself
// or any of its descendants.
func (s *Service) folderMoveTarget(ctx context.Context, r store.Repository, f *domain.Folder, parentID string) (*domain.Folder, error) {
	if parentID == f.ID {
		return nil, &domain.ValidationError{Field: "parent_id", Message: "folder cannot be its own parent"}
	}
	parent, err := ownedFolder(ctx, r, f.OwnerID, parentID)
	if err != nil {
		return nil, err
	}
	visited := map[string]bool{parent.ID: true}
	for cur := parent; cur.ParentID != nil; {
		if *cur.ParentID == f.ID {
			return nil, &domain.ValidationError{Field: "parent_id", Message: "folder cannot move below itself"}
		}
		if visited[*cur.ParentID] {
			return nil, fmt.Errorf("folder %s: %w", *cur.ParentID, errHierarchyCycle)
		}
		visited[*cur.ParentID] = true
		cur, err = r.GetFolder(ctx, *cur.ParentID)
		if err != nil {
			return nil, err
		}
	}
	return parent, nil
}

// relevelFolders recomputes path and level below parent.
func (s *Service) relevelFolders(ctx context.Context, r store.Repository, parent *domain.Folder) error {
	return s.relevelFolderTree(ctx, r, parent, map[string]bool{parent.ID: true})
}

func (s *Service) relevelFolderTree(ctx context.Context, r store.Repository, parent *domain.Folder, visited map[string]bool) error {
	children, err := r.ListFolders(ctx, domain.FolderFilter{ParentID: &parent.ID})
	if err != nil {
		return err
	}
	for _, c := range children {
		if visited[c.ID] {
			return fmt.Errorf("folder %s: %w", c.ID, errHierarchyCycle)
		}
		visited[c.ID] = true
		c.Level = parent.Level + 1
		c.Path = domain.FolderPath(parent, c.Name)
		if err := r.UpdateFolder(ctx, c); err != nil {
			return err
		}
		if err := s.relevelFolderTree(ctx, r, c, visited); err != nil {
			return err
		}
	}
	return nil
}

// DeleteFolder removes a folder together with its notes (and their note
// subtrees) and all folders below it, in a single unit of work.
func (s *Service) DeleteFolder(ctx context.Context, owner, id string) error {
	c := newCascade()
	err := s.store.Atomic(ctx, func(r store.Repository) error {
		f, err := ownedFolder(ctx, r, owner, id)
		if err != nil {
			return err
		}
		return s.deleteFolderTree(ctx, r, f, c)
	})
	s.metrics.Operation("delete_folder", err)
	if err != nil {
		s.log.Error().Err(err).Str("folder_id", id).Msg("folder delete failed")
		return &domain.DeletionError{Kind: "folder", ID: id, Err: err}
	}
	c.report(s, "folder_id", id)
	return nil
}

func (s *Service) deleteFolderTree(ctx context.Context, r store.Repository, f *domain.Folder, c *cascade) error {
	if _, ok := c.folders[f.ID]; ok {
		return fmt.Errorf("folder %s: %w", f.ID, errHierarchyCycle)
	}
	c.folders[f.ID] = struct{}{}

	notes, err := r.ListNotes(ctx, domain.NoteFilter{FolderID: f.ID})
	if err != nil {
		return fmt.Errorf("list notes of folder %s: %w", f.ID, err)
	}
	for _, n := range notes {
		if err := s.deleteNoteTree(ctx, r, n, c); err != nil {
			return err
		}
	}

	children, err := r.ListFolders(ctx, domain.FolderFilter{ParentID: &f.ID})
	if err != nil {
		return fmt.Errorf("list children of folder %s: %w", f.ID, err)
	}
	for _, child := range children {
		if err := s.deleteFolderTree(ctx, r, child, c); err != nil {
			return err
		}
	}

	if err := r.DeleteFolder(ctx, f.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("folder %s: %w", f.ID, err)
	}
	s.log.Debug().Str("folder_id", f.ID).Msg("folder removed")
	return nil
}
