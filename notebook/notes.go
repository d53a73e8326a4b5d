// server/notebook/notes.go
package notebook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vinizap/notesync/server/domain"
	"github.com/vinizap/notesync/server/store"
)

type NoteInput struct {
	Title          string
	FolderID       string
	ParentID       *string
	Content        json.RawMessage
	Tags           []string
	IsLocked       bool
	HasAttachments bool
}

// NoteUpdate is a partial update. Nil fields are left untouched; a nil
// Content means the content is not being changed.
type NoteUpdate struct {
	Title          *string
	Content        json.RawMessage
	Tags           *[]string
	IsLocked       *bool
	HasAttachments *bool
	FolderID       *string
}

func (u NoteUpdate) editsText() bool {
	return u.Title != nil || u.Content != nil
}

func noteTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return domain.DefaultNoteTitle
	}
	return title
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func ownedNote(ctx context.Context, r store.Repository, owner, id string) (*domain.Note, error) {
	n, err := r.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.OwnerID != owner {
		return nil, domain.NotFoundf("note", id)
	}
	return n, nil
}

func (s *Service) GetNote(ctx context.Context, owner, id string) (*domain.Note, error) {
	var n *domain.Note
	err := s.store.Atomic(ctx, func(r store.Repository) error {
		var err error
		n, err = ownedNote(ctx, r, owner, id)
		return err
	})
	return n, err
}

// ListNotes returns the owner's notes, newest update first. A filter with a
// Query matches it case-insensitively against title or plain content.
func (s *Service) ListNotes(ctx context.Context, owner string, filter domain.NoteFilter) ([]*domain.Note, error) {
	filter.OwnerID = owner
	var notes []*domain.Note
	err := s.store.Atomic(ctx, func(r store.Repository) error {
		var err error
		notes, err = r.ListNotes(ctx, filter)
		return err
	})
	return notes, err
}

func (s *Service) SearchNotes(ctx context.Context, owner, query string, filter domain.NoteFilter) ([]*domain.Note, error) {
	filter.Query = query
	return s.ListNotes(ctx, owner, filter)
}

func (s *Service) CreateNote(ctx context.Context, owner string, in NoteInput) (*domain.Note, error) {
	if owner == "" {
		return nil, &domain.ValidationError{Field: "owner_id", Message: "is required"}
	}
	if in.FolderID == "" {
		return nil, &domain.ValidationError{Field: "folder_id", Message: "is required"}
	}

	var note *domain.Note
	err := s.store.Atomic(ctx, func(r store.Repository) error {
		folder, err := ownedFolder(ctx, r, owner, in.FolderID)
		if err != nil {
			return err
		}

		now := s.clock()
		n := &domain.Note{
			ID:             s.newID(),
			OwnerID:        owner,
			FolderID:       folder.ID,
			Title:          noteTitle(in.Title),
			IsLocked:       in.IsLocked,
			HasAttachments: in.HasAttachments,
			Tags:           normalizeTags(in.Tags),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if in.ParentID != nil && *in.ParentID != "" {
			parent, err := ownedNote(ctx, r, owner, *in.ParentID)
			if err != nil {
				return err
			}
			n.ParentID = &parent.ID
			n.Level = parent.Level + 1
		}
		n.SetContent(in.Content)

		if err := r.InsertNote(ctx, n); err != nil {
			return err
		}
		if err := r.AdjustNoteCount(ctx, folder.ID, 1); err != nil {
			return err
		}
		note = n
		return nil
	})
	s.metrics.Operation("create_note", err)
	if err != nil {
		return nil, err
	}
	return note, nil
}

// UpdateNote applies a partial update. Title and content of a locked note
// cannot change unless the same update unlocks it.
func (s *Service) UpdateNote(ctx context.Context, owner, id string, upd NoteUpdate) (*domain.Note, error) {
	var note *domain.Note
	err := s.store.Atomic(ctx, func(r store.Repository) error {
		n, err := ownedNote(ctx, r, owner, id)
		if err != nil {
			return err
		}

		unlocking := upd.IsLocked != nil && !*upd.IsLocked
		if n.IsLocked && !unlocking && upd.editsText() {
			return fmt.Errorf("note %s: %w", id, domain.ErrLocked)
		}

		if upd.IsLocked != nil {
			n.IsLocked = *upd.IsLocked
		}
		if upd.Title != nil {
			n.Title = noteTitle(*upd.Title)
		}
		if upd.Content != nil {
			n.SetContent(upd.Content)
		}
		if upd.Tags != nil {
			n.Tags = normalizeTags(*upd.Tags)
		}
		if upd.HasAttachments != nil {
			n.HasAttachments = *upd.HasAttachments
		}
		if upd.FolderID != nil && *upd.FolderID != n.FolderID {
			if err := s.moveNote(ctx, r, n, *upd.FolderID); err != nil {
				return err
			}
		}

		n.Touch(s.clock())
		if err := r.UpdateNote(ctx, n); err != nil {
			return err
		}
		note = n
		return nil
	})
	s.metrics.Operation("update_note", err)
	if err != nil {
		return nil, err
	}
	return note, nil
}

// moveNote transfers n to another folder, keeping both note counts in step.
func (s *Service) moveNote(ctx context.Context, r store.Repository, n *domain.Note, folderID string) error {
	if folderID == "" {
		return &domain.ValidationError{Field: "folder_id", Message: "must not be empty"}
	}
	target, err := ownedFolder(ctx, r, n.OwnerID, folderID)
	if err != nil {
		return err
	}
	if err := s.decrementNoteCount(ctx, r, n); err != nil {
		return err
	}
	if err := r.AdjustNoteCount(ctx, target.ID, 1); err != nil {
		return err
	}
	n.FolderID = target.ID
	return nil
}

// decrementNoteCount tolerates a missing folder, which only an interrupted
// cascade from an older store could leave behind.
func (s *Service) decrementNoteCount(ctx context.Context, r store.Repository, n *domain.Note) error {
	err := r.AdjustNoteCount(ctx, n.FolderID, -1)
	if errors.Is(err, domain.ErrNotFound) {
		s.log.Warn().Str("note_id", n.ID).Str("folder_id", n.FolderID).Msg("note references missing folder")
		return nil
	}
	return err
}

// ReparentNote moves a note under another note, or to the top level when
// parentID is nil. The levels of all of the note's descendants follow.
func (s *Service) ReparentNote(ctx context.Context, owner, id string, parentID *string) (*domain.Note, error) {
	var note *domain.Note
	err := s.store.Atomic(ctx, func(r store.Repository) error {
		n, err := ownedNote(ctx, r, owner, id)
		if err != nil {
			return err
		}

		if parentID == nil || *parentID == "" {
			n.ParentID = nil
			n.Level = 0
		} else {
			parent, err := s.noteMoveTarget(ctx, r, n, *parentID)
			if err != nil {
				return err
			}
			n.ParentID = &parent.ID
			n.Level = parent.Level + 1
		}

		n.Touch(s.clock())
		if err := r.UpdateNote(ctx, n); err != nil {
			return err
		}
		if err := s.relevelNotes(ctx, r, n); err != nil {
			return err
		}
		note = n
		return nil
	})
	s.metrics.Operation("reparent_note", err)
	if err != nil {
		return nil, err
	}
	return note, nil
}

func (s *Service) noteMoveTarget(ctx context.Context, r store.Repository, n *domain.Note, parentID string) (*domain.Note, error) {
	if parentID == n.ID {
		return nil, &domain.ValidationError{Field: "parent_id", Message: "note cannot be its own parent"}
	}
	parent, err := ownedNote(ctx, r, n.OwnerID, parentID)
	if err != nil {
		return nil, err
	}
	visited := map[string]bool{parent.ID: true}
	for cur := parent; cur.ParentID != nil; {
		if *cur.ParentID == n.ID {
			return nil, &domain.ValidationError{Field: "parent_id", Message: "note cannot move below itself"}
		}
		if visited[*cur.ParentID] {
			return nil, fmt.Errorf("note %s: %w", *cur.ParentID, errHierarchyCycle)
		}
		visited[*cur.ParentID] = true
		cur, err = r.GetNote(ctx, *cur.ParentID)
		if err != nil {
			return nil, err
		}
	}
	return parent, nil
}

func (s *Service) relevelNotes(ctx context.Context, r store.Repository, parent *domain.Note) error {
	return s.relevelNoteTree(ctx, r, parent, map[string]bool{parent.ID: true})
}

func (s *Service) relevelNoteTree(ctx context.Context, r store.Repository, parent *domain.Note, visited map[string]bool) error {
	children, err := r.ListNotes(ctx, domain.NoteFilter{ParentID: &parent.ID})
	if err != nil {
		return err
	}
	for _, c := range children {
		if visited[c.ID] {
			return fmt.Errorf("note %s: %w", c.ID, errHierarchyCycle)
		}
		visited[c.ID] = true
		c.Level = parent.Level + 1
		if err := r.UpdateNote(ctx, c); err != nil {
			return err
		}
		if err := s.relevelNoteTree(ctx, r, c, visited); err != nil {
			return err
		}
	}
	return nil
}

// DeleteNote removes a note, its share links and every note below it.
func (s *Service) DeleteNote(ctx context.Context, owner, id string) error {
	c := newCascade()
	err := s.store.Atomic(ctx, func(r store.Repository) error {
		n, err := ownedNote(ctx, r, owner, id)
		if err != nil {
			return err
		}
		return s.deleteNoteTree(ctx, r, n, c)
	})
	s.metrics.Operation("delete_note", err)
	if err != nil {
		s.log.Error().Err(err).Str("note_id", id).Msg("note delete failed")
		return &domain.DeletionError{Kind: "note", ID: id, Err: err}
	}
	c.report(s, "note_id", id)
	return nil
}

func (s *Service) deleteNoteTree(ctx context.Context, r store.Repository, n *domain.Note, c *cascade) error {
	if c.seen(n.ID) {
		return nil
	}
	c.notes[n.ID] = struct{}{}

	removed, err := r.DeleteShareLinksByNote(ctx, n.ID)
	if err != nil {
		return fmt.Errorf("share links of note %s: %w", n.ID, err)
	}
	c.links += removed

	children, err := r.ListNotes(ctx, domain.NoteFilter{ParentID: &n.ID})
	if err != nil {
		return fmt.Errorf("list children of note %s: %w", n.ID, err)
	}
	for _, child := range children {
		if err := s.deleteNoteTree(ctx, r, child, c); err != nil {
			return err
		}
	}

	if err := s.decrementNoteCount(ctx, r, n); err != nil {
		return fmt.Errorf("note count of folder %s: %w", n.FolderID, err)
	}
	if err := r.DeleteNote(ctx, n.ID); err != nil {
		return fmt.Errorf("note %s: %w", n.ID, err)
	}
	s.log.Debug().Str("note_id", n.ID).Int("share_links", removed).Msg("note removed")
	return nil
}
