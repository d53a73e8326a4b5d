// server/http/notes.go
package http

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/vinizap/notesync/server/auth"
	"github.com/vinizap/notesync/server/domain"
	"github.com/vinizap/notesync/server/events"
	"github.com/vinizap/notesync/server/notebook"
)

func (s *Server) HandleListNotes(c *fiber.Ctx) error {
	filter := domain.NoteFilter{
		FolderID: c.Query("folderId"),
		Query:    c.Query("search"),
	}
	filter.ParentID, filter.RootOnly = parentQuery(c)
	if v := c.Query("locked"); v != "" {
		locked, err := strconv.ParseBool(v)
		if err != nil {
			return badRequest("locked must be a boolean")
		}
		filter.Locked = &locked
	}

	notes, err := s.notes.ListNotes(c.UserContext(), auth.OwnerID(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(notes)
}

func (s *Server) HandleGetNote(c *fiber.Ctx) error {
	note, err := s.notes.GetNote(c.UserContext(), auth.OwnerID(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(note)
}

func (s *Server) HandleCreateNote(c *fiber.Ctx) error {
	var req struct {
		Title          string          `json:"title"`
		FolderID       string          `json:"folder_id"`
		ParentID       *string         `json:"parent_id"`
		Content        json.RawMessage `json:"content"`
		Tags           []string        `json:"tags"`
		IsLocked       bool            `json:"is_locked"`
		HasAttachments bool            `json:"has_attachments"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}
	if req.ParentID != nil && *req.ParentID == "" {
		req.ParentID = nil
	}

	owner := auth.OwnerID(c)
	note, err := s.notes.CreateNote(c.UserContext(), owner, notebook.NoteInput{
		Title:          req.Title,
		FolderID:       req.FolderID,
		ParentID:       req.ParentID,
		Content:        req.Content,
		Tags:           req.Tags,
		IsLocked:       req.IsLocked,
		HasAttachments: req.HasAttachments,
	})
	if err != nil {
		return err
	}

	s.hub.BroadcastNote(owner, events.NoteCreated, note)
	return c.Status(fiber.StatusCreated).JSON(note)
}

func (s *Server) HandleUpdateNote(c *fiber.Ctx) error {
	var req struct {
		Title          *string         `json:"title"`
		Content        json.RawMessage `json:"content"`
		Tags           *[]string       `json:"tags"`
		IsLocked       *bool           `json:"is_locked"`
		HasAttachments *bool           `json:"has_attachments"`
		FolderID       *string         `json:"folder_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}

	owner := auth.OwnerID(c)
	note, err := s.notes.UpdateNote(c.UserContext(), owner, c.Params("id"), notebook.NoteUpdate{
		Title:          req.Title,
		Content:        req.Content,
		Tags:           req.Tags,
		IsLocked:       req.IsLocked,
		HasAttachments: req.HasAttachments,
		FolderID:       req.FolderID,
	})
	if err != nil {
		return err
	}

	s.hub.BroadcastNote(owner, events.NoteUpdated, note)
	return c.JSON(note)
}

// HandleReparentNote moves a note under another note, or to the top of its
// folder when parent_id is null or missing.
func (s *Server) HandleReparentNote(c *fiber.Ctx) error {
	var req struct {
		ParentID json.RawMessage `json:"parent_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}
	change, err := nullableID("parent_id", req.ParentID)
	if err != nil {
		return err
	}
	var parentID *string
	if change != nil {
		parentID = change.ID
	}

	owner := auth.OwnerID(c)
	note, err := s.notes.ReparentNote(c.UserContext(), owner, c.Params("id"), parentID)
	if err != nil {
		return err
	}

	s.hub.BroadcastNote(owner, events.NoteUpdated, note)
	return c.JSON(note)
}

func (s *Server) HandleDeleteNote(c *fiber.Ctx) error {
	owner := auth.OwnerID(c)
	id := utils.CopyString(c.Params("id"))
	if err := s.notes.DeleteNote(c.UserContext(), owner, id); err != nil {
		return err
	}

	s.hub.BroadcastDeleted(owner, events.NoteDeleted, id)
	return c.SendStatus(fiber.StatusNoContent)
}
