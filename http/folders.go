// server/http/folders.go
package http

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/vinizap/notesync/server/auth"
	"github.com/vinizap/notesync/server/domain"
	"github.com/vinizap/notesync/server/events"
	"github.com/vinizap/notesync/server/notebook"
)

// nullableID decodes a JSON id that may be null. A missing field yields a nil
// change, an explicit null a change to the root.
func nullableID(field string, raw json.RawMessage) (*notebook.ParentChange, error) {
	if raw == nil {
		return nil, nil
	}
	if string(raw) == "null" {
		return &notebook.ParentChange{}, nil
	}
	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil, &domain.ValidationError{Field: field, Message: "must be a string or null"}
	}
	if id == "" {
		return &notebook.ParentChange{}, nil
	}
	return &notebook.ParentChange{ID: &id}, nil
}

// parentQuery reads a parent filter where the literal "null" selects roots.
func parentQuery(c *fiber.Ctx) (parentID *string, rootOnly bool) {
	v := c.Query("parentId")
	switch v {
	case "":
		return nil, false
	case "null":
		return nil, true
	default:
		return &v, false
	}
}

func (s *Server) HandleListFolders(c *fiber.Ctx) error {
	var filter domain.FolderFilter
	filter.ParentID, filter.RootOnly = parentQuery(c)

	folders, err := s.notes.ListFolders(c.UserContext(), auth.OwnerID(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(folders)
}

func (s *Server) HandleFolderTree(c *fiber.Ctx) error {
	tree, err := s.notes.FolderTree(c.UserContext(), auth.OwnerID(c))
	if err != nil {
		return err
	}
	return c.JSON(tree)
}

func (s *Server) HandleGetFolder(c *fiber.Ctx) error {
	folder, err := s.notes.GetFolder(c.UserContext(), auth.OwnerID(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(folder)
}

func (s *Server) HandleCreateFolder(c *fiber.Ctx) error {
	var req struct {
		Name     string  `json:"name"`
		ParentID *string `json:"parent_id"`
		Provider string  `json:"provider"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}
	if req.ParentID != nil && *req.ParentID == "" {
		req.ParentID = nil
	}

	owner := auth.OwnerID(c)
	folder, err := s.notes.CreateFolder(c.UserContext(), owner, notebook.FolderInput{
		Name:     req.Name,
		ParentID: req.ParentID,
		Provider: req.Provider,
	})
	if err != nil {
		return err
	}

	s.hub.BroadcastFolder(owner, events.FolderCreated, folder)
	return c.Status(fiber.StatusCreated).JSON(folder)
}

func (s *Server) HandleUpdateFolder(c *fiber.Ctx) error {
	var req struct {
		Name     *string         `json:"name"`
		Provider *string         `json:"provider"`
		ParentID json.RawMessage `json:"parent_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}
	parent, err := nullableID("parent_id", req.ParentID)
	if err != nil {
		return err
	}

	owner := auth.OwnerID(c)
	folder, err := s.notes.UpdateFolder(c.UserContext(), owner, c.Params("id"), notebook.FolderUpdate{
		Name:     req.Name,
		Provider: req.Provider,
		Parent:   parent,
	})
	if err != nil {
		return err
	}

	s.hub.BroadcastFolder(owner, events.FolderUpdated, folder)
	return c.JSON(folder)
}

func (s *Server) HandleDeleteFolder(c *fiber.Ctx) error {
	owner := auth.OwnerID(c)
	id := utils.CopyString(c.Params("id"))
	if err := s.notes.DeleteFolder(c.UserContext(), owner, id); err != nil {
		return err
	}

	s.hub.BroadcastDeleted(owner, events.FolderDeleted, id)
	return c.SendStatus(fiber.StatusNoContent)
}
