// server/http/sharelinks.go
package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vinizap/notesync/server/auth"
	"github.com/vinizap/notesync/server/domain"
	"github.com/vinizap/notesync/server/notebook"
)

func (s *Server) HandleCreateShareLink(c *fiber.Ctx) error {
	var req struct {
		NoteID     string            `json:"note_id"`
		Permission domain.Permission `json:"permissions"`
		ExpiresAt  *time.Time        `json:"expires_at"`
		ExpiresIn  string            `json:"expires_in"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}

	link, err := s.notes.CreateShareLink(c.UserContext(), auth.OwnerID(c), notebook.ShareInput{
		NoteID:     req.NoteID,
		Permission: req.Permission,
		ExpiresAt:  req.ExpiresAt,
		ExpiresIn:  req.ExpiresIn,
	}, s.baseURL(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(link)
}

func (s *Server) HandleListShareLinks(c *fiber.Ctx) error {
	links, err := s.notes.ListShareLinks(c.UserContext(), auth.OwnerID(c), c.Params("noteId"))
	if err != nil {
		return err
	}
	return c.JSON(links)
}

func (s *Server) HandleGetShareLink(c *fiber.Ctx) error {
	link, err := s.notes.GetShareLink(c.UserContext(), auth.OwnerID(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(link)
}

func (s *Server) HandleDeleteShareLink(c *fiber.Ctx) error {
	if err := s.notes.DeleteShareLink(c.UserContext(), auth.OwnerID(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleSharedNote is the anonymous entry point for share links.
func (s *Server) HandleSharedNote(c *fiber.Ctx) error {
	url := notebook.ShareURL(s.baseURL(c), c.Params("noteId"), c.Params("token"))
	shared, err := s.notes.ResolveShareLink(c.UserContext(), url)
	if err != nil {
		return err
	}
	return c.JSON(shared)
}
