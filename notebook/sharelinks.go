// server/notebook/sharelinks.go
package notebook

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vinizap/notesync/server/domain"
	"github.com/vinizap/notesync/server/store"
)

// tokenAttempts bounds retries after a URL collision.
const tokenAttempts = 3

// ShareInput describes a new link. ExpiresIn names an expiry preset and is
// only consulted when ExpiresAt is nil.
type ShareInput struct {
	NoteID     string
	Permission domain.Permission
	ExpiresAt  *time.Time
	ExpiresIn  string
}

// ShareURL is the public address of a share link.
func ShareURL(baseURL, noteID, token string) string {
	return strings.TrimRight(baseURL, "/") + "/shared/" + noteID + "/" + token
}

func (s *Service) CreateShareLink(ctx context.Context, owner string, in ShareInput, baseURL string) (*domain.ShareLink, error) {
	if in.NoteID == "" {
		return nil, &domain.ValidationError{Field: "note_id", Message: "is required"}
	}
	if strings.TrimSpace(baseURL) == "" {
		return nil, &domain.ValidationError{Field: "base_url", Message: "is required"}
	}
	if in.Permission == "" {
		in.Permission = domain.PermissionView
	}
	if !in.Permission.Valid() {
		return nil, &domain.ValidationError{Field: "permissions", Message: fmt.Sprintf("unknown permission %q", in.Permission)}
	}
	if in.ExpiresAt == nil {
		at, err := domain.ExpiryPreset(in.ExpiresIn, s.clock())
		if err != nil {
			return nil, err
		}
		in.ExpiresAt = at
	}

	var (
		link *domain.ShareLink
		err  error
	)
	for range tokenAttempts {
		link, err = s.insertShareLink(ctx, owner, in, baseURL)
		if !errors.Is(err, domain.ErrConflict) {
			break
		}
		s.log.Warn().Str("note_id", in.NoteID).Msg("share url collision, retrying")
	}
	s.metrics.Operation("create_share_link", err)
	if err != nil {
		return nil, err
	}
	return link, nil
}

func (s *Service) insertShareLink(ctx context.Context, owner string, in ShareInput, baseURL string) (*domain.ShareLink, error) {
	token, err := s.token()
	if err != nil {
		return nil, fmt.Errorf("generate share token: %w", err)
	}

	var link *domain.ShareLink
	err = s.store.Atomic(ctx, func(r store.Repository) error {
		n, err := ownedNote(ctx, r, owner, in.NoteID)
		if err != nil {
			return err
		}
		link = &domain.ShareLink{
			ID:         s.newID(),
			NoteID:     n.ID,
			URL:        ShareURL(baseURL, n.ID, token),
			Permission: in.Permission,
			ExpiresAt:  in.ExpiresAt,
			CreatedAt:  s.clock(),
		}
		return r.InsertShareLink(ctx, link)
	})
	return link, err
}

// ResolveShareLink serves an anonymous read through a share link URL. Each
// successful resolution counts one access; expired links are refused
// without being counted or removed.
func (s *Service) ResolveShareLink(ctx context.Context, url string) (*domain.SharedNote, error) {
	var shared *domain.SharedNote
	err := s.store.Atomic(ctx, func(r store.Repository) error {
		link, err := r.GetShareLinkByURL(ctx, url)
		if err != nil {
			return err
		}
		if link.Expired(s.clock()) {
			return fmt.Errorf("share link %s: %w", link.ID, domain.ErrExpired)
		}
		note, err := r.GetNote(ctx, link.NoteID)
		if err != nil {
			return err
		}
		if err := r.IncrementAccessCount(ctx, link.ID); err != nil {
			return err
		}
		shared = domain.NewSharedNote(note, link)
		return nil
	})

	switch {
	case err == nil:
		s.metrics.ShareResolution("ok")
	case errors.Is(err, domain.ErrExpired):
		s.metrics.ShareResolution("expired")
	case errors.Is(err, domain.ErrNotFound):
		s.metrics.ShareResolution("not_found")
	default:
		s.metrics.ShareResolution("error")
	}
	return shared, err
}

func (s *Service) ListShareLinks(ctx context.Context, owner, noteID string) ([]*domain.ShareLink, error) {
	var links []*domain.ShareLink
	err := s.store.Atomic(ctx, func(r store.Repository) error {
		if _, err := ownedNote(ctx, r, owner, noteID); err != nil {
			return err
		}
		var err error
		links, err = r.ListShareLinks(ctx, noteID)
		return err
	})
	return links, err
}

func (s *Service) GetShareLink(ctx context.Context, owner, id string) (*domain.ShareLink, error) {
	var link *domain.ShareLink
	err := s.store.Atomic(ctx, func(r store.Repository) error {
		l, err := r.GetShareLink(ctx, id)
		if err != nil {
			return err
		}
		if _, err := ownedNote(ctx, r, owner, l.NoteID); err != nil {
			return domain.NotFoundf("share link", id)
		}
		link = l
		return nil
	})
	return link, err
}

func (s *Service) DeleteShareLink(ctx context.Context, owner, id string) error {
	err := s.store.Atomic(ctx, func(r store.Repository) error {
		l, err := r.GetShareLink(ctx, id)
		if err != nil {
			return err
		}
		if _, err := ownedNote(ctx, r, owner, l.NoteID); err != nil {
			return domain.NotFoundf("share link", id)
		}
		return r.DeleteShareLink(ctx, id)
	})
	s.metrics.Operation("delete_share_link", err)
	return err
}
