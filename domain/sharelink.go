// server/domain/sharelink.go
package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type Permission string

const (
	PermissionView Permission = "view"
	PermissionEdit Permission = "edit"
)

func (p Permission) Valid() bool {
	return p == PermissionView || p == PermissionEdit
}

type ShareLink struct {
	ID          string     `json:"id"`
	NoteID      string     `json:"note_id"`
	URL         string     `json:"url"`
	Permission  Permission `json:"permissions"`
	ExpiresAt   *time.Time `json:"expires_at"`
	AccessCount int        `json:"access_count"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Expired reports whether the link can no longer be resolved at now.
func (l *ShareLink) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}

// SharedNote is the read-only projection handed to anonymous link holders.
type SharedNote struct {
	Note      SharedNoteBody `json:"note"`
	ShareLink SharedLinkBody `json:"share_link"`
}

type SharedNoteBody struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Content        json.RawMessage `json:"content"`
	PlainContent   string          `json:"plain_content"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	WordCount      int             `json:"word_count"`
	CharacterCount int             `json:"character_count"`
}

type SharedLinkBody struct {
	Permission Permission `json:"permissions"`
	ExpiresAt  *time.Time `json:"expires_at"`
}

func NewSharedNote(n *Note, l *ShareLink) *SharedNote {
	return &SharedNote{
		Note: SharedNoteBody{
			ID:             n.ID,
			Title:          n.Title,
			Content:        n.Content,
			PlainContent:   n.PlainContent,
			CreatedAt:      n.CreatedAt,
			UpdatedAt:      n.UpdatedAt,
			WordCount:      n.WordCount,
			CharacterCount: n.CharacterCount,
		},
		ShareLink: SharedLinkBody{
			Permission: l.Permission,
			ExpiresAt:  l.ExpiresAt,
		},
	}
}

// ExpiryPreset turns one of the share dialog presets into an absolute expiry.
// "never" and "" mean no expiry.
func ExpiryPreset(preset string, now time.Time) (*time.Time, error) {
	var d time.Duration
	switch preset {
	case "", "never":
		return nil, nil
	case "1day":
		d = 24 * time.Hour
	case "1week":
		d = 7 * 24 * time.Hour
	case "1month":
		d = 30 * 24 * time.Hour
	default:
		return nil, &ValidationError{Field: "expires_in", Message: fmt.Sprintf("unknown preset %q", preset)}
	}
	t := now.Add(d)
	return &t, nil
}
