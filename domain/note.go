// server/domain/note.go
package domain

import (
	"encoding/json"
	"time"
)

const DefaultNoteTitle = "Untitled Note"

type Note struct {
	ID             string          `json:"id" yaml:"id"`
	OwnerID        string          `json:"owner_id" yaml:"-"`
	FolderID       string          `json:"folder_id" yaml:"-"`
	ParentID       *string         `json:"parent_id" yaml:"parent_id,omitempty"`
	Title          string          `json:"title" yaml:"title"`
	Content        json.RawMessage `json:"content" yaml:"-"`
	PlainContent   string          `json:"plain_content" yaml:"-"`
	Level          int             `json:"level" yaml:"level"`
	IsLocked       bool            `json:"is_locked" yaml:"locked"`
	WordCount      int             `json:"word_count" yaml:"-"`
	CharacterCount int             `json:"character_count" yaml:"-"`
	HasAttachments bool            `json:"has_attachments" yaml:"has_attachments,omitempty"`
	Tags           []string        `json:"tags" yaml:"tags"`
	CreatedAt      time.Time       `json:"created_at" yaml:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" yaml:"updated_at"`
}

// SetContent replaces the note content and recomputes every field derived from it.
func (n *Note) SetContent(content json.RawMessage) {
	n.Content = content
	n.PlainContent = PlainText(content)
	n.WordCount, n.CharacterCount = Counts(n.PlainContent)
}

func (n *Note) Touch(now time.Time) {
	n.UpdatedAt = now
}

// NoteFilter narrows a note listing. A non-empty Query turns the listing into a search.
type NoteFilter struct {
	OwnerID  string
	FolderID string
	ParentID *string
	RootOnly bool
	Locked   *bool
	Query    string
}
