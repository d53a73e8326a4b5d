// server/domain/folder.go
package domain

import "time"

type Folder struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Provider  string    `json:"provider,omitempty"`
	ParentID  *string   `json:"parent_id"`
	Path      string    `json:"path"`
	Level     int       `json:"level"`
	NoteCount int       `json:"note_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FolderFilter narrows a folder listing. RootOnly wins over ParentID.
type FolderFilter struct {
	OwnerID  string
	ParentID *string
	RootOnly bool
}

// FolderPath builds the materialized path of a folder named name under parent.
func FolderPath(parent *Folder, name string) string {
	if parent == nil {
		return "/" + name
	}
	return parent.Path + "/" + name
}

// FolderNode is a folder with its nested children, used to render a sidebar tree.
type FolderNode struct {
	*Folder
	Children []*FolderNode `json:"children"`
}
