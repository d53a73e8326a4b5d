// server/filesystem/parser.go
package filesystem

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vinizap/notesync/server/domain"
)

const (
	noteExt   = ".md"
	delimiter = "---"
)

// frontmatter is the YAML header of an exported note. Structured content that
// is not plain text is kept verbatim under "content" so it survives a round trip.
type frontmatter struct {
	domain.Note `yaml:",inline"`
	RichContent string `yaml:"content,omitempty"`
}

// ReadNote parses a markdown file with a YAML frontmatter block. The body
// becomes the note content unless the frontmatter carries structured content.
func ReadNote(path string) (*domain.Note, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	header, body, ok := splitFrontmatter(data)
	if !ok {
		return nil, fmt.Errorf("%s: invalid frontmatter format", path)
	}

	var fm frontmatter
	if err := yaml.Unmarshal(header, &fm); err != nil {
		return nil, fmt.Errorf("%s: failed to parse frontmatter: %w", path, err)
	}

	note := fm.Note
	if fm.RichContent != "" {
		if !json.Valid([]byte(fm.RichContent)) {
			return nil, fmt.Errorf("%s: content is not valid JSON", path)
		}
		note.SetContent(json.RawMessage(fm.RichContent))
	} else {
		note.SetContent(domain.StringContent(string(bytes.TrimSpace(body))))
	}
	return &note, nil
}

// splitFrontmatter separates the YAML block delimited by "---" lines at the
// top of data from the body that follows it.
func splitFrontmatter(data []byte) (header, body []byte, ok bool) {
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(data, []byte(delimiter+"\n")) {
		return nil, nil, false
	}
	// keep the newline ending the opening line so an empty header still matches
	rest := data[len(delimiter):]

	if end := bytes.Index(rest, []byte("\n"+delimiter+"\n")); end >= 0 {
		return rest[:end], rest[end+len(delimiter)+2:], true
	}
	if bytes.HasSuffix(rest, []byte("\n"+delimiter)) {
		return rest[:len(rest)-len(delimiter)-1], nil, true
	}
	return nil, nil, false
}

func WriteNote(path string, note *domain.Note) error {
	fm := frontmatter{Note: *note}
	if !plainContent(note.Content) {
		fm.RichContent = string(note.Content)
	}

	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&fm); err != nil {
		return fmt.Errorf("failed to encode frontmatter: %w", err)
	}
	encoder.Close()

	buf.WriteString(delimiter + "\n\n")
	if fm.RichContent == "" {
		buf.WriteString(note.PlainContent)
		buf.WriteString("\n")
	}

	return os.WriteFile(path, buf.Bytes(), 0644)
}

// plainContent reports whether content is absent or a bare JSON string.
func plainContent(content json.RawMessage) bool {
	trimmed := bytes.TrimSpace(content)
	return len(trimmed) == 0 || trimmed[0] == '"' || string(trimmed) == "null"
}

// ListNotes reads every note file in dir, parents before children.
func ListNotes(dir string) ([]*domain.Note, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var notes []*domain.Note
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), noteExt) {
			continue
		}
		note, err := ReadNote(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}

	sort.SliceStable(notes, func(i, j int) bool { return notes[i].Level < notes[j].Level })
	return notes, nil
}

// ListFolders returns the names of the visible subdirectories of root.
func ListFolders(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// folderMetaFile records the folder a directory was exported from, since
// directory names are made unique among siblings.
const folderMetaFile = ".folder.yaml"

type folderMeta struct {
	Name     string `yaml:"name"`
	Provider string `yaml:"provider,omitempty"`
}

func writeFolderMeta(dir string, meta folderMeta) error {
	data, err := yaml.Marshal(&meta)
	if err != nil {
		return fmt.Errorf("failed to encode folder metadata: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, folderMetaFile), data, 0644)
}

// readFolderMeta falls back to the directory name when dir has no metadata file.
func readFolderMeta(dir string) (folderMeta, error) {
	meta := folderMeta{Name: filepath.Base(dir)}
	data, err := os.ReadFile(filepath.Join(dir, folderMetaFile))
	if errors.Is(err, fs.ErrNotExist) {
		return meta, nil
	}
	if err != nil {
		return meta, err
	}
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("%s: failed to parse folder metadata: %w", dir, err)
	}
	if strings.TrimSpace(meta.Name) == "" {
		meta.Name = filepath.Base(dir)
	}
	return meta, nil
}

// uniqueDirName returns name, or name with a " (n)" suffix when a sibling
// already took it. Names are compared case-insensitively, and names that
// would be hidden or special directories get a "_" prefix.
func uniqueDirName(taken map[string]bool, name string) string {
	if strings.HasPrefix(name, ".") {
		name = "_" + name
	}
	candidate := name
	for n := 2; taken[strings.ToLower(candidate)]; n++ {
		candidate = fmt.Sprintf("%s (%d)", name, n)
	}
	taken[strings.ToLower(candidate)] = true
	return candidate
}
