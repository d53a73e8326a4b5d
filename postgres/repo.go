// server/postgres/repo.go
package postgres

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vinizap/notesync/server/domain"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repo struct {
	q querier
}

const folderColumns = `id, owner_id, name, provider, parent_id, path, level, note_count, created_at, updated_at`

func scanFolder(row pgx.Row) (*domain.Folder, error) {
	f := &domain.Folder{}
	err := row.Scan(&f.ID, &f.OwnerID, &f.Name, &f.Provider, &f.ParentID, &f.Path,
		&f.Level, &f.NoteCount, &f.CreatedAt, &f.UpdatedAt)
	return f, err
}

func (r *repo) GetFolder(ctx context.Context, id string) (*domain.Folder, error) {
	f, err := scanFolder(r.q.QueryRow(ctx, `SELECT `+folderColumns+` FROM folders WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err, "folder", id)
	}
	return f, nil
}

func (r *repo) ListFolders(ctx context.Context, filter domain.FolderFilter) ([]*domain.Folder, error) {
	var w where
	if filter.OwnerID != "" {
		w.add("owner_id = %s", filter.OwnerID)
	}
	if filter.RootOnly {
		w.raw("parent_id IS NULL")
	} else if filter.ParentID != nil {
		w.add("parent_id = %s", *filter.ParentID)
	}

	rows, err := r.q.Query(ctx, `SELECT `+folderColumns+` FROM folders`+w.sql()+` ORDER BY path, id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	var folders []*domain.Folder
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

func (r *repo) InsertFolder(ctx context.Context, f *domain.Folder) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO folders (`+folderColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		f.ID, f.OwnerID, f.Name, f.Provider, f.ParentID, f.Path, f.Level, f.NoteCount, f.CreatedAt, f.UpdatedAt,
	)
	return mapError(err, "folder", f.ID)
}

func (r *repo) UpdateFolder(ctx context.Context, f *domain.Folder) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE folders SET name = $2, provider = $3, parent_id = $4, path = $5, level = $6, updated_at = $7
		 WHERE id = $1`,
		f.ID, f.Name, f.Provider, f.ParentID, f.Path, f.Level, f.UpdatedAt,
	)
	return affected(tag, err, "folder", f.ID)
}

func (r *repo) DeleteFolder(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM folders WHERE id = $1`, id)
	return affected(tag, err, "folder", id)
}

func (r *repo) AdjustNoteCount(ctx context.Context, folderID string, delta int) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE folders SET note_count = GREATEST(note_count + $2, 0) WHERE id = $1`,
		folderID, delta,
	)
	return affected(tag, err, "folder", folderID)
}

const noteColumns = `id, owner_id, folder_id, parent_id, title, content, plain_content, level, is_locked,
	word_count, character_count, has_attachments, tags, created_at, updated_at`

func scanNote(row pgx.Row) (*domain.Note, error) {
	n := &domain.Note{}
	err := row.Scan(&n.ID, &n.OwnerID, &n.FolderID, &n.ParentID, &n.Title, &n.Content, &n.PlainContent,
		&n.Level, &n.IsLocked, &n.WordCount, &n.CharacterCount, &n.HasAttachments, &n.Tags,
		&n.CreatedAt, &n.UpdatedAt)
	return n, err
}

// jsonb rejects an empty document, so blank content is stored as NULL.
func contentParam(c json.RawMessage) json.RawMessage {
	if len(bytes.TrimSpace(c)) == 0 {
		return nil
	}
	return c
}

func tagsParam(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func (r *repo) GetNote(ctx context.Context, id string) (*domain.Note, error) {
	n, err := scanNote(r.q.QueryRow(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err, "note", id)
	}
	return n, nil
}

func (r *repo) ListNotes(ctx context.Context, filter domain.NoteFilter) ([]*domain.Note, error) {
	var w where
	if filter.OwnerID != "" {
		w.add("owner_id = %s", filter.OwnerID)
	}
	if filter.FolderID != "" {
		w.add("folder_id = %s", filter.FolderID)
	}
	if filter.RootOnly {
		w.raw("parent_id IS NULL")
	} else if filter.ParentID != nil {
		w.add("parent_id = %s", *filter.ParentID)
	}
	if filter.Locked != nil {
		w.add("is_locked = %s", *filter.Locked)
	}
	if filter.Query != "" {
		w.add("(title ILIKE %[1]s OR plain_content ILIKE %[1]s)", "%"+escapeLike(filter.Query)+"%")
	}

	rows, err := r.q.Query(ctx,
		`SELECT `+noteColumns+` FROM notes`+w.sql()+` ORDER BY updated_at DESC, created_at DESC, id`,
		w.args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []*domain.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (r *repo) InsertNote(ctx context.Context, n *domain.Note) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO notes (`+noteColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		n.ID, n.OwnerID, n.FolderID, n.ParentID, n.Title, contentParam(n.Content), n.PlainContent,
		n.Level, n.IsLocked, n.WordCount, n.CharacterCount, n.HasAttachments, tagsParam(n.Tags),
		n.CreatedAt, n.UpdatedAt,
	)
	return mapError(err, "note", n.ID)
}

func (r *repo) UpdateNote(ctx context.Context, n *domain.Note) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE notes SET folder_id = $2, parent_id = $3, title = $4, content = $5, plain_content = $6,
		 level = $7, is_locked = $8, word_count = $9, character_count = $10, has_attachments = $11,
		 tags = $12, updated_at = $13
		 WHERE id = $1`,
		n.ID, n.FolderID, n.ParentID, n.Title, contentParam(n.Content), n.PlainContent,
		n.Level, n.IsLocked, n.WordCount, n.CharacterCount, n.HasAttachments, tagsParam(n.Tags),
		n.UpdatedAt,
	)
	return affected(tag, err, "note", n.ID)
}

func (r *repo) DeleteNote(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM notes WHERE id = $1`, id)
	return affected(tag, err, "note", id)
}

const linkColumns = `id, note_id, url, permissions, expires_at, access_count, created_at`

func scanLink(row pgx.Row) (*domain.ShareLink, error) {
	l := &domain.ShareLink{}
	err := row.Scan(&l.ID, &l.NoteID, &l.URL, &l.Permission, &l.ExpiresAt, &l.AccessCount, &l.CreatedAt)
	return l, err
}

func (r *repo) GetShareLink(ctx context.Context, id string) (*domain.ShareLink, error) {
	l, err := scanLink(r.q.QueryRow(ctx, `SELECT `+linkColumns+` FROM share_links WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err, "share link", id)
	}
	return l, nil
}

func (r *repo) GetShareLinkByURL(ctx context.Context, url string) (*domain.ShareLink, error) {
	l, err := scanLink(r.q.QueryRow(ctx, `SELECT `+linkColumns+` FROM share_links WHERE url = $1`, url))
	if err != nil {
		return nil, mapError(err, "share link", url)
	}
	return l, nil
}

func (r *repo) ListShareLinks(ctx context.Context, noteID string) ([]*domain.ShareLink, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+linkColumns+` FROM share_links WHERE note_id = $1 ORDER BY created_at DESC, id`, noteID)
	if err != nil {
		return nil, fmt.Errorf("list share links: %w", err)
	}
	defer rows.Close()

	var links []*domain.ShareLink
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("scan share link: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

func (r *repo) InsertShareLink(ctx context.Context, l *domain.ShareLink) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO share_links (`+linkColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		l.ID, l.NoteID, l.URL, string(l.Permission), l.ExpiresAt, l.AccessCount, l.CreatedAt,
	)
	return mapError(err, "share link", l.ID)
}

func (r *repo) IncrementAccessCount(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `UPDATE share_links SET access_count = access_count + 1 WHERE id = $1`, id)
	return affected(tag, err, "share link", id)
}

func (r *repo) DeleteShareLink(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM share_links WHERE id = $1`, id)
	return affected(tag, err, "share link", id)
}

func (r *repo) DeleteShareLinksByNote(ctx context.Context, noteID string) (int, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM share_links WHERE note_id = $1`, noteID)
	if err != nil {
		return 0, mapError(err, "share links of note", noteID)
	}
	return int(tag.RowsAffected()), nil
}

const userColumns = `id, username, password_hash, created_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

func (r *repo) GetUser(ctx context.Context, id string) (*domain.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err, "user", id)
	}
	return u, nil
}

func (r *repo) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		return nil, mapError(err, "user", username)
	}
	return u, nil
}

func (r *repo) InsertUser(ctx context.Context, u *domain.User) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt,
	)
	return mapError(err, "user", u.Username)
}

// where accumulates AND-ed conditions with numbered placeholders.
type where struct {
	conds []string
	args  []any
}

// add appends a condition whose %s verbs all refer to the single value arg.
func (w *where) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, fmt.Sprintf("$%d", len(w.args))))
}

func (w *where) raw(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *where) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
