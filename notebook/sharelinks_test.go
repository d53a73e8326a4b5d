// server/notebook/sharelinks_test.go
package notebook

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinizap/notesync/server/domain"
)

func TestCreateShareLink(t *testing.T) {
	f := newFixture(t)
	folder := f.folder("Notes", nil)
	n := f.note("Shared", folder, nil, "hello there")

	link, err := f.svc.CreateShareLink(f.ctx, owner, ShareInput{NoteID: n.ID}, "https://notes.example.com/")
	require.NoError(t, err)

	assert.Equal(t, domain.PermissionView, link.Permission)
	assert.Equal(t, 0, link.AccessCount)
	assert.Nil(t, link.ExpiresAt)
	prefix := "https://notes.example.com/shared/" + n.ID + "/"
	require.True(t, strings.HasPrefix(link.URL, prefix), link.URL)
	assert.GreaterOrEqual(t, len(strings.TrimPrefix(link.URL, prefix)), 20)

	other, err := f.svc.CreateShareLink(f.ctx, owner, ShareInput{NoteID: n.ID}, "https://notes.example.com")
	require.NoError(t, err)
	assert.NotEqual(t, link.URL, other.URL)

	links, err := f.svc.ListShareLinks(f.ctx, owner, n.ID)
	require.NoError(t, err)
	assert.Len(t, links, 2)
}

func TestCreateShareLinkValidation(t *testing.T) {
	f := newFixture(t)
	folder := f.folder("Notes", nil)
	n := f.note("Shared", folder, nil, "")

	_, err := f.svc.CreateShareLink(f.ctx, owner, ShareInput{NoteID: "missing"}, "http://localhost")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.CreateShareLink(f.ctx, owner, ShareInput{NoteID: n.ID, Permission: "admin"}, "http://localhost")
	assert.True(t, domain.IsValidation(err))

	_, err = f.svc.CreateShareLink(f.ctx, owner, ShareInput{NoteID: n.ID}, "")
	assert.True(t, domain.IsValidation(err))

	_, err = f.svc.CreateShareLink(f.ctx, "user-2", ShareInput{NoteID: n.ID}, "http://localhost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateShareLinkRetriesOnCollision(t *testing.T) {
	f := newFixture(t)
	folder := f.folder("Notes", nil)
	n := f.note("Shared", folder, nil, "")

	tokens := []string{"same", "same", "fresh"}
	f.svc.token = func() (string, error) {
		tok := tokens[0]
		tokens = tokens[1:]
		return tok, nil
	}

	first, err := f.svc.CreateShareLink(f.ctx, owner, ShareInput{NoteID: n.ID}, "http://localhost")
	require.NoError(t, err)
	second, err := f.svc.CreateShareLink(f.ctx, owner, ShareInput{NoteID: n.ID}, "http://localhost")
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(first.URL, "/same"))
	assert.True(t, strings.HasSuffix(second.URL, "/fresh"))
}

func TestResolveShareLinkCountsAccess(t *testing.T) {
	f := newFixture(t)
	folder := f.folder("Notes", nil)
	n := f.note("Shared", folder, nil, "read only body")

	link, err := f.svc.CreateShareLink(f.ctx, owner, ShareInput{NoteID: n.ID, Permission: domain.PermissionView}, "http://localhost")
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		shared, err := f.svc.ResolveShareLink(f.ctx, link.URL)
		require.NoError(t, err)
		assert.Equal(t, n.ID, shared.Note.ID)
		assert.Equal(t, "read only body", shared.Note.PlainContent)
		assert.Equal(t, 3, shared.Note.WordCount)
		assert.Equal(t, domain.PermissionView, shared.ShareLink.Permission)

		got, err := f.svc.GetShareLink(f.ctx, owner, link.ID)
		require.NoError(t, err)
		assert.Equal(t, i, got.AccessCount)
	}
}

func TestResolveExpiredShareLink(t *testing.T) {
	f := newFixture(t)
	folder := f.folder("Notes", nil)
	n := f.note("Shared", folder, nil, "")

	expired := f.now.Add(-time.Second)
	link, err := f.svc.CreateShareLink(f.ctx, owner, ShareInput{NoteID: n.ID, ExpiresAt: &expired}, "http://localhost")
	require.NoError(t, err)

	_, err = f.svc.ResolveShareLink(f.ctx, link.URL)
	assert.ErrorIs(t, err, domain.ErrExpired)

	got, err := f.svc.GetShareLink(f.ctx, owner, link.ID)
	require.NoError(t, err, "expired links stay in storage")
	assert.Equal(t, 0, got.AccessCount)
}

func TestResolveUnknownShareLink(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ResolveShareLink(f.ctx, "http://localhost/shared/x/y")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteShareLink(t *testing.T) {
	f := newFixture(t)
	folder := f.folder("Notes", nil)
	n := f.note("Shared", folder, nil, "")
	link, err := f.svc.CreateShareLink(f.ctx, owner, ShareInput{NoteID: n.ID}, "http://localhost")
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteShareLink(f.ctx, "user-2", link.ID), domain.ErrNotFound)
	require.NoError(t, f.svc.DeleteShareLink(f.ctx, owner, link.ID))

	_, err = f.svc.ResolveShareLink(f.ctx, link.URL)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.svc.DeleteShareLink(f.ctx, owner, link.ID), domain.ErrNotFound)
}

func TestCreateShareLinkExpiryPreset(t *testing.T) {
	f := newFixture(t)
	folder := f.folder("Notes", nil)
	n := f.note("Shared", folder, nil, "")

	link, err := f.svc.CreateShareLink(f.ctx, owner, ShareInput{NoteID: n.ID, ExpiresIn: "1day"}, "http://localhost")
	require.NoError(t, err)
	require.NotNil(t, link.ExpiresAt)
	assert.WithinDuration(t, link.CreatedAt.Add(24*time.Hour), *link.ExpiresAt, 5*time.Second)

	at := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	link, err = f.svc.CreateShareLink(f.ctx, owner, ShareInput{NoteID: n.ID, ExpiresAt: &at, ExpiresIn: "1week"}, "http://localhost")
	require.NoError(t, err)
	assert.Equal(t, at, *link.ExpiresAt)

	link, err = f.svc.CreateShareLink(f.ctx, owner, ShareInput{NoteID: n.ID, ExpiresIn: "never"}, "http://localhost")
	require.NoError(t, err)
	assert.Nil(t, link.ExpiresAt)

	_, err = f.svc.CreateShareLink(f.ctx, owner, ShareInput{NoteID: n.ID, ExpiresIn: "1year"}, "http://localhost")
	assert.True(t, domain.IsValidation(err))
}
