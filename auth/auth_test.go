// server/auth/auth_test.go
package auth

import (
	"context"
	"encoding/base64"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vinizap/notesync/server/domain"
	"github.com/vinizap/notesync/server/store"
)

func newUsers() *Users {
	return NewUsers(store.NewMemory()).WithCost(bcrypt.MinCost)
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	users := newUsers()

	u, err := users.Register(ctx, " alice ", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.NotEqual(t, "correct horse", u.PasswordHash)

	got, err := users.Authenticate(ctx, "alice", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = users.Authenticate(ctx, "alice", "wrong password")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = users.Authenticate(ctx, "bob", "correct horse")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	users := newUsers()

	_, err := users.Register(ctx, "", "long enough")
	assert.True(t, domain.IsValidation(err))
	_, err = users.Register(ctx, "alice", "short")
	assert.True(t, domain.IsValidation(err))

	_, err = users.Register(ctx, "alice", "long enough")
	require.NoError(t, err)
	_, err = users.Register(ctx, "alice", "another one")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func basic(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestMiddleware(t *testing.T) {
	users := newUsers()
	alice, err := users.Register(context.Background(), "alice", "correct horse")
	require.NoError(t, err)

	app := fiber.New()
	api := app.Group("/api", Middleware(users)...)
	api.Get("/whoami", func(c *fiber.Ctx) error {
		return c.SendString(OwnerID(c))
	})

	req := httptest.NewRequest("GET", "/api/whoami", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("GET", "/api/whoami", nil)
	req.Header.Set("Authorization", basic("alice", "nope"))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("GET", "/api/whoami", nil)
	req.Header.Set("Authorization", basic("alice", "correct horse"))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, string(body))
}
