// server/main_test.go
package main

import (
	"bufio"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vinizap/notesync/server/auth"
	"github.com/vinizap/notesync/server/config"
	"github.com/vinizap/notesync/server/store"
)

func TestCommandTree(t *testing.T) {
	paths := [][]string{
		{"serve"},
		{"migrate", "up"},
		{"migrate", "down"},
		{"migrate", "version"},
		{"user", "add"},
		{"export"},
		{"import"},
	}
	for _, path := range paths {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestSeedUser(t *testing.T) {
	ctx := context.Background()
	users := auth.NewUsers(store.NewMemory()).WithCost(bcrypt.MinCost)

	require.NoError(t, seedUser(ctx, users, "alice:long-password"))
	require.NoError(t, seedUser(ctx, users, "alice:long-password"), "existing user is kept")

	_, err := users.Authenticate(ctx, "alice", "long-password")
	require.NoError(t, err)

	assert.Error(t, seedUser(ctx, users, "no-separator"))
	assert.Error(t, seedUser(ctx, users, "bob:short"))
}

func TestRequireDatabase(t *testing.T) {
	saved := cfg
	t.Cleanup(func() { cfg = saved })

	cfg = config.Config{}
	assert.Error(t, requireDatabase())

	cfg.DatabaseURL = "postgres://localhost/notesync"
	assert.NoError(t, requireDatabase())
}

func TestSourceFilesCarryPathHeader(t *testing.T) {
	err := filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != "." && (strings.HasPrefix(d.Name(), "_") || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		line, err := bufio.NewReader(f).ReadString('\n')
		require.NoError(t, err, path)
		assert.Equal(t, "// server/"+filepath.ToSlash(path), strings.TrimSpace(line))
		return nil
	})
	require.NoError(t, err)
}
