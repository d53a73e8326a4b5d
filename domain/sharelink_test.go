// server/domain/sharelink_test.go
package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareLinkExpired(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Hour)

	assert.False(t, (&ShareLink{}).Expired(now))
	assert.True(t, (&ShareLink{ExpiresAt: &past}).Expired(now))
	assert.False(t, (&ShareLink{ExpiresAt: &future}).Expired(now))
	assert.False(t, (&ShareLink{ExpiresAt: &now}).Expired(now))
}

func TestExpiryPreset(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for _, p := range []string{"", "never"} {
		got, err := ExpiryPreset(p, now)
		require.NoError(t, err)
		assert.Nil(t, got)
	}

	got, err := ExpiryPreset("1week", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(7*24*time.Hour), *got)

	_, err = ExpiryPreset("forever", now)
	assert.True(t, IsValidation(err))
}

func TestPermissionValid(t *testing.T) {
	assert.True(t, PermissionView.Valid())
	assert.True(t, PermissionEdit.Valid())
	assert.False(t, Permission("admin").Valid())
}
