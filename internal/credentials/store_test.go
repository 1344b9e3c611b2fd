package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic(t *testing.T) {
	s := Static{KeyYelp: "abc123"}
	assert.True(t, s.Has(KeyYelp))
	assert.Equal(t, "abc123", s.Get(KeyYelp))
	assert.False(t, s.Has(KeyPlaces))
	assert.Equal(t, "", s.Get(KeyPlaces))
}

func TestEnv(t *testing.T) {
	t.Setenv("SITEAUDIT_API_PAGESPEED", "env-key")
	e := NewEnv()
	assert.True(t, e.Has(KeyPageSpeed))
	assert.Equal(t, "env-key", e.Get(KeyPageSpeed))
	assert.False(t, e.Has(KeyHunter))
}

func TestLayered_FirstHitWins(t *testing.T) {
	l := Layered{
		Static{KeyYelp: "top"},
		Static{KeyYelp: "bottom", KeyPlaces: "only-here"},
	}
	assert.Equal(t, "top", l.Get(KeyYelp))
	assert.Equal(t, "only-here", l.Get(KeyPlaces))
	assert.False(t, l.Has(KeyHunter))
}

func TestFile_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	f, err := NewFile(dir, "passphrase")
	require.NoError(t, err)
	require.NoError(t, f.Set(KeyPageSpeed, "secret-key"))

	// Reopen with the same passphrase.
	reopened, err := NewFile(dir, "passphrase")
	require.NoError(t, err)
	assert.Equal(t, "secret-key", reopened.Get(KeyPageSpeed))

	// Wrong passphrase must fail, not return garbage.
	_, err = NewFile(dir, "wrong")
	assert.Error(t, err)
}

func TestFile_EmptyIsNotAnError(t *testing.T) {
	f, err := NewFile(t.TempDir(), "passphrase")
	require.NoError(t, err)
	assert.False(t, f.Has(KeyYelp))
}
