// internal/game/registry_test.go
package game

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfranchi/imposter/internal/protocol"
)

func newTestRegistry() *Registry {
	return NewRegistry(defaultSettings(), testWords, testLogger())
}

func TestCreateGeneratesUniqueCodes(t *testing.T) {
	r := newTestRegistry()
	codePattern := regexp.MustCompile(`^[A-Z0-9]{6}$`)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		l := r.Create(nil)
		assert.Regexp(t, codePattern, l.Code())
		assert.False(t, seen[l.Code()], "code %s issued twice", l.Code())
		seen[l.Code()] = true
	}
}

func TestGetReturnsStoredLobby(t *testing.T) {
	r := newTestRegistry()
	l := r.Create(nil)

	got, ok := r.Get(l.Code())
	require.True(t, ok)
	assert.Same(t, l, got)

	_, ok = r.Get("NOSUCH")
	assert.False(t, ok)
}

func TestRemoveIsIdempotent(t *testing.T) {
	r := newTestRegistry()
	l := r.Create(nil)

	r.Remove(l.Code())
	_, ok := r.Get(l.Code())
	assert.False(t, ok)

	// Second removal of the same code is a no-op.
	r.Remove(l.Code())
	_, ok = r.Get(l.Code())
	assert.False(t, ok)
}

func TestCreateAppliesSettingsOverride(t *testing.T) {
	r := newTestRegistry()
	four, one := 4, 1
	l := r.Create(&protocol.SettingsOverride{
		MaxPlayers:       &four,
		RoundsBeforeVote: &one,
	})

	assert.Equal(t, 4, l.settings.MaxPlayers)
	assert.Equal(t, 1, l.settings.RoundsBeforeVote)
	assert.Equal(t, defaultSettings().MinPlayers, l.settings.MinPlayers)
}

func TestLobbyRemovedWhenLastPlayerLeaves(t *testing.T) {
	r := newTestRegistry()
	l := r.Create(nil)

	_, err := l.AddPlayer("Alice", NewPlayerConn(nil))
	require.NoError(t, err)
	_, ok := r.Get(l.Code())
	require.True(t, ok)

	l.RemovePlayer("Alice")
	_, ok = r.Get(l.Code())
	assert.False(t, ok, "empty lobby must not be retained")
}

func TestAnnouncementsSnapshot(t *testing.T) {
	r := newTestRegistry()
	l1 := r.Create(nil)
	l2 := r.Create(nil)
	_, err := l1.AddPlayer("Alice", NewPlayerConn(nil))
	require.NoError(t, err)

	anns := r.Announcements()
	require.Len(t, anns, 2)
	byCode := make(map[string]Announcement)
	for _, a := range anns {
		byCode[a.Code] = a
	}
	assert.Equal(t, "Alice", byCode[l1.Code()].Host)
	assert.Equal(t, "", byCode[l2.Code()].Host)
}
