package session

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sovereign-agent/core/internal/core"
)

func TestConversationStoreCreateSaveLoadRoundTrip(t *testing.T) {
	store, err := NewConversationStore(t.TempDir())
	require.NoError(t, err)

	rec, err := store.Create("session-1")
	require.NoError(t, err)

	require.NoError(t, store.AddMessage(rec, core.Message{Role: core.RoleUser, Content: "hello"}))
	require.NoError(t, store.AddMessage(rec, core.Message{Role: core.RoleAssistant, Content: "hi there"}))

	loaded, ok, err := store.Load("session-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, loaded.Messages, 2)
	assert.Equal(t, "hello", loaded.Messages[0].Content)
}

func TestConversationStoreLoadMissingReturnsFalse(t *testing.T) {
	store, err := NewConversationStore(t.TempDir())
	require.NoError(t, err)

	_, ok, err := store.Load("never-created")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConversationStoreShardsBySessionIDHash(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConversationStore(dir)
	require.NoError(t, err)

	_, err = store.Create("a-particular-session")
	require.NoError(t, err)

	expected := filepath.Join(dir, shardPrefix("a-particular-session"), "a-particular-session.json")
	assert.FileExists(t, expected)
}

func TestConversationStoreSummarizesOldMessages(t *testing.T) {
	store, err := NewConversationStore(t.TempDir())
	require.NoError(t, err)

	rec, err := store.Create("session-long")
	require.NoError(t, err)

	for i := 0; i < maxMessagesBeforeSummary+1; i++ {
		role := core.RoleUser
		if i%2 == 1 {
			role = core.RoleAssistant
		}
		require.NoError(t, store.AddMessage(rec, core.Message{Role: role, Content: fmt.Sprintf("message %d", i)}))
	}

	assert.LessOrEqual(t, len(rec.Messages), summaryTailKept+1)
	assert.NotEmpty(t, rec.Summary)
}

func TestConversationStoreDeleteAndList(t *testing.T) {
	store, err := NewConversationStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Create("keep-me")
	require.NoError(t, err)
	_, err = store.Create("drop-me")
	require.NoError(t, err)

	ids, err := store.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"keep-me", "drop-me"}, ids)

	require.NoError(t, store.Delete("drop-me"))

	ids, err = store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"keep-me"}, ids)
}

func TestConversationStoreCleanupOlderThan(t *testing.T) {
	store, err := NewConversationStore(t.TempDir())
	require.NoError(t, err)

	rec, err := store.Create("old-session")
	require.NoError(t, err)
	rec.UpdatedAt = time.Now().Add(-48 * time.Hour)
	require.NoError(t, store.Save(rec))

	_, err = store.Create("fresh-session")
	require.NoError(t, err)

	removed, err := store.CleanupOlderThan(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	ids, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh-session"}, ids)
}
