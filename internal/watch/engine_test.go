package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentlens/agentlens/internal/imagescan"
	"github.com/agentlens/agentlens/internal/spancache"
	"github.com/agentlens/agentlens/internal/testimages"
)

func newTestEngine(t *testing.T) (*Engine, *spancache.DB) {
	t.Helper()
	db, err := spancache.Open(filepath.Join(t.TempDir(), "spans.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewEngine(db, nil, 0), db
}

func TestRescan_CachesSpans(t *testing.T) {
	engine, db := newTestEngine(t)

	path := testimages.WriteFile(t, t.TempDir(), "s.jsonl",
		testimages.ClaudeImageLine("user", "image/png", "AAAA")+"\n")

	refreshed, err := engine.Rescan([]string{path})
	require.NoError(t, err)
	assert.Equal(t, 1, refreshed)

	sig, err := spancache.SignatureFor(path)
	require.NoError(t, err)
	spans, ok, err := db.Get(sig, imagescan.DialectClaude)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, spans, 1)
	assert.Equal(t, "image/png", spans[0].MediaType)
}

func TestRescan_UnchangedFileIsCacheHit(t *testing.T) {
	engine, _ := newTestEngine(t)

	path := testimages.WriteFile(t, t.TempDir(), "s.jsonl",
		testimages.ClaudeImageLine("user", "image/png", "AAAA")+"\n")

	refreshed, err := engine.Rescan([]string{path})
	require.NoError(t, err)
	require.Equal(t, 1, refreshed)

	refreshed, err = engine.Rescan([]string{path})
	require.NoError(t, err)
	assert.Equal(t, 0, refreshed)
}

func TestRescan_ChangedFileRefreshes(t *testing.T) {
	engine, db := newTestEngine(t)

	dir := t.TempDir()
	path := testimages.WriteFile(t, dir, "s.jsonl",
		testimages.ClaudeImageLine("user", "image/png", "AAAA")+"\n")

	_, err := engine.Rescan([]string{path})
	require.NoError(t, err)

	// Append a second image and bump mtime past nanosecond clock
	// granularity.
	content := testimages.JoinJSONL(
		testimages.ClaudeImageLine("user", "image/png", "AAAA"),
		testimages.ClaudeImageLine("user", "image/jpeg", "BBBB"),
	)
	testimages.WriteFile(t, dir, "s.jsonl", content)
	future := time.Now().Add(time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	refreshed, err := engine.Rescan([]string{path})
	require.NoError(t, err)
	require.Equal(t, 1, refreshed)

	sig, err := spancache.SignatureFor(path)
	require.NoError(t, err)
	spans, ok, err := db.Get(sig, imagescan.DialectClaude)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, spans, 2)
}

func TestRescan_SkipsNonSessionFiles(t *testing.T) {
	engine, _ := newTestEngine(t)

	path := testimages.WriteFile(t, t.TempDir(), "notes.txt", "hello")

	refreshed, err := engine.Rescan([]string{path})
	require.NoError(t, err)
	assert.Equal(t, 0, refreshed)
}

func TestRescan_DeletedFileInvalidates(t *testing.T) {
	engine, db := newTestEngine(t)

	path := testimages.WriteFile(t, t.TempDir(), "s.jsonl",
		testimages.ClaudeImageLine("user", "image/png", "AAAA")+"\n")

	_, err := engine.Rescan([]string{path})
	require.NoError(t, err)
	sig, err := spancache.SignatureFor(path)
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	refreshed, err := engine.Rescan([]string{path})
	require.NoError(t, err)
	assert.Equal(t, 0, refreshed)

	_, ok, err := db.Get(sig, imagescan.DialectClaude)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRescan_StoppedEngine(t *testing.T) {
	engine, _ := newTestEngine(t)
	engine.Stop()

	path := testimages.WriteFile(t, t.TempDir(), "s.jsonl", "{}\n")

	refreshed, err := engine.Rescan([]string{path})
	assert.ErrorIs(t, err, imagescan.ErrCancelled)
	assert.Equal(t, 0, refreshed)
}
