package imagescan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentlens/agentlens/internal/testimages"
)

func TestDroid_RoleAfterContent(t *testing.T) {
	// Droid stream-json does not guarantee role precedes content, so
	// spans are held until the line object closes.
	line := testimages.DroidImageLine("user", "image/png", "AAAA")
	path := writeSession(t, "d.jsonl", line+"\n")

	spans := mustScan(t, path, DialectDroid)
	require.Len(t, spans, 1)

	s := spans[0]
	assert.Equal(t, "image/png", s.MediaType)
	assert.Equal(t, int64(4), s.PayloadLength)
	assert.Equal(t, uint64(strings.Index(line, "AAAA")), s.PayloadOffset)

	// Span covers the image object, through its closing brace.
	blockStart := strings.Index(line, `{"type":"image"`)
	blockEnd := strings.Index(line, `}],`) + 1
	assert.Equal(t, uint64(blockStart), s.StartOffset)
	assert.Equal(t, uint64(blockEnd), s.EndOffset)
}

func TestDroid_AssistantLineDropsPending(t *testing.T) {
	line := testimages.DroidImageLine("assistant", "image/png", "AAAA")
	path := writeSession(t, "d.jsonl", line+"\n")

	assert.Empty(t, mustScan(t, path, DialectDroid))
}

func TestDroid_RoleFirstAlsoWorks(t *testing.T) {
	line := `{"role":"user","content":[{"type":"image","mimeType":"image/webp","data":"BBBBBBBB"}]}`
	path := writeSession(t, "d.jsonl", line+"\n")

	spans := mustScan(t, path, DialectDroid)
	require.Len(t, spans, 1)
	assert.Equal(t, "image/webp", spans[0].MediaType)
	assert.Equal(t, int64(8), spans[0].PayloadLength)
}

func TestDroid_MixedLines(t *testing.T) {
	content := testimages.JoinJSONL(
		testimages.DroidImageLine("assistant", "image/png", "AAAA"),
		`{"type":"system","content":"boot"}`,
		testimages.DroidImageLine("user", "image/png", "CCCC"),
	)
	path := writeSession(t, "d.jsonl", content)

	spans := mustScan(t, path, DialectDroid)
	require.Len(t, spans, 1)
	assert.Equal(t, 2, spans[0].LineIndex)
}

func TestDroid_ImageObjectNeedsTypeAndMime(t *testing.T) {
	t.Run("missing type", func(t *testing.T) {
		line := `{"role":"user","content":[{"mimeType":"image/png","data":"AAAA"}]}`
		path := writeSession(t, "d.jsonl", line+"\n")
		assert.Empty(t, mustScan(t, path, DialectDroid))
	})

	t.Run("missing mimeType", func(t *testing.T) {
		line := `{"role":"user","content":[{"type":"image","data":"AAAA"}]}`
		path := writeSession(t, "d.jsonl", line+"\n")
		assert.Empty(t, mustScan(t, path, DialectDroid))
	})
}

func TestDroid_NoTrailingNewline(t *testing.T) {
	line := testimages.DroidImageLine("user", "image/png", "AAAA")
	path := writeSession(t, "d.jsonl", line) // no \n at EOF

	spans := mustScan(t, path, DialectDroid)
	require.Len(t, spans, 1)
}
