// Package testimages provides shared fixture builders for session
// files with embedded base64 images. Builders concatenate strings
// instead of marshaling maps: tests assert byte-exact offsets, so
// key order and spacing must be deterministic.
package testimages

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// PNGPayload is a short valid base64 payload (decodes to the PNG
// magic bytes).
const PNGPayload = "iVBORw0KGgo="

// Base64 returns the standard-encoded form of raw, handy for
// building payloads whose decoded bytes a test wants to check.
func Base64(raw string) string {
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// JoinJSONL joins lines with newlines and appends a trailing one.
func JoinJSONL(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

// ClaudeImageLine returns one Claude Code JSONL line of the given
// line type whose message embeds a base64 image content block.
func ClaudeImageLine(lineType, mediaType, data string) string {
	return `{"type":"` + lineType + `","timestamp":"2024-01-01T00:00:00Z",` +
		`"message":{"role":"` + lineType + `","content":[` +
		`{"type":"text","text":"see screenshot"},` +
		`{"type":"image","source":{"type":"base64",` +
		`"media_type":"` + mediaType + `","data":"` + data + `"}}]}}`
}

// ClaudeTextLine returns a Claude Code JSONL line with plain text
// content only.
func ClaudeTextLine(lineType, text string) string {
	return `{"type":"` + lineType + `","timestamp":"2024-01-01T00:00:00Z",` +
		`"message":{"role":"` + lineType + `","content":[` +
		`{"type":"text","text":"` + text + `"}]}}`
}

// DroidImageLine returns a Droid stream-json line. The role field
// comes after the content array, which is what makes the droid
// dialect buffer spans until the line object closes.
func DroidImageLine(role, mimeType, data string) string {
	return `{"content":[{"type":"image","mimeType":"` + mimeType + `",` +
		`"data":"` + data + `"}],"role":"` + role + `","type":"message"}`
}

// GeminiSession returns a single-document Gemini session whose
// messages array holds one text item per given text and one image
// item per (mimeType, data) pair in inline order.
func GeminiSession(items ...string) string {
	return `{"sessionId":"session-1","messages":[` +
		strings.Join(items, ",") + `]}`
}

// GeminiTextItem returns a plain text message item.
func GeminiTextItem(text string) string {
	return `{"type":"user","content":"` + text + `"}`
}

// GeminiImageItem returns a message item embedding inline image
// data.
func GeminiImageItem(mimeType, data string) string {
	return `{"type":"user","content":[{"inlineData":` +
		`{"mimeType":"` + mimeType + `","data":"` + data + `"}}]}`
}

// DataURLText embeds a data URL in surrounding prose, terminated by
// a double quote, the way Codex rollout lines carry pasted images.
func DataURLText(mediaType, payload string) string {
	return `{"type":"response_item","payload":{"content":[{"type":"input_image",` +
		`"image_url":"data:` + mediaType + `;base64,` + payload + `"}]}}`
}

// WriteFile writes content under dir and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// WriteOpenCodeTree builds a minimal OpenCode storage tree with one
// session and one part file per message holding the supplied
// content. Message IDs must carry the msg_ prefix. Returns the
// session file path.
func WriteOpenCodeTree(
	t *testing.T, root string, partContent map[string]string,
) string {
	t.Helper()
	storage := filepath.Join(root, "storage")
	session := WriteFile(t, storage,
		filepath.Join("session", "proj", "ses_001.json"),
		`{"id":"ses_001","version":"2"}`)

	for msgID, content := range partContent {
		WriteFile(t, storage,
			filepath.Join("message", "ses_001", msgID+".json"),
			`{"id":"`+msgID+`","role":"user"}`)
		WriteFile(t, storage,
			filepath.Join("part", msgID, "prt_0.json"),
			content)
	}
	return session
}
