package imagescan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDialectForPath(t *testing.T) {
	cases := []struct {
		path string
		want Dialect
	}{
		{"/home/u/.codex/sessions/2024/rollout-2024-01-02.jsonl", DialectGeneric},
		{"/home/u/.gemini/tmp/hash/session-abc123.json", DialectGemini},
		{"/home/u/.local/share/opencode/storage/session/proj/ses_001.json", DialectOpenCode},
		{"/home/u/.claude/projects/proj/b2c653c0-1b06.jsonl", DialectClaude},
		{"/home/u/.factory/sessions/b2c653c0.jsonl", DialectDroid},
		{"/var/droid/logs/run.jsonl", DialectDroid},
		{"/tmp/notes.txt", DialectGeneric},
		{"rollout-x.jsonl", DialectGeneric},
		{"session-1.txt", DialectGeneric},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, DialectForPath(tc.path), "path %s", tc.path)
	}
}
