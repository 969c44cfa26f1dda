package imagescan

import (
	"path/filepath"
	"strings"
)

// DialectForPath guesses a file's dialect from the filename
// conventions the agents use: Codex writes rollout-*.jsonl, Gemini
// writes session-*.json chat files, OpenCode writes ses_*.json
// session records, Claude Code and Droid write <uuid>.jsonl. Unknown
// files fall back to the generic marker scan, which is safe on any
// byte stream.
func DialectForPath(path string) Dialect {
	name := filepath.Base(path)
	stem := name
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		stem = name[:i]
	}

	switch {
	case strings.HasPrefix(stem, "rollout-"):
		return DialectGeneric
	case strings.HasPrefix(stem, "session-") &&
		strings.HasSuffix(name, ".json"):
		return DialectGemini
	case strings.HasPrefix(stem, "ses_"):
		return DialectOpenCode
	case strings.HasSuffix(name, ".jsonl"):
		if pathContainsDir(path, ".factory") ||
			pathContainsDir(path, "droid") {
			return DialectDroid
		}
		return DialectClaude
	default:
		return DialectGeneric
	}
}

func pathContainsDir(path, dir string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == dir {
			return true
		}
	}
	return false
}
