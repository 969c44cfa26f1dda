// Package layout maps agent session files to the auxiliary files
// that hold their message content. The imagescan package consumes it
// only through the StorageResolver interface, so directory
// conventions stay out of the scanning core.
package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/agentlens/agentlens/internal/imagescan"
)

// OpenCodeResolver resolves an OpenCode session file to its
// per-message part files. The storage tree looks like
//
//	storage/session/<project>/ses_<id>.json
//	storage/message/ses_<id>/msg_<id>.json
//	storage/part/msg_<id>/prt_<id>.json
//
// Part files carry the actual message content, including pasted
// images as data URLs.
type OpenCodeResolver struct{}

// Resolve returns the session's schema version tag and its part
// files in message order, parts ordered by filename within each
// message.
func (OpenCodeResolver) Resolve(
	sessionPath string,
) (string, []imagescan.MessagePart, error) {
	data, err := os.ReadFile(sessionPath)
	if err != nil {
		return "", nil, fmt.Errorf("read session %s: %w", sessionPath, err)
	}

	version := gjson.GetBytes(data, "version").Str
	if version == "" {
		version = "1"
	}

	root, err := storageRoot(sessionPath)
	if err != nil {
		return "", nil, err
	}

	sessionID := strings.TrimSuffix(
		filepath.Base(sessionPath), ".json",
	)

	msgDir := filepath.Join(root, "message", sessionID)
	msgs, err := sortedJSONStems(msgDir, "msg_")
	if err != nil {
		return "", nil, fmt.Errorf(
			"list messages for %s: %w", sessionID, err,
		)
	}

	var parts []imagescan.MessagePart
	for _, msgID := range msgs {
		partDir := filepath.Join(root, "part", msgID)
		names, err := sortedJSONStems(partDir, "prt_")
		if err != nil {
			// Messages without parts are normal (metadata-only).
			continue
		}
		for _, partID := range names {
			parts = append(parts, imagescan.MessagePart{
				MessageID: msgID,
				Path: filepath.Join(
					partDir, partID+".json",
				),
			})
		}
	}

	return version, parts, nil
}

// storageRoot walks up from the session file to the enclosing
// "storage" directory.
func storageRoot(sessionPath string) (string, error) {
	dir := filepath.Dir(sessionPath)
	for {
		if filepath.Base(dir) == "storage" {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf(
				"no storage root above %s", sessionPath,
			)
		}
		dir = parent
	}
}

// sortedJSONStems lists the stems of prefix-matched .json files in
// dir, sorted for stable scan order.
func sortedJSONStems(dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var stems []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, prefix) ||
			!strings.HasSuffix(name, ".json") {
			continue
		}
		stems = append(stems, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(stems)
	return stems, nil
}
