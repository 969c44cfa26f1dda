package imagescan

import "fmt"

// The opencode dialect does not scan session JSON itself. OpenCode
// keeps message content in auxiliary per-message part files; a
// StorageResolver maps the session file to those files and the
// generic dialect runs over each one. The directory layout lives
// behind the resolver so this package never learns it.

// MessagePart identifies one auxiliary per-message file of a
// session.
type MessagePart struct {
	MessageID string
	Path      string
}

// StorageResolver maps a session file to its schema version and the
// auxiliary per-message files to scan.
type StorageResolver interface {
	Resolve(sessionPath string) (schemaVersion string, parts []MessagePart, err error)
}

// scanDelegated resolves the session's part files and applies the
// generic dialect to each, tagging spans with the originating
// message ID and the line index within that part file. Part files
// that cannot be read are skipped: the session may be mid-write by
// the agent that owns it.
func scanDelegated(path string, c *collector, opts ScanOptions) error {
	if opts.Resolver == nil {
		return ErrNoResolver
	}

	_, parts, err := opts.Resolver.Resolve(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	for _, part := range parts {
		if c.done || (opts.Cancel != nil && opts.Cancel()) {
			return nil
		}

		mark := len(c.spans)
		if err := scanOne(
			part.Path, newGenericExtractor(c), c, opts.Cancel,
		); err != nil {
			continue
		}
		for i := mark; i < len(c.spans); i++ {
			c.spans[i].MessageID = part.MessageID
		}
	}
	return nil
}
