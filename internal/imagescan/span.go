// Package imagescan locates base64-encoded image payloads embedded
// in agent session files. Scans are single forward passes with
// bounded memory: large payload strings are length-counted, never
// buffered, so a multi-gigabyte transcript costs O(nesting depth)
// memory to scan.
package imagescan

// Dialect identifies the transcript schema variant a file uses.
type Dialect string

const (
	DialectGeneric  Dialect = "generic"
	DialectClaude   Dialect = "claude"
	DialectDroid    Dialect = "droid"
	DialectGemini   Dialect = "gemini"
	DialectOpenCode Dialect = "opencode"
)

// Span describes one located base64 image payload within a file.
// Offsets are absolute byte positions in the scanned file.
type Span struct {
	StartOffset   uint64 // opening byte of the enclosing marker/object
	EndOffset     uint64 // exclusive, byte after the closing delimiter
	PayloadOffset uint64 // first byte of the base64 text
	PayloadLength int64  // count of base64 characters, not decoded bytes
	MediaType     string // e.g. "image/png"
}

// ApproxDecodedBytes estimates the decoded size without reading the
// payload. Exact size can differ by up to 2 bytes of padding.
func (s Span) ApproxDecodedBytes() int64 {
	return s.PayloadLength * 3 / 4
}

// LocatedSpan pairs a Span with the positional tag its dialect
// assigns: a line index for line-delimited formats, an item index
// for the array-indexed format, or a message ID (plus per-file line
// index) for the delegated-file format. The tag is opaque context
// handed back to the caller.
type LocatedSpan struct {
	Span
	LineIndex int
	ItemIndex int
	MessageID string
}

// DialectDef describes a supported transcript schema variant.
type DialectDef struct {
	Dialect     Dialect
	DisplayName string

	// Delegated marks dialects that scan auxiliary per-message
	// files resolved by a StorageResolver instead of the session
	// file itself.
	Delegated bool

	// newExtractor builds a fresh per-scan extractor feeding the
	// collector. Nil for delegated dialects.
	newExtractor func(c *collector) extractor
}

// Registry lists all supported dialects. Order is stable and used
// for CLI help and config iteration.
var Registry = []DialectDef{
	{
		Dialect:      DialectGeneric,
		DisplayName:  "Generic data-URL",
		newExtractor: newGenericExtractor,
	},
	{
		Dialect:      DialectClaude,
		DisplayName:  "Claude Code",
		newExtractor: newClaudeExtractor,
	},
	{
		Dialect:      DialectDroid,
		DisplayName:  "Droid",
		newExtractor: newDroidExtractor,
	},
	{
		Dialect:      DialectGemini,
		DisplayName:  "Gemini",
		newExtractor: newGeminiExtractor,
	},
	{
		Dialect:     DialectOpenCode,
		DisplayName: "OpenCode",
		Delegated:   true,
	},
}

// DialectByName returns the DialectDef for the given dialect.
func DialectByName(d Dialect) (DialectDef, bool) {
	for _, def := range Registry {
		if def.Dialect == d {
			return def, true
		}
	}
	return DialectDef{}, false
}

// extractor consumes the scanned file one byte at a time. finish is
// called once at end of file with the file length.
type extractor interface {
	feed(b byte, off uint64)
	finish(off uint64)
}

// collector accumulates located spans during one scan and decides
// when the scan can stop early.
type collector struct {
	spans    []LocatedSpan
	max      int
	presence bool
	found    bool
	done     bool
}

// add records a located span. In presence mode the first qualifying
// span ends the scan without being recorded.
func (c *collector) add(ls LocatedSpan) {
	if c.done {
		return
	}
	c.found = true
	if c.presence {
		c.done = true
		return
	}
	c.spans = append(c.spans, ls)
	if c.max > 0 && len(c.spans) >= c.max {
		c.done = true
	}
}

// markFound ends a presence scan early, before a full span has been
// computed (used by the generic dialect's payload threshold).
func (c *collector) markFound() {
	if !c.presence {
		return
	}
	c.found = true
	c.done = true
}
