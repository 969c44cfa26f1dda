package imagescan

import "fmt"

// DefaultMaxMatches caps a scan when the caller does not supply a
// limit of its own.
const DefaultMaxMatches = 1000

// ScanOptions configure one locate pass over a file.
type ScanOptions struct {
	// MaxMatches is a hard cap on returned spans. Zero or negative
	// selects DefaultMaxMatches.
	MaxMatches int

	// Cancel is polled once per chunk (every scanChunkSize bytes).
	// When it returns true the scan stops and returns whatever was
	// already found. Nil means never cancel.
	Cancel func() bool

	// Resolver supplies auxiliary per-message files for delegated
	// dialects. Ignored by the others.
	Resolver StorageResolver
}

// Scan locates embedded image payloads in the file at path using the
// given dialect. Spans come back in file order, never more than the
// cap. Cancellation mid-scan returns the spans found so far with a
// nil error; I/O failures and unknown dialects return typed errors.
func Scan(path string, dialect Dialect, opts ScanOptions) ([]LocatedSpan, error) {
	def, ok := DialectByName(dialect)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, dialect)
	}

	c := &collector{max: opts.MaxMatches}
	if c.max <= 0 {
		c.max = DefaultMaxMatches
	}

	if def.Delegated {
		if err := scanDelegated(path, c, opts); err != nil {
			return nil, err
		}
		return c.spans, nil
	}

	if err := scanOne(path, def.newExtractor(c), c, opts.Cancel); err != nil {
		return nil, err
	}
	return c.spans, nil
}

// HasImage reports whether the file contains at least one qualifying
// image for the dialect. It is a cheap UI hint: every failure,
// including cancellation, reads as false.
func HasImage(path string, dialect Dialect, opts ScanOptions) bool {
	def, ok := DialectByName(dialect)
	if !ok {
		return false
	}

	c := &collector{max: 1, presence: true}

	if def.Delegated {
		if scanDelegated(path, c, opts) != nil {
			return false
		}
		return c.found
	}

	if scanOne(path, def.newExtractor(c), c, opts.Cancel) != nil {
		return false
	}
	return c.found
}

// scanOne drives an extractor over one file in a single forward
// pass. The cancel predicate is evaluated between chunks, never per
// byte, so its overhead is negligible while cancellation latency
// stays bounded by one chunk.
func scanOne(path string, ex extractor, c *collector, cancel func() bool) error {
	s, err := openByteStream(path)
	if err != nil {
		return err
	}
	defer s.close()

	for {
		if cancel != nil && cancel() {
			return nil
		}

		chunk, base, err := s.nextChunk()
		if err != nil {
			return err
		}
		if chunk == nil {
			ex.finish(base)
			return nil
		}

		for i, b := range chunk {
			ex.feed(b, base+uint64(i))
			if c.done {
				return nil
			}
		}
	}
}
