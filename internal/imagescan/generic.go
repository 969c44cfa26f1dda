package imagescan

// The generic dialect finds flat data-URL markers (`data:image...`
// followed by `;base64,`) in raw bytes with no JSON awareness. It
// covers Codex rollout files, OpenCode part files, and any format we
// have no schema for. Matching uses two sequential KMP patterns so
// total work stays O(file length) however many false starts occur.

const (
	// genericHeaderMax caps the text between the marker and the
	// base64 introducer. Exceeding it aborts the candidate; a code
	// block that merely mentions "data:image" never has a real
	// base64 introducer nearby.
	genericHeaderMax = 512

	// presenceMinPayload is the payload-character threshold after
	// which a presence-only scan reports success without scanning
	// to the terminator.
	presenceMinPayload = 64
)

var (
	markerPattern = newKMPPattern("data:image")
	base64Pattern = newKMPPattern(";base64,")
)

// genericTerminators are the bytes that end a data-URL payload.
var genericTerminators = [256]bool{
	'"': true, '\'': true, ' ': true, '\t': true,
	'\n': true, '\r': true, ')': true, ']': true,
	'}': true, '>': true,
}

type genericState int

const (
	genSeekMarker genericState = iota
	genInHeader
	genInPayload
)

// genericExtractor scans raw bytes for data-URL image payloads.
type genericExtractor struct {
	sink *collector

	state       genericState
	matchState  int
	markerStart uint64
	markerLine  int
	header      []byte

	payloadStart uint64
	payloadLen   int64

	line int
}

func newGenericExtractor(c *collector) extractor {
	return &genericExtractor{
		sink:   c,
		header: make([]byte, 0, genericHeaderMax),
	}
}

func (g *genericExtractor) feed(b byte, off uint64) {
	switch g.state {
	case genSeekMarker:
		g.matchState = markerPattern.advance(g.matchState, b)
		if markerPattern.complete(g.matchState) {
			g.markerStart = off - uint64(markerPattern.len()) + 1
			g.markerLine = g.line
			g.header = g.header[:0]
			g.matchState = 0
			g.state = genInHeader
		}
	case genInHeader:
		g.header = append(g.header, b)
		if len(g.header) > genericHeaderMax {
			// False positive, e.g. prose mentioning data:image.
			g.reset()
			break
		}
		g.matchState = base64Pattern.advance(g.matchState, b)
		if base64Pattern.complete(g.matchState) {
			g.payloadStart = off + 1
			g.payloadLen = 0
			g.matchState = 0
			g.state = genInPayload
		}
	case genInPayload:
		if genericTerminators[b] {
			g.emit(off + 1)
			break
		}
		g.payloadLen++
		if g.sink.presence && g.payloadLen >= presenceMinPayload {
			g.sink.markFound()
		}
	}

	if b == '\n' {
		g.line++
	}
}

func (g *genericExtractor) finish(off uint64) {
	// A payload running to end of file is terminated by EOF.
	if g.state == genInPayload && g.payloadLen > 0 {
		g.emit(off)
	}
}

// emit records the completed span. end is exclusive and covers the
// terminator byte when one was seen.
func (g *genericExtractor) emit(end uint64) {
	g.sink.add(LocatedSpan{
		Span: Span{
			StartOffset:   g.markerStart,
			EndOffset:     end,
			PayloadOffset: g.payloadStart,
			PayloadLength: g.payloadLen,
			MediaType:     g.mediaType(),
		},
		LineIndex: g.markerLine,
	})
	g.reset()
}

// mediaType reconstructs the media type from the header window: the
// marker ends in "image" and the header runs up to ";base64,".
func (g *genericExtractor) mediaType() string {
	h := g.header
	if n := len(h) - base64Pattern.len(); n >= 0 {
		h = h[:n] // drop the ";base64," introducer
	}
	return "image" + string(h)
}

func (g *genericExtractor) reset() {
	g.state = genSeekMarker
	g.matchState = 0
	g.header = g.header[:0]
	g.payloadLen = 0
}
