package imagescan

// The droid dialect scans Droid stream-json JSONL sessions. Images
// are content blocks carrying a flat mimeType/data pair:
//
//	{"type":"image","mimeType":"image/png","data":"..."}
//
// Droid does not guarantee that the line-level role field precedes
// the content array, so spans are buffered per line and flushed only
// once the enclosing top-level object (or the line) ends and the
// user gate is known.

const droidFlagImage uint8 = 1 << 0

type droidPolicy struct {
	basePolicy
	sink *collector

	userLine bool
	pending  []Span
}

func newDroidExtractor(c *collector) extractor {
	return newTracker(&droidPolicy{sink: c}, true)
}

func (p *droidPolicy) classifyValue(t *tracker, key string) stringClass {
	switch key {
	case "data":
		return classLarge
	case "type", "role", "mimeType":
		return classSmall
	}
	return classSkip
}

func (p *droidPolicy) smallValue(t *tracker, key, value string) {
	f := t.top()
	if f == nil {
		return
	}

	if t.depth() == 1 && value == "user" &&
		(key == "role" || key == "type") {
		p.userLine = true
	}

	switch key {
	case "type":
		if value == "image" {
			f.flags |= droidFlagImage
		}
	case "mimeType":
		f.mediaType = value
	}
}

func (p *droidPolicy) largeValue(t *tracker, key string, v largeString) {
	if key != "data" {
		return
	}
	if f := t.top(); f != nil {
		f.payload = v
		f.hasPayload = true
	}
}

func (p *droidPolicy) objectClosed(t *tracker, f frame, off uint64) {
	if f.flags&droidFlagImage != 0 && f.hasPayload &&
		f.payload.clean && f.mediaType != "" {
		p.pending = append(p.pending, Span{
			StartOffset:   f.start,
			EndOffset:     off + 1,
			PayloadOffset: f.payload.payloadOff,
			PayloadLength: f.payload.length,
			MediaType:     f.mediaType,
		})
	}

	// Top-level object closed: the gate cannot change anymore.
	if t.depth() == 0 {
		p.flush(t)
	}
}

func (p *droidPolicy) lineEnded(t *tracker) {
	p.flush(t)
	p.userLine = false
}

func (p *droidPolicy) flush(t *tracker) {
	if p.userLine {
		for _, s := range p.pending {
			p.sink.add(LocatedSpan{Span: s, LineIndex: t.line})
		}
	}
	p.pending = p.pending[:0]
}
