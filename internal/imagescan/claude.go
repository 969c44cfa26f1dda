package imagescan

// The claude dialect scans Claude Code JSONL sessions: one JSON
// object per line, images embedded as content blocks of the form
//
//	{"type":"image","source":{"type":"base64",
//	 "media_type":"image/png","data":"..."}}
//
// Only user-authored lines qualify; assistant lines and tool output
// never produce spans. Claude Code writes the line-level type field
// and the source metadata before the data value, so a span is
// emitted as soon as the data string closes.

type claudePolicy struct {
	basePolicy
	sink *collector

	userLine  bool
	imgDepth  int // stack depth of the image content block, 0 = none
	imgStart  uint64
	srcBase64 bool
	mediaType string
}

func newClaudeExtractor(c *collector) extractor {
	return newTracker(&claudePolicy{sink: c}, true)
}

func (p *claudePolicy) classifyValue(t *tracker, key string) stringClass {
	switch key {
	case "data":
		return classLarge
	case "type", "role", "media_type":
		return classSmall
	}
	return classSkip
}

func (p *claudePolicy) smallValue(t *tracker, key, value string) {
	f := t.top()
	if f == nil {
		return
	}

	// Line-level gate: top-level type/role, or message.role.
	if value == "user" {
		switch {
		case t.depth() == 1 && (key == "type" || key == "role"):
			p.userLine = true
		case t.depth() == 2 && key == "role" && f.underKey == "message":
			p.userLine = true
		}
	}

	switch key {
	case "type":
		switch value {
		case "image":
			p.imgDepth = t.depth()
			p.imgStart = f.start
			p.srcBase64 = false
			p.mediaType = ""
		case "base64":
			if p.imgDepth > 0 && t.depth() == p.imgDepth+1 &&
				f.underKey == "source" {
				p.srcBase64 = true
			}
		}
	case "media_type":
		if p.imgDepth > 0 && t.depth() == p.imgDepth+1 &&
			f.underKey == "source" {
			p.mediaType = value
		}
	}
}

func (p *claudePolicy) largeValue(t *tracker, key string, v largeString) {
	if key != "data" || !p.userLine {
		return
	}
	if p.imgDepth == 0 || t.depth() != p.imgDepth+1 {
		return
	}
	f := t.top()
	if f == nil || f.underKey != "source" {
		return
	}
	if !p.srcBase64 || p.mediaType == "" || !v.clean {
		return
	}

	p.sink.add(LocatedSpan{
		Span: Span{
			StartOffset:   p.imgStart,
			EndOffset:     v.endOff,
			PayloadOffset: v.payloadOff,
			PayloadLength: v.length,
			MediaType:     p.mediaType,
		},
		LineIndex: t.line,
	})
	p.resetImage()
}

func (p *claudePolicy) objectClosed(t *tracker, f frame, off uint64) {
	if p.imgDepth > 0 && t.depth() < p.imgDepth {
		p.resetImage()
	}
}

func (p *claudePolicy) lineEnded(t *tracker) {
	p.userLine = false
	p.resetImage()
}

func (p *claudePolicy) resetImage() {
	p.imgDepth = 0
	p.srcBase64 = false
	p.mediaType = ""
}
