package imagescan

import "strings"

// The gemini dialect scans single-document session JSON (Gemini CLI
// style): one top-level object holding a messages/history/items
// array. Inline-data objects anywhere in the tree qualify when they
// carry a mimeType starting with "image/" alongside a data value:
//
//	{"inlineData":{"mimeType":"image/png","data":"..."}}
//
// Spans are tagged with the item index of the nearest enclosing
// element of the designated array, 0 when none. There is no role
// gate; mimeType and data may appear in either order, so a span is
// emitted when their enclosing object closes.

const geminiFlagDesignated uint8 = 1 << 0

// geminiArrayKeys are the candidate top-level message array keys.
// The first one seen in the document wins.
var geminiArrayKeys = map[string]bool{
	"messages": true,
	"history":  true,
	"items":    true,
}

type geminiPolicy struct {
	basePolicy
	sink *collector

	designated bool
	curItem    int // nearest enclosing element index, -1 outside
	itemDepth  int // stack depth of that element's frame
}

func newGeminiExtractor(c *collector) extractor {
	return newTracker(&geminiPolicy{sink: c, curItem: -1}, false)
}

func (p *geminiPolicy) classifyValue(t *tracker, key string) stringClass {
	switch key {
	case "data":
		return classLarge
	case "mimeType", "mime_type":
		return classSmall
	}
	return classSkip
}

func (p *geminiPolicy) smallValue(t *tracker, key, value string) {
	if f := t.top(); f != nil &&
		(key == "mimeType" || key == "mime_type") {
		f.mediaType = value
	}
}

func (p *geminiPolicy) largeValue(t *tracker, key string, v largeString) {
	if key != "data" {
		return
	}
	if f := t.top(); f != nil {
		f.payload = v
		f.hasPayload = true
	}
}

func (p *geminiPolicy) arrayOpened(t *tracker, off uint64) {
	f := t.top()
	if f == nil || p.designated {
		return
	}
	if geminiArrayKeys[f.underKey] {
		f.flags |= geminiFlagDesignated
		p.designated = true
	}
}

func (p *geminiPolicy) objectOpened(t *tracker, off uint64) {
	f := t.top()
	if f == nil || f.itemIdx < 0 || t.depth() < 2 {
		return
	}
	parent := &t.stack[t.depth()-2]
	if parent.kind == frameArray &&
		parent.flags&geminiFlagDesignated != 0 {
		p.curItem = f.itemIdx
		p.itemDepth = t.depth()
	}
}

func (p *geminiPolicy) objectClosed(t *tracker, f frame, off uint64) {
	if f.hasPayload && f.payload.clean &&
		strings.HasPrefix(f.mediaType, "image/") {
		item := p.curItem
		if item < 0 {
			item = 0
		}
		p.sink.add(LocatedSpan{
			Span: Span{
				StartOffset:   f.start,
				EndOffset:     off + 1,
				PayloadOffset: f.payload.payloadOff,
				PayloadLength: f.payload.length,
				MediaType:     f.mediaType,
			},
			ItemIndex: item,
		})
	}

	if p.curItem >= 0 && t.depth() < p.itemDepth {
		p.curItem = -1
	}
}
