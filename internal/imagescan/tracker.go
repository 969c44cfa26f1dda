package imagescan

// smallStringMax caps the buffered portion of keys and small string
// values. Anything longer is truncated; key comparisons against
// short literals then simply fail to match.
const smallStringMax = 512

// stringClass decides how the tracker treats a string token.
type stringClass int

const (
	// classSkip consumes the string without buffering or counting.
	classSkip stringClass = iota
	// classSmall buffers up to smallStringMax bytes, for semantic
	// fields like role, type, or mimeType.
	classSmall
	// classLarge counts length only and never buffers. This is the
	// base64 payload path; it keeps memory bounded on multi-megabyte
	// string values.
	classLarge
)

type frameKind int

const (
	frameObject frameKind = iota
	frameArray
)

type frameState uint8

const (
	expectKeyOrEnd frameState = iota
	expectColon
	expectValue
	expectCommaOrEnd
	expectItemOrEnd
	expectItemCommaOrEnd
)

// largeString summarizes a length-counted string value. Offsets stay
// byte-exact even when the value turns out invalid, since span
// arithmetic depends on them.
type largeString struct {
	payloadOff uint64 // first byte of the string content
	length     int64  // bytes between the quotes
	endOff     uint64 // exclusive, byte after the closing quote
	clean      bool   // false once a backslash escape is seen
}

// frame is one level of JSON nesting. Each frame is O(1)-sized, so
// tracker memory is O(depth) regardless of file size. The scratch
// fields at the bottom carry per-dialect state for the object the
// frame represents.
type frame struct {
	kind     frameKind
	state    frameState
	key      string // last parsed key (object frames)
	underKey string // parent object key this value opened under
	start    uint64 // offset of the opening brace/bracket
	items    int    // count of elements begun (array frames)
	itemIdx  int    // index of this frame in its parent array, -1 otherwise

	// dialect scratch
	flags      uint8
	mediaType  string
	payload    largeString
	hasPayload bool
}

// trackerPolicy supplies dialect semantics: which string values to
// buffer versus count, and what to do with finished tokens and
// structural boundaries. Embed basePolicy for no-op defaults.
type trackerPolicy interface {
	classifyValue(t *tracker, key string) stringClass
	smallValue(t *tracker, key, value string)
	largeValue(t *tracker, key string, v largeString)
	objectOpened(t *tracker, off uint64)
	objectClosed(t *tracker, f frame, off uint64)
	arrayOpened(t *tracker, off uint64)
	arrayClosed(t *tracker, f frame, off uint64)
	lineEnded(t *tracker)
}

type basePolicy struct{}

func (basePolicy) classifyValue(*tracker, string) stringClass { return classSkip }
func (basePolicy) smallValue(*tracker, string, string)        {}
func (basePolicy) largeValue(*tracker, string, largeString)   {}
func (basePolicy) objectOpened(*tracker, uint64)              {}
func (basePolicy) objectClosed(*tracker, frame, uint64)       {}
func (basePolicy) arrayOpened(*tracker, uint64)               {}
func (basePolicy) arrayClosed(*tracker, frame, uint64)        {}
func (basePolicy) lineEnded(*tracker)                         {}

// tracker is a non-recursive JSON structure scanner. It keeps an
// explicit frame stack instead of descending recursively, so
// adversarial nesting cannot exhaust the call stack. It is not a
// validating parser: unmatched closers pop nothing, and unexpected
// bytes are skipped rather than reported.
type tracker struct {
	policy    trackerPolicy
	lineReset bool // reset all state on every raw newline (JSONL)
	line      int
	stack     []frame

	inString bool
	esc      bool
	isKey    bool
	class    stringClass
	strKey   string
	buf      []byte
	large    largeString
}

func newTracker(policy trackerPolicy, lineReset bool) *tracker {
	return &tracker{
		policy:    policy,
		lineReset: lineReset,
		buf:       make([]byte, 0, smallStringMax),
	}
}

func (t *tracker) top() *frame {
	if len(t.stack) == 0 {
		return nil
	}
	return &t.stack[len(t.stack)-1]
}

func (t *tracker) depth() int { return len(t.stack) }

func (t *tracker) feed(b byte, off uint64) {
	if t.lineReset && b == '\n' {
		t.policy.lineEnded(t)
		t.resetLine()
		t.line++
		return
	}
	if t.inString {
		t.stringByte(b, off)
		return
	}

	switch b {
	case '{':
		t.push(frameObject, off)
	case '[':
		t.push(frameArray, off)
	case '}':
		if f := t.top(); f != nil && f.kind == frameObject {
			popped := *f
			t.stack = t.stack[:len(t.stack)-1]
			t.valueDone()
			t.policy.objectClosed(t, popped, off)
		}
	case ']':
		if f := t.top(); f != nil && f.kind == frameArray {
			popped := *f
			t.stack = t.stack[:len(t.stack)-1]
			t.valueDone()
			t.policy.arrayClosed(t, popped, off)
		}
	case ':':
		if f := t.top(); f != nil && f.kind == frameObject &&
			f.state == expectColon {
			f.state = expectValue
		}
	case ',':
		if f := t.top(); f != nil {
			switch {
			case f.kind == frameObject && f.state == expectCommaOrEnd:
				f.state = expectKeyOrEnd
			case f.kind == frameArray && f.state == expectItemCommaOrEnd:
				f.state = expectItemOrEnd
			}
		}
	case '"':
		t.beginString(off)
	case ' ', '\t', '\r', '\n':
		// whitespace
	default:
		// scalar value content (numbers, true/false/null)
		t.scalarByte()
	}
}

func (t *tracker) finish(uint64) {
	if t.lineReset {
		t.policy.lineEnded(t)
	}
}

func (t *tracker) resetLine() {
	t.stack = t.stack[:0]
	t.inString = false
	t.esc = false
}

func (t *tracker) push(kind frameKind, off uint64) {
	var underKey string
	itemIdx := -1
	if f := t.top(); f != nil {
		switch {
		case f.kind == frameObject && f.state == expectValue:
			underKey = f.key
		case f.kind == frameArray:
			itemIdx = f.items
			f.items++
		}
	}

	fr := frame{
		kind:     kind,
		start:    off,
		underKey: underKey,
		itemIdx:  itemIdx,
	}
	if kind == frameObject {
		fr.state = expectKeyOrEnd
	} else {
		fr.state = expectItemOrEnd
	}
	t.stack = append(t.stack, fr)

	if kind == frameObject {
		t.policy.objectOpened(t, off)
	} else {
		t.policy.arrayOpened(t, off)
	}
}

// valueDone advances the containing frame past a completed value.
func (t *tracker) valueDone() {
	f := t.top()
	if f == nil {
		return
	}
	switch {
	case f.kind == frameObject && f.state == expectValue:
		f.state = expectCommaOrEnd
	case f.kind == frameArray:
		f.state = expectItemCommaOrEnd
	}
}

func (t *tracker) scalarByte() {
	f := t.top()
	if f == nil {
		return
	}
	switch {
	case f.kind == frameObject && f.state == expectValue:
		f.state = expectCommaOrEnd
	case f.kind == frameArray && f.state == expectItemOrEnd:
		f.items++
		f.state = expectItemCommaOrEnd
	}
}

func (t *tracker) beginString(off uint64) {
	t.inString = true
	t.esc = false
	t.isKey = false
	t.class = classSkip
	t.strKey = ""
	t.buf = t.buf[:0]

	f := t.top()
	if f == nil {
		return
	}
	switch {
	case f.kind == frameObject && f.state == expectKeyOrEnd:
		t.isKey = true
	case f.kind == frameObject && f.state == expectValue:
		t.strKey = f.key
		t.class = t.policy.classifyValue(t, f.key)
	case f.kind == frameArray:
		if f.state == expectItemOrEnd {
			f.items++
		}
		t.class = t.policy.classifyValue(t, "")
	}

	if t.class == classLarge {
		t.large = largeString{payloadOff: off + 1, clean: true}
	}
}

func (t *tracker) stringByte(b byte, off uint64) {
	if t.esc {
		t.esc = false
		t.consumeStringByte(b)
		return
	}
	switch b {
	case '\\':
		t.esc = true
		if t.class == classLarge {
			// Base64 never contains escapes; mark the value
			// invalid but keep counting so offsets stay stable.
			t.large.clean = false
		}
		t.consumeStringByte(b)
	case '"':
		t.endString(off)
	default:
		t.consumeStringByte(b)
	}
}

func (t *tracker) consumeStringByte(b byte) {
	switch {
	case t.isKey || t.class == classSmall:
		if len(t.buf) < smallStringMax {
			t.buf = append(t.buf, b)
		}
	case t.class == classLarge:
		t.large.length++
	}
}

func (t *tracker) endString(off uint64) {
	t.inString = false

	if t.isKey {
		if f := t.top(); f != nil && f.kind == frameObject {
			f.key = string(t.buf)
			f.state = expectColon
		}
		return
	}

	key := t.strKey
	switch t.class {
	case classSmall:
		val := string(t.buf)
		t.valueDone()
		t.policy.smallValue(t, key, val)
	case classLarge:
		t.large.endOff = off + 1
		t.valueDone()
		t.policy.largeValue(t, key, t.large)
	default:
		t.valueDone()
	}
}
