package imagescan

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPolicy classifies values by a fixed key map and records
// every callback for assertions.
type recordingPolicy struct {
	basePolicy
	classes map[string]stringClass

	smalls        []string // "key=value@depth"
	larges        []largeString
	largeKeys     []string
	objectsClosed int
	linesEnded    int
}

func (p *recordingPolicy) classifyValue(t *tracker, key string) stringClass {
	if c, ok := p.classes[key]; ok {
		return c
	}
	return classSkip
}

func (p *recordingPolicy) smallValue(t *tracker, key, value string) {
	p.smalls = append(p.smalls,
		fmt.Sprintf("%s=%s@%d", key, value, t.depth()))
}

func (p *recordingPolicy) largeValue(t *tracker, key string, v largeString) {
	p.largeKeys = append(p.largeKeys, key)
	p.larges = append(p.larges, v)
}

func (p *recordingPolicy) objectClosed(t *tracker, f frame, off uint64) {
	p.objectsClosed++
}

func (p *recordingPolicy) lineEnded(t *tracker) {
	p.linesEnded++
}

func feedAll(tr *tracker, input string) {
	for i := 0; i < len(input); i++ {
		tr.feed(input[i], uint64(i))
	}
	tr.finish(uint64(len(input)))
}

func TestTracker_SmallValues(t *testing.T) {
	p := &recordingPolicy{classes: map[string]stringClass{
		"role": classSmall, "type": classSmall,
	}}
	tr := newTracker(p, false)

	feedAll(tr, `{"role":"user","nested":{"type":"image"},"n":42}`)

	assert.Equal(t, []string{"role=user@1", "type=image@2"}, p.smalls)
	assert.Equal(t, 2, p.objectsClosed)
}

func TestTracker_LargeValueOffsets(t *testing.T) {
	p := &recordingPolicy{classes: map[string]stringClass{
		"data": classLarge,
	}}
	tr := newTracker(p, false)

	input := `{"pre":"x","data":"AAAABBBB","post":"y"}`
	feedAll(tr, input)

	require.Len(t, p.larges, 1)
	v := p.larges[0]
	payloadIdx := strings.Index(input, "AAAABBBB")
	assert.Equal(t, uint64(payloadIdx), v.payloadOff)
	assert.Equal(t, int64(8), v.length)
	assert.Equal(t, uint64(payloadIdx+8+1), v.endOff)
	assert.True(t, v.clean)
	assert.Equal(t, []string{"data"}, p.largeKeys)
}

func TestTracker_LargeValueEscapes(t *testing.T) {
	p := &recordingPolicy{classes: map[string]stringClass{
		"data": classLarge,
	}}
	tr := newTracker(p, false)

	// Escapes invalidate a payload but must not derail counting:
	// offsets downstream depend on every byte being accounted for.
	input := `{"data":"AA\nBB"}`
	feedAll(tr, input)

	require.Len(t, p.larges, 1)
	v := p.larges[0]
	assert.False(t, v.clean)
	assert.Equal(t, int64(6), v.length) // A A \ n B B
}

func TestTracker_SmallBufferCap(t *testing.T) {
	p := &recordingPolicy{classes: map[string]stringClass{
		"big": classSmall,
	}}
	tr := newTracker(p, false)

	huge := strings.Repeat("x", smallStringMax*3)
	feedAll(tr, `{"big":"`+huge+`"}`)

	require.Len(t, p.smalls, 1)
	// Truncated to the cap, never grown to the value's size.
	assert.Equal(t,
		fmt.Sprintf("big=%s@1", huge[:smallStringMax]),
		p.smalls[0])
}

func TestTracker_MalformedInput(t *testing.T) {
	t.Run("unmatched closers are no-ops", func(t *testing.T) {
		p := &recordingPolicy{classes: map[string]stringClass{
			"a": classSmall,
		}}
		tr := newTracker(p, false)
		feedAll(tr, `}}]]{"a":"b"}`)
		assert.Equal(t, []string{"a=b@1"}, p.smalls)
	})

	t.Run("garbage in key position is skipped", func(t *testing.T) {
		p := &recordingPolicy{classes: map[string]stringClass{
			"k": classSmall,
		}}
		tr := newTracker(p, false)
		feedAll(tr, `{##,"k":"v"}`)
		assert.Equal(t, []string{"k=v@1"}, p.smalls)
	})

	t.Run("deep nesting does not recurse", func(t *testing.T) {
		p := &recordingPolicy{}
		tr := newTracker(p, false)
		depth := 100_000
		feedAll(tr, strings.Repeat("[", depth))
		assert.Equal(t, depth, tr.depth())
	})
}

func TestTracker_LineReset(t *testing.T) {
	p := &recordingPolicy{classes: map[string]stringClass{
		"role": classSmall,
	}}
	tr := newTracker(p, true)

	// The first line is truncated mid-object; the newline must fully
	// reset parse state so the second line parses normally.
	feedAll(tr, `{"role":"user","partial`+"\n"+`{"role":"assistant"}`+"\n")

	assert.Equal(t, []string{"role=user@1", "role=assistant@1"}, p.smalls)
	assert.Equal(t, 2, tr.line)
	assert.GreaterOrEqual(t, p.linesEnded, 2)
}

func TestTracker_ArrayItemIndexes(t *testing.T) {
	p := &recordingPolicy{}
	tr := newTracker(p, false)

	var indexes []int
	probe := &probePolicy{inner: p, onOpen: func(t *tracker) {
		if f := t.top(); f != nil && f.kind == frameObject {
			indexes = append(indexes, f.itemIdx)
		}
	}}
	tr.policy = probe

	feedAll(tr, `{"items":[{"a":1},{"b":2},"s",{"c":3}]}`)

	// Objects at indexes 0, 1 and 3; the bare string takes slot 2.
	assert.Equal(t, []int{-1, 0, 1, 3}, indexes)
}

// probePolicy wraps another policy and additionally observes object
// opens.
type probePolicy struct {
	inner  trackerPolicy
	onOpen func(*tracker)
}

func (p *probePolicy) classifyValue(t *tracker, key string) stringClass {
	return p.inner.classifyValue(t, key)
}
func (p *probePolicy) smallValue(t *tracker, k, v string) { p.inner.smallValue(t, k, v) }
func (p *probePolicy) largeValue(t *tracker, k string, v largeString) {
	p.inner.largeValue(t, k, v)
}
func (p *probePolicy) objectOpened(t *tracker, off uint64) {
	p.onOpen(t)
	p.inner.objectOpened(t, off)
}
func (p *probePolicy) objectClosed(t *tracker, f frame, off uint64) {
	p.inner.objectClosed(t, f, off)
}
func (p *probePolicy) arrayOpened(t *tracker, off uint64)          { p.inner.arrayOpened(t, off) }
func (p *probePolicy) arrayClosed(t *tracker, f frame, off uint64) { p.inner.arrayClosed(t, f, off) }
func (p *probePolicy) lineEnded(t *tracker)                        { p.inner.lineEnded(t) }
