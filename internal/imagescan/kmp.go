package imagescan

// kmpPattern is a Knuth-Morris-Pratt matcher for one fixed literal
// pattern, advanced one byte at a time. The failure table makes the
// per-byte cost O(1) amortized, so total scan work stays linear in
// the file length no matter how many partial matches occur.
type kmpPattern struct {
	pat  []byte
	fail []int
}

func newKMPPattern(pattern string) *kmpPattern {
	pat := []byte(pattern)
	fail := make([]int, len(pat))
	k := 0
	for i := 1; i < len(pat); i++ {
		for k > 0 && pat[i] != pat[k] {
			k = fail[k-1]
		}
		if pat[i] == pat[k] {
			k++
		}
		fail[i] = k
	}
	return &kmpPattern{pat: pat, fail: fail}
}

// advance consumes one byte and returns the new match state. State 0
// is the initial state; states count matched pattern bytes.
func (p *kmpPattern) advance(state int, b byte) int {
	for state > 0 && b != p.pat[state] {
		state = p.fail[state-1]
	}
	if b == p.pat[state] {
		state++
	}
	return state
}

// complete reports whether state means the full pattern was just
// matched, with its final byte at the current offset.
func (p *kmpPattern) complete(state int) bool {
	return state == len(p.pat)
}

func (p *kmpPattern) len() int {
	return len(p.pat)
}
