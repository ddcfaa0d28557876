package rule

import "github.com/hpungsan/shrule/internal/journal"

// attachedRange returns the first and last token positions attached to events of
// direction d, or -1, -1 when there are none.
func (m *matcher) attachedRange(d journal.Direction) (first, last int) {
	first, last = -1, -1
	for i, e := range m.attached {
		if e == nil || e.Direction != d {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	return first, last
}

// needsQualifier reports whether direction d must use named placeholders. A single
// {input} or {output} may only replace a run of attached tokens separated by blanks;
// anything else inside the run would be lost when the run collapses.
func (m *matcher) needsQualifier(d journal.Direction) bool {
	if len(m.unmatched[d]) > 0 {
		return true
	}
	first, last := m.attachedRange(d)
	if first < 0 {
		return false
	}
	for i := first; i <= last; i++ {
		if e := m.attached[i]; e != nil {
			if e.Direction != d {
				return true
			}
			continue
		}
		if !m.tokens[i].IsWhitespace() {
			return true
		}
	}
	return false
}
