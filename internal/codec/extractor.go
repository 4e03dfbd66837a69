package codec

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Extract locates the payload inside raw text recovered from a rendered document
// and returns it as one canonical delimited line, ready for Decode.
//
// The recovered text is not under our control: line breaks may appear anywhere,
// including inside keys, and non-breaking spaces may replace ordinary ones.
// Extract returns "" when no payload key is present.
func Extract(text string) string {
	pairs := ExtractPairs(text)
	if len(pairs) == 0 {
		return ""
	}
	return Join(pairs)
}

// ExtractPairs recovers the payload pairs from raw extracted text.
// Keys are returned with all whitespace removed; values are unescaped, have
// line-break runs folded to one space and are trimmed.
func ExtractPairs(text string) []Pair {
	rs := unescapeDelimiter(unescapeCharRefs([]rune(text)))
	for i, r := range rs {
		if r == '\u00a0' {
			rs[i] = ' '
		}
	}

	sc := scanner{rs: rs}
	key, valueStart, ok := sc.firstKey()
	var pairs []Pair
	for ok {
		end, nextKey, nextValueStart, found := sc.nextBoundary(valueStart)
		pairs = append(pairs, Pair{
			Key:   key,
			Value: strings.TrimSpace(collapseLineBreaks(string(rs[valueStart:end]))),
		})
		key, valueStart, ok = nextKey, nextValueStart, found
	}
	return pairs
}

// scanner recognizes payload keys in text where any key may be interrupted by
// whitespace. A key is the prefix (case-insensitive) followed by lowercase
// letters, digits and underscores, then '='.
type scanner struct {
	rs []rune
}

// firstKey finds the first key anywhere in the text.
func (s scanner) firstKey() (key string, valueStart int, ok bool) {
	first := unicode.ToLower(rune(KeyPrefix[0]))
	for i, r := range s.rs {
		if unicode.ToLower(r) != first {
			continue
		}
		if key, valueStart, ok = s.matchKey(i); ok {
			return key, valueStart, true
		}
	}
	return "", 0, false
}

// nextBoundary finds the end of the value that starts at from: the next
// delimiter that is followed (after optional whitespace) by a key. When no such
// delimiter exists the value runs to the end of the text.
func (s scanner) nextBoundary(from int) (end int, key string, valueStart int, ok bool) {
	for i := from; i < len(s.rs); i++ {
		if s.rs[i] != '&' {
			continue
		}
		if key, valueStart, ok = s.matchKey(s.skipSpace(i + 1)); ok {
			return i, key, valueStart, true
		}
	}
	return len(s.rs), "", 0, false
}

// matchKey tries to read a key starting exactly at i. On success it returns the
// key with whitespace stripped and the index just past its '='.
func (s scanner) matchKey(i int) (string, int, bool) {
	var key strings.Builder
	pos := i
	for n, want := range KeyPrefix {
		if n > 0 {
			pos = s.skipSpace(pos)
		}
		if pos >= len(s.rs) || unicode.ToLower(s.rs[pos]) != want {
			return "", 0, false
		}
		key.WriteRune(want)
		pos++
	}

	body := 0
	for pos < len(s.rs) {
		r := s.rs[pos]
		switch {
		case isKeyRune(r):
			key.WriteRune(r)
			body++
			pos++
		case unicode.IsSpace(r):
			pos++
		case r == '=':
			if body == 0 || !ValidKey(key.String()) {
				return "", 0, false
			}
			return key.String(), pos + 1, true
		default:
			return "", 0, false
		}
	}
	return "", 0, false
}

func (s scanner) skipSpace(i int) int {
	for i < len(s.rs) && unicode.IsSpace(s.rs[i]) {
		i++
	}
	return i
}

func isKeyRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_'
}

// unescapeDelimiter turns every "&amp;" back into '&'. A line break wrapped
// into the middle of the escape sequence is tolerated.
func unescapeDelimiter(rs []rune) []rune {
	const tail = "amp;"
	out := make([]rune, 0, len(rs))
	for i := 0; i < len(rs); i++ {
		out = append(out, rs[i])
		if rs[i] != '&' {
			continue
		}
		pos := i + 1
		matched := true
		for _, want := range tail {
			pos = skipLineBreakRun(rs, pos)
			if pos >= len(rs) || rs[pos] != want {
				matched = false
				break
			}
			pos++
		}
		if matched {
			i = pos - 1
		}
	}
	return out
}

// unescapeCharRefs turns decimal character references back into the runes they
// stand for. It runs before unescapeDelimiter so an escaped literal such as
// "&amp;#65;" is left alone. Line breaks inside a reference are tolerated.
func unescapeCharRefs(rs []rune) []rune {
	out := make([]rune, 0, len(rs))
	for i := 0; i < len(rs); i++ {
		if rs[i] == '&' {
			if r, next, ok := charRef(rs, i+1); ok {
				out = append(out, r)
				i = next - 1
				continue
			}
		}
		out = append(out, rs[i])
	}
	return out
}

// charRef reads "#<digits>;" starting at pos and returns the rune and the index
// just past the ';'.
func charRef(rs []rune, pos int) (rune, int, bool) {
	pos = skipLineBreakRun(rs, pos)
	if pos >= len(rs) || rs[pos] != '#' {
		return 0, 0, false
	}
	pos++

	n, digits := 0, 0
	for {
		pos = skipLineBreakRun(rs, pos)
		if pos >= len(rs) {
			return 0, 0, false
		}
		switch r := rs[pos]; {
		case r >= '0' && r <= '9' && digits < 7:
			n = n*10 + int(r-'0')
			digits++
			pos++
		case r == ';' && digits > 0 && utf8.ValidRune(rune(n)):
			return rune(n), pos + 1, true
		default:
			return 0, 0, false
		}
	}
}

// skipLineBreakRun skips a whitespace run only if it contains a line break.
func skipLineBreakRun(rs []rune, i int) int {
	j := i
	broken := false
	for j < len(rs) && unicode.IsSpace(rs[j]) {
		if isLineBreak(rs[j]) {
			broken = true
		}
		j++
	}
	if broken {
		return j
	}
	return i
}

// collapseLineBreaks replaces every whitespace run that contains at least one
// line break with a single space. Runs without a line break are kept as is.
func collapseLineBreaks(v string) string {
	rs := []rune(v)
	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(rs); {
		if !unicode.IsSpace(rs[i]) {
			b.WriteRune(rs[i])
			i++
			continue
		}
		j := i
		broken := false
		for j < len(rs) && unicode.IsSpace(rs[j]) {
			if isLineBreak(rs[j]) {
				broken = true
			}
			j++
		}
		if broken {
			b.WriteByte(' ')
		} else {
			b.WriteString(string(rs[i:j]))
		}
		i = j
	}
	return b.String()
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}
