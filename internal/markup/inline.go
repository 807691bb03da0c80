package markup

import "strings"

type delimiter struct {
	mark  string
	style Style
}

// Longer marks first so "***" wins over "**" and "**" over "*".
var delimiters = []delimiter{
	{"`", Code},
	{"***", Bold | Italic},
	{"___", Bold | Italic},
	{"**", Bold},
	{"__", Bold},
	{"*", Italic},
	{"_", Italic},
}

// ParseInline splits s into styled spans. Unmatched marks stay literal.
func ParseInline(s string) Text {
	return appendInline(nil, s, 0)
}

func appendInline(out Text, s string, base Style) Text {
	var plain strings.Builder
	flush := func() {
		if plain.Len() > 0 {
			out = appendSpan(out, Span{Text: plain.String(), Style: base})
			plain.Reset()
		}
	}

	for i := 0; i < len(s); {
		d, ok := delimiterAt(s, i)
		if !ok {
			plain.WriteByte(s[i])
			i++
			continue
		}

		end := closingIndex(s, i, d)
		if end < 0 && len(d.mark) == 3 {
			d, end = splitTriple(s, i, d)
		}
		if end < 0 {
			plain.WriteString(d.mark)
			i += len(d.mark)
			continue
		}

		flush()
		inner := s[i+len(d.mark) : end]
		if d.style == Code {
			out = appendSpan(out, Span{Text: inner, Style: base | Code})
		} else {
			out = appendInline(out, inner, base|d.style)
		}
		i = end + len(d.mark)
	}
	flush()
	return out
}

func delimiterAt(s string, i int) (delimiter, bool) {
	for _, d := range delimiters {
		if !strings.HasPrefix(s[i:], d.mark) {
			continue
		}
		// Intraword underscores (snake_case) are not emphasis.
		if d.mark[0] == '_' && i > 0 && isWordByte(s[i-1]) {
			return delimiter{}, false
		}
		return d, true
	}
	return delimiter{}, false
}

// closingIndex returns the index of the mark closing the one opened at i,
// or -1. Content must be non-empty and must not begin or end with a space.
func closingIndex(s string, i int, d delimiter) int {
	start := i + len(d.mark)
	if start >= len(s) || s[start] == ' ' {
		return -1
	}

	for j := start + 1; j+len(d.mark) <= len(s); j++ {
		if !strings.HasPrefix(s[j:], d.mark) {
			continue
		}
		if d.style != Code && s[j-1] == ' ' {
			continue
		}
		if len(d.mark) == 1 && d.style != Code {
			// A single mark that is half of a double belongs to the double.
			if s[j-1] == d.mark[0] || (j+1 < len(s) && s[j+1] == d.mark[0]) {
				continue
			}
		}
		if d.mark[0] == '_' && j+len(d.mark) < len(s) && isWordByte(s[j+len(d.mark)]) {
			continue
		}
		return j
	}
	return -1
}

// splitTriple reads an unclosed triple mark as a double wrapping a single,
// as in "***a* b**", or a single wrapping a double, as in "***a** b*".
func splitTriple(s string, i int, d delimiter) (delimiter, int) {
	c := d.mark[:1]
	nested := [2]delimiter{{c + c, Bold}, {c, Italic}}
	for k, outer := range nested {
		end := closingIndex(s, i, outer)
		if end < 0 {
			continue
		}
		inner := nested[1-k]
		body := s[i+len(outer.mark) : end]
		if strings.HasPrefix(body, inner.mark) && closingIndex(body, 0, inner) >= 0 {
			return outer, end
		}
	}
	return d, -1
}

func appendSpan(out Text, sp Span) Text {
	if n := len(out); n > 0 && out[n-1].Style == sp.Style {
		out[n-1].Text += sp.Text
		return out
	}
	return append(out, sp)
}

func isWordByte(c byte) bool {
	return c == '_' ||
		(c >= '0' && c <= '9') ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z')
}
