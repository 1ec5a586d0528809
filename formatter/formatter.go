// Package formatter turns scraped Codeforces statement text into display HTML.
//
// Statement prose carries inline math between $$$ delimiters. Text outside the
// delimiters is HTML-escaped with newlines turned into <br/>; text inside is
// typeset by a MathRenderer. Sample tests get a separate pass that restores
// the input/output labelling lost when the page's <pre> blocks were flattened.
package formatter

import (
	"html"
	"strings"
)

// MathDelimiter bounds inline math in Codeforces statements.
const MathDelimiter = "$$$"

var entityReplacer = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&amp;", "&",
	"&quot;", `"`,
	"&#39;", "'",
	"&nbsp;", " ",
)

var mathSpecialReplacer = strings.NewReplacer(
	"#", `\#`,
	"$", `\$`,
	"~", `\~`,
)

// Formatter renders statements with a configurable math backend.
type Formatter struct {
	math MathRenderer
}

// New returns a Formatter using r for math spans. A nil r selects KaTeX.
func New(r MathRenderer) *Formatter {
	if r == nil {
		r = KatexRenderer{}
	}
	return &Formatter{math: r}
}

var defaultFormatter = New(nil)

// Format renders prose with the default KaTeX backend.
func Format(raw string) string { return defaultFormatter.Format(raw) }

// FormatExamples renders flattened sample tests.
func FormatExamples(raw string) string { return defaultFormatter.FormatExamples(raw) }

type segment struct {
	text string
	math bool
}

// split cuts s into alternating text and math segments. An opening delimiter
// without a matching close leaves the remainder, delimiter included, as text.
func split(s string) []segment {
	var out []segment
	cursor := 0
	for cursor < len(s) {
		start := strings.Index(s[cursor:], MathDelimiter)
		if start < 0 {
			out = append(out, segment{text: s[cursor:]})
			break
		}
		start += cursor
		if start > cursor {
			out = append(out, segment{text: s[cursor:start]})
		}
		end := strings.Index(s[start+len(MathDelimiter):], MathDelimiter)
		if end < 0 {
			out = append(out, segment{text: s[start:]})
			break
		}
		end += start + len(MathDelimiter)
		out = append(out, segment{text: s[start+len(MathDelimiter) : end], math: true})
		cursor = end + len(MathDelimiter)
	}
	return out
}

// prepare undoes entity encoding applied by the page and escapes characters
// the math renderer would otherwise treat as syntax, inside math spans only.
func prepare(raw string) []segment {
	segs := split(entityReplacer.Replace(raw))
	for i := range segs {
		if segs[i].math {
			segs[i].text = mathSpecialReplacer.Replace(segs[i].text)
		}
	}
	return segs
}

// Prepare returns raw with the pre-pass applied and delimiters kept, which is
// the form handed to the math renderer.
func Prepare(raw string) string {
	var b strings.Builder
	for _, seg := range prepare(raw) {
		if seg.math {
			b.WriteString(MathDelimiter + seg.text + MathDelimiter)
			continue
		}
		b.WriteString(seg.text)
	}
	return b.String()
}

// Format renders raw prose. Empty input yields "" rather than an empty wrapper.
func (f *Formatter) Format(raw string) string {
	var body strings.Builder
	for _, seg := range prepare(raw) {
		if seg.math {
			body.WriteString(renderMath(f.math, seg.text))
			continue
		}
		body.WriteString(escapeWithBreaks(seg.text))
	}
	if body.Len() == 0 {
		return ""
	}
	return "<p>" + body.String() + "</p>"
}

const (
	inputMarker  = "input"
	outputMarker = "output"
)

// FormatExamples alternates between the "input" and "output" markers, emitting
// a bold label and a line break for each and escaping the test data between.
func (f *Formatter) FormatExamples(raw string) string {
	var body strings.Builder
	want := inputMarker
	cursor := 0
	for cursor < len(raw) {
		idx := strings.Index(raw[cursor:], want)
		if idx < 0 {
			body.WriteString(escapeWithBreaks(raw[cursor:]))
			break
		}
		body.WriteString(escapeWithBreaks(raw[cursor : cursor+idx]))
		body.WriteString("<b>" + want + "</b><br/>")
		cursor += idx + len(want)
		if strings.HasPrefix(raw[cursor:], "\n") {
			cursor++
		}
		if want == inputMarker {
			want = outputMarker
		} else {
			want = inputMarker
		}
	}
	if body.Len() == 0 {
		return ""
	}
	return "<p>" + body.String() + "</p>"
}

func escapeWithBreaks(s string) string {
	return strings.ReplaceAll(html.EscapeString(s), "\n", "<br/>")
}
