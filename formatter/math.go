package formatter

import (
	"bytes"
	"fmt"
	"html"

	katex "github.com/FurqanSoftware/goldmark-katex"
)

// MathRenderer typesets one inline TeX expression into HTML.
type MathRenderer interface {
	RenderInline(tex string) (string, error)
}

// KatexRenderer runs KaTeX server-side.
type KatexRenderer struct{}

func (KatexRenderer) RenderInline(tex string) (string, error) {
	var buf bytes.Buffer
	if err := katex.Render(&buf, []byte(tex), false); err != nil {
		return "", fmt.Errorf("katex: %w", err)
	}
	return buf.String(), nil
}

// renderMath never fails: a rendering error degrades to the escaped source in
// a katex-error span, the same markup KaTeX emits with throwOnError disabled.
func renderMath(r MathRenderer, tex string) string {
	out, err := r.RenderInline(tex)
	if err == nil {
		return out
	}
	return fmt.Sprintf(`<span class="katex-error" title="%s">%s</span>`,
		html.EscapeString(err.Error()), html.EscapeString(tex))
}
