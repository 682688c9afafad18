// Markdown body parsing: title extraction (§4.2) and section-based
// condensation (§4.7 step 5). Grounded on the heading-walk technique in
// viant-agently's genai/io/extractor/parser.go — goldmark's AST is walked
// once, collecting each heading's title, level and raw source span.
package formctx

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmext "github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var condensedSections = []string{
	"Tool Calls",
	"Form Overview",
	"Field Summary",
	"Conditional Logic",
	"Chat Agent Instructions",
}

const condenseLineThreshold = 150

var markdownParser = goldmark.New(
	goldmark.WithExtensions(gmext.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

// section is one heading (any level) and the raw markdown text under it (up to
// the next heading of the same or shallower level).
type section struct {
	title string
	body  string
}

// ExtractTitle returns the text of the first top-level (H1) heading in the
// markdown body, or "" if none is found.
func ExtractTitle(formContextMD string) string {
	body := bodyAfterFrontmatter(formContextMD)
	src := []byte(body)
	doc := markdownParser.Parser().Parse(text.NewReader(src))

	var title string
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok && h.Level == 1 && title == "" {
			title = extractPlainText(h, src)
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(title)
}

// Condense returns the form reference data block for the conversation
// prompt (§4.7 step 5): the named sections if the document is long and
// they can be found, else a deterministic head/tail slice.
func Condense(formContextMD string) string {
	body := bodyAfterFrontmatter(formContextMD)
	lines := strings.Split(body, "\n")
	if len(lines) <= condenseLineThreshold {
		return body
	}

	sections := extractSections(body)
	wanted := make([]string, 0, len(condensedSections))
	for _, name := range condensedSections {
		for _, s := range sections {
			if strings.EqualFold(strings.TrimSpace(s.title), name) {
				wanted = append(wanted, "## "+s.title+"\n"+strings.TrimSpace(s.body))
				break
			}
		}
	}
	if len(wanted) > 0 {
		return strings.Join(wanted, "\n\n")
	}

	// Fallback: first 50 and last 100 lines, deterministic.
	head := lines
	if len(head) > 50 {
		head = head[:50]
	}
	tail := lines
	if len(tail) > 100 {
		tail = tail[len(tail)-100:]
	}
	return strings.Join(head, "\n") + "\n...\n" + strings.Join(tail, "\n")
}

// extractSections walks every heading, at any level, and captures its
// title plus the raw source text spanning to the next heading at the same
// or a shallower level.
func extractSections(body string) []section {
	src := []byte(body)
	doc := markdownParser.Parser().Parse(text.NewReader(src))

	type span struct {
		title string
		start int
		level int
	}
	var spans []span

	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok {
			lines := h.Lines()
			start := len(src)
			if lines.Len() > 0 {
				start = lines.At(0).Start
			}
			spans = append(spans, span{
				title: extractPlainText(h, src),
				start: start,
				level: h.Level,
			})
		}
		return ast.WalkContinue, nil
	})

	sections := make([]section, 0, len(spans))
	for i, sp := range spans {
		end := len(src)
		for j := i + 1; j < len(spans); j++ {
			if spans[j].level <= sp.level {
				end = spans[j].start
				break
			}
		}
		bodyStart := sp.start
		// Skip past the heading's own line.
		if nl := strings.IndexByte(string(src[bodyStart:end]), '\n'); nl != -1 {
			bodyStart += nl + 1
		}
		if bodyStart > end {
			bodyStart = end
		}
		sections = append(sections, section{
			title: sp.title,
			body:  string(src[bodyStart:end]),
		})
	}

	return sections
}

func extractPlainText(n ast.Node, source []byte) string {
	var buf strings.Builder
	ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := child.(*ast.Text); ok {
				buf.Write(t.Segment.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}
