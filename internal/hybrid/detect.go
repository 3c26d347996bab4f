package hybrid

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// structuredMinLength is the minimum content size for a pass-through: a
// short fragment gets re-synthesized even when it carries headings.
const structuredMinLength = 1000

// DetectStructure reports whether content is already a markdown-structured
// document: it has both a title heading and at least one section heading,
// and is long enough to stand on its own. Detection walks the markdown
// AST; no extraction happens here.
func DetectStructure(content string) bool {
	if len(content) <= structuredMinLength {
		return false
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader([]byte(content)))

	var hasTitle, hasSection bool
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if heading, ok := n.(*ast.Heading); ok {
			switch heading.Level {
			case 1:
				hasTitle = true
			case 2:
				hasSection = true
			}
			if hasTitle && hasSection {
				return ast.WalkStop, nil
			}
		}
		return ast.WalkContinue, nil
	})

	return hasTitle && hasSection
}
