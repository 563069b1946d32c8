package extract

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// extractMarkdown strips Markdown formatting by walking the parsed AST
// and collecting text content, preserving paragraph breaks so the
// chunker still sees natural boundaries.
func extractMarkdown(data []byte) (string, error) {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(data))

	var b strings.Builder
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(data))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.AutoLink:
			b.Write(node.URL(data))
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			writeBlockBreak(&b)
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(data))
			}
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph, *ast.Heading, *ast.Blockquote, *ast.ListItem, *ast.ThematicBreak:
			writeBlockBreak(&b)
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse markdown: %w", err)
	}

	return strings.TrimSpace(b.String()), nil
}

func writeBlockBreak(b *strings.Builder) {
	if b.Len() > 0 {
		b.WriteString("\n\n")
	}
}
