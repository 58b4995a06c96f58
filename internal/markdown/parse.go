package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// mdParser is goldmark's CommonMark parser without HTML blocks: a line that
// opens with a tag stays a paragraph so its inline markup still renders.
var mdParser = parser.NewParser(
	parser.WithBlockParsers(
		util.Prioritized(parser.NewSetextHeadingParser(), 100),
		util.Prioritized(parser.NewThematicBreakParser(), 200),
		util.Prioritized(parser.NewListParser(), 300),
		util.Prioritized(parser.NewListItemParser(), 400),
		util.Prioritized(parser.NewCodeBlockParser(), 500),
		util.Prioritized(parser.NewATXHeadingParser(), 600),
		util.Prioritized(parser.NewFencedCodeBlockParser(), 700),
		util.Prioritized(parser.NewBlockquoteParser(), 800),
		util.Prioritized(parser.NewParagraphParser(), 1000),
	),
	parser.WithInlineParsers(parser.DefaultInlineParsers()...),
	parser.WithParagraphTransformers(parser.DefaultParagraphTransformers()...),
)

// Parse builds a Document from Markdown source. Parsing never fails;
// constructs outside the supported subset degrade to plain text.
func Parse(src string) Document {
	if strings.TrimSpace(src) == "" {
		return Document{}
	}
	source := []byte(src)
	root := mdParser.Parse(text.NewReader(source))
	return Document{Blocks: blocks(root, source)}
}

func blocks(parent ast.Node, src []byte) []Block {
	var out []Block
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		if b, ok := block(n, src); ok {
			out = append(out, b)
		}
	}
	return out
}

func block(n ast.Node, src []byte) (Block, bool) {
	switch node := n.(type) {
	case *ast.Heading:
		return Block{Kind: BlockHeading, Level: node.Level, Inlines: inlines(node, src)}, true
	case *ast.Paragraph, *ast.TextBlock:
		return Block{Kind: BlockParagraph, Inlines: inlines(node, src)}, true
	case *ast.FencedCodeBlock:
		return Block{Kind: BlockCode, Language: string(node.Language(src)), Text: lines(node, src)}, true
	case *ast.CodeBlock:
		return Block{Kind: BlockCode, Text: lines(node, src)}, true
	case *ast.List:
		return Block{Kind: BlockList, Ordered: node.IsOrdered(), Items: listItems(node, src)}, true
	case *ast.Blockquote:
		return Block{Kind: BlockQuote, Children: blocks(node, src)}, true
	case *ast.ThematicBreak:
		return Block{Kind: BlockRule}, true
	}
	return Block{}, false
}

func listItems(list *ast.List, src []byte) []ListItem {
	var items []ListItem
	for n := list.FirstChild(); n != nil; n = n.NextSibling() {
		var item ListItem
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch c.Kind() {
			case ast.KindParagraph, ast.KindTextBlock:
				if len(item.Inlines) > 0 {
					item.Inlines = append(item.Inlines, Inline{Kind: InlineBreak})
				}
				item.Inlines = append(item.Inlines, inlines(c, src)...)
			default:
				if b, ok := block(c, src); ok {
					item.Blocks = append(item.Blocks, b)
				}
			}
		}
		items = append(items, item)
	}
	return items
}

func inlines(parent ast.Node, src []byte) []Inline {
	var out []Inline
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		out = appendInline(out, n, src)
	}
	return out
}

func appendInline(out []Inline, n ast.Node, src []byte) []Inline {
	switch node := n.(type) {
	case *ast.Text:
		out = appendText(out, string(node.Segment.Value(src)))
		if node.SoftLineBreak() || node.HardLineBreak() {
			out = append(out, Inline{Kind: InlineBreak})
		}
	case *ast.String:
		out = appendText(out, string(node.Value))
	case *ast.CodeSpan:
		out = append(out, Inline{Kind: InlineCode, Text: rawText(node, src)})
	case *ast.Emphasis:
		kind := InlineEmphasis
		if node.Level >= 2 {
			kind = InlineStrong
		}
		out = append(out, Inline{Kind: kind, Children: inlines(node, src)})
	case *ast.Link:
		out = append(out, Inline{Kind: InlineLink, URL: string(node.Destination), Children: inlines(node, src)})
	case *ast.AutoLink:
		url := string(node.URL(src))
		out = append(out, Inline{Kind: InlineLink, URL: url, Children: []Inline{{Kind: InlineText, Text: string(node.Label(src))}}})
	case *ast.Image:
		out = append(out, inlines(node, src)...)
	case *ast.RawHTML:
		var b bytes.Buffer
		for i := 0; i < node.Segments.Len(); i++ {
			seg := node.Segments.At(i)
			b.Write(seg.Value(src))
		}
		out = appendText(out, b.String())
	default:
		out = append(out, inlines(n, src)...)
	}
	return out
}

// appendText merges adjacent text runs.
func appendText(out []Inline, s string) []Inline {
	if s == "" {
		return out
	}
	if last := len(out) - 1; last >= 0 && out[last].Kind == InlineText {
		out[last].Text += s
		return out
	}
	return append(out, Inline{Kind: InlineText, Text: s})
}

func rawText(n ast.Node, src []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(src))
		}
	}
	return b.String()
}

func lines(n ast.Node, src []byte) string {
	var b strings.Builder
	segs := n.Lines()
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		b.Write(seg.Value(src))
	}
	return b.String()
}
