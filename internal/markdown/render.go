package markdown

import (
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/microcosm-cc/bluemonday"
)

var htmlSanitizer = bluemonday.UGCPolicy()

// HTML renders the document and sanitizes the result.
func (d Document) HTML() string {
	if d.Empty() {
		return ""
	}
	var b strings.Builder
	writeBlocks(&b, d.Blocks)
	return htmlSanitizer.Sanitize(b.String())
}

// Render parses src and returns sanitized HTML. Returns "" for blank input.
func Render(src string) string {
	return Parse(src).HTML()
}

func writeBlocks(b *strings.Builder, blocks []Block) {
	for _, blk := range blocks {
		writeBlock(b, blk)
	}
}

func writeBlock(b *strings.Builder, blk Block) {
	switch blk.Kind {
	case BlockHeading:
		level := strconv.Itoa(min(max(blk.Level, 1), 6))
		b.WriteString("<h" + level + ">")
		writeInlines(b, blk.Inlines)
		b.WriteString("</h" + level + ">\n")
	case BlockParagraph:
		b.WriteString("<p>")
		writeInlines(b, blk.Inlines)
		b.WriteString("</p>\n")
	case BlockCode:
		b.WriteString("<pre><code")
		if blk.Language != "" {
			b.WriteString(` class="language-` + templ.EscapeString(blk.Language) + `"`)
		}
		b.WriteString(">")
		b.WriteString(templ.EscapeString(blk.Text))
		b.WriteString("</code></pre>\n")
	case BlockList:
		tag := "ul"
		if blk.Ordered {
			tag = "ol"
		}
		b.WriteString("<" + tag + ">\n")
		for _, item := range blk.Items {
			b.WriteString("<li>")
			writeInlines(b, item.Inlines)
			writeBlocks(b, item.Blocks)
			b.WriteString("</li>\n")
		}
		b.WriteString("</" + tag + ">\n")
	case BlockQuote:
		b.WriteString("<blockquote>\n")
		writeBlocks(b, blk.Children)
		b.WriteString("</blockquote>\n")
	case BlockRule:
		b.WriteString("<hr>\n")
	}
}

func writeInlines(b *strings.Builder, inlines []Inline) {
	for _, in := range inlines {
		switch in.Kind {
		case InlineText:
			b.WriteString(templ.EscapeString(in.Text))
		case InlineCode:
			b.WriteString("<code>" + templ.EscapeString(in.Text) + "</code>")
		case InlineStrong:
			b.WriteString("<strong>")
			writeInlines(b, in.Children)
			b.WriteString("</strong>")
		case InlineEmphasis:
			b.WriteString("<em>")
			writeInlines(b, in.Children)
			b.WriteString("</em>")
		case InlineLink:
			b.WriteString(`<a href="` + templ.EscapeString(in.URL) + `">`)
			writeInlines(b, in.Children)
			b.WriteString("</a>")
		case InlineBreak:
			b.WriteString("<br>")
		}
	}
}
