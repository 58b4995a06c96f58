// Package markdown parses the Markdown subset produced by the code reviewer
// into a structured document and renders it as sanitized HTML.
package markdown

// BlockKind identifies a block-level element.
type BlockKind int

const (
	BlockParagraph BlockKind = iota + 1
	BlockHeading
	BlockCode
	BlockList
	BlockQuote
	BlockRule
)

// InlineKind identifies an inline element.
type InlineKind int

const (
	InlineText InlineKind = iota + 1
	InlineStrong
	InlineEmphasis
	InlineCode
	InlineLink
	InlineBreak
)

// Document is a parsed Markdown document.
type Document struct {
	Blocks []Block
}

// Block is one block-level element. Which fields are set depends on Kind:
// headings use Level and Inlines, paragraphs use Inlines, code blocks use
// Language and Text, lists use Ordered and Items, quotes use Children.
type Block struct {
	Kind     BlockKind
	Level    int
	Inlines  []Inline
	Language string
	Text     string
	Ordered  bool
	Items    []ListItem
	Children []Block
}

// ListItem is one entry of a list. Blocks holds nested lists or code
// blocks that follow the item's text.
type ListItem struct {
	Inlines []Inline
	Blocks  []Block
}

// Inline is one inline element. Text holds the literal text of text and
// code spans; Children holds the content of strong, emphasis and links.
type Inline struct {
	Kind     InlineKind
	Text     string
	URL      string
	Children []Inline
}

// Headings returns the text of every heading, in document order.
func (d Document) Headings() []string {
	var out []string
	for _, b := range d.Blocks {
		if b.Kind == BlockHeading {
			out = append(out, plainText(b.Inlines))
		}
	}
	return out
}

// Empty reports whether the document has no content.
func (d Document) Empty() bool {
	return len(d.Blocks) == 0
}

func plainText(inlines []Inline) string {
	var s string
	for _, in := range inlines {
		switch in.Kind {
		case InlineText, InlineCode:
			s += in.Text
		case InlineBreak:
			s += " "
		default:
			s += plainText(in.Children)
		}
	}
	return s
}
