// Package markup turns assistant replies into structured blocks.
//
// The rules are deliberately small: numbered lines become ordered lists,
// "-" and "*" lines become unordered lists, and everything else is grouped
// into blank-line separated paragraphs. Inline emphasis is kept as span
// styles so renderers can decide how to show it.
package markup

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind identifies the variant of a Block.
type Kind int

const (
	Paragraph Kind = iota
	UnorderedList
	OrderedList
)

func (k Kind) String() string {
	switch k {
	case Paragraph:
		return "paragraph"
	case UnorderedList:
		return "unordered_list"
	case OrderedList:
		return "ordered_list"
	default:
		return "unknown"
	}
}

// Style is a bitmask of inline emphasis applied to a span.
type Style uint8

const (
	Bold Style = 1 << iota
	Italic
	Code
)

// Span is a run of text sharing one style.
type Span struct {
	Text  string
	Style Style
}

// Text is an ordered run of spans.
type Text []Span

// Plain returns the text without any styling.
func (t Text) Plain() string {
	var b strings.Builder
	for _, s := range t {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Block is one rendering unit. Paragraphs use Text; lists use Items.
type Block struct {
	Kind  Kind
	Text  Text
	Items []Text
	Start int // first number of an ordered list
}

// Document is an ordered sequence of blocks.
type Document []Block

// Para builds a single paragraph block from raw text.
func Para(s string) Block {
	return Block{Kind: Paragraph, Text: ParseInline(s)}
}

// Literal builds a paragraph block holding s verbatim, without inline parsing.
func Literal(s string) Block {
	return Block{Kind: Paragraph, Text: Text{{Text: s}}}
}

// PlainText renders the document back to unstyled text, one blank line
// between blocks.
func (d Document) PlainText() string {
	parts := make([]string, 0, len(d))
	for _, blk := range d {
		switch blk.Kind {
		case Paragraph:
			parts = append(parts, blk.Text.Plain())
		case UnorderedList:
			lines := make([]string, len(blk.Items))
			for i, item := range blk.Items {
				lines[i] = "- " + item.Plain()
			}
			parts = append(parts, strings.Join(lines, "\n"))
		case OrderedList:
			lines := make([]string, len(blk.Items))
			for i, item := range blk.Items {
				lines[i] = strconv.Itoa(blk.Start+i) + ". " + item.Plain()
			}
			parts = append(parts, strings.Join(lines, "\n"))
		}
	}
	return strings.Join(parts, "\n\n")
}

var (
	// Nine digits keeps Start+i well inside int range.
	orderedPattern = regexp.MustCompile(`^(\d{1,9})[.)]\s+(.*)$`)
	bulletPattern  = regexp.MustCompile(`^[-*]\s+(.*)$`)
)

// Parse segments marked-up text into blocks.
func Parse(s string) Document {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var p parser
	for _, line := range strings.Split(s, "\n") {
		p.line(strings.TrimSpace(line))
	}
	p.closeParagraph()
	p.closeList()
	return p.doc
}

type parser struct {
	doc  Document
	para []string
	list *Block
}

func (p *parser) line(line string) {
	if line == "" {
		p.closeParagraph()
		p.closeList()
		return
	}

	if m := orderedPattern.FindStringSubmatch(line); m != nil {
		p.closeParagraph()
		if p.list == nil || p.list.Kind != OrderedList {
			p.closeList()
			start, err := strconv.Atoi(m[1])
			if err != nil {
				start = 1
			}
			p.list = &Block{Kind: OrderedList, Start: start}
		}
		p.list.Items = append(p.list.Items, ParseInline(m[2]))
		return
	}

	if m := bulletPattern.FindStringSubmatch(line); m != nil {
		p.closeParagraph()
		if p.list == nil || p.list.Kind != UnorderedList {
			p.closeList()
			p.list = &Block{Kind: UnorderedList}
		}
		p.list.Items = append(p.list.Items, ParseInline(m[1]))
		return
	}

	p.closeList()
	p.para = append(p.para, line)
}

func (p *parser) closeParagraph() {
	if len(p.para) == 0 {
		return
	}
	p.doc = append(p.doc, Para(strings.Join(p.para, "\n")))
	p.para = nil
}

func (p *parser) closeList() {
	if p.list == nil {
		return
	}
	p.doc = append(p.doc, *p.list)
	p.list = nil
}
