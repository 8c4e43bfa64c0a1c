package formatter

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// Kind is the type of a formatted block or span.
type Kind int

const (
	KindText Kind = iota
	KindBreak
	KindParagraph
	KindBullet
	KindNumbered
	KindHeader
	KindCode
	KindBold
	KindItalic
)

var kindNames = [...]string{
	KindText:      "text",
	KindBreak:     "break",
	KindParagraph: "paragraph",
	KindBullet:    "bullet",
	KindNumbered:  "numbered",
	KindHeader:    "header",
	KindCode:      "code",
	KindBold:      "bold",
	KindItalic:    "italic",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsLine reports whether k is one of the line-level containers.
func (k Kind) IsLine() bool {
	switch k {
	case KindParagraph, KindBullet, KindNumbered, KindHeader:
		return true
	}
	return false
}

// Block is a node of the formatted tree. Text is set on KindText and holds
// unescaped text. Number is set on KindNumbered. Containers hold Children.
type Block struct {
	Kind     Kind
	Text     string
	Number   string
	Children []Block
}

// PlainText concatenates the text of b and its descendants. Breaks become "\n".
func (b Block) PlainText() string {
	var sb strings.Builder
	b.writeText(&sb)
	return sb.String()
}

func (b Block) writeText(sb *strings.Builder) {
	switch b.Kind {
	case KindText:
		sb.WriteString(b.Text)
	case KindBreak:
		sb.WriteByte('\n')
	}
	for _, c := range b.Children {
		c.writeText(sb)
	}
}

// Blocks formats raw and parses the result.
func Blocks(raw string) []Block {
	return Parse(Format(raw))
}

type tagInfo struct {
	kind  Kind
	close bool
	div   bool
}

var tags = map[string]tagInfo{
	openBullet:    {kind: KindBullet, div: true},
	openNumbered:  {kind: KindNumbered, div: true},
	openHeader:    {kind: KindHeader, div: true},
	openParagraph: {kind: KindParagraph, div: true},
	closeDiv:      {close: true, div: true},
	openCode:      {kind: KindCode},
	closeCode:     {kind: KindCode, close: true},
	openBold:      {kind: KindBold},
	closeBold:     {kind: KindBold, close: true},
	openItalic:    {kind: KindItalic},
	closeItalic:   {kind: KindItalic, close: true},
	lineBreak:     {kind: KindBreak},
}

type node struct {
	kind     Kind
	text     string
	children []*node
}

// Parse reads a fragment produced by Format back into a block tree. Tags
// outside the formatter's vocabulary are kept as text. A closing tag closes
// the nearest open element of its kind along with anything opened inside it;
// a closing tag with no open element is dropped.
func Parse(fragment string) []Block {
	root := &node{}
	stack := []*node{root}
	var text strings.Builder

	flush := func() {
		if text.Len() == 0 {
			return
		}
		top := stack[len(stack)-1]
		top.children = append(top.children, &node{kind: KindText, text: html.UnescapeString(text.String())})
		text.Reset()
	}

	for i := 0; i < len(fragment); {
		if fragment[i] != '<' {
			text.WriteByte(fragment[i])
			i++
			continue
		}
		end := strings.IndexByte(fragment[i:], '>')
		if end < 0 {
			text.WriteString(fragment[i:])
			break
		}
		tag := fragment[i : i+end+1]
		info, ok := tags[tag]
		if !ok {
			text.WriteString(tag)
			i += end + 1
			continue
		}
		i += end + 1
		flush()

		top := stack[len(stack)-1]
		switch {
		case info.kind == KindBreak:
			top.children = append(top.children, &node{kind: KindBreak})
		case info.close:
			for j := len(stack) - 1; j > 0; j-- {
				if (info.div && stack[j].kind.IsLine()) || (!info.div && stack[j].kind == info.kind) {
					stack = stack[:j]
					break
				}
			}
		default:
			n := &node{kind: info.kind}
			top.children = append(top.children, n)
			stack = append(stack, n)
		}
	}
	flush()

	return convert(root.children)
}

var numberPrefix = regexp.MustCompile(`^(\d+)\. `)

func convert(nodes []*node) []Block {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]Block, 0, len(nodes))
	for _, n := range nodes {
		b := Block{Kind: n.kind, Text: n.text, Children: convert(n.children)}
		switch n.kind {
		case KindBullet:
			trimLeadingText(&b, bulletGlyph+" ")
		case KindNumbered:
			if len(b.Children) > 0 && b.Children[0].Kind == KindText {
				if m := numberPrefix.FindStringSubmatch(b.Children[0].Text); m != nil {
					b.Number = m[1]
					trimLeadingText(&b, m[0])
				}
			}
		}
		out = append(out, b)
	}
	return out
}

func trimLeadingText(b *Block, prefix string) {
	if len(b.Children) == 0 || b.Children[0].Kind != KindText {
		return
	}
	b.Children[0].Text = strings.TrimPrefix(b.Children[0].Text, prefix)
	if b.Children[0].Text == "" {
		b.Children = b.Children[1:]
	}
}

// Outline renders blocks as an indented tree, one node per line.
func Outline(blocks []Block) string {
	var sb strings.Builder
	writeOutline(&sb, blocks, 0)
	return sb.String()
}

func writeOutline(sb *strings.Builder, blocks []Block, depth int) {
	for _, b := range blocks {
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString(b.Kind.String())
		switch b.Kind {
		case KindText:
			fmt.Fprintf(sb, " %q", b.Text)
		case KindNumbered:
			fmt.Fprintf(sb, " %s", b.Number)
		}
		sb.WriteByte('\n')
		writeOutline(sb, b.Children, depth+1)
	}
}
